package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"conciliacao/models"
)

// SaleService implements the sale workflow: status transitions, field and
// value edits, and the period-scoped listing that feeds the reconciliation
// screens. Every state change appends exactly one audit entry.
type SaleService struct {
	db    *gorm.DB
	audit Auditor
}

func NewSaleService(db *gorm.DB, audit Auditor) *SaleService {
	return &SaleService{db: db, audit: audit}
}

// SaleInput is the shape accepted when a seller registers a sale.
type SaleInput struct {
	SellerID     uint            `json:"vendedor_id" validate:"required"`
	CompanyID    *uint           `json:"empresa_id"`
	CarrierID    *uint           `json:"operadora_id"`
	Protocol     string          `json:"protocolo" validate:"required"`
	TaxID        string          `json:"cpf_cnpj" validate:"required"`
	CustomerName string          `json:"cliente" validate:"required"`
	Phone        string          `json:"telefone"`
	Value        decimal.Decimal `json:"valor"`
	SaleDate     time.Time       `json:"data_venda"`
	Notes        string          `json:"observacoes"`
}

// CreateSale registers a new sale in the initial status. Creation itself is
// not a transition, so no audit entry is emitted.
func (s *SaleService) CreateSale(ctx context.Context, input SaleInput) (*models.SaleRecord, error) {
	if input.SaleDate.IsZero() {
		input.SaleDate = time.Now().In(businessLocation)
	}

	sale := models.SaleRecord{
		SellerID:       input.SellerID,
		CompanyID:      input.CompanyID,
		CarrierID:      input.CarrierID,
		Protocol:       input.Protocol,
		TaxID:          input.TaxID,
		CustomerName:   input.CustomerName,
		Phone:          input.Phone,
		Value:          input.Value,
		SaleDate:       input.SaleDate,
		InternalStatus: models.InternalStatusNew,
		Notes:          input.Notes,
	}

	if err := s.db.WithContext(ctx).Create(&sale).Error; err != nil {
		return nil, &StoreError{Op: "create sale", Err: err}
	}
	return &sale, nil
}

func (s *SaleService) loadSale(ctx context.Context, saleID uint) (*models.SaleRecord, error) {
	var sale models.SaleRecord
	if err := s.db.WithContext(ctx).First(&sale, saleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("sale record %d not found", saleID)
		}
		return nil, &StoreError{Op: "load sale", Err: err}
	}
	return &sale, nil
}

// setInternalStatus persists the new status and appends one audit entry with
// the given action.
func (s *SaleService) setInternalStatus(ctx context.Context, sale *models.SaleRecord, next models.InternalStatus, action models.AuditAction, actor Actor) error {
	prior := sale.InternalStatus
	sale.InternalStatus = next

	if err := s.db.WithContext(ctx).Model(sale).Update("internal_status", next).Error; err != nil {
		return &StoreError{Op: "update status", Err: err}
	}

	field := "status_interno"
	s.audit.Append(ctx, AuditEntryInput{
		SaleID:     sale.ID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     action,
		Field:      &field,
		PriorValue: string(prior),
		NewValue:   string(next),
		Origin:     actor.Origin,
	})
	return nil
}

// ChangeInternalStatus applies a forward transition validated against the
// state machine and records it as MUDAR_STATUS_INTERNO.
func (s *SaleService) ChangeInternalStatus(ctx context.Context, saleID uint, next models.InternalStatus, actor Actor) (*models.SaleRecord, error) {
	if !next.IsValid() {
		return nil, NewValidationError("invalid internal status: %s", next)
	}

	sale, err := s.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if !sale.InternalStatus.CanTransitionTo(next) {
		return nil, NewValidationError("transition %s -> %s is not allowed", sale.InternalStatus, next)
	}

	if err := s.setInternalStatus(ctx, sale, next, models.AuditActionInternalStatus, actor); err != nil {
		return nil, err
	}
	return sale, nil
}

// ConfirmSale moves an awaiting sale to confirmed, recorded as CONFIRMAR.
func (s *SaleService) ConfirmSale(ctx context.Context, saleID uint, actor Actor) (*models.SaleRecord, error) {
	sale, err := s.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.InternalStatus != models.InternalStatusAwaiting {
		return nil, NewValidationError("only awaiting sales can be confirmed, current status is %s", sale.InternalStatus)
	}
	if err := s.setInternalStatus(ctx, sale, models.InternalStatusConfirmed, models.AuditActionConfirm, actor); err != nil {
		return nil, err
	}
	return sale, nil
}

// ReverseSale (estorno) puts a confirmed sale back to awaiting, recorded as
// ESTORNAR. This is a corrective action outside the forward state machine.
func (s *SaleService) ReverseSale(ctx context.Context, saleID uint, actor Actor) (*models.SaleRecord, error) {
	sale, err := s.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.InternalStatus != models.InternalStatusConfirmed {
		return nil, NewValidationError("only confirmed sales can be reversed, current status is %s", sale.InternalStatus)
	}
	if err := s.setInternalStatus(ctx, sale, models.InternalStatusAwaiting, models.AuditActionReverse, actor); err != nil {
		return nil, err
	}
	return sale, nil
}

// ReopenDispute reopens a settled dispute, recorded as REABRIR_CONTESTACAO.
func (s *SaleService) ReopenDispute(ctx context.Context, saleID uint, actor Actor) (*models.SaleRecord, error) {
	sale, err := s.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.InternalStatus != models.InternalStatusDisputeUpheld && sale.InternalStatus != models.InternalStatusDisputeRejected {
		return nil, NewValidationError("only settled disputes can be reopened, current status is %s", sale.InternalStatus)
	}
	if err := s.setInternalStatus(ctx, sale, models.InternalStatusDisputeSent, models.AuditActionReopenDispute, actor); err != nil {
		return nil, err
	}
	return sale, nil
}

// ChangeCarrierStatus updates the status the carrier reports for a line and
// records MUDAR_STATUS_MAKE against the sale supplied by the caller (the
// carrier row alone does not identify a sale when unlinked).
func (s *SaleService) ChangeCarrierStatus(ctx context.Context, saleID uint, carrierID uint, next models.CarrierStatus, actor Actor) (*models.CarrierRecord, error) {
	if !next.IsValid() {
		return nil, NewValidationError("invalid carrier status: %s", next)
	}

	if _, err := s.loadSale(ctx, saleID); err != nil {
		return nil, err
	}

	var carrier models.CarrierRecord
	if err := s.db.WithContext(ctx).First(&carrier, carrierID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("carrier record %d not found", carrierID)
		}
		return nil, &StoreError{Op: "load carrier record", Err: err}
	}

	prior := carrier.CarrierStatus
	carrier.CarrierStatus = next
	if err := s.db.WithContext(ctx).Model(&carrier).Update("carrier_status", next).Error; err != nil {
		return nil, &StoreError{Op: "update carrier status", Err: err}
	}

	field := "status_operadora"
	s.audit.Append(ctx, AuditEntryInput{
		SaleID:     saleID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     models.AuditActionCarrierStatus,
		Field:      &field,
		PriorValue: string(prior),
		NewValue:   string(next),
		Origin:     actor.Origin,
		Metadata:   map[string]any{"linha_id": carrierID},
	})

	return &carrier, nil
}

// editableFields maps the fields a supervisor may edit to their columns.
var editableFields = map[string]string{
	"cliente":     "customer_name",
	"telefone":    "phone",
	"cpf_cnpj":    "tax_id",
	"protocolo":   "protocol",
	"observacoes": "notes",
}

// EditField applies a whitelisted field-level edit, recorded as EDITAR_CAMPO
// with the before/after values.
func (s *SaleService) EditField(ctx context.Context, saleID uint, fieldName string, value string, actor Actor) (*models.SaleRecord, error) {
	column, ok := editableFields[fieldName]
	if !ok {
		return nil, NewValidationError("field %q is not editable", fieldName)
	}

	sale, err := s.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	var prior string
	switch column {
	case "customer_name":
		prior, sale.CustomerName = sale.CustomerName, value
	case "phone":
		prior, sale.Phone = sale.Phone, value
	case "tax_id":
		prior, sale.TaxID = sale.TaxID, value
	case "protocol":
		prior, sale.Protocol = sale.Protocol, value
	case "notes":
		prior, sale.Notes = sale.Notes, value
	}

	if err := s.db.WithContext(ctx).Model(sale).Update(column, value).Error; err != nil {
		return nil, &StoreError{Op: "edit field", Err: err}
	}

	s.audit.Append(ctx, AuditEntryInput{
		SaleID:     saleID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     models.AuditActionEditField,
		Field:      &fieldName,
		PriorValue: prior,
		NewValue:   value,
		Origin:     actor.Origin,
	})

	return sale, nil
}

// ChangeValue updates the monetary value of a sale, recorded as ALTERAR_VALOR.
func (s *SaleService) ChangeValue(ctx context.Context, saleID uint, value decimal.Decimal, actor Actor) (*models.SaleRecord, error) {
	if value.IsNegative() {
		return nil, NewValidationError("value must not be negative")
	}

	sale, err := s.loadSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	prior := sale.Value
	sale.Value = value
	if err := s.db.WithContext(ctx).Model(sale).Update("value", value).Error; err != nil {
		return nil, &StoreError{Op: "update value", Err: err}
	}

	field := "valor"
	s.audit.Append(ctx, AuditEntryInput{
		SaleID:     saleID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     models.AuditActionChangeValue,
		Field:      &field,
		PriorValue: prior.String(),
		NewValue:   value.String(),
		Origin:     actor.Origin,
	})

	return sale, nil
}

// SalePage is one page of the sale listing.
type SalePage struct {
	Items []models.SaleRecord `json:"items"`
	Total int64               `json:"total"`
}

// ListSales returns a filtered, paginated sale listing. When a period preset
// is given the period calculator scopes sale_date to the resolved window;
// now is the instant the preset is evaluated against.
func (s *SaleService) ListSales(ctx context.Context, q models.SaleRecordQuery, now time.Time) (*SalePage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}

	db := s.db.WithContext(ctx).Model(&models.SaleRecord{})

	if q.SellerID != 0 {
		db = db.Where("seller_id = ?", q.SellerID)
	}
	if q.InternalStatus != "" {
		if !q.InternalStatus.IsValid() {
			return nil, NewValidationError("invalid internal status: %s", q.InternalStatus)
		}
		db = db.Where("internal_status = ?", q.InternalStatus)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("LOWER(protocol) LIKE ? OR LOWER(tax_id) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(phone) LIKE ?",
			pattern, pattern, pattern, pattern)
	}

	if q.Period != "" {
		var custom *PeriodWindow
		if PeriodPreset(q.Period) == PeriodCustom {
			start, err := time.ParseInLocation("2006-01-02", q.Start, businessLocation)
			if err != nil {
				return nil, NewValidationError("invalid custom period start: %s", q.Start)
			}
			end, err := time.ParseInLocation("2006-01-02", q.End, businessLocation)
			if err != nil {
				return nil, NewValidationError("invalid custom period end: %s", q.End)
			}
			custom = &PeriodWindow{Start: start, End: end}
		}

		window, err := ResolvePeriod(PeriodPreset(q.Period), now, custom)
		if err != nil {
			return nil, err
		}
		// The window is a closed day interval; include the whole end day.
		db = db.Where("sale_date >= ? AND sale_date < ?", window.Start, window.End.AddDate(0, 0, 1))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, &StoreError{Op: "count sales", Err: err}
	}

	var items []models.SaleRecord
	offset := (q.Page - 1) * q.PageSize
	if err := db.Order("sale_date DESC, id DESC").Offset(offset).Limit(q.PageSize).Find(&items).Error; err != nil {
		return nil, &StoreError{Op: "list sales", Err: err}
	}

	return &SalePage{Items: items, Total: total}, nil
}
