package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"conciliacao/models"
	"conciliacao/utils"
)

// Actor identifies who performed a mutation. Nil ID/Name means the change
// was system-originated.
type Actor struct {
	ID     *uint
	Name   *string
	Origin models.AuditOrigin
}

// AuditEntryInput is the write-side shape of an audit entry. PriorValue and
// NewValue accept any value (nil, primitive or nested structure); they are
// serialized losslessly before persisting.
type AuditEntryInput struct {
	SaleID     uint
	UserID     *uint
	UserName   *string
	Action     models.AuditAction
	Field      *string
	PriorValue any
	NewValue   any
	Origin     models.AuditOrigin
	Metadata   map[string]any
}

// AuditPage is one page of a sale's audit trail. Total is the full matching
// count regardless of the pagination window.
type AuditPage struct {
	Items []models.AuditLogEntry `json:"items"`
	Total int64                  `json:"total"`
}

// Auditor is the write-side contract the mutation services depend on.
// Implementations are best-effort: appends must never fail the mutation
// they accompany.
type Auditor interface {
	Append(ctx context.Context, input AuditEntryInput)
	AppendBatch(ctx context.Context, inputs []AuditEntryInput)
}

// AuditService is the durable, append-only store of every sale mutation.
type AuditService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db, logger: utils.GetLogger()}
}

// serializeValue turns an arbitrary value into JSON text. A nil input maps
// to a NULL column, which is distinct from the JSON "null" literal and
// renders as a dash.
func serializeValue(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := utils.MarshalToJSON(v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func buildEntry(input AuditEntryInput) (*models.AuditLogEntry, error) {
	prior, err := serializeValue(input.PriorValue)
	if err != nil {
		return nil, err
	}
	newVal, err := serializeValue(input.NewValue)
	if err != nil {
		return nil, err
	}

	var metadata *string
	if len(input.Metadata) > 0 {
		metadata, err = serializeValue(input.Metadata)
		if err != nil {
			return nil, err
		}
	}

	origin := input.Origin
	if origin == "" {
		origin = models.AuditOriginUI
	}

	return &models.AuditLogEntry{
		SaleID:     input.SaleID,
		UserID:     input.UserID,
		UserName:   input.UserName,
		Action:     input.Action,
		Field:      input.Field,
		PriorValue: prior,
		NewValue:   newVal,
		Origin:     origin,
		Metadata:   metadata,
	}, nil
}

// Append persists one audit entry. Failures never reach the caller's control
// flow: auditing must not block the primary mutation it accompanies, so a
// failed append is reported on the operational log channel and swallowed.
func (s *AuditService) Append(ctx context.Context, input AuditEntryInput) {
	entry, err := buildEntry(input)
	if err != nil {
		utils.LogError(s.logger, "audit", "Append", "serialize entry", input.Action, err)
		return
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		utils.LogError(s.logger, "audit", "Append", "persist entry", input.Action, err)
	}
}

// AppendBatch persists an ordered sequence of entries in one write. An empty
// input is a no-op. Same best-effort contract as Append.
func (s *AuditService) AppendBatch(ctx context.Context, inputs []AuditEntryInput) {
	if len(inputs) == 0 {
		return
	}

	entries := make([]models.AuditLogEntry, 0, len(inputs))
	for _, input := range inputs {
		entry, err := buildEntry(input)
		if err != nil {
			utils.LogError(s.logger, "audit", "AppendBatch", "serialize entry", input.Action, err)
			return
		}
		entries = append(entries, *entry)
	}

	if err := s.db.WithContext(ctx).Create(&entries).Error; err != nil {
		utils.LogError(s.logger, "audit", "AppendBatch", "persist batch", len(entries), err)
	}
}

// Query returns one page of a sale's audit trail, most recent first, with
// insertion order breaking timestamp ties. Pages are 1-based; a page beyond
// the last returns empty items with the same total.
func (s *AuditService) Query(ctx context.Context, saleID uint, page int, pageSize int) (*AuditPage, error) {
	if saleID == 0 {
		return nil, NewValidationError("sale id is required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	base := s.db.WithContext(ctx).Model(&models.AuditLogEntry{}).Where("sale_id = ?", saleID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, &StoreError{Op: "audit count", Err: err}
	}

	var items []models.AuditLogEntry
	offset := (page - 1) * pageSize
	err := base.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&items).Error
	if err != nil {
		return nil, &StoreError{Op: "audit query", Err: err}
	}

	return &AuditPage{Items: items, Total: total}, nil
}
