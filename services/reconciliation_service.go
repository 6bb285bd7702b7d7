package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"conciliacao/models"
)

// Anchor types accepted by candidate search.
const (
	AnchorSale    = "sale"
	AnchorCarrier = "carrier"
)

const candidateLimit = 20

// CandidateSummary is one row of a candidate search result: a record of the
// opposite type that loosely matches the query.
type CandidateSummary struct {
	RecordType      string          `json:"tipo"`
	ID              uint            `json:"id"`
	Protocol        string          `json:"protocolo"`
	TaxID           string          `json:"cpf_cnpj"`
	CustomerName    string          `json:"cliente"`
	Phone           string          `json:"telefone"`
	Value           decimal.Decimal `json:"valor"`
	Status          string          `json:"status"`
	CarrierName     string          `json:"operadora,omitempty"`
	ReferencePeriod string          `json:"quinzena,omitempty"`
}

// LinkPair is one (sale, carrier) pair in a batch reconcile request.
type LinkPair struct {
	SaleID    uint   `json:"venda_id"`
	CarrierID uint   `json:"linha_id"`
	Note      string `json:"observacao"`
}

// BatchLinkResult reports the outcome for one pair of a batch.
type BatchLinkResult struct {
	SaleID    uint   `json:"venda_id"`
	CarrierID uint   `json:"linha_id"`
	LinkID    uint   `json:"vinculo_id,omitempty"`
	Error     string `json:"erro,omitempty"`
}

// ReconciliationService mediates creation and removal of links between sale
// and carrier records, with uniqueness and audit guarantees.
type ReconciliationService struct {
	db    *gorm.DB
	audit Auditor
}

func NewReconciliationService(db *gorm.DB, audit Auditor) *ReconciliationService {
	return &ReconciliationService{db: db, audit: audit}
}

// SearchCandidates returns up to 20 records of the opposite type whose
// protocol, tax id, customer name or phone contains the query,
// case-insensitively. Each call re-queries the store; no cursor state is
// kept. An empty query is rejected before any store access.
func (s *ReconciliationService) SearchCandidates(ctx context.Context, anchorType string, anchorID uint, query string) ([]CandidateSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError("search query must not be empty")
	}
	if anchorType != AnchorSale && anchorType != AnchorCarrier {
		return nil, NewValidationError("anchor type must be %q or %q", AnchorSale, AnchorCarrier)
	}

	pattern := "%" + strings.ToLower(query) + "%"
	match := "LOWER(protocol) LIKE ? OR LOWER(tax_id) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(phone) LIKE ?"

	results := make([]CandidateSummary, 0, candidateLimit)

	if anchorType == AnchorSale {
		var rows []models.CarrierRecord
		err := s.db.WithContext(ctx).
			Where(match, pattern, pattern, pattern, pattern).
			Limit(candidateLimit).
			Find(&rows).Error
		if err != nil {
			return nil, &StoreError{Op: "candidate search", Err: err}
		}
		for _, r := range rows {
			results = append(results, CandidateSummary{
				RecordType:      AnchorCarrier,
				ID:              r.ID,
				Protocol:        r.Protocol,
				TaxID:           r.TaxID,
				CustomerName:    r.CustomerName,
				Phone:           r.Phone,
				Value:           r.EffectiveValue(),
				Status:          string(r.CarrierStatus),
				CarrierName:     r.CarrierName,
				ReferencePeriod: r.ReferencePeriod,
			})
		}
		return results, nil
	}

	var rows []models.SaleRecord
	err := s.db.WithContext(ctx).
		Where(match, pattern, pattern, pattern, pattern).
		Limit(candidateLimit).
		Find(&rows).Error
	if err != nil {
		return nil, &StoreError{Op: "candidate search", Err: err}
	}
	for _, r := range rows {
		results = append(results, CandidateSummary{
			RecordType:   AnchorSale,
			ID:           r.ID,
			Protocol:     r.Protocol,
			TaxID:        r.TaxID,
			CustomerName: r.CustomerName,
			Phone:        r.Phone,
			Value:        r.Value,
			Status:       string(r.InternalStatus),
		})
	}
	return results, nil
}

// createLink validates both ends and inserts the reconciled link. The
// pre-check gives a friendly ConflictError in the common case; the unique
// index on the pair key is the hard guarantee when two callers race, turning
// the loser's insert into a duplicate-key error.
func (s *ReconciliationService) createLink(ctx context.Context, saleID uint, carrierID uint, actor Actor, note string) (*models.ReconciliationLink, error) {
	var sale models.SaleRecord
	if err := s.db.WithContext(ctx).First(&sale, saleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("sale record %d not found", saleID)
		}
		return nil, &StoreError{Op: "load sale", Err: err}
	}

	var carrier models.CarrierRecord
	if err := s.db.WithContext(ctx).First(&carrier, carrierID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("carrier record %d not found", carrierID)
		}
		return nil, &StoreError{Op: "load carrier record", Err: err}
	}

	var existing models.ReconciliationLink
	err := s.db.WithContext(ctx).
		Where("final_status = ? AND (sale_record_id = ? OR carrier_record_id = ?)",
			models.LinkStatusReconciled, saleID, carrierID).
		First(&existing).Error
	if err == nil {
		return nil, &ConflictError{Msg: "record already reconciled"}
	}
	if err != gorm.ErrRecordNotFound {
		return nil, &StoreError{Op: "check existing link", Err: err}
	}

	now := time.Now()
	var notePtr *string
	if note != "" {
		notePtr = &note
	}
	link := models.ReconciliationLink{
		SaleRecordID:    saleID,
		CarrierRecordID: carrierID,
		MatchType:       models.MatchTypeManual,
		Score:           100,
		FinalStatus:     models.LinkStatusReconciled,
		ValidatedBy:     actor.ID,
		ValidatedAt:     &now,
		Note:            notePtr,
	}

	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, &ConflictError{Msg: "record already reconciled"}
		}
		return nil, &StoreError{Op: "create link", Err: err}
	}

	return &link, nil
}

// CreateManualLink links a sale to a carrier record (manual match, score
// 100) and appends one CONCILIAR audit entry. The audit append is
// best-effort: a link change is never rolled back because of audit plumbing,
// so a failed append leaves the link standing and is reported only on the
// operational log channel.
func (s *ReconciliationService) CreateManualLink(ctx context.Context, saleID uint, carrierID uint, actor Actor, note string) (*models.ReconciliationLink, error) {
	link, err := s.createLink(ctx, saleID, carrierID, actor, note)
	if err != nil {
		return nil, err
	}

	field := "vinculo_manual"
	s.audit.Append(ctx, AuditEntryInput{
		SaleID:     saleID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     models.AuditActionReconcile,
		Field:      &field,
		PriorValue: nil,
		NewValue: map[string]any{
			"linha_id":   carrierID,
			"observacao": note,
		},
		Origin: actor.Origin,
	})

	return link, nil
}

// ReconcileBatch applies CreateManualLink semantics to each pair, skipping
// conflicts, and appends the audit entries for all successful pairs in a
// single batch write with action CONCILIAR_LOTE.
func (s *ReconciliationService) ReconcileBatch(ctx context.Context, pairs []LinkPair, actor Actor) ([]BatchLinkResult, error) {
	if len(pairs) == 0 {
		return nil, NewValidationError("batch must contain at least one pair")
	}

	results := make([]BatchLinkResult, 0, len(pairs))
	audits := make([]AuditEntryInput, 0, len(pairs))
	field := "vinculo_manual"

	for _, pair := range pairs {
		result := BatchLinkResult{SaleID: pair.SaleID, CarrierID: pair.CarrierID}

		link, err := s.createLink(ctx, pair.SaleID, pair.CarrierID, actor, pair.Note)
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.LinkID = link.ID
		results = append(results, result)

		audits = append(audits, AuditEntryInput{
			SaleID:   pair.SaleID,
			UserID:   actor.ID,
			UserName: actor.Name,
			Action:   models.AuditActionReconcileBatch,
			Field:    &field,
			NewValue: map[string]any{
				"linha_id":   pair.CarrierID,
				"observacao": pair.Note,
			},
			Origin:   actor.Origin,
			Metadata: map[string]any{"tamanho_lote": len(pairs)},
		})
	}

	s.audit.AppendBatch(ctx, audits)
	return results, nil
}

// RemoveLink demotes a reconciled link to divergent or not-found, freeing
// the pair for a new link, and appends a DESCONCILIAR entry capturing the
// before/after status.
func (s *ReconciliationService) RemoveLink(ctx context.Context, linkID uint, actor Actor, newStatus models.LinkFinalStatus) error {
	if newStatus == "" {
		newStatus = models.LinkStatusDivergent
	}
	if !newStatus.IsValid() || newStatus == models.LinkStatusReconciled {
		return NewValidationError("invalid target status: %s", newStatus)
	}

	var link models.ReconciliationLink
	if err := s.db.WithContext(ctx).First(&link, linkID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return NewValidationError("link %d not found", linkID)
		}
		return &StoreError{Op: "load link", Err: err}
	}

	if link.FinalStatus != models.LinkStatusReconciled {
		return NewValidationError("link %d is not reconciled", linkID)
	}

	prior := link.FinalStatus
	link.FinalStatus = newStatus

	// Save runs BeforeSave, which clears the uniqueness keys.
	if err := s.db.WithContext(ctx).Save(&link).Error; err != nil {
		return &StoreError{Op: "demote link", Err: err}
	}

	field := "status_final"
	s.audit.Append(ctx, AuditEntryInput{
		SaleID:     link.SaleRecordID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		Action:     models.AuditActionUnreconcile,
		Field:      &field,
		PriorValue: string(prior),
		NewValue:   string(newStatus),
		Origin:     actor.Origin,
		Metadata:   map[string]any{"linha_id": link.CarrierRecordID},
	})

	return nil
}
