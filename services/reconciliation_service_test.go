package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conciliacao/models"
)

func TestSearchCandidatesEmptyQueryHitsNoStore(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))

	// Close the underlying connection: if the empty query reached the
	// store this call would fail with a store error instead.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.SearchCandidates(context.Background(), AnchorSale, 1, "   ")
	assert.True(t, IsValidation(err))
}

func TestSearchCandidatesInvalidAnchor(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))

	_, err := svc.SearchCandidates(context.Background(), "invoice", 1, "maria")
	assert.True(t, IsValidation(err))
}

func TestSearchCandidatesMatchesAcrossFields(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))
	ctx := context.Background()

	sale := seedSale(t, db, "PROTO-1")
	seedCarrierRecord(t, db, "PROTO-900")

	other := seedCarrierRecord(t, db, "XYZ-1")
	other.CustomerName = "João Pereira"
	other.Phone = "21900001111"
	other.TaxID = "98765432100"
	require.NoError(t, db.Save(other).Error)

	// Case-insensitive substring on protocol.
	results, err := svc.SearchCandidates(ctx, AnchorSale, sale.ID, "proto-9")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "PROTO-900", results[0].Protocol)
	assert.Equal(t, AnchorCarrier, results[0].RecordType)

	// Customer name match, mixed case.
	results, err = svc.SearchCandidates(ctx, AnchorSale, sale.ID, "joÃo")
	require.NoError(t, err)
	if assert.Len(t, results, 1) {
		assert.Equal(t, "João Pereira", results[0].CustomerName)
	}

	// Phone match from the carrier anchor searches sales.
	results, err = svc.SearchCandidates(ctx, AnchorCarrier, other.ID, "11988887777")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, sale.ID, results[0].ID)
	assert.Equal(t, AnchorSale, results[0].RecordType)
}

func TestSearchCandidatesBounded(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))

	sale := seedSale(t, db, "PROTO-1")
	for i := 0; i < 30; i++ {
		seedCarrierRecord(t, db, fmt.Sprintf("BULK-%02d", i))
	}

	results, err := svc.SearchCandidates(context.Background(), AnchorSale, sale.ID, "bulk-")
	require.NoError(t, err)
	assert.Len(t, results, candidateLimit)
}

func TestCreateManualLink(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))
	ctx := context.Background()
	actor := testActor()

	sale := seedSale(t, db, "PROTO-1")
	carrier := seedCarrierRecord(t, db, "PROTO-1")

	link, err := svc.CreateManualLink(ctx, sale.ID, carrier.ID, actor, "conferido manualmente")
	require.NoError(t, err)

	assert.Equal(t, models.MatchTypeManual, link.MatchType)
	assert.Equal(t, 100, link.Score)
	assert.Equal(t, models.LinkStatusReconciled, link.FinalStatus)
	require.NotNil(t, link.ValidatedBy)
	assert.Equal(t, *actor.ID, *link.ValidatedBy)
	assert.NotNil(t, link.ValidatedAt)
	require.NotNil(t, link.Note)
	assert.Equal(t, "conferido manualmente", *link.Note)

	// One CONCILIAR entry whose new value carries the carrier id.
	var entry models.AuditLogEntry
	require.NoError(t, db.Where("sale_id = ? AND action = ?", sale.ID, models.AuditActionReconcile).First(&entry).Error)
	require.NotNil(t, entry.Field)
	assert.Equal(t, "vinculo_manual", *entry.Field)
	assert.Nil(t, entry.PriorValue)

	require.NotNil(t, entry.NewValue)
	var snapshot map[string]any
	require.NoError(t, json.Unmarshal([]byte(*entry.NewValue), &snapshot))
	assert.EqualValues(t, carrier.ID, snapshot["linha_id"])
	assert.Equal(t, "conferido manualmente", snapshot["observacao"])
}

func TestCreateManualLinkDuplicatePairConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))
	ctx := context.Background()

	sale := seedSale(t, db, "PROTO-1")
	carrier := seedCarrierRecord(t, db, "PROTO-1")

	_, err := svc.CreateManualLink(ctx, sale.ID, carrier.ID, testActor(), "")
	require.NoError(t, err)

	_, err = svc.CreateManualLink(ctx, sale.ID, carrier.ID, testActor(), "")
	assert.True(t, IsConflict(err))

	var count int64
	require.NoError(t, db.Model(&models.ReconciliationLink{}).
		Where("sale_record_id = ? AND carrier_record_id = ? AND final_status = ?",
			sale.ID, carrier.ID, models.LinkStatusReconciled).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateManualLinkSaleAlreadyLinkedElsewhere(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))
	ctx := context.Background()

	sale := seedSale(t, db, "PROTO-1")
	first := seedCarrierRecord(t, db, "PROTO-1")
	second := seedCarrierRecord(t, db, "PROTO-2")

	_, err := svc.CreateManualLink(ctx, sale.ID, first.ID, testActor(), "")
	require.NoError(t, err)

	// One sale reconciles to one carrier line.
	_, err = svc.CreateManualLink(ctx, sale.ID, second.ID, testActor(), "")
	assert.True(t, IsConflict(err))
}

func TestCreateManualLinkTargetsMustExist(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))
	ctx := context.Background()

	sale := seedSale(t, db, "PROTO-1")

	_, err := svc.CreateManualLink(ctx, sale.ID, 999, testActor(), "")
	assert.True(t, IsValidation(err))

	carrier := seedCarrierRecord(t, db, "PROTO-1")
	_, err = svc.CreateManualLink(ctx, 999, carrier.ID, testActor(), "")
	assert.True(t, IsValidation(err))
}

func TestCreateManualLinkConcurrentRace(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))
	ctx := context.Background()

	sale := seedSale(t, db, "PROTO-1")
	carrier := seedCarrierRecord(t, db, "PROTO-1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateManualLink(ctx, sale.ID, carrier.ID, testActor(), "")
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	var count int64
	require.NoError(t, db.Model(&models.ReconciliationLink{}).
		Where("final_status = ?", models.LinkStatusReconciled).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateManualLinkSucceedsWhenAuditFails(t *testing.T) {
	db := newTestDB(t)
	failing := &failingAuditor{}
	svc := NewReconciliationService(db, failing)
	ctx := context.Background()

	sale := seedSale(t, db, "PROTO-1")
	carrier := seedCarrierRecord(t, db, "PROTO-1")

	// The audit channel is down; the link must still be created and the
	// caller must still see success. This is the documented gap: a link
	// can exist with no corresponding audit entry.
	link, err := svc.CreateManualLink(ctx, sale.ID, carrier.ID, testActor(), "")
	require.NoError(t, err)
	assert.Equal(t, models.LinkStatusReconciled, link.FinalStatus)
	assert.Equal(t, 1, failing.appendCalls)

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLogEntry{}).Count(&auditCount).Error)
	assert.Zero(t, auditCount)
}

func TestReconcileBatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))
	ctx := context.Background()

	saleA := seedSale(t, db, "A-1")
	saleB := seedSale(t, db, "B-1")
	carrierA := seedCarrierRecord(t, db, "A-1")
	carrierB := seedCarrierRecord(t, db, "B-1")

	// Pre-link B so its pair conflicts inside the batch.
	_, err := svc.CreateManualLink(ctx, saleB.ID, carrierB.ID, testActor(), "")
	require.NoError(t, err)

	results, err := svc.ReconcileBatch(ctx, []LinkPair{
		{SaleID: saleA.ID, CarrierID: carrierA.ID, Note: "lote março"},
		{SaleID: saleB.ID, CarrierID: carrierB.ID},
	}, testActor())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NotZero(t, results[0].LinkID)
	assert.Empty(t, results[0].Error)
	assert.Zero(t, results[1].LinkID)
	assert.NotEmpty(t, results[1].Error)

	// Exactly one CONCILIAR_LOTE entry, for the successful pair.
	var entries []models.AuditLogEntry
	require.NoError(t, db.Where("action = ?", models.AuditActionReconcileBatch).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.EqualValues(t, saleA.ID, entries[0].SaleID)
}

func TestReconcileBatchEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))

	_, err := svc.ReconcileBatch(context.Background(), nil, testActor())
	assert.True(t, IsValidation(err))
}

func TestRemoveLink(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))
	ctx := context.Background()

	sale := seedSale(t, db, "PROTO-1")
	carrier := seedCarrierRecord(t, db, "PROTO-1")

	link, err := svc.CreateManualLink(ctx, sale.ID, carrier.ID, testActor(), "")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveLink(ctx, link.ID, testActor(), models.LinkStatusDivergent))

	var reloaded models.ReconciliationLink
	require.NoError(t, db.First(&reloaded, link.ID).Error)
	assert.Equal(t, models.LinkStatusDivergent, reloaded.FinalStatus)
	assert.Nil(t, reloaded.PairKey)

	var entry models.AuditLogEntry
	require.NoError(t, db.Where("action = ?", models.AuditActionUnreconcile).First(&entry).Error)
	require.NotNil(t, entry.PriorValue)
	require.NotNil(t, entry.NewValue)
	assert.JSONEq(t, `"conciliada"`, *entry.PriorValue)
	assert.JSONEq(t, `"divergente"`, *entry.NewValue)

	// The pair is free again after removal.
	_, err = svc.CreateManualLink(ctx, sale.ID, carrier.ID, testActor(), "segunda tentativa")
	require.NoError(t, err)
}

func TestRemoveLinkValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewReconciliationService(db, NewAuditService(db))
	ctx := context.Background()

	assert.True(t, IsValidation(svc.RemoveLink(ctx, 999, testActor(), "")))

	sale := seedSale(t, db, "PROTO-1")
	carrier := seedCarrierRecord(t, db, "PROTO-1")
	link, err := svc.CreateManualLink(ctx, sale.ID, carrier.ID, testActor(), "")
	require.NoError(t, err)

	// Cannot "demote" to reconciled.
	assert.True(t, IsValidation(svc.RemoveLink(ctx, link.ID, testActor(), models.LinkStatusReconciled)))

	require.NoError(t, svc.RemoveLink(ctx, link.ID, testActor(), ""))
	// Already demoted.
	assert.True(t, IsValidation(svc.RemoveLink(ctx, link.ID, testActor(), "")))
}
