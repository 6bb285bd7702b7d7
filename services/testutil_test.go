package services

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"conciliacao/models"
)

// newTestDB opens an isolated in-memory store with the full schema,
// including the uniqueness indexes on reconciliation_links. A single
// connection keeps the shared in-memory database coherent across goroutines.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.SaleRecord{},
		&models.CarrierRecord{},
		&models.ReconciliationLink{},
		&models.AuditLogEntry{},
	))

	return db
}

func seedSale(t *testing.T, db *gorm.DB, protocol string) *models.SaleRecord {
	t.Helper()

	sale := &models.SaleRecord{
		SellerID:       1,
		Protocol:       protocol,
		TaxID:          "12345678901",
		CustomerName:   "Maria Souza",
		Phone:          "11988887777",
		Value:          decimal.NewFromFloat(99.90),
		SaleDate:       time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		InternalStatus: models.InternalStatusNew,
	}
	require.NoError(t, db.Create(sale).Error)
	return sale
}

func seedCarrierRecord(t *testing.T, db *gorm.DB, protocol string) *models.CarrierRecord {
	t.Helper()

	record := &models.CarrierRecord{
		CarrierName:     "Vivo",
		Protocol:        protocol,
		TaxID:           "12345678901",
		CustomerName:    "Maria Souza",
		Phone:           "11988887777",
		Plan:            "Fibra 500MB",
		Value:           decimal.NewFromFloat(99.90),
		CarrierStatus:   models.CarrierStatusApproved,
		ReferencePeriod: "2024-Q1-1",
		SourceFile:      "relatorio.xlsx",
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

func testActor() Actor {
	id := uint(42)
	name := "Ana Lima"
	return Actor{ID: &id, Name: &name, Origin: models.AuditOriginUI}
}

// failingAuditor drops every append, standing in for an audit store outage.
type failingAuditor struct {
	appendCalls int
	batchCalls  int
}

func (f *failingAuditor) Append(ctx context.Context, input AuditEntryInput) {
	f.appendCalls++
}

func (f *failingAuditor) AppendBatch(ctx context.Context, inputs []AuditEntryInput) {
	f.batchCalls++
}
