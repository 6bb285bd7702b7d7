package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"conciliacao/models"
)

// buildReport writes an in-memory carrier report with the given data rows.
func buildReport(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := []any{"Protocolo", "CPF/CNPJ", "Cliente", "Telefone", "Plano", "Valor", "Valor LQ", "Status"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportCarrierReport(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewAuditService(db))
	ctx := context.Background()

	report := buildReport(t, [][]any{
		{"PROTO-1", "12345678901", "Maria Souza", "11988887777", "Fibra 500MB", "99,90", "89,90", "Aprovada"},
		{"PROTO-2", "98765432100", "João Pereira", "21900001111", "Fibra 1GB", "149.90", "", "instalado"},
		{"", "00000000000", "Sem Protocolo", "", "", "10,00", "", "Pendente"},
		{"PROTO-3", "11122233344", "Carlos Dias", "31955554444", "Móvel", "R$ 1.249,50", "", "desconhecido"},
	})

	result, err := svc.ImportCarrierReport(ctx, "vivo_marco.xlsx", report, "Vivo", "2024-03-1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, "vivo_marco.xlsx", result.SourceFile)

	var records []models.CarrierRecord
	require.NoError(t, db.Order("id ASC").Find(&records).Error)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "PROTO-1", first.Protocol)
	assert.Equal(t, "Vivo", first.CarrierName)
	assert.Equal(t, "2024-03-1", first.ReferencePeriod)
	assert.Equal(t, result.BatchID, first.ImportBatch)
	assert.Equal(t, models.CarrierStatusApproved, first.CarrierStatus)
	assert.Equal(t, "99.9", first.Value.String())
	require.NotNil(t, first.ValueLQ)
	assert.Equal(t, "89.9", first.ValueLQ.String())
	// The settled value wins when present.
	assert.Equal(t, "89.9", first.EffectiveValue().String())

	second := records[1]
	assert.Equal(t, models.CarrierStatusInstalled, second.CarrierStatus)
	assert.Nil(t, second.ValueLQ)
	assert.Equal(t, "149.9", second.EffectiveValue().String())

	// Brazilian thousands format; unknown status falls back to pending.
	third := records[2]
	assert.Equal(t, "1249.5", third.Value.String())
	assert.Equal(t, models.CarrierStatusPending, third.CarrierStatus)
}

func TestImportCarrierReportValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewAuditService(db))
	ctx := context.Background()

	report := buildReport(t, [][]any{{"PROTO-1", "", "", "", "", "", "", ""}})
	_, err := svc.ImportCarrierReport(ctx, "r.xlsx", report, "", "2024-03-1")
	assert.True(t, IsValidation(err))

	report = buildReport(t, [][]any{{"PROTO-1", "", "", "", "", "", "", ""}})
	_, err = svc.ImportCarrierReport(ctx, "r.xlsx", report, "Vivo", "")
	assert.True(t, IsValidation(err))

	_, err = svc.ImportCarrierReport(ctx, "r.xlsx", bytes.NewBufferString("not a spreadsheet"), "Vivo", "2024-03-1")
	assert.True(t, IsValidation(err))
}

func TestRemoveImportDemotesLinksAndAudits(t *testing.T) {
	db := newTestDB(t)
	audit := NewAuditService(db)
	importSvc := NewImportService(db, audit)
	reconSvc := NewReconciliationService(db, audit)
	ctx := context.Background()

	report := buildReport(t, [][]any{
		{"PROTO-1", "12345678901", "Maria Souza", "11988887777", "Fibra", "99,90", "", "Aprovada"},
		{"PROTO-2", "98765432100", "João Pereira", "21900001111", "Fibra", "89,90", "", "Aprovada"},
	})
	result, err := importSvc.ImportCarrierReport(ctx, "vivo.xlsx", report, "Vivo", "2024-03-1")
	require.NoError(t, err)

	var imported []models.CarrierRecord
	require.NoError(t, db.Where("import_batch = ?", result.BatchID).Order("id ASC").Find(&imported).Error)
	require.Len(t, imported, 2)

	sale := seedSale(t, db, "PROTO-1")
	link, err := reconSvc.CreateManualLink(ctx, sale.ID, imported[0].ID, testActor(), "")
	require.NoError(t, err)

	removed, err := importSvc.RemoveImport(ctx, result.BatchID, testActor())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	var remaining int64
	require.NoError(t, db.Model(&models.CarrierRecord{}).Where("import_batch = ?", result.BatchID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	var reloaded models.ReconciliationLink
	require.NoError(t, db.First(&reloaded, link.ID).Error)
	assert.Equal(t, models.LinkStatusNotFound, reloaded.FinalStatus)
	assert.Nil(t, reloaded.PairKey)

	var entries []models.AuditLogEntry
	require.NoError(t, db.Where("action = ?", models.AuditActionImportRemoved).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.EqualValues(t, sale.ID, entries[0].SaleID)
}

func TestRemoveImportUnknownBatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewAuditService(db))

	_, err := svc.RemoveImport(context.Background(), "no-such-batch", testActor())
	assert.True(t, IsValidation(err))
}
