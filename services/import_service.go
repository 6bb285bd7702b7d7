package services

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"conciliacao/models"
)

// ImportService ingests carrier report spreadsheets into carrier_records and
// handles removal of a previously imported batch.
type ImportService struct {
	db    *gorm.DB
	audit Auditor
}

func NewImportService(db *gorm.DB, audit Auditor) *ImportService {
	return &ImportService{db: db, audit: audit}
}

// ImportResult summarizes one report ingestion.
type ImportResult struct {
	BatchID    string `json:"lote_importacao"`
	SourceFile string `json:"arquivo_origem"`
	Imported   int    `json:"importadas"`
	Skipped    int    `json:"ignoradas"`
}

// Column headers recognized in carrier reports, lower-cased.
var importColumns = map[string]string{
	"protocolo": "protocol",
	"cpf":       "tax_id",
	"cpf/cnpj":  "tax_id",
	"cnpj":      "tax_id",
	"cliente":   "customer_name",
	"telefone":  "phone",
	"plano":     "plan",
	"valor":     "value",
	"valor lq":  "value_lq",
	"valor_lq":  "value_lq",
	"status":    "status",
}

// carrierStatusAliases maps the status spellings seen in reports to the
// closed carrier status set. Unknown statuses import as pending.
var carrierStatusAliases = map[string]models.CarrierStatus{
	"aprovada":  models.CarrierStatusApproved,
	"aprovado":  models.CarrierStatusApproved,
	"instalada": models.CarrierStatusInstalled,
	"instalado": models.CarrierStatusInstalled,
	"cancelada": models.CarrierStatusCancelled,
	"cancelado": models.CarrierStatusCancelled,
	"pendente":  models.CarrierStatusPending,
}

// parseMoney accepts both "1234.56" and the Brazilian "1.234,56" form.
func parseMoney(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "R$")
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	return decimal.NewFromString(raw)
}

// ImportCarrierReport parses an xlsx carrier report and inserts one carrier
// record per data row, tagged with a fresh batch id and the source file
// name. Rows without a protocol are skipped. The first row must be the
// header row.
func (s *ImportService) ImportCarrierReport(ctx context.Context, fileName string, r io.Reader, carrierName string, referencePeriod string) (*ImportResult, error) {
	if carrierName == "" {
		return nil, NewValidationError("carrier name is required")
	}
	if referencePeriod == "" {
		return nil, NewValidationError("reference period is required")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, NewValidationError("could not read spreadsheet: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, NewValidationError("could not read sheet %q: %v", sheet, err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("report has no data rows")
	}

	// Resolve which column holds which field from the header row.
	columns := make(map[int]string)
	for i, header := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if field, ok := importColumns[key]; ok {
			columns[i] = field
		}
	}
	if len(columns) == 0 {
		return nil, NewValidationError("no recognized columns in header row")
	}

	batchID := uuid.NewString()
	records := make([]models.CarrierRecord, 0, len(rows)-1)
	skipped := 0

	for _, row := range rows[1:] {
		record := models.CarrierRecord{
			CarrierName:     carrierName,
			CarrierStatus:   models.CarrierStatusPending,
			ReferencePeriod: referencePeriod,
			SourceFile:      fileName,
			ImportBatch:     batchID,
		}

		for i, cell := range row {
			field, ok := columns[i]
			if !ok {
				continue
			}
			cell = strings.TrimSpace(cell)
			switch field {
			case "protocol":
				record.Protocol = cell
			case "tax_id":
				record.TaxID = cell
			case "customer_name":
				record.CustomerName = cell
			case "phone":
				record.Phone = cell
			case "plan":
				record.Plan = cell
			case "value":
				if v, err := parseMoney(cell); err == nil {
					record.Value = v
				}
			case "value_lq":
				if cell != "" {
					if v, err := parseMoney(cell); err == nil {
						record.ValueLQ = &v
					}
				}
			case "status":
				if status, ok := carrierStatusAliases[strings.ToLower(cell)]; ok {
					record.CarrierStatus = status
				}
			}
		}

		if record.Protocol == "" {
			skipped++
			continue
		}
		records = append(records, record)
	}

	if len(records) > 0 {
		if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
			return nil, &StoreError{Op: "insert carrier records", Err: err}
		}
	}

	return &ImportResult{
		BatchID:    batchID,
		SourceFile: fileName,
		Imported:   len(records),
		Skipped:    skipped,
	}, nil
}

// RemoveImport deletes every carrier record of an imported batch. Reconciled
// links onto deleted rows are demoted to not-found, and one
// IMPORTACAO_REMOVIDA entry per affected sale is appended in a single batch.
func (s *ImportService) RemoveImport(ctx context.Context, batchID string, actor Actor) (int, error) {
	if batchID == "" {
		return 0, NewValidationError("import batch id is required")
	}

	var records []models.CarrierRecord
	if err := s.db.WithContext(ctx).Where("import_batch = ?", batchID).Find(&records).Error; err != nil {
		return 0, &StoreError{Op: "load import batch", Err: err}
	}
	if len(records) == 0 {
		return 0, NewValidationError("import batch %s not found", batchID)
	}

	carrierIDs := make([]uint, 0, len(records))
	sourceFile := records[0].SourceFile
	for _, r := range records {
		carrierIDs = append(carrierIDs, r.ID)
	}

	var links []models.ReconciliationLink
	err := s.db.WithContext(ctx).
		Where("carrier_record_id IN ? AND final_status = ?", carrierIDs, models.LinkStatusReconciled).
		Find(&links).Error
	if err != nil {
		return 0, &StoreError{Op: "load affected links", Err: err}
	}

	audits := make([]AuditEntryInput, 0, len(links))
	for i := range links {
		link := &links[i]
		link.FinalStatus = models.LinkStatusNotFound
		if err := s.db.WithContext(ctx).Save(link).Error; err != nil {
			return 0, &StoreError{Op: "demote link", Err: err}
		}

		audits = append(audits, AuditEntryInput{
			SaleID:     link.SaleRecordID,
			UserID:     actor.ID,
			UserName:   actor.Name,
			Action:     models.AuditActionImportRemoved,
			PriorValue: string(models.LinkStatusReconciled),
			NewValue:   string(models.LinkStatusNotFound),
			Origin:     actor.Origin,
			Metadata: map[string]any{
				"lote_importacao": batchID,
				"arquivo_origem":  sourceFile,
				"linha_id":        link.CarrierRecordID,
			},
		})
	}

	if err := s.db.WithContext(ctx).Where("import_batch = ?", batchID).Delete(&models.CarrierRecord{}).Error; err != nil {
		return 0, &StoreError{Op: "delete carrier records", Err: err}
	}

	s.audit.AppendBatch(ctx, audits)
	return len(records), nil
}
