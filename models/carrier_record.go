package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CarrierRecord is one row imported from a carrier report ("linha operadora").
// Rows are immutable after import except for the carrier status, which is
// updated by the carrier-disagreement workflow.
type CarrierRecord struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	CarrierName     string           `json:"operadora" gorm:"size:60;index"`
	Protocol        string           `json:"protocolo" gorm:"size:64;index"`
	TaxID           string           `json:"cpf_cnpj" gorm:"size:20;index"`
	CustomerName    string           `json:"cliente" gorm:"size:150"`
	Phone           string           `json:"telefone" gorm:"size:20"`
	Plan            string           `json:"plano" gorm:"size:100"`
	Value           decimal.Decimal  `json:"valor" gorm:"type:decimal(12,2)"`
	ValueLQ         *decimal.Decimal `json:"valor_lq" gorm:"type:decimal(12,2)"`
	CarrierStatus   CarrierStatus    `json:"status_operadora" gorm:"type:varchar(20);default:pendente;index"`
	ReferencePeriod string           `json:"quinzena" gorm:"size:20;index"`
	SourceFile      string           `json:"arquivo_origem" gorm:"size:255"`
	ImportBatch     string           `json:"lote_importacao" gorm:"size:36;index"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (CarrierRecord) TableName() string {
	return "carrier_records"
}

// EffectiveValue returns the settled ("liquidado") value when the carrier
// reported one, falling back to the nominal value. Precedence pending
// confirmation with the carrier desk; kept as observed in the reports.
func (r *CarrierRecord) EffectiveValue() decimal.Decimal {
	if r.ValueLQ != nil {
		return *r.ValueLQ
	}
	return r.Value
}
