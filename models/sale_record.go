package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord is an internally created sale ("venda interna") awaiting
// confirmation by a carrier. Sales are never physically deleted; the
// internal status transitions instead.
type SaleRecord struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	SellerID       uint            `json:"vendedor_id" gorm:"index"`
	CompanyID      *uint           `json:"empresa_id"`
	CarrierID      *uint           `json:"operadora_id"`
	Protocol       string          `json:"protocolo" gorm:"size:64;index"`
	TaxID          string          `json:"cpf_cnpj" gorm:"size:20;index"`
	CustomerName   string          `json:"cliente" gorm:"size:150"`
	Phone          string          `json:"telefone" gorm:"size:20"`
	Value          decimal.Decimal `json:"valor" gorm:"type:decimal(12,2)"`
	SaleDate       time.Time       `json:"data_venda" gorm:"index"`
	InternalStatus InternalStatus  `json:"status_interno" gorm:"type:varchar(30);default:nova;index"`
	Notes          string          `json:"observacoes" gorm:"type:text"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (SaleRecord) TableName() string {
	return "sale_records"
}

// SaleRecordQuery carries the filters accepted by the sale listing endpoint.
// Period is a preset name resolved by the period calculator; Start/End are
// only read when Period is "custom".
type SaleRecordQuery struct {
	Page           int            `query:"page"`
	PageSize       int            `query:"page_size"`
	SellerID       uint           `query:"vendedor_id"`
	InternalStatus InternalStatus `query:"status_interno"`
	Period         string         `query:"periodo"`
	Start          string         `query:"inicio"`
	End            string         `query:"fim"`
	Search         string         `query:"busca"`
}
