package models

import "time"

// AuditLogEntry is one immutable, append-only fact describing a state change
// applied to a sale. Prior and new values are stored as lossless JSON text;
// a NULL column means the value did not exist (distinct from JSON null).
// Entries are never updated or deleted. Ordering is by creation timestamp,
// ties broken by insertion order (the auto-increment id).
type AuditLogEntry struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	SaleID     uint        `json:"venda_id" gorm:"index:idx_audit_sale_created,priority:1"`
	UserID     *uint       `json:"usuario_id"`
	UserName   *string     `json:"usuario_nome" gorm:"size:150"`
	Action     AuditAction `json:"acao" gorm:"type:varchar(30);index"`
	Field      *string     `json:"campo" gorm:"size:60"`
	PriorValue *string     `json:"valor_anterior" gorm:"type:text"`
	NewValue   *string     `json:"valor_novo" gorm:"type:text"`
	Origin     AuditOrigin `json:"origem" gorm:"type:varchar(10);default:UI"`
	Metadata   *string     `json:"metadata" gorm:"type:text"`
	CreatedAt  time.Time   `json:"created_at" gorm:"index:idx_audit_sale_created,priority:2"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log"
}
