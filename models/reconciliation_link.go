package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ReconciliationLink joins exactly one sale record to one carrier record.
//
// The uniqueness invariant (at most one reconciled link per pair, and at most
// one reconciled link per sale and per carrier record) is enforced by the
// store itself through the three key columns below: each is populated only
// while the link is reconciled and NULL otherwise, so the unique indexes
// never collide on demoted links. MySQL has no partial unique indexes, and
// this shape also ports unchanged to the sqlite driver used in tests.
type ReconciliationLink struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	SaleRecordID    uint            `json:"venda_id" gorm:"index"`
	CarrierRecordID uint            `json:"linha_id" gorm:"index"`
	MatchType       MatchType       `json:"tipo_match" gorm:"type:varchar(20)"`
	Score           int             `json:"score"`
	FinalStatus     LinkFinalStatus `json:"status_final" gorm:"type:varchar(20);index"`
	ValidatedBy     *uint           `json:"validado_por"`
	ValidatedAt     *time.Time      `json:"validado_em"`
	Note            *string         `json:"observacao" gorm:"size:500"`

	// Populated by BeforeSave while FinalStatus is reconciled, NULL otherwise.
	PairKey    *string `json:"-" gorm:"size:64;uniqueIndex"`
	SaleKey    *uint   `json:"-" gorm:"uniqueIndex"`
	CarrierKey *uint   `json:"-" gorm:"uniqueIndex"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReconciliationLink) TableName() string {
	return "reconciliation_links"
}

// BeforeSave maintains the uniqueness key columns from the final status.
func (l *ReconciliationLink) BeforeSave(tx *gorm.DB) error {
	if l.FinalStatus == LinkStatusReconciled {
		key := fmt.Sprintf("%d-%d", l.SaleRecordID, l.CarrierRecordID)
		l.PairKey = &key
		saleKey, carrierKey := l.SaleRecordID, l.CarrierRecordID
		l.SaleKey = &saleKey
		l.CarrierKey = &carrierKey
		return nil
	}
	l.PairKey = nil
	l.SaleKey = nil
	l.CarrierKey = nil
	return nil
}
