package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditRecord is a write-once activity log line. Entry fields are copied, not
// referenced, so the log stays readable regardless of the entry's fate.
type AuditRecord struct {
	ID             string
	Action         string
	PersonName     string
	Company        string
	Meal           string
	Amount         decimal.Decimal
	Representative string
	CreatedAt      time.Time
}

// NewAuditRecord snapshots e for the given action.
func NewAuditRecord(action string, e *Entry) *AuditRecord {
	return &AuditRecord{
		Action:         action,
		PersonName:     e.Name,
		Company:        e.Company,
		Meal:           e.Meal,
		Amount:         e.Amount,
		Representative: e.Representative,
	}
}
