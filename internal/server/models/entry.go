// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one meal registration. Only Invoiced changes after creation.
type Entry struct {
	ID             string
	Name           string
	Company        string
	Meal           string
	Amount         decimal.Decimal
	Representative string
	Invoiced       bool
	CreatedAt      time.Time
}

// EntryStatus selects entries by their invoiced flag.
type EntryStatus string

const (
	StatusAll      EntryStatus = ""
	StatusPending  EntryStatus = "pending"
	StatusInvoiced EntryStatus = "invoiced"
)

// Valid reports whether s is a known status.
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusAll, StatusPending, StatusInvoiced:
		return true
	}
	return false
}

// Matches reports whether e belongs to the partition selected by s.
func (s EntryStatus) Matches(e *Entry) bool {
	switch s {
	case StatusPending:
		return !e.Invoiced
	case StatusInvoiced:
		return e.Invoiced
	default:
		return true
	}
}
