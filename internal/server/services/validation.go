package services

import (
	"strings"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/shopspring/decimal"
)

// maxAmount is the first value that no longer fits numeric(10,2).
var maxAmount = decimal.New(1, 8)

// EntryInput is a registration as submitted by the public form.
type EntryInput struct {
	Name           string
	Company        string
	Meal           string
	Amount         string
	Representative string
}

// AuditInput is a manually recorded activity log line.
type AuditInput struct {
	Action         string
	PersonName     string
	Company        string
	Meal           string
	Amount         string
	Representative string
}

// ParseAmount accepts a positive decimal with at most two fraction digits
// that fits numeric(10,2).
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, validationError("amount is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, validationError("amount %q is not a number", raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, validationError("amount must be greater than zero")
	}
	if !d.Equal(d.Truncate(2)) {
		return decimal.Zero, validationError("amount must have at most two decimal places")
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, validationError("amount is too large")
	}
	return d, nil
}

func required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", validationError("%s is required", field)
	}
	return v, nil
}

// NewEntry validates in and returns a pending entry ready to be stored.
func NewEntry(in EntryInput) (*models.Entry, error) {
	var (
		e   models.Entry
		err error
	)
	if e.Name, err = required("name", in.Name); err != nil {
		return nil, err
	}
	if e.Company, err = required("company", in.Company); err != nil {
		return nil, err
	}
	if e.Meal, err = required("meal", in.Meal); err != nil {
		return nil, err
	}
	if e.Amount, err = ParseAmount(in.Amount); err != nil {
		return nil, err
	}
	if e.Representative, err = required("representative", in.Representative); err != nil {
		return nil, err
	}
	return &e, nil
}

// NewManualAuditRecord validates in as an activity log line.
func NewManualAuditRecord(in AuditInput) (*models.AuditRecord, error) {
	action := strings.TrimSpace(in.Action)
	if action != common.ActionMovedToInvoiced && action != common.ActionMovedToRegistrations {
		return nil, validationError("unknown action %q", in.Action)
	}

	e, err := NewEntry(EntryInput{
		Name:           in.PersonName,
		Company:        in.Company,
		Meal:           in.Meal,
		Amount:         in.Amount,
		Representative: in.Representative,
	})
	if err != nil {
		return nil, err
	}
	return models.NewAuditRecord(action, e), nil
}
