package httpapi

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/kantina/canteen/internal/server/models"
)

type userView struct {
	ID         string    `json:"id"`
	UserName   string    `json:"username"`
	IsApproved bool      `json:"isApproved"`
	IsAdmin    bool      `json:"isAdmin"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toUserView(u *models.User) userView {
	return userView{
		ID:         u.ID,
		UserName:   u.UserName,
		IsApproved: u.IsApproved,
		IsAdmin:    u.IsAdmin,
		CreatedAt:  u.CreatedAt,
	}
}

type entryView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Company        string    `json:"company"`
	Meal           string    `json:"meal"`
	Amount         string    `json:"amount"`
	Representative string    `json:"representative"`
	Invoiced       bool      `json:"invoiced"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toEntryView(e *models.Entry) entryView {
	return entryView{
		ID:             e.ID,
		Name:           e.Name,
		Company:        e.Company,
		Meal:           e.Meal,
		Amount:         e.Amount.StringFixed(2),
		Representative: e.Representative,
		Invoiced:       e.Invoiced,
		CreatedAt:      e.CreatedAt,
	}
}

type auditView struct {
	ID             string    `json:"id"`
	Action         string    `json:"action"`
	PersonName     string    `json:"personName"`
	Company        string    `json:"company"`
	Meal           string    `json:"meal"`
	Amount         string    `json:"amount"`
	Representative string    `json:"representative"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toAuditView(a *models.AuditRecord) auditView {
	return auditView{
		ID:             a.ID,
		Action:         a.Action,
		PersonName:     a.PersonName,
		Company:        a.Company,
		Meal:           a.Meal,
		Amount:         a.Amount.StringFixed(2),
		Representative: a.Representative,
		CreatedAt:      a.CreatedAt,
	}
}

func mapSlice[T, V any](in []T, f func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

type credentialsRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type userUpdateRequest struct {
	IsApproved *bool `json:"isApproved"`
	IsAdmin    *bool `json:"isAdmin"`
}

type entryRequest struct {
	Name           string      `json:"name"`
	Company        string      `json:"company"`
	Meal           string      `json:"meal"`
	Amount         numberValue `json:"amount"`
	Representative string      `json:"representative"`
}

type invoicedRequest struct {
	Invoiced *bool `json:"invoiced"`
}

type auditRequest struct {
	Action         string      `json:"action"`
	PersonName     string      `json:"personName"`
	Company        string      `json:"company"`
	Meal           string      `json:"meal"`
	Amount         numberValue `json:"amount"`
	Representative string      `json:"representative"`
}

type exportResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
	URL   string `json:"url"`
}

// numberValue accepts an amount sent either as a JSON number or a string.
type numberValue string

func (n *numberValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numberValue(s)
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(b, &num); err != nil {
			return err
		}
		*n = numberValue(num.String())
		return nil
	}
}
