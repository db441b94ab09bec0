package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/services"
)

// submitEntry is the public registration form. Input errors are reported as
// 500, which is what the existing client expects.
func (a *api) submitEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	entry, err := a.entries.Submit(r.Context(), services.EntryInput{
		Name:           req.Name,
		Company:        req.Company,
		Meal:           req.Meal,
		Amount:         string(req.Amount),
		Representative: req.Representative,
	})
	if err != nil {
		a.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toEntryView(entry))
}

func (a *api) listEntries(w http.ResponseWriter, r *http.Request) {
	status := models.EntryStatus(r.URL.Query().Get("status"))

	list, err := a.entries.ListEntries(r.Context(), sessionFrom(r.Context()), status)
	if err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, mapSlice(list, toEntryView))
}

func (a *api) setInvoiced(w http.ResponseWriter, r *http.Request) {
	var req invoicedRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Invoiced == nil {
		writeErrorMessage(w, http.StatusBadRequest, "invoiced flag is required")
		return
	}

	entry, err := a.entries.SetInvoiced(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"), *req.Invoiced)
	if err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, toEntryView(entry))
}

func (a *api) listLogs(w http.ResponseWriter, r *http.Request) {
	list, err := a.entries.ListAuditLog(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, mapSlice(list, toAuditView))
}

func (a *api) recordLog(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	rec, err := a.entries.RecordAudit(r.Context(), sessionFrom(r.Context()), services.AuditInput{
		Action:         req.Action,
		PersonName:     req.PersonName,
		Company:        req.Company,
		Meal:           req.Meal,
		Amount:         string(req.Amount),
		Representative: req.Representative,
	})
	if err != nil {
		a.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toAuditView(rec))
}

func (a *api) exportInvoiced(w http.ResponseWriter, r *http.Request) {
	res, err := a.exports.ExportInvoiced(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, exportResponse{Key: res.Key, Count: res.Count, URL: res.URL})
}
