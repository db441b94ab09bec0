package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kantina/canteen/internal/common"
)

const genericServerError = "internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorStatus maps a service error to its HTTP status. validationStatus lets
// a route report input errors as something other than 400.
func errorStatus(err error, validationStatus int) int {
	switch {
	case errors.Is(err, common.ErrorSelfAction):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorValidation):
		return validationStatus
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates err into a JSON error body. Messages of unexpected
// failures stay in the server log.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error, validationStatus int) {
	status := errorStatus(err, validationStatus)

	msg := err.Error()
	switch {
	case errors.Is(err, common.ErrorValidation) || errors.Is(err, common.ErrorAlreadyExists) || errors.Is(err, common.ErrorSelfAction):
	case status == http.StatusInternalServerError:
		a.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = genericServerError
	case status == http.StatusUnauthorized:
		msg = "not authenticated"
	case status == http.StatusNotFound:
		msg = "not found"
	}

	writeErrorMessage(w, status, msg)
}
