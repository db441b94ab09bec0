package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kantina/canteen/internal/common"
)

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body", common.ErrorValidation)
	}
	return nil
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	user, err := a.users.Register(r.Context(), req.UserName, req.Password)
	if err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, toUserView(user))
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	res, err := a.users.Login(r.Context(), req.UserName, req.Password, sessionFrom(r.Context()).SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	a.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, toUserView(res.User))
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.users.Logout(r.Context(), sessionFrom(r.Context()).SessionID); err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	user, err := a.users.CurrentUser(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, toUserView(user))
}
