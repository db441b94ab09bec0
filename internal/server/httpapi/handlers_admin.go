package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kantina/canteen/internal/server/models"
)

func (a *api) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.ListUsers(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, mapSlice(users, toUserView))
}

func (a *api) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	user, err := a.users.UpdateUser(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"),
		models.UserUpdate{IsApproved: req.IsApproved, IsAdmin: req.IsAdmin})
	if err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, toUserView(user))
}

func (a *api) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.users.DeleteUser(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
