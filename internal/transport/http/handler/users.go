package handler

import (
	"net/http"

	"github.com/succession-vault/internal/application/user"
	"github.com/succession-vault/internal/domain"
)

// UserHandler handles profile and inactivity-threshold endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), c.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// RecordActivity is called by the authentication layer after a successful login.
func (h *UserHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	u, err := h.svc.RecordActivity(r.Context(), c.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) SetInactivityThreshold(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.UpdateThresholdRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.SetInactivityThreshold(r.Context(), c.UserID, req.InactivityThresholdDays)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
