package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/succession-vault/internal/application/nominee"
	"github.com/succession-vault/internal/domain"
)

// NomineeHandler handles the owner's nominee list and asset links.
type NomineeHandler struct {
	svc nominee.Service
}

func NewNomineeHandler(svc nominee.Service) *NomineeHandler { return &NomineeHandler{svc: svc} }

func (h *NomineeHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	nominees, err := h.svc.List(r.Context(), c.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(nominees))
}

func (h *NomineeHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.CreateNomineeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.Add(r.Context(), c.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *NomineeHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.UpdateNomineeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), c.UserID, req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NomineeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), c.UserID); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "nominee deleted"})
}

func (h *NomineeHandler) Assign(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Assign(r.Context(), chi.URLParam(r, "id"), c.UserID, chi.URLParam(r, "nomineeID"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *NomineeHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Unassign(r.Context(), chi.URLParam(r, "id"), c.UserID, chi.URLParam(r, "nomineeID"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
