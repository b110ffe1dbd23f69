package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/succession-vault/internal/application/admin"
	"github.com/succession-vault/internal/application/claim"
	"github.com/succession-vault/internal/domain"
)

const defaultLogLimit = 50

// AdminHandler serves the verification queue and the operator dashboards.
type AdminHandler struct {
	admin  admin.Service
	claims claim.Service
}

func NewAdminHandler(adminSvc admin.Service, claimSvc claim.Service) *AdminHandler {
	return &AdminHandler{admin: adminSvc, claims: claimSvc}
}

func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.admin.ListRequests(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(reqs))
}

func (h *AdminHandler) Review(w http.ResponseWriter, r *http.Request) {
	var body domain.ReviewRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := h.claims.ReviewRequest(r.Context(), chi.URLParam(r, "id"), body.Status, body.Notes, body.RejectionReason)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *AdminHandler) EvidenceURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.admin.EvidenceURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.admin.Stats(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultLogLimit
	}
	logs, err := h.admin.ListActivity(r.Context(), limit)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(logs))
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(users))
}
