package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/succession-vault/internal/application/claim"
	"github.com/succession-vault/internal/domain"
)

// ClaimHandler serves the nominee-facing verification flow. Nominees hold no
// account; the nominee id from the verification link identifies them.
type ClaimHandler struct {
	svc      claim.Service
	maxBytes int64
}

func NewClaimHandler(svc claim.Service, maxBytes int64) *ClaimHandler {
	return &ClaimHandler{svc: svc, maxBytes: maxBytes}
}

type confirmIdentityResponse struct {
	Confirmed bool   `json:"confirmed"`
	Message   string `json:"message"`
}

// VerifyLink resolves a verification link to the nominee and owner it names.
func (h *ClaimHandler) VerifyLink(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.LinkInfo(r.Context(), chi.URLParam(r, "nomineeID"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *ClaimHandler) ConfirmIdentity(w http.ResponseWriter, r *http.Request) {
	var req domain.ConfirmIdentityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ok, err := h.svc.ConfirmIdentity(r.Context(), req.NomineeID, req.FullName)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, confirmIdentityResponse{Message: "name does not match our records"})
		return
	}
	writeJSON(w, http.StatusOK, confirmIdentityResponse{Confirmed: true, Message: "identity confirmed"})
}

func (h *ClaimHandler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	doc, err := readUpload(w, r, "document", h.maxBytes)
	if err != nil {
		httpError(w, r, err)
		return
	}
	nomineeID := r.FormValue("nominee_id")
	if nomineeID == "" {
		writeError(w, http.StatusBadRequest, "nominee_id is required")
		return
	}
	req, err := h.svc.SubmitClaim(r.Context(), nomineeID, claim.Evidence{
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Data:        doc.Data,
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *ClaimHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetStatus(r.Context(), chi.URLParam(r, "nomineeID"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
