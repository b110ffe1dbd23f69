package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	assetapp "github.com/succession-vault/internal/application/asset"
	"github.com/succession-vault/internal/domain"
)

// AssetHandler handles asset upload, listing and retrieval.
type AssetHandler struct {
	svc      assetapp.Service
	maxBytes int64
}

func NewAssetHandler(svc assetapp.Service, maxBytes int64) *AssetHandler {
	return &AssetHandler{svc: svc, maxBytes: maxBytes}
}

func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	file, err := readUpload(w, r, "file", h.maxBytes)
	if err != nil {
		httpError(w, r, err)
		return
	}
	a, err := h.svc.Upload(r.Context(), assetapp.UploadInput{
		OwnerUserID: c.UserID,
		NomineeID:   r.FormValue("nominee_id"),
		Description: r.FormValue("description"),
		FileName:    file.FileName,
		ContentType: file.ContentType,
		Data:        file.Data,
	})
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	assets, err := h.svc.List(r.Context(), c.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(assets))
}

func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), c.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AssetHandler) Download(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	data, a, err := h.svc.Download(r.Context(), chi.URLParam(r, "id"), c.UserID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	contentType := a.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(a.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *AssetHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.UpdateAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.svc.UpdateDescription(r.Context(), chi.URLParam(r, "id"), c.UserID, *req.Description)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), c.UserID); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "asset deleted"})
}
