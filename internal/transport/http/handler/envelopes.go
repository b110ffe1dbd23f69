package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/pkg/validate"
	"github.com/succession-vault/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// ListEnvelope wraps list responses.
type ListEnvelope[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func newList[T any](items []T) ListEnvelope[T] {
	if items == nil {
		items = []T{}
	}
	return ListEnvelope[T]{Data: items, Count: len(items)}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: status})
}

// httpError maps domain sentinels to status codes.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrStorage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes and validates the request body into dst. It writes the
// error response itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func caller(w http.ResponseWriter, r *http.Request) (*middleware.Caller, bool) {
	c, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return c, true
}

type upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// readUpload reads one file part of a multipart form bounded by maxBytes.
func readUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("file exceeds %d bytes: %w", maxBytes, domain.ErrBadRequest)
		}
		return nil, fmt.Errorf("invalid multipart form: %w", domain.ErrBadRequest)
	}
	f, header, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s field: %w", field, domain.ErrBadRequest)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, domain.ErrBadRequest)
	}
	return &upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
