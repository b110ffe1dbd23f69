package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/succession-vault/internal/config"
	"github.com/succession-vault/internal/infrastructure/metrics"
	"github.com/succession-vault/internal/transport/http/middleware"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	cfg := &config.Config{AllowedOrigins: []string{"*"}, MaxUploadBytes: 1 << 20}
	return NewRouter(ctx, cfg, &Deps{Gatherer: reg})
}

func do(h http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_HealthCheck(t *testing.T) {
	rr := do(newTestRouter(t), http.MethodGet, "/v1/health-check/ping", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_OwnerRoutesRequireIdentity(t *testing.T) {
	rr := do(newTestRouter(t), http.MethodGet, "/v1/nominees", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_AdminRoutesRequireAdminRole(t *testing.T) {
	rr := do(newTestRouter(t), http.MethodGet, "/v1/admin/stats", map[string]string{
		middleware.HeaderUserID:   "u1",
		middleware.HeaderUserRole: "user",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouter_Metrics(t *testing.T) {
	rr := do(newTestRouter(t), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "vault_inactivity_sweeps_total")
}
