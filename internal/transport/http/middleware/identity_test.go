package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestIdentity_MissingUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	Identity(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "missing caller identity")
}

func TestIdentity_InjectsCaller(t *testing.T) {
	var got *Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "u1")
	req.Header.Set(HeaderUserRole, "admin")
	rr := httptest.NewRecorder()
	Identity(next).ServeHTTP(rr, req)

	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.IsAdmin())
}

func TestIdentity_DefaultsToUserRole(t *testing.T) {
	var got *Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CallerFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "u1")
	Identity(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "user", got.Role)
	assert.False(t, got.IsAdmin())
}

func TestIdentity_UnknownRoleRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "u1")
	req.Header.Set(HeaderUserRole, "superuser")
	rr := httptest.NewRecorder()
	Identity(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown caller role")
}
