package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/transport/http/middleware"
)

// --- mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserSvc) RecordActivity(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserSvc) SetInactivityThreshold(ctx context.Context, userID string, days int) (*domain.User, error) {
	args := m.Called(ctx, userID, days)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

// --- helpers ---

// jsonReq builds a request whose context carries the given caller. An empty
// userID leaves the request anonymous.
func jsonReq(t *testing.T, method, target, userID, role string, body any) *http.Request {
	t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, target, bytes.NewReader(b))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		r = r.WithContext(middleware.WithCaller(r.Context(), &middleware.Caller{UserID: userID, Role: role}))
	}
	return r
}

func serve(router http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, r)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func userRouter(svc *mockUserSvc) http.Handler {
	h := NewUserHandler(svc)
	r := chi.NewRouter()
	r.Post("/users", h.Register)
	r.Get("/users/me", h.Me)
	r.Post("/users/me/activity", h.RecordActivity)
	r.Put("/users/me/inactivity-threshold", h.SetInactivityThreshold)
	return r
}

// --- tests ---

func TestRegister_Created(t *testing.T) {
	svc := &mockUserSvc{}
	req := domain.CreateUserRequest{Email: "a@b.com", FullName: "Alice"}
	svc.On("Register", mock.Anything, req).Return(&domain.User{UserID: "u1", Email: "a@b.com"}, nil)

	rr := serve(userRouter(svc), jsonReq(t, http.MethodPost, "/users", "", "", req))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "u1", decodeBody[domain.User](t, rr).UserID)
}

func TestRegister_ValidationFails(t *testing.T) {
	svc := &mockUserSvc{}
	rr := serve(userRouter(svc), jsonReq(t, http.MethodPost, "/users", "", "", map[string]string{"email": "nope"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody[MessageEnvelope](t, rr).Error, "email")
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("email already registered: %w", domain.ErrConflict))

	rr := serve(userRouter(svc), jsonReq(t, http.MethodPost, "/users", "", "", domain.CreateUserRequest{Email: "a@b.com", FullName: "A"}))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestMe_Unauthenticated(t *testing.T) {
	rr := serve(userRouter(&mockUserSvc{}), jsonReq(t, http.MethodGet, "/users/me", "", "", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRecordActivity_UsesCaller(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("RecordActivity", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	rr := serve(userRouter(svc), jsonReq(t, http.MethodPost, "/users/me/activity", "u1", "user", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestSetInactivityThreshold(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("SetInactivityThreshold", mock.Anything, "u1", 365).Return(&domain.User{UserID: "u1"}, nil)

	rr := serve(userRouter(svc), jsonReq(t, http.MethodPut, "/users/me/inactivity-threshold", "u1", "user",
		domain.UpdateThresholdRequest{InactivityThresholdDays: 365}))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestSetInactivityThreshold_RejectsZero(t *testing.T) {
	svc := &mockUserSvc{}
	rr := serve(userRouter(svc), jsonReq(t, http.MethodPut, "/users/me/inactivity-threshold", "u1", "user",
		map[string]int{"inactivity_threshold_days": 0}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", domain.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("x: %w", domain.ErrConflict), http.StatusConflict},
		{fmt.Errorf("x: %w", domain.ErrInvalidState), http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", domain.ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("x: %w", domain.ErrStorage), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
