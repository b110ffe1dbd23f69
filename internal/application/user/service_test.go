package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/pkg/clock"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type auditLog struct{ entries []domain.ActivityLog }

func (a *auditLog) Record(_ context.Context, e domain.ActivityLog) { a.entries = append(a.entries, e) }

// --- helpers ---

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newService(us *mockUserStore, al *auditLog) Service {
	return NewService(ServiceDeps{
		UserRepo:             us,
		Audit:                al,
		Clock:                clock.NewFixed(now),
		DefaultThresholdDays: 180,
	})
}

func ptr[T any](v T) *T { return &v }

// --- Register ---

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ann@example.com").Return(&domain.User{}, nil)

	_, err := newService(us, &auditLog{}).Register(context.Background(), domain.CreateUserRequest{
		Email: " Ann@Example.com ", FullName: "Ann",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertExpectations(t)
}

func TestRegister_DefaultThreshold(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ann@example.com").Return(nil, domain.ErrNotFound)
	us.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	u, err := newService(us, &auditLog{}).Register(context.Background(), domain.CreateUserRequest{
		Email: "ann@example.com", FullName: "Ann Lee",
	})

	require.NoError(t, err)
	require.NotNil(t, u.InactivityThresholdDays)
	assert.Equal(t, 180, *u.InactivityThresholdDays)
	assert.Nil(t, u.LastActivityAt)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, now, u.CreatedAt)
	us.AssertExpectations(t)
}

func TestRegister_RejectsZeroThreshold(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ann@example.com").Return(nil, domain.ErrNotFound)

	_, err := newService(us, &auditLog{}).Register(context.Background(), domain.CreateUserRequest{
		Email: "ann@example.com", FullName: "Ann", InactivityThresholdDays: ptr(0),
	})

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	us.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_LookupFailurePropagates(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ann@example.com").Return(nil, errors.New("timeout"))

	_, err := newService(us, &auditLog{}).Register(context.Background(), domain.CreateUserRequest{
		Email: "ann@example.com", FullName: "Ann",
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrConflict))
}

// --- RecordActivity ---

func TestRecordActivity_SetsLastActivityToNow(t *testing.T) {
	us := &mockUserStore{}
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		ts, ok := m[fieldLastActivityAt].(time.Time)
		return ok && ts.Equal(now)
	})).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", LastActivityAt: ptr(now)}, nil)

	u, err := newService(us, &auditLog{}).RecordActivity(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, now, *u.LastActivityAt)
	us.AssertExpectations(t)
}

func TestRecordActivity_UnknownUser(t *testing.T) {
	us := &mockUserStore{}
	us.On("Update", mock.Anything, "ghost", mock.Anything).Return(domain.ErrNotFound)

	_, err := newService(us, &auditLog{}).RecordActivity(context.Background(), "ghost")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- SetInactivityThreshold ---

func TestSetInactivityThreshold_Validation(t *testing.T) {
	us := &mockUserStore{}
	_, err := newService(us, &auditLog{}).SetInactivityThreshold(context.Background(), "u1", 0)

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetInactivityThreshold_UpdatesAndAudits(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", FullName: "Ann", InactivityThresholdDays: ptr(180)}, nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		return m[fieldThresholdDays] == 365
	})).Return(nil)
	al := &auditLog{}

	u, err := newService(us, al).SetInactivityThreshold(context.Background(), "u1", 365)

	require.NoError(t, err)
	assert.Equal(t, 365, *u.InactivityThresholdDays)
	require.Len(t, al.entries, 1)
	assert.Equal(t, domain.ActionThresholdChanged, al.entries[0].Action)
	assert.Equal(t, "Ann", al.entries[0].ActorName)
	us.AssertExpectations(t)
}
