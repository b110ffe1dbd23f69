package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/pkg/clock"
	"github.com/succession-vault/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldLastActivityAt = "last_activity_at"
	fieldThresholdDays  = "inactivity_threshold_days"
	fieldUpdatedAt      = "updated_at"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	// RecordActivity marks a successful login. It is the only writer of last_activity_at.
	RecordActivity(ctx context.Context, userID string) (*domain.User, error)
	SetInactivityThreshold(ctx context.Context, userID string, days int) (*domain.User, error)
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type auditor interface {
	Record(ctx context.Context, entry domain.ActivityLog)
}

type service struct {
	repo        userStore
	audit       auditor
	clock       clock.Clock
	defaultDays int
}

type ServiceDeps struct {
	UserRepo userStore
	Audit    auditor
	Clock    clock.Clock
	// DefaultThresholdDays applies when a registration omits a threshold.
	DefaultThresholdDays int
}

func NewService(deps ServiceDeps) Service {
	days := deps.DefaultThresholdDays
	if days <= 0 {
		days = domain.DefaultInactivityThresholdDays
	}
	return &service{
		repo:        deps.UserRepo,
		audit:       deps.Audit,
		clock:       deps.Clock,
		defaultDays: days,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	days := s.defaultDays
	if req.InactivityThresholdDays != nil {
		if *req.InactivityThresholdDays < 1 {
			return nil, fmt.Errorf("inactivity threshold must be at least 1 day: %w", domain.ErrBadRequest)
		}
		days = *req.InactivityThresholdDays
	}
	now := s.clock.Now()
	u := &domain.User{
		UserID:                  id.New(),
		Email:                   email,
		FullName:                strings.TrimSpace(req.FullName),
		Role:                    domain.RoleUser,
		InactivityThresholdDays: &days,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) RecordActivity(ctx context.Context, userID string) (*domain.User, error) {
	now := s.clock.Now()
	if err := s.repo.Update(ctx, userID, map[string]interface{}{
		fieldLastActivityAt: now,
		fieldUpdatedAt:      now,
	}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) SetInactivityThreshold(ctx context.Context, userID string, days int) (*domain.User, error) {
	if days < 1 {
		return nil, fmt.Errorf("inactivity threshold must be at least 1 day: %w", domain.ErrBadRequest)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.repo.Update(ctx, userID, map[string]interface{}{
		fieldThresholdDays: days,
		fieldUpdatedAt:     now,
	}); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, domain.ActivityLog{
		ActorID:   u.UserID,
		ActorName: u.DisplayName(),
		Action:    domain.ActionThresholdChanged,
		Details:   fmt.Sprintf("Inactivity threshold set to %d days", days),
		SubjectID: u.UserID,
		ActorType: domain.ActorUser,
	})
	u.InactivityThresholdDays = &days
	u.UpdatedAt = now
	return u, nil
}
