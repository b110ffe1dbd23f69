// Package nominee links users, nominees and assets. Every mutation is checked
// against the ownership chain: a nominee and each asset it is attached to must
// belong to the same user.
package nominee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/pkg/clock"
	"github.com/succession-vault/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldName         = "name"
	fieldEmail        = "email"
	fieldRelationship = "relationship"
	fieldPhoneNumber  = "phone_number"
	fieldUpdatedAt    = "updated_at"
)

// cascadeAttempts bounds how often a delete re-reads assets after a concurrent change.
const cascadeAttempts = 3

type Service interface {
	Add(ctx context.Context, ownerUserID string, req domain.CreateNomineeRequest) (*domain.Nominee, error)
	Update(ctx context.Context, nomineeID, callerUserID string, req domain.UpdateNomineeRequest) (*domain.Nominee, error)
	Delete(ctx context.Context, nomineeID, callerUserID string) error
	List(ctx context.Context, ownerUserID string) ([]domain.Nominee, error)
	Assign(ctx context.Context, assetID, callerUserID, nomineeID string) (*domain.Asset, error)
	Unassign(ctx context.Context, assetID, callerUserID, nomineeID string) (*domain.Asset, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type nomineeStore interface {
	Put(ctx context.Context, n *domain.Nominee) error
	Get(ctx context.Context, nomineeID string) (*domain.Nominee, error)
	Update(ctx context.Context, nomineeID string, updates map[string]interface{}) (*domain.Nominee, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Nominee, error)
}

type assetStore interface {
	Get(ctx context.Context, assetID string) (*domain.Asset, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Asset, error)
	AddNominee(ctx context.Context, assetID, ownerUserID, nomineeID string) (*domain.Asset, bool, error)
	RemoveNominee(ctx context.Context, assetID, nomineeID string) (*domain.Asset, error)
}

// cascadeStore deletes a nominee and strips it from the given assets in one unit.
type cascadeStore interface {
	DeleteNominee(ctx context.Context, nomineeID string, assets []domain.Asset) error
}

type auditor interface {
	Record(ctx context.Context, entry domain.ActivityLog)
}

type service struct {
	users    userStore
	nominees nomineeStore
	assets   assetStore
	cascade  cascadeStore
	audit    auditor
	clock    clock.Clock
}

type ServiceDeps struct {
	UserRepo    userStore
	NomineeRepo nomineeStore
	AssetRepo   assetStore
	CascadeRepo cascadeStore
	Audit       auditor
	Clock       clock.Clock
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:    deps.UserRepo,
		nominees: deps.NomineeRepo,
		assets:   deps.AssetRepo,
		cascade:  deps.CascadeRepo,
		audit:    deps.Audit,
		clock:    deps.Clock,
	}
}

func (s *service) Add(ctx context.Context, ownerUserID string, req domain.CreateNomineeRequest) (*domain.Nominee, error) {
	owner, err := s.users.Get(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	n := &domain.Nominee{
		NomineeID:    id.New(),
		OwnerUserID:  owner.UserID,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Relationship: req.Relationship,
		PhoneNumber:  req.PhoneNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.nominees.Put(ctx, n); err != nil {
		return nil, err
	}
	s.record(ctx, owner.UserID, owner.DisplayName(), domain.ActionNomineeAdded, "Added nominee: "+n.Name, n.NomineeID)
	return n, nil
}

func (s *service) Update(ctx context.Context, nomineeID, callerUserID string, req domain.UpdateNomineeRequest) (*domain.Nominee, error) {
	n, err := s.ownedNominee(ctx, nomineeID, callerUserID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[fieldName] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates[fieldEmail] = strings.TrimSpace(*req.Email)
	}
	if req.Relationship != nil {
		updates[fieldRelationship] = *req.Relationship
	}
	if req.PhoneNumber != nil {
		updates[fieldPhoneNumber] = *req.PhoneNumber
	}
	if len(updates) == 0 {
		return n, nil
	}
	updates[fieldUpdatedAt] = s.clock.Now()
	updated, err := s.nominees.Update(ctx, nomineeID, updates)
	if err != nil {
		return nil, err
	}
	s.record(ctx, callerUserID, s.actorName(ctx, callerUserID), domain.ActionNomineeUpdated, "Updated nominee: "+updated.Name, nomineeID)
	return updated, nil
}

// Delete removes the nominee and every reference to it from the caller's assets.
// The asset lists read here are re-checked by the store; if one changed in the
// meantime the whole cascade is re-read and retried.
func (s *service) Delete(ctx context.Context, nomineeID, callerUserID string) error {
	n, err := s.ownedNominee(ctx, nomineeID, callerUserID)
	if err != nil {
		return err
	}
	for attempt := 1; ; attempt++ {
		linked, err := s.linkedAssets(ctx, callerUserID, nomineeID)
		if err != nil {
			return err
		}
		err = s.cascade.DeleteNominee(ctx, nomineeID, linked)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == cascadeAttempts {
			return err
		}
		slog.Warn("nominee cascade conflicted, retrying", "nominee_id", nomineeID, "attempt", attempt)
	}
	s.record(ctx, callerUserID, s.actorName(ctx, callerUserID), domain.ActionNomineeDeleted, "Deleted nominee: "+n.Name, nomineeID)
	return nil
}

func (s *service) List(ctx context.Context, ownerUserID string) ([]domain.Nominee, error) {
	if _, err := s.users.Get(ctx, ownerUserID); err != nil {
		return nil, err
	}
	return s.nominees.ListByOwner(ctx, ownerUserID)
}

func (s *service) Assign(ctx context.Context, assetID, callerUserID, nomineeID string) (*domain.Asset, error) {
	a, err := s.ownedAsset(ctx, assetID, callerUserID)
	if err != nil {
		return nil, err
	}
	n, err := s.ownedNominee(ctx, nomineeID, callerUserID)
	if err != nil {
		return nil, err
	}
	if a.HasNominee(nomineeID) {
		return a, nil
	}
	updated, added, err := s.assets.AddNominee(ctx, assetID, callerUserID, nomineeID)
	if err != nil {
		return nil, err
	}
	if added {
		s.record(ctx, callerUserID, s.actorName(ctx, callerUserID), domain.ActionNomineeAssigned,
			fmt.Sprintf("Assigned nominee %s to asset %s", n.Name, a.FileName), assetID)
	}
	return updated, nil
}

// Unassign detaches nomineeID from the asset. A nominee id that no longer
// resolves is still removed so dangling references can be cleaned up.
func (s *service) Unassign(ctx context.Context, assetID, callerUserID, nomineeID string) (*domain.Asset, error) {
	a, err := s.ownedAsset(ctx, assetID, callerUserID)
	if err != nil {
		return nil, err
	}
	nomineeName := nomineeID
	n, err := s.ownedNominee(ctx, nomineeID, callerUserID)
	switch {
	case err == nil:
		nomineeName = n.Name
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	if !a.HasNominee(nomineeID) {
		return a, nil
	}
	updated, err := s.assets.RemoveNominee(ctx, assetID, nomineeID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, callerUserID, s.actorName(ctx, callerUserID), domain.ActionNomineeRemoved,
		fmt.Sprintf("Removed nominee %s from asset %s", nomineeName, a.FileName), assetID)
	return updated, nil
}

func (s *service) ownedNominee(ctx context.Context, nomineeID, callerUserID string) (*domain.Nominee, error) {
	n, err := s.nominees.Get(ctx, nomineeID)
	if err != nil {
		return nil, err
	}
	if n.OwnerUserID != callerUserID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	return n, nil
}

func (s *service) ownedAsset(ctx context.Context, assetID, callerUserID string) (*domain.Asset, error) {
	a, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if a.OwnerUserID != callerUserID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	return a, nil
}

// linkedAssets returns the caller's assets that reference nomineeID. The owner
// index is eventually consistent, so each candidate is re-read directly.
func (s *service) linkedAssets(ctx context.Context, ownerUserID, nomineeID string) ([]domain.Asset, error) {
	listed, err := s.assets.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	var linked []domain.Asset
	for _, candidate := range listed {
		a, err := s.assets.Get(ctx, candidate.AssetID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if a.HasNominee(nomineeID) {
			linked = append(linked, *a)
		}
	}
	return linked, nil
}

func (s *service) actorName(ctx context.Context, userID string) string {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return userID
	}
	return u.DisplayName()
}

func (s *service) record(ctx context.Context, actorID, actorName, action, details, subjectID string) {
	s.audit.Record(ctx, domain.ActivityLog{
		ActorID:   actorID,
		ActorName: actorName,
		Action:    action,
		Details:   details,
		SubjectID: subjectID,
		ActorType: domain.ActorUser,
	})
}
