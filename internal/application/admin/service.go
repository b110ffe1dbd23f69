package admin

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/succession-vault/internal/domain"
)

const (
	unknownName    = "Unknown"
	notAvailable   = "N/A"
	userPageSize   = 100
	evidenceURLTTL = 15 * time.Minute
)

// Service backs the administrative views: claim queue, user overview,
// statistics and the activity feed.
type Service interface {
	ListRequests(ctx context.Context) ([]domain.RequestDetail, error)
	EvidenceURL(ctx context.Context, requestID string) (string, error)
	Stats(ctx context.Context) (*domain.Stats, error)
	ListActivity(ctx context.Context, limit int) ([]domain.ActivityLog, error)
	ListUsers(ctx context.Context) ([]domain.UserOverview, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	ScanPage(ctx context.Context, limit int32, cursor string) (*domain.UserPage, error)
}

type nomineeStore interface {
	Get(ctx context.Context, nomineeID string) (*domain.Nominee, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Nominee, error)
}

type assetStore interface {
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Asset, error)
	Count(ctx context.Context) (int, error)
}

type requestStore interface {
	List(ctx context.Context) ([]domain.VerificationRequest, error)
	GetByID(ctx context.Context, requestID string) (*domain.VerificationRequest, error)
}

type logStore interface {
	ListExcludingActor(ctx context.Context, actorType string, limit int) ([]domain.ActivityLog, error)
}

type presigner interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	users     userStore
	nominees  nomineeStore
	assets    assetStore
	requests  requestStore
	logs      logStore
	documents presigner
}

type ServiceDeps struct {
	UserRepo     userStore
	NomineeRepo  nomineeStore
	AssetRepo    assetStore
	RequestRepo  requestStore
	ActivityRepo logStore
	Documents    presigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:     deps.UserRepo,
		nominees:  deps.NomineeRepo,
		assets:    deps.AssetRepo,
		requests:  deps.RequestRepo,
		logs:      deps.ActivityRepo,
		documents: deps.Documents,
	}
}

// ListRequests returns every claim, newest first, joined with nominee and
// owner details. Missing entities are shown as placeholders.
func (s *service) ListRequests(ctx context.Context) ([]domain.RequestDetail, error) {
	reqs, err := s.requests.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].SubmittedAt.After(reqs[j].SubmittedAt) })

	owners := map[string]string{}
	out := make([]domain.RequestDetail, 0, len(reqs))
	for _, r := range reqs {
		d := domain.RequestDetail{
			VerificationRequest: r,
			NomineeName:         unknownName,
			NomineeEmail:        notAvailable,
			NomineePhone:        notAvailable,
			Relationship:        notAvailable,
		}
		n, err := s.nominees.Get(ctx, r.NomineeID)
		switch {
		case err == nil:
			d.NomineeName, d.NomineeEmail, d.Relationship = n.Name, n.Email, n.Relationship
			if n.PhoneNumber != "" {
				d.NomineePhone = n.PhoneNumber
			}
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		name, ok := owners[r.DeceasedUserID]
		if !ok {
			name, err = s.ownerName(ctx, r.DeceasedUserID)
			if err != nil {
				return nil, err
			}
			owners[r.DeceasedUserID] = name
		}
		d.DeceasedUserName = name
		out = append(out, d)
	}
	return out, nil
}

func (s *service) EvidenceURL(ctx context.Context, requestID string) (string, error) {
	r, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return "", err
	}
	return s.documents.PresignedURL(ctx, r.EvidenceDocumentID, evidenceURLTTL)
}

// Stats counts users that have ever logged in as active.
func (s *service) Stats(ctx context.Context) (*domain.Stats, error) {
	st := &domain.Stats{}
	err := s.eachUser(ctx, func(u domain.User) error {
		st.TotalUsers++
		if u.LastActivityAt != nil {
			st.ActiveUsers++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if st.TotalAssets, err = s.assets.Count(ctx); err != nil {
		return nil, err
	}
	reqs, err := s.requests.List(ctx)
	if err != nil {
		return nil, err
	}
	st.TotalVerifications = len(reqs)
	for _, r := range reqs {
		switch r.Status {
		case domain.StatusPendingAdminReview:
			st.PendingVerifications++
		case domain.StatusApproved:
			st.ApprovedVerifications++
		case domain.StatusRejected:
			st.RejectedVerifications++
		}
	}
	return st, nil
}

// ListActivity returns user and nominee activity; administrative entries are left out.
func (s *service) ListActivity(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	return s.logs.ListExcludingActor(ctx, domain.ActorAdmin, limit)
}

func (s *service) ListUsers(ctx context.Context) ([]domain.UserOverview, error) {
	var out []domain.UserOverview
	err := s.eachUser(ctx, func(u domain.User) error {
		assets, err := s.assets.ListByOwner(ctx, u.UserID)
		if err != nil {
			return err
		}
		nominees, err := s.nominees.ListByOwner(ctx, u.UserID)
		if err != nil {
			return err
		}
		out = append(out, domain.UserOverview{
			UserID:                  u.UserID,
			FullName:                u.FullName,
			Email:                   u.Email,
			Role:                    u.Role,
			LastActivityAt:          u.LastActivityAt,
			InactivityThresholdDays: u.InactivityThresholdDays,
			AssetCount:              len(assets),
			NomineeCount:            len(nominees),
		})
		return nil
	})
	return out, err
}

func (s *service) eachUser(ctx context.Context, fn func(domain.User) error) error {
	cursor := ""
	for {
		page, err := s.users.ScanPage(ctx, userPageSize, cursor)
		if err != nil {
			return err
		}
		for _, sk := range page.Skipped {
			slog.Warn("skipping undecodable user record", "user_id", sk.ID, "err", sk.Err)
		}
		for _, u := range page.Users {
			if err := fn(u); err != nil {
				return err
			}
		}
		if page.Next == "" {
			return nil
		}
		cursor = page.Next
	}
}

func (s *service) ownerName(ctx context.Context, userID string) (string, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return unknownName, nil
	}
	if err != nil {
		return "", err
	}
	return u.DisplayName(), nil
}
