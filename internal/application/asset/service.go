package asset

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/succession-vault/internal/domain"
	s3infra "github.com/succession-vault/internal/infrastructure/s3"
	"github.com/succession-vault/internal/pkg/clock"
	"github.com/succession-vault/internal/pkg/id"
)

const (
	fieldDescription = "description"
	fieldUpdatedAt   = "updated_at"
)

type UploadInput struct {
	OwnerUserID string
	// NomineeID optionally links the new asset to one of the owner's nominees.
	NomineeID   string
	Description string
	FileName    string
	ContentType string
	Data        []byte
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Asset, error)
	List(ctx context.Context, ownerUserID string) ([]domain.Asset, error)
	Get(ctx context.Context, assetID, callerUserID string) (*domain.Asset, error)
	Download(ctx context.Context, assetID, callerUserID string) ([]byte, *domain.Asset, error)
	UpdateDescription(ctx context.Context, assetID, callerUserID, description string) (*domain.Asset, error)
	Delete(ctx context.Context, assetID, callerUserID string) error
}

type assetStore interface {
	Put(ctx context.Context, a *domain.Asset) error
	PutLinked(ctx context.Context, a *domain.Asset, nomineeID string) error
	Get(ctx context.Context, assetID string) (*domain.Asset, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Asset, error)
	Update(ctx context.Context, assetID string, updates map[string]interface{}) (*domain.Asset, error)
	Delete(ctx context.Context, assetID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type nomineeStore interface {
	Get(ctx context.Context, nomineeID string) (*domain.Nominee, error)
}

type documentStore interface {
	Save(ctx context.Context, prefix, fileName string, data []byte, contentType string) (string, error)
	Fetch(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}

type auditor interface {
	Record(ctx context.Context, entry domain.ActivityLog)
}

type service struct {
	assets    assetStore
	users     userStore
	nominees  nomineeStore
	documents documentStore
	audit     auditor
	clock     clock.Clock
}

type ServiceDeps struct {
	AssetRepo   assetStore
	UserRepo    userStore
	NomineeRepo nomineeStore
	Documents   documentStore
	Audit       auditor
	Clock       clock.Clock
}

func NewService(deps ServiceDeps) Service {
	return &service{
		assets:    deps.AssetRepo,
		users:     deps.UserRepo,
		nominees:  deps.NomineeRepo,
		documents: deps.Documents,
		audit:     deps.Audit,
		clock:     deps.Clock,
	}
}

// Upload stores the payload first and only then records the asset, so metadata
// never points at a missing document.
func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.Asset, error) {
	owner, err := s.users.Get(ctx, input.OwnerUserID)
	if err != nil {
		return nil, err
	}
	if len(input.Data) == 0 {
		return nil, fmt.Errorf("file is empty: %w", domain.ErrBadRequest)
	}
	if input.NomineeID != "" {
		n, err := s.nominees.Get(ctx, input.NomineeID)
		if err != nil {
			return nil, err
		}
		if n.OwnerUserID != owner.UserID {
			return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
		}
	}

	safeName := sanitizeFilename(input.FileName)
	docID, err := s.documents.Save(ctx, s3infra.PrefixAssets, safeName, input.Data, input.ContentType)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	a := &domain.Asset{
		AssetID:     id.New(),
		OwnerUserID: owner.UserID,
		FileName:    safeName,
		FileType:    input.ContentType,
		FileSize:    int64(len(input.Data)),
		Description: input.Description,
		DocumentID:  docID,
		NomineeIDs:  []string{},
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if err := s.putAsset(ctx, a, input.NomineeID); err != nil {
		if dErr := s.documents.Delete(context.WithoutCancel(ctx), docID); dErr != nil {
			slog.Warn("failed to remove orphaned asset document", "document_id", docID, "err", dErr)
		}
		return nil, err
	}
	s.record(ctx, owner, domain.ActionAssetUpload, "Uploaded asset: "+a.FileName, a.AssetID)
	return a, nil
}

// putAsset records a, linking it to nomineeID in the same write when one is given.
func (s *service) putAsset(ctx context.Context, a *domain.Asset, nomineeID string) error {
	if nomineeID == "" {
		return s.assets.Put(ctx, a)
	}
	a.NomineeIDs = []string{nomineeID}
	return s.assets.PutLinked(ctx, a, nomineeID)
}

func (s *service) List(ctx context.Context, ownerUserID string) ([]domain.Asset, error) {
	return s.assets.ListByOwner(ctx, ownerUserID)
}

func (s *service) Get(ctx context.Context, assetID, callerUserID string) (*domain.Asset, error) {
	a, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if a.OwnerUserID != callerUserID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	return a, nil
}

func (s *service) Download(ctx context.Context, assetID, callerUserID string) ([]byte, *domain.Asset, error) {
	a, err := s.Get(ctx, assetID, callerUserID)
	if err != nil {
		return nil, nil, err
	}
	data, _, err := s.documents.Fetch(ctx, a.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	return data, a, nil
}

func (s *service) UpdateDescription(ctx context.Context, assetID, callerUserID, description string) (*domain.Asset, error) {
	if _, err := s.Get(ctx, assetID, callerUserID); err != nil {
		return nil, err
	}
	updated, err := s.assets.Update(ctx, assetID, map[string]interface{}{
		fieldDescription: description,
		fieldUpdatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	s.recordFor(ctx, callerUserID, domain.ActionAssetUpdate, "Updated asset: "+updated.FileName, assetID)
	return updated, nil
}

// Delete removes the stored document before the record; if the document
// delete fails the asset is kept and the call can be repeated.
func (s *service) Delete(ctx context.Context, assetID, callerUserID string) error {
	a, err := s.Get(ctx, assetID, callerUserID)
	if err != nil {
		return err
	}
	if a.DocumentID != "" {
		if err := s.documents.Delete(ctx, a.DocumentID); err != nil {
			return err
		}
	}
	if err := s.assets.Delete(ctx, assetID); err != nil {
		return err
	}
	s.recordFor(ctx, callerUserID, domain.ActionAssetDelete, "Deleted asset: "+a.FileName, assetID)
	return nil
}

func (s *service) recordFor(ctx context.Context, userID, action, details, subjectID string) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		u = &domain.User{UserID: userID, FullName: userID}
	}
	s.record(ctx, u, action, details, subjectID)
}

func (s *service) record(ctx context.Context, u *domain.User, action, details, subjectID string) {
	s.audit.Record(ctx, domain.ActivityLog{
		ActorID:   u.UserID,
		ActorName: u.DisplayName(),
		Action:    action,
		Details:   details,
		SubjectID: subjectID,
		ActorType: domain.ActorUser,
	})
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}
