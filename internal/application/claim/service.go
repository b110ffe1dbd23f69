// Package claim runs the nominee claim workflow:
// UNCONFIRMED -> IDENTITY_CONFIRMED -> CLAIM_SUBMITTED -> APPROVED | REJECTED.
// Decided claims are final.
package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/infrastructure/metrics"
	s3infra "github.com/succession-vault/internal/infrastructure/s3"
	"github.com/succession-vault/internal/pkg/clock"
	"github.com/succession-vault/internal/pkg/id"
	"github.com/succession-vault/internal/pkg/validate"
)

const (
	fieldIdentityConfirmed = "identity_confirmed"
	fieldUpdatedAt         = "updated_at"
)

// adminActorName labels review entries in the activity log.
const adminActorName = "Admin"

// Evidence is a document uploaded with a claim.
type Evidence struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Service interface {
	// ConfirmIdentity reports whether enteredName matches the nominee's name.
	// A mismatch is not an error and leaves the nominee unchanged.
	ConfirmIdentity(ctx context.Context, nomineeID, enteredName string) (bool, error)
	SubmitClaim(ctx context.Context, nomineeID string, evidence Evidence) (*domain.VerificationRequest, error)
	ReviewRequest(ctx context.Context, requestID, decision, notes, rejectionReason string) (*domain.VerificationRequest, error)
	GetStatus(ctx context.Context, nomineeID string) (*domain.ClaimStatus, error)
	LinkInfo(ctx context.Context, nomineeID string) (*domain.LinkInfo, error)
}

type nomineeStore interface {
	Get(ctx context.Context, nomineeID string) (*domain.Nominee, error)
	Update(ctx context.Context, nomineeID string, updates map[string]interface{}) (*domain.Nominee, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// requestStore must reject a second Create for the same nominee with domain.ErrConflict,
// and a Review of a decided request with domain.ErrInvalidState.
type requestStore interface {
	Create(ctx context.Context, v *domain.VerificationRequest) error
	GetByNominee(ctx context.Context, nomineeID string) (*domain.VerificationRequest, error)
	GetByID(ctx context.Context, requestID string) (*domain.VerificationRequest, error)
	Review(ctx context.Context, nomineeID string, decision domain.VerificationRequest) (*domain.VerificationRequest, error)
}

type documentStore interface {
	Save(ctx context.Context, prefix, fileName string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type auditor interface {
	Record(ctx context.Context, entry domain.ActivityLog)
}

type service struct {
	nominees  nomineeStore
	users     userStore
	requests  requestStore
	documents documentStore
	mailer    mailer
	audit     auditor
	clock     clock.Clock
	metrics   *metrics.Metrics
}

type ServiceDeps struct {
	NomineeRepo nomineeStore
	UserRepo    userStore
	RequestRepo requestStore
	Documents   documentStore
	Mailer      mailer
	Audit       auditor
	Clock       clock.Clock
	Metrics     *metrics.Metrics
}

func NewService(deps ServiceDeps) Service {
	return &service{
		nominees:  deps.NomineeRepo,
		users:     deps.UserRepo,
		requests:  deps.RequestRepo,
		documents: deps.Documents,
		mailer:    deps.Mailer,
		audit:     deps.Audit,
		clock:     deps.Clock,
		metrics:   deps.Metrics,
	}
}

// NamesMatch compares an entered name with the stored one, ignoring case and
// whitespace around the entered value.
func NamesMatch(stored, entered string) bool {
	return strings.EqualFold(stored, strings.TrimSpace(entered))
}

func (s *service) ConfirmIdentity(ctx context.Context, nomineeID, enteredName string) (bool, error) {
	n, err := s.nominees.Get(ctx, nomineeID)
	if err != nil {
		return false, err
	}
	matched := NamesMatch(n.Name, enteredName)
	s.metrics.RecordIdentityAttempt(matched)
	if !matched {
		s.audit.Record(ctx, domain.ActivityLog{
			ActorID:   nomineeID,
			ActorName: enteredName,
			Action:    domain.ActionIdentityFailed,
			Details:   "Failed identity confirmation attempt",
			SubjectID: nomineeID,
			ActorType: domain.ActorNominee,
		})
		return false, nil
	}
	if !n.IdentityConfirmed {
		if _, err := s.nominees.Update(ctx, nomineeID, map[string]interface{}{
			fieldIdentityConfirmed: true,
			fieldUpdatedAt:         s.clock.Now(),
		}); err != nil {
			return false, err
		}
	}
	s.audit.Record(ctx, domain.ActivityLog{
		ActorID:   nomineeID,
		ActorName: n.Name,
		Action:    domain.ActionIdentityConfirmed,
		Details:   "Nominee confirmed their identity",
		SubjectID: nomineeID,
		ActorType: domain.ActorNominee,
	})
	return true, nil
}

// SubmitClaim stores the evidence and then creates the request. The store's
// uniqueness constraint on the nominee decides concurrent submissions; the
// loser's evidence is removed again.
func (s *service) SubmitClaim(ctx context.Context, nomineeID string, evidence Evidence) (*domain.VerificationRequest, error) {
	n, err := s.nominees.Get(ctx, nomineeID)
	if err != nil {
		return nil, err
	}
	if !n.IdentityConfirmed {
		return nil, fmt.Errorf("identity not confirmed: %w", domain.ErrInvalidState)
	}
	if _, err := s.requests.GetByNominee(ctx, nomineeID); err == nil {
		return nil, fmt.Errorf("claim already submitted: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if len(evidence.Data) == 0 {
		return nil, fmt.Errorf("evidence document is empty: %w", domain.ErrBadRequest)
	}

	docID, err := s.documents.Save(ctx, s3infra.PrefixEvidence, evidence.FileName, evidence.Data, evidence.ContentType)
	if err != nil {
		return nil, err
	}
	req := &domain.VerificationRequest{
		RequestID:          id.New(),
		NomineeID:          nomineeID,
		DeceasedUserID:     n.OwnerUserID,
		EvidenceDocumentID: docID,
		Status:             domain.StatusPendingAdminReview,
		SubmittedAt:        s.clock.Now(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if delErr := s.documents.Delete(context.WithoutCancel(ctx), docID); delErr != nil {
			slog.Warn("could not remove orphaned evidence", "document_id", docID, "err", delErr)
		}
		return nil, err
	}
	s.metrics.IncrementClaimSubmitted()
	s.audit.Record(ctx, domain.ActivityLog{
		ActorID:   nomineeID,
		ActorName: n.Name,
		Action:    domain.ActionClaimSubmitted,
		Details:   "Submitted death certificate and claim",
		SubjectID: req.RequestID,
		ActorType: domain.ActorNominee,
	})
	return req, nil
}

func (s *service) ReviewRequest(ctx context.Context, requestID, decision, notes, rejectionReason string) (*domain.VerificationRequest, error) {
	if err := validate.Var(decision, "oneof="+domain.StatusApproved+" "+domain.StatusRejected); err != nil {
		return nil, fmt.Errorf("decision must be %s or %s: %w", domain.StatusApproved, domain.StatusRejected, domain.ErrBadRequest)
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.IsTerminal() {
		return nil, fmt.Errorf("request already %s: %w", req.Status, domain.ErrInvalidState)
	}
	now := s.clock.Now()
	reviewed, err := s.requests.Review(ctx, req.NomineeID, domain.VerificationRequest{
		Status:          decision,
		AdminNotes:      notes,
		RejectionReason: rejectionReason,
		ReviewedAt:      &now,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordReview(decision)
	s.audit.Record(ctx, domain.ActivityLog{
		ActorID:   domain.SystemAdminID,
		ActorName: adminActorName,
		Action:    domain.ActionVerificationReview,
		Details:   fmt.Sprintf("Reviewed request: %s - %s", decision, notes),
		SubjectID: requestID,
		ActorType: domain.ActorAdmin,
	})
	s.notifyDecision(ctx, reviewed)
	return reviewed, nil
}

// notifyDecision emails the nominee. Delivery problems are logged only.
func (s *service) notifyDecision(ctx context.Context, req *domain.VerificationRequest) {
	if s.mailer == nil {
		return
	}
	n, err := s.nominees.Get(ctx, req.NomineeID)
	if err != nil || n.Email == "" {
		slog.Warn("no nominee address for review notice", "request_id", req.RequestID, "err", err)
		return
	}
	subject, body := decisionMessage(n, req)
	if err := s.mailer.SendEmail(n.Email, subject, body); err != nil {
		slog.Warn("review notice not delivered", "request_id", req.RequestID, "err", err)
	}
}

func decisionMessage(n *domain.Nominee, req *domain.VerificationRequest) (string, string) {
	if req.Status == domain.StatusApproved {
		return "Your claim has been approved",
			fmt.Sprintf("Dear %s,\n\nYour claim %s has been approved.\n", n.Name, req.RequestID)
	}
	body := fmt.Sprintf("Dear %s,\n\nYour claim %s has been rejected.\n", n.Name, req.RequestID)
	if req.RejectionReason != "" {
		body += "Reason: " + req.RejectionReason + "\n"
	}
	return "Your claim has been rejected", body
}

func (s *service) GetStatus(ctx context.Context, nomineeID string) (*domain.ClaimStatus, error) {
	n, err := s.nominees.Get(ctx, nomineeID)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.GetByNominee(ctx, nomineeID)
	if errors.Is(err, domain.ErrNotFound) {
		req = nil
	} else if err != nil {
		return nil, err
	}
	st := Project(n, req)
	return &st, nil
}

func (s *service) LinkInfo(ctx context.Context, nomineeID string) (*domain.LinkInfo, error) {
	n, err := s.nominees.Get(ctx, nomineeID)
	if err != nil {
		return nil, err
	}
	ownerName := "Unknown"
	if u, err := s.users.Get(ctx, n.OwnerUserID); err == nil {
		ownerName = u.DisplayName()
	}
	return &domain.LinkInfo{
		NomineeID:   n.NomineeID,
		OwnerUserID: n.OwnerUserID,
		OwnerName:   ownerName,
		Confirmed:   n.IdentityConfirmed,
	}, nil
}
