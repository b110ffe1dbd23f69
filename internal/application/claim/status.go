package claim

import "github.com/succession-vault/internal/domain"

const (
	stepLinkCreated = "Verification Link Created"
	stepIdentity    = "Identity Confirmation"
	stepDocuments   = "Document Submission"
	stepReview      = "Admin Review"
)

// Project derives the claim status from the nominee and its request, which may be nil.
func Project(n *domain.Nominee, req *domain.VerificationRequest) domain.ClaimStatus {
	identity := domain.StepInProgress
	if n.IdentityConfirmed {
		identity = domain.StepCompleted
	}

	documents := domain.StepPending
	switch {
	case req != nil:
		documents = domain.StepCompleted
	case n.IdentityConfirmed:
		documents = domain.StepInProgress
	}

	review := domain.StepPending
	switch {
	case req != nil && req.IsTerminal():
		review = domain.StepCompleted
	case req != nil:
		review = domain.StepInProgress
	}

	st := domain.ClaimStatus{
		NomineeID:    n.NomineeID,
		NomineeName:  n.Name,
		Relationship: n.Relationship,
		Timeline: []domain.TimelineStep{
			{Step: stepLinkCreated, Status: domain.StepCompleted},
			{Step: stepIdentity, Status: identity},
			{Step: stepDocuments, Status: documents},
			{Step: stepReview, Status: review},
		},
	}
	switch {
	case req != nil:
		st.Status = req.Status
		st.RequestID = req.RequestID
	case n.IdentityConfirmed:
		st.Status = domain.ClaimAwaitingDocuments
	default:
		st.Status = domain.ClaimAwaitingIdentity
	}
	return st
}
