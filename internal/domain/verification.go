package domain

import "time"

// Verification request statuses. APPROVED and REJECTED are terminal.
const (
	StatusPendingAdminReview = "PENDING_ADMIN_REVIEW"
	StatusApproved           = "APPROVED"
	StatusRejected           = "REJECTED"
)

// VerificationRequest is a nominee's claim. At most one exists per nominee.
type VerificationRequest struct {
	RequestID          string     `json:"id" dynamodbav:"request_id"`
	NomineeID          string     `json:"nominee_id" dynamodbav:"nominee_id"`
	DeceasedUserID     string     `json:"deceased_user_id" dynamodbav:"deceased_user_id"`
	EvidenceDocumentID string     `json:"evidence_document_id" dynamodbav:"evidence_document_id"`
	Status             string     `json:"status" dynamodbav:"status"`
	AdminNotes         string     `json:"admin_notes" dynamodbav:"admin_notes"`
	RejectionReason    string     `json:"rejection_reason" dynamodbav:"rejection_reason"`
	SubmittedAt        time.Time  `json:"submitted_at" dynamodbav:"submitted_at"`
	ReviewedAt         *time.Time `json:"reviewed_at" dynamodbav:"reviewed_at"`
}

// IsTerminal reports whether the request has been decided.
func (v *VerificationRequest) IsTerminal() bool {
	return IsTerminalStatus(v.Status)
}

func IsTerminalStatus(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

type ConfirmIdentityRequest struct {
	NomineeID string `json:"nominee_id" validate:"required"`
	FullName  string `json:"full_name" validate:"required"`
}

type ReviewRequest struct {
	Status          string `json:"status" validate:"required"`
	Notes           string `json:"notes"`
	RejectionReason string `json:"rejection_reason"`
}

// Timeline step states.
const (
	StepCompleted  = "COMPLETED"
	StepInProgress = "IN_PROGRESS"
	StepPending    = "PENDING"
)

// Overall claim states reported before a request exists.
const (
	ClaimAwaitingIdentity  = "AWAITING_IDENTITY"
	ClaimAwaitingDocuments = "AWAITING_DOCUMENTS"
)

type TimelineStep struct {
	Step   string `json:"step"`
	Status string `json:"status"`
}

// ClaimStatus is the nominee-facing projection of a claim. It is derived on
// every read from the nominee and its request; nothing here is stored.
type ClaimStatus struct {
	NomineeID    string         `json:"nominee_id"`
	NomineeName  string         `json:"nominee_name"`
	Relationship string         `json:"relationship"`
	Status       string         `json:"status"`
	RequestID    string         `json:"verification_id,omitempty"`
	Timeline     []TimelineStep `json:"timeline"`
}

// LinkInfo is returned when a nominee opens their claim link.
type LinkInfo struct {
	NomineeID   string `json:"nominee_id"`
	OwnerUserID string `json:"user_id"`
	OwnerName   string `json:"owner_name"`
	Confirmed   bool   `json:"identity_confirmed"`
}
