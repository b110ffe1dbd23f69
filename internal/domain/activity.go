package domain

import "time"

// Actor types recorded on activity log entries.
const (
	ActorUser    = "USER"
	ActorNominee = "NOMINEE"
	ActorAdmin   = "ADMIN"
)

// SystemAdminID is the actor id used for administrative review entries.
const SystemAdminID = "SYSTEM_ADMIN"

// Activity actions.
const (
	ActionNomineeAdded       = "NOMINEE_ADDED"
	ActionNomineeUpdated     = "NOMINEE_UPDATED"
	ActionNomineeDeleted     = "NOMINEE_DELETED"
	ActionNomineeAssigned    = "NOMINEE_ASSIGNED"
	ActionNomineeRemoved     = "NOMINEE_REMOVED"
	ActionIdentityConfirmed  = "NOMINEE_IDENTITY_CONFIRMED"
	ActionIdentityFailed     = "NOMINEE_IDENTITY_FAILED"
	ActionClaimSubmitted     = "NOMINEE_CLAIM_SUBMITTED"
	ActionVerificationReview = "VERIFICATION_REVIEW"
	ActionAssetUpload        = "ASSET_UPLOAD"
	ActionAssetUpdate        = "ASSET_UPDATE"
	ActionAssetDelete        = "ASSET_DELETE"
	ActionThresholdChanged   = "INACTIVITY_THRESHOLD_CHANGED"
)

// ActivityLog is an append-only audit entry.
type ActivityLog struct {
	LogID     string    `json:"id" dynamodbav:"log_id"`
	ActorID   string    `json:"user_id" dynamodbav:"actor_id"`
	ActorName string    `json:"user_name" dynamodbav:"actor_name"`
	Action    string    `json:"action" dynamodbav:"action"`
	Details   string    `json:"details" dynamodbav:"details"`
	SubjectID string    `json:"entity_id" dynamodbav:"subject_id"`
	ActorType string    `json:"user_type" dynamodbav:"actor_type"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
}
