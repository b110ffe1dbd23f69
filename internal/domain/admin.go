package domain

import "time"

// RequestDetail is a verification request joined with nominee and owner names for admin review.
type RequestDetail struct {
	VerificationRequest
	NomineeName      string `json:"nominee_name"`
	NomineeEmail     string `json:"nominee_email"`
	NomineePhone     string `json:"nominee_phone"`
	Relationship     string `json:"relationship"`
	DeceasedUserName string `json:"deceased_user_name"`
}

type UserOverview struct {
	UserID                  string     `json:"id"`
	FullName                string     `json:"full_name"`
	Email                   string     `json:"email"`
	Role                    string     `json:"role"`
	LastActivityAt          *time.Time `json:"last_activity_at"`
	InactivityThresholdDays *int       `json:"inactivity_threshold_days"`
	AssetCount              int        `json:"asset_count"`
	NomineeCount            int        `json:"nominee_count"`
}

type Stats struct {
	TotalUsers            int `json:"total_users"`
	ActiveUsers           int `json:"active_users"`
	TotalAssets           int `json:"total_assets"`
	TotalVerifications    int `json:"total_verifications"`
	PendingVerifications  int `json:"pending_verifications"`
	ApprovedVerifications int `json:"approved_verifications"`
	RejectedVerifications int `json:"rejected_verifications"`
}
