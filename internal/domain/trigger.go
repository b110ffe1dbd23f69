package domain

import "time"

// SuccessionTrigger is emitted when a user's inactivity exceeds their threshold.
// Consumers must be idempotent per UserID: a user who stays inactive is
// reported again on every sweep.
type SuccessionTrigger struct {
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ThresholdDays  int       `json:"threshold_days"`
	Deadline       time.Time `json:"deadline"`
	DetectedAt     time.Time `json:"detected_at"`
}
