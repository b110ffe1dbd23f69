package domain

import "time"

// DefaultInactivityThresholdDays applies when a user registers without choosing a threshold.
const DefaultInactivityThresholdDays = 180

type User struct {
	UserID                  string     `json:"id" dynamodbav:"user_id"`
	Email                   string     `json:"email" dynamodbav:"email"`
	FullName                string     `json:"full_name" dynamodbav:"full_name"`
	Role                    string     `json:"role" dynamodbav:"role"`
	LastActivityAt          *time.Time `json:"last_activity_at" dynamodbav:"last_activity_at"`
	InactivityThresholdDays *int       `json:"inactivity_threshold_days" dynamodbav:"inactivity_threshold_days"`
	CreatedAt               time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt               time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// DisplayName returns the name used in audit entries and nominee-facing views.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// UserPage is one page of a users scan. Records that could not be decoded are
// reported in Skipped instead of failing the page.
type UserPage struct {
	Users   []User
	Skipped []SkippedRecord
	Next    string
}

// SkippedRecord identifies a stored record that could not be decoded.
type SkippedRecord struct {
	ID  string
	Err error
}

type CreateUserRequest struct {
	Email                   string `json:"email" validate:"required,email"`
	FullName                string `json:"full_name" validate:"required"`
	InactivityThresholdDays *int   `json:"inactivity_threshold_days" validate:"omitempty,min=1"`
}

type UpdateThresholdRequest struct {
	InactivityThresholdDays int `json:"inactivity_threshold_days" validate:"required,min=1"`
}
