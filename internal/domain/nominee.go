package domain

import "time"

// Nominee is a claimant designated by exactly one user. OwnerUserID is fixed at creation.
type Nominee struct {
	NomineeID         string    `json:"id" dynamodbav:"nominee_id"`
	OwnerUserID       string    `json:"user_id" dynamodbav:"owner_user_id"`
	Name              string    `json:"name" dynamodbav:"name"`
	Email             string    `json:"email" dynamodbav:"email"`
	Relationship      string    `json:"relationship" dynamodbav:"relationship"`
	PhoneNumber       string    `json:"phone_number" dynamodbav:"phone_number"`
	IdentityConfirmed bool      `json:"identity_confirmed" dynamodbav:"identity_confirmed"`
	CreatedAt         time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateNomineeRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Relationship string `json:"relationship"`
	PhoneNumber  string `json:"phone_number"`
}

// UpdateNomineeRequest is a partial update; nil fields are left untouched.
type UpdateNomineeRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Relationship *string `json:"relationship"`
	PhoneNumber  *string `json:"phone_number"`
}
