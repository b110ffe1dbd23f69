package domain

import (
	"slices"
	"time"
)

// Asset is a stored document owned by one user. NomineeIDs is an ordered set:
// insertion order is kept for display, duplicates are never stored.
type Asset struct {
	AssetID     string    `json:"id" dynamodbav:"asset_id"`
	OwnerUserID string    `json:"user_id" dynamodbav:"owner_user_id"`
	FileName    string    `json:"file_name" dynamodbav:"file_name"`
	FileType    string    `json:"file_type" dynamodbav:"file_type"`
	FileSize    int64     `json:"file_size" dynamodbav:"file_size"`
	Description string    `json:"description" dynamodbav:"description"`
	DocumentID  string    `json:"document_id" dynamodbav:"document_id"`
	NomineeIDs  []string  `json:"nominee_ids" dynamodbav:"nominee_ids"`
	IsReleased  bool      `json:"is_released" dynamodbav:"is_released"`
	UploadedAt  time.Time `json:"uploaded_at" dynamodbav:"uploaded_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

// HasNominee reports whether nomineeID is linked to the asset.
func (a *Asset) HasNominee(nomineeID string) bool {
	return slices.Contains(a.NomineeIDs, nomineeID)
}

// NomineeIndex returns the position of nomineeID in NomineeIDs, or -1.
func (a *Asset) NomineeIndex(nomineeID string) int {
	return slices.Index(a.NomineeIDs, nomineeID)
}

type UpdateAssetRequest struct {
	Description *string `json:"description" validate:"required"`
}
