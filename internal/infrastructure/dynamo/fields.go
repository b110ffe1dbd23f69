package dynamo

// DynamoDB attribute names used in key conditions and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID      = "user_id"
	fieldNomineeID   = "nominee_id"
	fieldAssetID     = "asset_id"
	fieldRequestID   = "request_id"
	fieldLogID       = "log_id"
	fieldOwnerUserID = "owner_user_id"
	fieldEmail       = "email"
	fieldNomineeIDs  = "nominee_ids"
	fieldStatus      = "status"
	fieldActorType   = "actor_type"
	fieldUpdatedAt   = "updated_at"
)

const (
	indexEmail     = "email-index"
	indexOwner     = "owner_user_id-index"
	indexRequestID = "request_id-index"
)
