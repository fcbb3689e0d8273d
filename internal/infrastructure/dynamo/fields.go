package dynamo

// Attribute and index names of the documents table.
const (
	fieldAnalysisID  = "analysis_id"
	fieldOwnerID     = "owner_id"
	fieldProcessedAt = "processed_at"
	fieldExpiresAt   = "expires_at"

	ownerIndex = "owner_id-index"
)
