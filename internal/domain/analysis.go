package domain

import "time"

// Analysis is the result of processing one uploaded PDF.
// PK: analysis_id. GSI owner_id-index. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type Analysis struct {
	AnalysisID  string    `json:"id" dynamodbav:"analysis_id"`
	OwnerID     string    `json:"ownerId" dynamodbav:"owner_id"`
	FileName    string    `json:"fileName" dynamodbav:"file_name"`
	FileSize    int64     `json:"fileSize" dynamodbav:"file_size"`
	Hash        string    `json:"hash" dynamodbav:"hash"`
	TextLength  int       `json:"textLength" dynamodbav:"text_length"`
	Pages       int       `json:"pages" dynamodbav:"pages"`
	Summary     string    `json:"summary" dynamodbav:"summary"`
	ContextText string    `json:"-" dynamodbav:"context_text"`
	Object      string    `json:"object,omitempty" dynamodbav:"object,omitempty"`
	ProcessedAt time.Time `json:"processedAt" dynamodbav:"processed_at"`
	ExpiresAt   int64     `json:"-" dynamodbav:"expires_at"`
}
