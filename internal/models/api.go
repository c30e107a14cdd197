package models

// ClassifyRequest is the body of a single-text classification request.
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// ClassifyResponse reports the primary and broadened flags for one text.
// DetectionType is empty because tiers are chosen per corpus.
type ClassifyResponse struct {
	Text  string   `json:"text"`
	Emoji []string `json:"emoji"`
	ClassificationResult
}

// AnalyzeRequest starts a review run.
type AnalyzeRequest struct {
	Profile string `json:"profile" binding:"required"`
}

// LoginRequest carries reviewer credentials.
type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}
