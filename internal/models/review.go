package models

import "time"

// DetectionType names the rule tier that selected a review candidate.
type DetectionType string

const (
	DetectionNone           DetectionType = ""
	DetectionDualLayer      DetectionType = "dual_layer"
	DetectionBroaderPattern DetectionType = "broader_pattern"
	DetectionAmbiguousEmoji DetectionType = "ambiguous_emoji"
	// DetectionAllEmoji is used by the hybrid profile, which falls back to
	// every emoji-bearing message instead of the broadened patterns.
	DetectionAllEmoji DetectionType = "all_emoji"
)

// ClassificationResult holds the classifier verdict for one message.
type ClassificationResult struct {
	StrictMismatch    bool          `json:"strict_mismatch" db:"strict_mismatch"`
	ToneContradiction bool          `json:"tone_contradiction" db:"tone_contradiction"`
	BroaderSarcasm    bool          `json:"broader_sarcasm" db:"broader_sarcasm"`
	DetectionType     DetectionType `json:"detection_type,omitempty" db:"detection_type"`
}

// Primary reports whether the strict or tone rule fired.
func (r ClassificationResult) Primary() bool {
	return r.StrictMismatch || r.ToneContradiction
}

// ReviewRecord is one exported row awaiting a human sarcasm judgment.
// The review fields stay empty; humans fill them in outside the program.
type ReviewRecord struct {
	ID           string    `json:"id" db:"id"`
	RunID        string    `json:"run_id" db:"run_id"`
	Position     int       `json:"position" db:"position"` // Row order in the exported CSV
	MessageIndex int       `json:"message_index" db:"message_index"`
	Text         string    `json:"text" db:"text"` // Redacted text as exported
	HasEmoji     bool      `json:"has_emoji" db:"has_emoji"`
	SentAtRaw    string    `json:"sent_at" db:"sent_at"`
	SentAt       time.Time `json:"sent_at_utc" db:"sent_at_utc"`
	ClassificationResult

	IsRealSarcasm   string `json:"is_real_sarcasm" db:"-"`
	ConfidenceLevel string `json:"confidence_level" db:"-"`
	Notes           string `json:"notes" db:"-"`
}

// Verdict is a human judgment imported from a reviewed CSV.
type Verdict struct {
	RecordID        string    `json:"record_id" db:"record_id"`
	IsRealSarcasm   *bool     `json:"is_real_sarcasm,omitempty" db:"is_real_sarcasm"`
	ConfidenceLevel string    `json:"confidence_level" db:"confidence_level"`
	Notes           string    `json:"notes" db:"notes"`
	Reviewer        string    `json:"reviewer,omitempty" db:"reviewer"` // Empty when imported without login
	ImportedAt      time.Time `json:"imported_at" db:"imported_at"`
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run records one analysis invocation.
type Run struct {
	ID            string        `json:"id" db:"id"`
	Profile       string        `json:"profile" db:"profile"`
	Status        string        `json:"status" db:"status"`
	InputPath     string        `json:"input_path" db:"input_path"`
	OutputPath    string        `json:"output_path" db:"output_path"`
	Tier          DetectionType `json:"tier" db:"tier"`
	TotalMessages int           `json:"total_messages" db:"total_messages"`
	EmojiMessages int           `json:"emoji_messages" db:"emoji_messages"`
	StrictCount   int           `json:"strict_count" db:"strict_count"`
	ToneCount     int           `json:"tone_count" db:"tone_count"`
	ExportedCount int           `json:"exported_count" db:"exported_count"`
	StartedAt     time.Time     `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage  string        `json:"error_message,omitempty" db:"error_message"`
}

// TierStats aggregates human verdicts for one detection type.
type TierStats struct {
	DetectionType DetectionType `json:"detection_type" db:"detection_type"`
	Exported      int           `json:"exported" db:"exported"`
	Reviewed      int           `json:"reviewed" db:"reviewed"`
	Confirmed     int           `json:"confirmed" db:"confirmed"`
	Precision     float64       `json:"precision" db:"-"`
}
