package model

import "time"

// GroundTruthRecord is a validated (normalized value, literal raw-text
// substring) pair, written only for high-confidence merged results whose
// substring re-parsed to the same normalized value.
type GroundTruthRecord struct {
	ID              string      `json:"id"`
	PostID          string      `json:"post_id"`
	FieldName       string      `json:"field_name"`
	NormalizedValue string      `json:"normalized_value"`
	OriginalText    string      `json:"original_text"`
	Source          FieldSource `json:"source"`
	CreatedAt       time.Time   `json:"created_at"`
}

// SuggestionStatus is the review state of a pattern suggestion.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// PatternSuggestion is a candidate rule proposed from an oracle-only
// success. Suggestions are deduplicated on (category, expected value,
// pending); a repeat bumps AttemptCount instead of inserting a new row.
type PatternSuggestion struct {
	ID            string           `json:"id"`
	Category      string           `json:"category"`
	SampleText    string           `json:"sample_text"`
	ExpectedValue string           `json:"expected_value"`
	Status        SuggestionStatus `json:"status"`
	AttemptCount  int              `json:"attempt_count"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
