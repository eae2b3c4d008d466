package rules

import (
	"context"

	"github.com/nightgrid/captiond/internal/model"
)

// RuleFilter specifies criteria for listing rules.
type RuleFilter struct {
	Category        string `json:"category,omitempty"`
	IncludeInactive bool   `json:"include_inactive,omitempty"`
	Limit           int    `json:"limit,omitempty"`
	Offset          int    `json:"offset,omitempty"`
}

// Store defines persistence for rules, ground truth and pattern
// suggestions. Counter increments are the only mutation path during normal
// operation; they tolerate lost updates under concurrent load.
type Store interface {
	// Rules
	CreateRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, id string) (*model.Rule, error)
	ListRules(ctx context.Context, filter RuleFilter) ([]model.Rule, error)
	// ActiveRules returns active rules of category with confidence_score >=
	// minConfidence, ordered by priority asc then confidence desc, capped
	// at limit.
	ActiveRules(ctx context.Context, category string, minConfidence float64, limit int) ([]model.Rule, error)
	// IncrementRuleStats bumps the success or failure counter and returns
	// the rule with its updated counts.
	IncrementRuleStats(ctx context.Context, id string, success bool) (*model.Rule, error)
	SetRuleConfidence(ctx context.Context, id string, score float64) error
	SetRuleActive(ctx context.Context, id string, active bool) error

	// Ground truth
	CreateGroundTruth(ctx context.Context, rec *model.GroundTruthRecord) error

	// Suggestions
	// UpsertSuggestion inserts a pending suggestion, or bumps attempt_count
	// when a pending row with the same (category, expected_value) exists.
	UpsertSuggestion(ctx context.Context, s *model.PatternSuggestion) error
	GetSuggestion(ctx context.Context, id string) (*model.PatternSuggestion, error)
	ListSuggestions(ctx context.Context, status model.SuggestionStatus, limit int) ([]model.PatternSuggestion, error)
	UpdateSuggestionStatus(ctx context.Context, id string, status model.SuggestionStatus) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
