package rules

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nightgrid/captiond/internal/config"
	"github.com/nightgrid/captiond/internal/model"
)

// defaultFetchLimit caps the candidate batch per selection.
const defaultFetchLimit = 20

// Selection is a successful rule match.
type Selection struct {
	Value  string `json:"value"`
	RuleID string `json:"rule_id"`
}

// Selector picks the first matching stored rule for a category. The
// per-category confidence floor gates selection itself, not just scoring.
type Selector struct {
	store     Store
	cfg       config.RulesConfig
	estimator *Estimator
}

// NewSelector creates a Selector.
func NewSelector(store Store, cfg config.RulesConfig, estimator *Estimator) *Selector {
	return &Selector{store: store, cfg: cfg, estimator: estimator}
}

// Select fetches active rules of category above the category's floor,
// ordered by (priority asc, confidence desc), and returns the first match.
// A pattern that fails to compile is skipped: it is never selected and
// never charged a failure. When nothing matches, the first syntactically
// valid candidate — the rule that should have matched — is debited.
// A nil return with nil error means no rule matched.
func (s *Selector) Select(ctx context.Context, category, text string) (*Selection, error) {
	limit := s.cfg.FetchLimit
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	candidates, err := s.store.ActiveRules(ctx, category, s.cfg.Floor(category), limit)
	if err != nil {
		return nil, eris.Wrapf(err, "selector: fetch %s rules", category)
	}

	var firstValid *model.Rule
	for i := range candidates {
		rule := &candidates[i]
		value, matched, err := rule.Match(text)
		if err != nil {
			zap.L().Warn("selector: invalid pattern skipped",
				zap.String("rule_id", rule.ID),
				zap.String("category", category),
				zap.Error(err),
			)
			continue
		}
		if firstValid == nil {
			firstValid = rule
		}
		if matched {
			return &Selection{Value: value, RuleID: rule.ID}, nil
		}
	}

	if firstValid != nil && s.estimator != nil {
		s.estimator.RecordOutcome(firstValid.ID, false)
	}
	return nil, nil
}
