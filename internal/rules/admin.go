package rules

import (
	"context"
	"regexp"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nightgrid/captiond/internal/model"
)

// CreateManualRule validates and stores an operator-authored rule. Manual
// rules are active immediately.
func CreateManualRule(ctx context.Context, store Store, category, pattern, description string, priority int) (*model.Rule, error) {
	if !slices.Contains(model.Categories, category) {
		return nil, eris.Errorf("rules: unknown category %q", category)
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, eris.Wrap(err, "rules: pattern does not compile")
	}
	if priority <= 0 {
		priority = 100
	}

	rule := &model.Rule{
		Category:        category,
		Pattern:         pattern,
		Description:     description,
		ConfidenceScore: 0.5,
		Priority:        priority,
		Source:          model.RuleSourceManual,
		IsActive:        true,
	}
	if err := store.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	zap.L().Info("rules: manual rule created",
		zap.String("rule_id", rule.ID),
		zap.String("category", category),
	)
	return rule, nil
}

// ApproveSuggestion converts a pending suggestion into a learned rule using
// the pattern the reviewer wrote for it. The rule is created inactive;
// ApproveRule is the only path that activates a learned rule.
func ApproveSuggestion(ctx context.Context, store Store, id, pattern string, priority int) (*model.Rule, error) {
	sg, err := store.GetSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if sg.Status != model.SuggestionPending {
		return nil, eris.Errorf("rules: suggestion %s is %s, not pending", id, sg.Status)
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, eris.Wrap(err, "rules: pattern does not compile")
	}
	if priority <= 0 {
		priority = 100
	}

	rule := &model.Rule{
		Category:        sg.Category,
		Pattern:         pattern,
		Description:     "learned from: " + sg.ExpectedValue,
		ConfidenceScore: 0.5,
		Priority:        priority,
		Source:          model.RuleSourceLearned,
		IsActive:        false,
	}
	if err := store.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	if err := store.UpdateSuggestionStatus(ctx, id, model.SuggestionApproved); err != nil {
		return nil, err
	}

	zap.L().Info("rules: suggestion approved",
		zap.String("suggestion_id", id),
		zap.String("rule_id", rule.ID),
		zap.String("category", sg.Category),
		zap.Int("attempt_count", sg.AttemptCount),
	)
	return rule, nil
}

// RejectSuggestion marks a pending suggestion rejected.
func RejectSuggestion(ctx context.Context, store Store, id string) error {
	sg, err := store.GetSuggestion(ctx, id)
	if err != nil {
		return err
	}
	if sg.Status != model.SuggestionPending {
		return eris.Errorf("rules: suggestion %s is %s, not pending", id, sg.Status)
	}
	return store.UpdateSuggestionStatus(ctx, id, model.SuggestionRejected)
}

// ApproveRule activates an inactive learned rule.
func ApproveRule(ctx context.Context, store Store, id string) (*model.Rule, error) {
	rule, err := store.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule.Source != model.RuleSourceLearned {
		return nil, eris.Errorf("rules: rule %s is %s, only learned rules need approval", id, rule.Source)
	}
	if rule.IsActive {
		return rule, nil
	}
	if err := store.SetRuleActive(ctx, id, true); err != nil {
		return nil, err
	}
	rule.IsActive = true
	return rule, nil
}

// DeactivateRule force-deactivates a rule regardless of its stats.
func DeactivateRule(ctx context.Context, store Store, id string) error {
	if _, err := store.GetRule(ctx, id); err != nil {
		return err
	}
	return store.SetRuleActive(ctx, id, false)
}
