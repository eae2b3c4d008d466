package rules

import (
	"context"

	"go.uber.org/zap"

	"github.com/nightgrid/captiond/internal/model"
)

// defaultRules is the starter pattern set a fresh store is seeded with.
// Every pattern captures the value span in group 1. Confidence starts at
// 0.5; real traffic rescores them.
func defaultRules() []model.Rule {
	mk := func(category, pattern, description string, priority int) model.Rule {
		return model.Rule{
			Category:        category,
			Pattern:         pattern,
			Description:     description,
			ConfidenceScore: 0.5,
			Priority:        priority,
			Source:          model.RuleSourceDefault,
			IsActive:        true,
		}
	}

	return []model.Rule{
		mk(model.CategoryDate, `\b(\d{4}-\d{2}-\d{2})\b`, "ISO date", 10),
		mk(model.CategoryDate, `(?i)\b((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:,?\s*\d{4})?)`, "month-name date", 20),
		mk(model.CategoryDate, `(?i)\b(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`, "slash date, month first", 40),

		mk(model.CategoryTime, `(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm))\b`, "12-hour clock", 10),
		mk(model.CategoryTime, `\b((?:[01]?\d|2[0-3]):[0-5]\d)\b`, "24-hour clock", 30),

		mk(model.CategoryPrice, `(?i)(?:₱|php)\s*([\d,]+(?:\.\d{1,2})?)`, "peso-marked amount", 10),
		mk(model.CategoryPrice, `(?i)\b(?:presale|door|cover|entrance|entry|damage|dmg)\s*:?\s*₱?\s*(\d{2,5})\b`, "labeled cover charge", 20),

		mk(model.CategoryVenue, `📍\s*([^\n|•]+)`, "pin-marked venue", 10),
		mk(model.CategoryVenue, `(?i)\b(?:at|sa)\s+([A-Z][\w&'.-]*(?:\s+[A-Z][\w&'.-]*){0,4})`, "at/sa venue phrase", 30),

		mk(model.CategorySignupURL, `(https?://[^\s<>"']+)`, "bare URL", 10),
	}
}

// Seed inserts the default rule set, skipping any (category, pattern) pair
// already present so repeated migrations stay idempotent.
func Seed(ctx context.Context, store Store) error {
	existing, err := store.ListRules(ctx, RuleFilter{IncludeInactive: true, Limit: 1000})
	if err != nil {
		return err
	}
	present := make(map[[2]string]bool, len(existing))
	for _, r := range existing {
		present[[2]string{r.Category, r.Pattern}] = true
	}

	var created int
	for _, r := range defaultRules() {
		if present[[2]string{r.Category, r.Pattern}] {
			continue
		}
		if err := store.CreateRule(ctx, &r); err != nil {
			return err
		}
		created++
	}

	zap.L().Info("rules: seeded defaults",
		zap.Int("created", created),
		zap.Int("skipped", len(defaultRules())-created),
	)
	return nil
}
