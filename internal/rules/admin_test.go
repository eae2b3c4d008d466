package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightgrid/captiond/internal/model"
)

func TestCreateManualRule(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	rule, err := CreateManualRule(ctx, store, model.CategoryPrice, `(?i)php\s*(\d+)`, "php-marked amount", 0)
	require.NoError(t, err)
	assert.Equal(t, model.RuleSourceManual, rule.Source)
	assert.True(t, rule.IsActive)
	assert.Equal(t, 100, rule.Priority)

	_, err = CreateManualRule(ctx, store, "bogus", `x`, "", 0)
	assert.ErrorContains(t, err, "unknown category")

	_, err = CreateManualRule(ctx, store, model.CategoryDate, `([`, "", 0)
	assert.ErrorContains(t, err, "does not compile")
}

func TestApproveSuggestionCreatesInactiveLearnedRule(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	sg := &model.PatternSuggestion{
		Category:      model.CategoryVenue,
		SampleText:    "see you sa Nokal",
		ExpectedValue: "Nokal",
	}
	require.NoError(t, store.UpsertSuggestion(ctx, sg))

	rule, err := ApproveSuggestion(ctx, store, sg.ID, `(?i)\bsa\s+(Nokal)\b`, 0)
	require.NoError(t, err)
	assert.Equal(t, model.RuleSourceLearned, rule.Source)
	assert.Equal(t, model.CategoryVenue, rule.Category)
	assert.False(t, rule.IsActive, "learned rules start inactive")

	got, err := store.GetSuggestion(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionApproved, got.Status)

	// Approving twice fails: the suggestion is no longer pending.
	_, err = ApproveSuggestion(ctx, store, sg.ID, `x`, 0)
	assert.ErrorContains(t, err, "not pending")
}

func TestApproveSuggestionRejectsBadPattern(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	sg := &model.PatternSuggestion{Category: model.CategoryDate, SampleText: "x", ExpectedValue: "2025-12-07"}
	require.NoError(t, store.UpsertSuggestion(ctx, sg))

	_, err := ApproveSuggestion(ctx, store, sg.ID, `([`, 0)
	assert.ErrorContains(t, err, "does not compile")

	got, err := store.GetSuggestion(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionPending, got.Status, "a failed approval leaves the suggestion pending")
}

func TestApproveRuleActivatesLearnedOnly(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	learned := &model.Rule{Category: model.CategoryTime, Pattern: `t`, Source: model.RuleSourceLearned}
	require.NoError(t, store.CreateRule(ctx, learned))

	rule, err := ApproveRule(ctx, store, learned.ID)
	require.NoError(t, err)
	assert.True(t, rule.IsActive)

	manual := &model.Rule{Category: model.CategoryTime, Pattern: `t`, Source: model.RuleSourceManual, IsActive: true}
	require.NoError(t, store.CreateRule(ctx, manual))
	_, err = ApproveRule(ctx, store, manual.ID)
	assert.ErrorContains(t, err, "only learned rules")
}

func TestRejectSuggestion(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	sg := &model.PatternSuggestion{Category: model.CategoryPrice, SampleText: "x", ExpectedValue: "500"}
	require.NoError(t, store.UpsertSuggestion(ctx, sg))

	require.NoError(t, RejectSuggestion(ctx, store, sg.ID))

	got, err := store.GetSuggestion(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionRejected, got.Status)

	assert.Error(t, RejectSuggestion(ctx, store, sg.ID))
}

func TestDeactivateRule(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	rule := &model.Rule{Category: model.CategoryDate, Pattern: `d`, IsActive: true}
	require.NoError(t, store.CreateRule(ctx, rule))

	require.NoError(t, DeactivateRule(ctx, store, rule.ID))
	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.Error(t, DeactivateRule(ctx, store, "missing"))
}
