package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightgrid/captiond/internal/model"
)

func regexResult(fields map[string]any) *model.ExtractionResult {
	return &model.ExtractionResult{Fields: fields, RuleIDs: map[string]string{}}
}

func aiResult(fields map[string]any, confidence float64) *model.ExtractionResult {
	return &model.ExtractionResult{Fields: fields, Confidence: confidence}
}

func TestMergeAgreementProducesNoConflict(t *testing.T) {
	merged := Merge("p1",
		regexResult(map[string]any{model.FieldEventDate: "2025-12-07"}),
		aiResult(map[string]any{model.FieldEventDate: "2025-12-07"}, 0.9),
	)

	assert.Empty(t, merged.Conflicts)
	assert.Equal(t, model.SourceBoth, merged.Sources[model.FieldEventDate])
	assert.Equal(t, model.OverallBoth, merged.OverallSource)
	assert.Equal(t, "2025-12-07", merged.Fields[model.FieldEventDate])
}

func TestMergeEquivalentButNotIdentical(t *testing.T) {
	merged := Merge("p1",
		regexResult(map[string]any{model.FieldLocationName: "SM North"}),
		aiResult(map[string]any{model.FieldLocationName: "SM North EDSA"}, 0.8),
	)

	assert.Empty(t, merged.Conflicts)
	assert.Equal(t, model.SourceBoth, merged.Sources[model.FieldLocationName])
}

func TestMergeConflictOracleWinsAtHighConfidence(t *testing.T) {
	merged := Merge("p1",
		regexResult(map[string]any{model.FieldPrice: float64(300)}),
		aiResult(map[string]any{model.FieldPrice: float64(500)}, 0.9),
	)

	require.Len(t, merged.Conflicts, 1)
	assert.Equal(t, model.FieldPrice, merged.Conflicts[0].Field)
	assert.Equal(t, float64(300), merged.Conflicts[0].RegexValue)
	assert.Equal(t, float64(500), merged.Conflicts[0].AIValue)
	assert.Equal(t, float64(500), merged.Fields[model.FieldPrice])
	assert.Equal(t, model.OverallConflict, merged.OverallSource)
}

func TestMergeConflictRuleWinsAtLowOracleConfidence(t *testing.T) {
	merged := Merge("p1",
		regexResult(map[string]any{model.FieldPrice: float64(300)}),
		aiResult(map[string]any{model.FieldPrice: float64(500)}, 0.55),
	)

	require.Len(t, merged.Conflicts, 1)
	assert.Equal(t, float64(300), merged.Fields[model.FieldPrice])
}

func TestMergeSingleSidedFields(t *testing.T) {
	merged := Merge("p1",
		regexResult(map[string]any{model.FieldEventDate: "2025-12-07"}),
		aiResult(map[string]any{model.FieldLocationName: "The Victor"}, 0.85),
	)

	assert.Empty(t, merged.Conflicts)
	assert.Equal(t, model.SourceRegex, merged.Sources[model.FieldEventDate])
	assert.Equal(t, model.SourceAI, merged.Sources[model.FieldLocationName])
	assert.Equal(t, model.OverallBoth, merged.OverallSource)
}

func TestMergeDegradedToRegexOnly(t *testing.T) {
	merged := Merge("p1",
		regexResult(map[string]any{model.FieldEventTime: "22:00"}),
		nil,
	)

	assert.Equal(t, model.OverallRegexOnly, merged.OverallSource)
	assert.Equal(t, model.SourceRegex, merged.Sources[model.FieldEventTime])
	assert.Zero(t, merged.Confidence)
}

func TestMergeAIOnly(t *testing.T) {
	merged := Merge("p1",
		regexResult(map[string]any{}),
		aiResult(map[string]any{model.FieldEventDate: "2026-01-02"}, 0.8),
	)

	assert.Equal(t, model.OverallAIOnly, merged.OverallSource)
	assert.InDelta(t, 0.8, merged.Confidence, 1e-9)
}

func TestMergeNullNeverConflicts(t *testing.T) {
	merged := Merge("p1",
		regexResult(map[string]any{model.FieldEventDate: nil, model.FieldEventTime: "22:00"}),
		aiResult(map[string]any{model.FieldEventTime: nil}, 0.9),
	)

	assert.Empty(t, merged.Conflicts)
	assert.Equal(t, model.SourceRegex, merged.Sources[model.FieldEventTime])
	_, present := merged.Fields[model.FieldEventDate]
	assert.False(t, present)
}

func TestMergeCarriesOracleMeta(t *testing.T) {
	ai := aiResult(map[string]any{}, 0.9)
	ai.Meta = &model.OracleMeta{IsEvent: true, IsRecurring: true, RecurrencePattern: "weekly"}

	merged := Merge("p1", regexResult(map[string]any{}), ai)
	require.NotNil(t, merged.Meta)
	assert.True(t, merged.Meta.IsRecurring)
}
