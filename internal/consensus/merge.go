package consensus

import (
	"github.com/nightgrid/captiond/internal/model"
)

// oracleTrustThreshold is the oracle confidence above which a conflicted
// field resolves to the oracle's value.
const oracleTrustThreshold = 0.6

// Merge reconciles the rule-engine result with the oracle result for one
// post. ai may be nil when the oracle timed out or failed; the merge then
// degrades to rule-engine output alone.
func Merge(postID string, regex, ai *model.ExtractionResult) *model.MergedResult {
	merged := &model.MergedResult{
		PostID:  postID,
		Fields:  map[string]any{},
		Sources: map[string]model.FieldSource{},
	}
	if ai != nil {
		merged.Confidence = ai.Confidence
		merged.Reasoning = ai.Reasoning
		merged.Meta = ai.Meta
	}

	var regexFields, aiFields map[string]any
	if regex != nil {
		regexFields = regex.Fields
	}
	if ai != nil {
		aiFields = ai.Fields
	}

	for _, field := range model.TrackedFields {
		rv, rOK := present(regexFields, field)
		av, aOK := present(aiFields, field)

		switch {
		case rOK && aOK && Equivalent(field, rv, av):
			merged.Fields[field] = av
			merged.Sources[field] = model.SourceBoth
		case rOK && aOK:
			merged.Conflicts = append(merged.Conflicts, model.Conflict{
				Field:      field,
				RegexValue: rv,
				AIValue:    av,
			})
			if ai.Confidence >= oracleTrustThreshold {
				merged.Fields[field] = av
			} else {
				merged.Fields[field] = rv
			}
			merged.Sources[field] = model.SourceBoth
		case aOK:
			merged.Fields[field] = av
			merged.Sources[field] = model.SourceAI
		case rOK:
			merged.Fields[field] = rv
			merged.Sources[field] = model.SourceRegex
		}
	}

	merged.OverallSource = overallSource(merged, ai != nil)
	return merged
}

// overallSource derives the summary attribution from the per-field
// sources. Any conflict dominates; otherwise mixed or agreed fields mean
// both, and a single-sided result names its side.
func overallSource(m *model.MergedResult, oracleResponded bool) model.OverallSource {
	if len(m.Conflicts) > 0 {
		return model.OverallConflict
	}

	var sawRegex, sawAI bool
	for _, src := range m.Sources {
		switch src {
		case model.SourceRegex:
			sawRegex = true
		case model.SourceAI:
			sawAI = true
		case model.SourceBoth:
			sawRegex = true
			sawAI = true
		}
	}

	switch {
	case sawRegex && sawAI:
		return model.OverallBoth
	case sawRegex:
		return model.OverallRegexOnly
	case sawAI:
		return model.OverallAIOnly
	case oracleResponded:
		// Nothing extracted by either side; both still had their say.
		return model.OverallBoth
	default:
		return model.OverallRegexOnly
	}
}

func present(fields map[string]any, field string) (any, bool) {
	if fields == nil {
		return nil, false
	}
	v, ok := fields[field]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return nil, false
	}
	return v, true
}
