// Package trainer turns high-confidence consensus results into training
// signal: validated ground-truth records, rule credit/debit, and pattern
// suggestions for values only the oracle could extract.
package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nightgrid/captiond/internal/config"
	"github.com/nightgrid/captiond/internal/model"
	"github.com/nightgrid/captiond/internal/rules"
)

// defaultConfidenceGate is the minimum merged confidence for ground
// truth capture.
const defaultConfidenceGate = 0.7

// processTimeout bounds one detached training pass.
const processTimeout = 30 * time.Second

// Recorder implements the ground-truth capture and rule-training loop.
type Recorder struct {
	store     rules.Store
	estimator *rules.Estimator
	gate      float64
}

// NewRecorder creates a Recorder.
func NewRecorder(store rules.Store, estimator *rules.Estimator, cfg config.TrainerConfig) *Recorder {
	gate := cfg.ConfidenceGate
	if gate <= 0 {
		gate = defaultConfidenceGate
	}
	return &Recorder{store: store, estimator: estimator, gate: gate}
}

// OnHighConfidenceResult schedules a training pass for the merged
// result. Below the confidence gate it does nothing at all. The pass is
// detached; the caller's response never waits on it and persistence
// failures are logged and dropped.
func (r *Recorder) OnHighConfidenceResult(post model.Post, merged *model.MergedResult, ruleIDs map[string]string) {
	if merged == nil || merged.Confidence < r.gate {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		r.process(ctx, post, merged, ruleIDs)
	}()
}

func (r *Recorder) process(ctx context.Context, post model.Post, merged *model.MergedResult, ruleIDs map[string]string) {
	conflicted := make(map[string]bool, len(merged.Conflicts))
	for _, c := range merged.Conflicts {
		conflicted[c.Field] = true
	}

	for _, field := range model.TrackedFields {
		value, ok := merged.Fields[field]
		if !ok || value == nil {
			continue
		}

		span, found := Locate(field, post.Caption, value, post.PostedAt)
		if !found {
			zap.L().Debug("trainer: no validated span, skipping field",
				zap.String("post_id", post.ID),
				zap.String("field", field),
			)
			continue
		}

		rec := &model.GroundTruthRecord{
			ID:              uuid.NewString(),
			PostID:          post.ID,
			FieldName:       field,
			NormalizedValue: stringValue(value),
			OriginalText:    span,
			Source:          merged.Sources[field],
			CreatedAt:       time.Now().UTC(),
		}
		if err := r.store.CreateGroundTruth(ctx, rec); err != nil {
			zap.L().Warn("trainer: ground truth write failed",
				zap.String("post_id", post.ID),
				zap.String("field", field),
				zap.Error(err),
			)
			continue
		}

		r.train(ctx, post, merged, field, value, ruleIDs, conflicted[field])
	}
}

// train credits or debits the matching rule, or proposes a new one when
// only the oracle produced the value.
func (r *Recorder) train(ctx context.Context, post model.Post, merged *model.MergedResult, field string, value any, ruleIDs map[string]string, conflicted bool) {
	ruleID := ruleIDs[field]

	if ruleID != "" {
		switch {
		case conflicted:
			r.estimator.RecordOutcome(ruleID, false)
		case merged.Sources[field] == model.SourceBoth:
			r.estimator.RecordOutcome(ruleID, true)
		}
		return
	}

	// Oracle-only value with no rule match: propose a learned rule. The
	// suggestion starts pending and becomes a rule only through approval.
	if merged.Sources[field] == model.SourceAI {
		category, ok := model.FieldCategory[field]
		if !ok {
			return
		}
		suggestion := &model.PatternSuggestion{
			ID:            uuid.NewString(),
			Category:      category,
			SampleText:    post.Caption,
			ExpectedValue: stringValue(value),
			Status:        model.SuggestionPending,
			AttemptCount:  1,
			CreatedAt:     time.Now().UTC(),
			UpdatedAt:     time.Now().UTC(),
		}
		if err := r.store.UpsertSuggestion(ctx, suggestion); err != nil {
			zap.L().Warn("trainer: suggestion upsert failed",
				zap.String("post_id", post.ID),
				zap.String("category", category),
				zap.Error(err),
			)
		}
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := v.(float64); ok {
		if f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprintf("%v", v)
}
