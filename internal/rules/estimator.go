package rules

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Deactivation thresholds: a rule with at least minObservations outcomes
// and a failure rate above failureRateCutoff is switched off. The flip is
// one-directional; only external review turns a rule back on.
const (
	minObservations   = 10
	failureRateCutoff = 0.7
)

// recordTimeout bounds each detached stats write.
const recordTimeout = 10 * time.Second

// Estimator updates rule success/failure counters and recomputes the
// Wilson-score confidence after each use.
type Estimator struct {
	store Store
}

// NewEstimator creates an Estimator backed by the given store.
func NewEstimator(store Store) *Estimator {
	return &Estimator{store: store}
}

// RecordOutcome schedules a counter update for the rule. It never blocks
// the caller and never reports an error to it; persistence failures are
// logged and dropped. Lost updates under concurrent load are accepted — a
// missed increment only delays a deactivation decision.
func (e *Estimator) RecordOutcome(ruleID string, success bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		e.record(ctx, ruleID, success)
	}()
}

// record performs the synchronous update: increment, rescore, and
// deactivate when the rule has proven unreliable.
func (e *Estimator) record(ctx context.Context, ruleID string, success bool) {
	rule, err := e.store.IncrementRuleStats(ctx, ruleID, success)
	if err != nil {
		zap.L().Warn("estimator: increment failed",
			zap.String("rule_id", ruleID),
			zap.Bool("success", success),
			zap.Error(err),
		)
		return
	}

	score := WilsonLowerBound(rule.SuccessCount, rule.FailureCount)
	if err := e.store.SetRuleConfidence(ctx, ruleID, score); err != nil {
		zap.L().Warn("estimator: set confidence failed",
			zap.String("rule_id", ruleID),
			zap.Error(err),
		)
		return
	}

	n := rule.Observations()
	if n >= minObservations && float64(rule.FailureCount)/float64(n) > failureRateCutoff {
		if err := e.store.SetRuleActive(ctx, ruleID, false); err != nil {
			zap.L().Warn("estimator: deactivate failed",
				zap.String("rule_id", ruleID),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("estimator: rule deactivated",
			zap.String("rule_id", ruleID),
			zap.String("category", rule.Category),
			zap.Int("successes", rule.SuccessCount),
			zap.Int("failures", rule.FailureCount),
		)
	}
}
