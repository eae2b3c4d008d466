// Package consensus reconciles the rule engine's extraction with the
// oracle's answer into one source-attributed result per post.
package consensus

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nightgrid/captiond/internal/model"
	"github.com/nightgrid/captiond/internal/oracle"
	"github.com/nightgrid/captiond/internal/parsers"
	"github.com/nightgrid/captiond/internal/rules"
)

// Trainer receives high-confidence merged results for ground-truth
// capture. Implementations must detach their own work; the engine calls
// this on the request path.
type Trainer interface {
	OnHighConfidenceResult(post model.Post, merged *model.MergedResult, ruleIDs map[string]string)
}

// Engine runs both extractors concurrently and merges their answers.
type Engine struct {
	selector *rules.Selector
	oracle   oracle.Extractor
	trainer  Trainer
}

// NewEngine creates a consensus engine. trainer may be nil to disable
// ground-truth capture.
func NewEngine(selector *rules.Selector, ex oracle.Extractor, trainer Trainer) *Engine {
	return &Engine{selector: selector, oracle: ex, trainer: trainer}
}

// Extract produces the consensus result for one post. The rule-engine
// pass and the oracle call run concurrently; an oracle failure degrades
// the merge to rule-engine output and is never surfaced to the caller.
func (e *Engine) Extract(ctx context.Context, post model.Post) (*model.MergedResult, error) {
	var ruleRes, aiRes *model.ExtractionResult

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ruleRes = e.ruleExtract(ctx, post)
	}()
	go func() {
		defer wg.Done()
		res, err := e.oracle.Extract(ctx, post)
		if err != nil {
			zap.L().Warn("consensus: oracle unavailable, degrading to rule engine",
				zap.String("post_id", post.ID),
				zap.Error(err),
			)
			return
		}
		aiRes = res
	}()
	wg.Wait()

	merged := Merge(post.ID, ruleRes, aiRes)

	if e.trainer != nil && aiRes != nil {
		var ruleIDs map[string]string
		if ruleRes != nil {
			ruleIDs = ruleRes.RuleIDs
		}
		e.trainer.OnHighConfidenceResult(post, merged, ruleIDs)
	}

	return merged, nil
}

// categoryOutcome is one category goroutine's contribution to the
// rule-engine result.
type categoryOutcome struct {
	fields  map[string]any
	ruleIDs map[string]string
}

// ruleExtract runs the per-category lookups concurrently. Each category
// tries the stored-rule selector first and falls back to the built-in
// heuristic parser; ranged end fields always come from the range-aware
// heuristics since a single-capture rule cannot tell endpoints apart.
func (e *Engine) ruleExtract(ctx context.Context, post model.Post) *model.ExtractionResult {
	result := &model.ExtractionResult{
		Fields:  map[string]any{},
		RuleIDs: map[string]string{},
	}

	jobs := []struct {
		category   string
		startField string
		endField   string
	}{
		{model.CategoryDate, model.FieldEventDate, model.FieldEventEndDate},
		{model.CategoryTime, model.FieldEventTime, model.FieldEndTime},
		{model.CategoryVenue, model.FieldLocationName, ""},
		{model.CategoryPrice, model.FieldPrice, ""},
		{model.CategorySignupURL, model.FieldSignupURL, ""},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, job := range jobs {
		g.Go(func() error {
			out := e.extractCategory(gctx, post, job.category, job.startField, job.endField)
			mu.Lock()
			for k, v := range out.fields {
				result.Fields[k] = v
			}
			for k, v := range out.ruleIDs {
				result.RuleIDs[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (e *Engine) extractCategory(ctx context.Context, post model.Post, category, startField, endField string) categoryOutcome {
	out := categoryOutcome{
		fields:  map[string]any{},
		ruleIDs: map[string]string{},
	}

	sel, err := e.selector.Select(ctx, category, post.Caption)
	if err != nil {
		zap.L().Warn("consensus: rule selection failed",
			zap.String("post_id", post.ID),
			zap.String("category", category),
			zap.Error(err),
		)
		sel = nil
	}

	if sel != nil {
		out.fields[startField] = normalizeRuleValue(startField, sel.Value, post)
		out.ruleIDs[startField] = sel.RuleID
	} else if parse := parsers.ForField(startField); parse != nil {
		if v, ok := parse(post.Caption, post.PostedAt); ok {
			out.fields[startField] = v
			// Empty rule id marks a heuristic-fallback value.
			out.ruleIDs[startField] = ""
		}
	}

	if endField != "" {
		if parse := parsers.ForField(endField); parse != nil {
			if v, ok := parse(post.Caption, post.PostedAt); ok {
				out.fields[endField] = v
				out.ruleIDs[endField] = ""
			}
		}
	}

	return out
}

// normalizeRuleValue re-parses a rule's matched span into the field's
// canonical form ("Dec 20" becomes 2025-12-20). An unparseable span is
// kept raw so the merge can still compare it generically.
func normalizeRuleValue(field, value string, post model.Post) any {
	parse := parsers.ForField(field)
	if parse == nil {
		return value
	}
	if v, ok := parse(value, post.PostedAt); ok {
		return v
	}
	return value
}
