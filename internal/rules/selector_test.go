package rules

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightgrid/captiond/internal/config"
	"github.com/nightgrid/captiond/internal/model"
)

// selectorStore records what the selector asks for and which rules get
// their counters touched.
type selectorStore struct {
	Store
	mu            sync.Mutex
	rules         []model.Rule
	gotFloor      float64
	gotLimit      int
	incremented   []string
	incrementedOK []bool
}

func (s *selectorStore) ActiveRules(_ context.Context, _ string, minConfidence float64, limit int) ([]model.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotFloor = minConfidence
	s.gotLimit = limit
	return s.rules, nil
}

func (s *selectorStore) IncrementRuleStats(_ context.Context, id string, success bool) (*model.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incremented = append(s.incremented, id)
	s.incrementedOK = append(s.incrementedOK, success)
	return &model.Rule{ID: id, IsActive: true}, nil
}

func (s *selectorStore) SetRuleConfidence(context.Context, string, float64) error { return nil }
func (s *selectorStore) SetRuleActive(context.Context, string, bool) error        { return nil }

func (s *selectorStore) debited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.incremented...)
}

func newTestSelector(store *selectorStore) *Selector {
	cfg := config.RulesConfig{
		Floors:       map[string]float64{"date": 0.5},
		DefaultFloor: 0.3,
		FetchLimit:   20,
	}
	return NewSelector(store, cfg, NewEstimator(store))
}

func TestSelectorFirstMatchWins(t *testing.T) {
	store := &selectorStore{rules: []model.Rule{
		{ID: "r1", Pattern: `\bnever-matches-\d+\b`, IsActive: true},
		{ID: "r2", Pattern: `(?i)₱\s*(\d+)`, IsActive: true},
		{ID: "r3", Pattern: `(\d+)`, IsActive: true},
	}}

	sel, err := newTestSelector(store).Select(context.Background(), "price", "entrance ₱500")
	require.NoError(t, err)
	require.NotNil(t, sel)
	assert.Equal(t, "r2", sel.RuleID)
	assert.Equal(t, "500", sel.Value)
	assert.Empty(t, store.debited())
}

func TestSelectorCaptureGroupVersusFullMatch(t *testing.T) {
	store := &selectorStore{rules: []model.Rule{
		{ID: "full", Pattern: `tonight`, IsActive: true},
	}}

	sel, err := newTestSelector(store).Select(context.Background(), "date", "see you tonight")
	require.NoError(t, err)
	require.NotNil(t, sel)
	assert.Equal(t, "tonight", sel.Value)
}

func TestSelectorSkipsInvalidPatternWithoutDebit(t *testing.T) {
	store := &selectorStore{rules: []model.Rule{
		{ID: "broken", Pattern: `([`, IsActive: true},
		{ID: "good", Pattern: `(\d{4}-\d{2}-\d{2})`, IsActive: true},
	}}

	sel, err := newTestSelector(store).Select(context.Background(), "date", "on 2025-12-07")
	require.NoError(t, err)
	require.NotNil(t, sel)
	assert.Equal(t, "good", sel.RuleID)
	assert.Empty(t, store.debited(), "a broken pattern never touches counters")
}

func TestSelectorNoMatchDebitsFirstValidRule(t *testing.T) {
	store := &selectorStore{rules: []model.Rule{
		{ID: "broken", Pattern: `([`, IsActive: true},
		{ID: "v1", Pattern: `\bnope-\d+\b`, IsActive: true},
		{ID: "v2", Pattern: `\balso-nope\b`, IsActive: true},
	}}

	sel, err := newTestSelector(store).Select(context.Background(), "date", "no dates here")
	require.NoError(t, err)
	assert.Nil(t, sel)

	assert.Eventually(t, func() bool {
		d := store.debited()
		return len(d) == 1 && d[0] == "v1"
	}, time.Second, 10*time.Millisecond)
}

func TestSelectorNoCandidatesNoDebit(t *testing.T) {
	store := &selectorStore{}

	sel, err := newTestSelector(store).Select(context.Background(), "venue", "anything")
	require.NoError(t, err)
	assert.Nil(t, sel)
	assert.Empty(t, store.debited())
}

func TestSelectorAppliesCategoryFloorAndLimit(t *testing.T) {
	store := &selectorStore{}
	s := newTestSelector(store)

	_, err := s.Select(context.Background(), "date", "text")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, store.gotFloor, 1e-9)
	assert.Equal(t, 20, store.gotLimit)

	_, err = s.Select(context.Background(), "venue", "text")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, store.gotFloor, 1e-9)
}
