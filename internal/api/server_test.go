package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nightgrid/captiond/internal/model"
	"github.com/nightgrid/captiond/internal/rules"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEngine struct {
	lastPost model.Post
	result   *model.MergedResult
}

func (f *fakeEngine) Extract(_ context.Context, post model.Post) (*model.MergedResult, error) {
	f.lastPost = post
	return f.result, nil
}

func newTestServer(t *testing.T) (*Server, *fakeEngine, rules.Store) {
	t.Helper()
	store, err := rules.NewSQLite(filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	engine := &fakeEngine{result: &model.MergedResult{
		PostID:        "p1",
		Fields:        map[string]any{model.FieldEventDate: "2025-12-07"},
		Sources:       map[string]model.FieldSource{model.FieldEventDate: model.SourceBoth},
		OverallSource: model.OverallBoth,
		Confidence:    0.9,
	}}
	return NewServer(0, engine, store), engine, store
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestExtractEndpoint(t *testing.T) {
	s, engine, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/extract", map[string]any{
		"post_id":   "p1",
		"caption":   "DEC 7 sa Nokal",
		"posted_at": "2025-11-15T18:00:00+08:00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got model.MergedResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "p1", got.PostID)
	assert.Equal(t, model.OverallBoth, got.OverallSource)
	assert.Equal(t, "DEC 7 sa Nokal", engine.lastPost.Caption)
	assert.Equal(t, 2025, engine.lastPost.PostedAt.Year())
}

func TestExtractValidation(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/extract", map[string]any{"caption": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/extract", map[string]any{
		"caption": "x", "posted_at": "yesterday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "RFC3339")
}

func TestExtractWithoutEngine(t *testing.T) {
	s, _, store := newTestServer(t)
	s = NewServer(0, nil, store)

	rec := do(t, s, http.MethodPost, "/api/v1/extract", map[string]any{"caption": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRuleLifecycleOverHTTP(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/rules", map[string]any{
		"category": "price",
		"pattern":  `(?i)₱\s*(\d+)`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rule model.Rule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.True(t, rule.IsActive)

	rec = do(t, s, http.MethodGet, "/api/v1/rules?category=price", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), rule.ID)

	rec = do(t, s, http.MethodPost, "/api/v1/rules/"+rule.ID+"/deactivate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/rules?category=price", nil)
	assert.NotContains(t, rec.Body.String(), rule.ID, "deactivated rules are hidden by default")

	rec = do(t, s, http.MethodGet, "/api/v1/rules?category=price&include_inactive=true", nil)
	assert.Contains(t, rec.Body.String(), rule.ID)
}

func TestCreateRuleRejectsBadPattern(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/rules", map[string]any{
		"category": "price",
		"pattern":  `([`,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestionLifecycleOverHTTP(t *testing.T) {
	s, _, store := newTestServer(t)
	ctx := context.Background()

	sg := &model.PatternSuggestion{
		Category:      model.CategoryVenue,
		SampleText:    "📍 Balcony",
		ExpectedValue: "Balcony",
	}
	require.NoError(t, store.UpsertSuggestion(ctx, sg))

	rec := do(t, s, http.MethodGet, "/api/v1/suggestions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Balcony")

	rec = do(t, s, http.MethodPost, "/api/v1/suggestions/"+sg.ID+"/approve", map[string]any{
		"pattern": `📍\s*(Balcony)`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rule model.Rule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.Equal(t, model.RuleSourceLearned, rule.Source)
	assert.False(t, rule.IsActive)

	// Activation is a separate approval on the rule itself.
	rec = do(t, s, http.MethodPost, "/api/v1/rules/"+rule.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestRejectSuggestionOverHTTP(t *testing.T) {
	s, _, store := newTestServer(t)
	ctx := context.Background()

	sg := &model.PatternSuggestion{Category: model.CategoryPrice, SampleText: "x", ExpectedValue: "300"}
	require.NoError(t, store.UpsertSuggestion(ctx, sg))

	rec := do(t, s, http.MethodPost, "/api/v1/suggestions/"+sg.ID+"/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := store.GetSuggestion(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionRejected, got.Status)
}
