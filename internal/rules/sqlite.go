package rules

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/nightgrid/captiond/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS rules (
	id               TEXT PRIMARY KEY,
	category         TEXT NOT NULL,
	pattern          TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	confidence_score REAL NOT NULL DEFAULT 0.5,
	success_count    INTEGER NOT NULL DEFAULT 0,
	failure_count    INTEGER NOT NULL DEFAULT 0,
	priority         INTEGER NOT NULL DEFAULT 100,
	source           TEXT NOT NULL DEFAULT 'manual',
	is_active        INTEGER NOT NULL DEFAULT 1,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ground_truth (
	id               TEXT PRIMARY KEY,
	post_id          TEXT NOT NULL,
	field_name       TEXT NOT NULL,
	normalized_value TEXT NOT NULL,
	original_text    TEXT NOT NULL,
	source           TEXT NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pattern_suggestions (
	id             TEXT PRIMARY KEY,
	category       TEXT NOT NULL,
	sample_text    TEXT NOT NULL,
	expected_value TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	attempt_count  INTEGER NOT NULL DEFAULT 1,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_rules_selection
	ON rules(category, is_active, confidence_score);
CREATE INDEX IF NOT EXISTS idx_ground_truth_post ON ground_truth(post_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_suggestions_pending
	ON pattern_suggestions(category, expected_value) WHERE status = 'pending';
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRule(ctx context.Context, rule *model.Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rules (id, category, pattern, description, confidence_score,
			success_count, failure_count, priority, source, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Category, rule.Pattern, rule.Description, rule.ConfidenceScore,
		rule.SuccessCount, rule.FailureCount, rule.Priority, string(rule.Source),
		boolToInt(rule.IsActive), now, now,
	)
	return eris.Wrap(err, "sqlite: insert rule")
}

func (s *SQLiteStore) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id)
	return scanRule(row)
}

func (s *SQLiteStore) ListRules(ctx context.Context, filter RuleFilter) ([]model.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if !filter.IncludeInactive {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY category, priority ASC, confidence_score DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rules")
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list rules iterate")
}

func (s *SQLiteStore) ActiveRules(ctx context.Context, category string, minConfidence float64, limit int) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM rules
		 WHERE category = ? AND is_active = 1 AND confidence_score >= ?
		 ORDER BY priority ASC, confidence_score DESC
		 LIMIT ?`,
		category, minConfidence, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: active rules %s", category)
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: active rules iterate")
}

func (s *SQLiteStore) IncrementRuleStats(ctx context.Context, id string, success bool) (*model.Rule, error) {
	column := "failure_count"
	if success {
		column = "success_count"
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE rules SET `+column+` = `+column+` + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: increment stats %s", id)
	}
	if err := checkRowsAffected(res, "rule", id); err != nil {
		return nil, err
	}
	return s.GetRule(ctx, id)
}

func (s *SQLiteStore) SetRuleConfidence(ctx context.Context, id string, score float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rules SET confidence_score = ?, updated_at = ? WHERE id = ?`,
		score, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set confidence %s", id)
	}
	return checkRowsAffected(res, "rule", id)
}

func (s *SQLiteStore) SetRuleActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rules SET is_active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set active %s", id)
	}
	return checkRowsAffected(res, "rule", id)
}

func (s *SQLiteStore) CreateGroundTruth(ctx context.Context, rec *model.GroundTruthRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ground_truth (id, post_id, field_name, normalized_value, original_text, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PostID, rec.FieldName, rec.NormalizedValue, rec.OriginalText,
		string(rec.Source), rec.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert ground truth")
}

func (s *SQLiteStore) UpsertSuggestion(ctx context.Context, sg *model.PatternSuggestion) error {
	if sg.ID == "" {
		sg.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sg.Status = model.SuggestionPending
	if sg.AttemptCount <= 0 {
		sg.AttemptCount = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pattern_suggestions (id, category, sample_text, expected_value, status, attempt_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(category, expected_value) WHERE status = 'pending'
		 DO UPDATE SET attempt_count = attempt_count + 1, updated_at = excluded.updated_at`,
		sg.ID, sg.Category, sg.SampleText, sg.ExpectedValue, string(sg.Status),
		sg.AttemptCount, now, now,
	)
	return eris.Wrap(err, "sqlite: upsert suggestion")
}

func (s *SQLiteStore) GetSuggestion(ctx context.Context, id string) (*model.PatternSuggestion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, category, sample_text, expected_value, status, attempt_count, created_at, updated_at
		 FROM pattern_suggestions WHERE id = ?`, id)
	return scanSuggestion(row)
}

func (s *SQLiteStore) ListSuggestions(ctx context.Context, status model.SuggestionStatus, limit int) ([]model.PatternSuggestion, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, category, sample_text, expected_value, status, attempt_count, created_at, updated_at
		 FROM pattern_suggestions WHERE 1=1`
	var args []any
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY attempt_count DESC, updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list suggestions")
	}
	defer rows.Close()

	var out []model.PatternSuggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sg)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list suggestions iterate")
}

func (s *SQLiteStore) UpdateSuggestionStatus(ctx context.Context, id string, status model.SuggestionStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pattern_suggestions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update suggestion %s", id)
	}
	return checkRowsAffected(res, "suggestion", id)
}

// helpers

const ruleColumns = `id, category, pattern, description, confidence_score,
	success_count, failure_count, priority, source, is_active, created_at, updated_at`

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRule(row scannable) (*model.Rule, error) {
	var r model.Rule
	var source string
	var active int

	err := row.Scan(&r.ID, &r.Category, &r.Pattern, &r.Description, &r.ConfidenceScore,
		&r.SuccessCount, &r.FailureCount, &r.Priority, &source, &active,
		&r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("rule not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan rule")
	}
	r.Source = model.RuleSource(source)
	r.IsActive = active != 0
	return &r, nil
}

func scanSuggestion(row scannable) (*model.PatternSuggestion, error) {
	var sg model.PatternSuggestion
	var status string

	err := row.Scan(&sg.ID, &sg.Category, &sg.SampleText, &sg.ExpectedValue,
		&status, &sg.AttemptCount, &sg.CreatedAt, &sg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("suggestion not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan suggestion")
	}
	sg.Status = model.SuggestionStatus(status)
	return &sg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
