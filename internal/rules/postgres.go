package rules

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/nightgrid/captiond/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists queries prepared on each new connection for the
// hot selection and stats paths.
var preparedStatements = map[string]string{
	"active_rules": `SELECT id, category, pattern, description, confidence_score, success_count, failure_count, priority, source, is_active, created_at, updated_at FROM rules WHERE category = $1 AND is_active AND confidence_score >= $2 ORDER BY priority ASC, confidence_score DESC LIMIT $3`,
	"get_rule":     `SELECT id, category, pattern, description, confidence_score, success_count, failure_count, priority, source, is_active, created_at, updated_at FROM rules WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS rules (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	category         TEXT NOT NULL,
	pattern          TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	success_count    INTEGER NOT NULL DEFAULT 0,
	failure_count    INTEGER NOT NULL DEFAULT 0,
	priority         INTEGER NOT NULL DEFAULT 100,
	source           TEXT NOT NULL DEFAULT 'manual',
	is_active        BOOLEAN NOT NULL DEFAULT true,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ground_truth (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	post_id          TEXT NOT NULL,
	field_name       TEXT NOT NULL,
	normalized_value TEXT NOT NULL,
	original_text    TEXT NOT NULL,
	source           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pattern_suggestions (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	category       TEXT NOT NULL,
	sample_text    TEXT NOT NULL,
	expected_value TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	attempt_count  INTEGER NOT NULL DEFAULT 1,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_rules_selection
	ON rules(category, is_active, confidence_score);
CREATE INDEX IF NOT EXISTS idx_ground_truth_post ON ground_truth(post_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_suggestions_pending
	ON pattern_suggestions(category, expected_value) WHERE status = 'pending';
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRule(ctx context.Context, rule *model.Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO rules (id, category, pattern, description, confidence_score,
			success_count, failure_count, priority, source, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rule.ID, rule.Category, rule.Pattern, rule.Description, rule.ConfidenceScore,
		rule.SuccessCount, rule.FailureCount, rule.Priority, string(rule.Source),
		rule.IsActive, now, now,
	)
	return eris.Wrap(err, "postgres: insert rule")
}

func (s *PostgresStore) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, category, pattern, description, confidence_score, success_count, failure_count, priority, source, is_active, created_at, updated_at FROM rules WHERE id = $1`,
		id,
	)
	return scanPgRule(row)
}

func (s *PostgresStore) ListRules(ctx context.Context, filter RuleFilter) ([]model.Rule, error) {
	query := `SELECT id, category, pattern, description, confidence_score, success_count, failure_count, priority, source, is_active, created_at, updated_at FROM rules WHERE 1=1`
	var args []any
	arg := 0

	next := func(v any) string {
		arg++
		args = append(args, v)
		return "$" + strconv.Itoa(arg)
	}

	if filter.Category != "" {
		query += ` AND category = ` + next(filter.Category)
	}
	if !filter.IncludeInactive {
		query += ` AND is_active`
	}
	query += ` ORDER BY category, priority ASC, confidence_score DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + next(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + next(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rules")
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		r, err := scanPgRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list rules iterate")
}

func (s *PostgresStore) ActiveRules(ctx context.Context, category string, minConfidence float64, limit int) ([]model.Rule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, category, pattern, description, confidence_score, success_count, failure_count, priority, source, is_active, created_at, updated_at FROM rules WHERE category = $1 AND is_active AND confidence_score >= $2 ORDER BY priority ASC, confidence_score DESC LIMIT $3`,
		category, minConfidence, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: active rules %s", category)
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		r, err := scanPgRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: active rules iterate")
}

func (s *PostgresStore) IncrementRuleStats(ctx context.Context, id string, success bool) (*model.Rule, error) {
	column := "failure_count"
	if success {
		column = "success_count"
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE rules SET `+column+` = `+column+` + 1, updated_at = now() WHERE id = $1
		 RETURNING id, category, pattern, description, confidence_score, success_count, failure_count, priority, source, is_active, created_at, updated_at`,
		id,
	)
	r, err := scanPgRule(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: increment stats %s", id)
	}
	return r, nil
}

func (s *PostgresStore) SetRuleConfidence(ctx context.Context, id string, score float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rules SET confidence_score = $1, updated_at = now() WHERE id = $2`,
		score, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set confidence %s", id)
	}
	return checkTag(tag, "rule", id)
}

func (s *PostgresStore) SetRuleActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rules SET is_active = $1, updated_at = now() WHERE id = $2`,
		active, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set active %s", id)
	}
	return checkTag(tag, "rule", id)
}

func (s *PostgresStore) CreateGroundTruth(ctx context.Context, rec *model.GroundTruthRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ground_truth (id, post_id, field_name, normalized_value, original_text, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.PostID, rec.FieldName, rec.NormalizedValue, rec.OriginalText,
		string(rec.Source), rec.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert ground truth")
}

func (s *PostgresStore) UpsertSuggestion(ctx context.Context, sg *model.PatternSuggestion) error {
	if sg.ID == "" {
		sg.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sg.Status = model.SuggestionPending
	if sg.AttemptCount <= 0 {
		sg.AttemptCount = 1
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO pattern_suggestions (id, category, sample_text, expected_value, status, attempt_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (category, expected_value) WHERE status = 'pending'
		 DO UPDATE SET attempt_count = pattern_suggestions.attempt_count + 1, updated_at = excluded.updated_at`,
		sg.ID, sg.Category, sg.SampleText, sg.ExpectedValue, string(sg.Status),
		sg.AttemptCount, now, now,
	)
	return eris.Wrap(err, "postgres: upsert suggestion")
}

func (s *PostgresStore) GetSuggestion(ctx context.Context, id string) (*model.PatternSuggestion, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, category, sample_text, expected_value, status, attempt_count, created_at, updated_at
		 FROM pattern_suggestions WHERE id = $1`, id)
	return scanPgSuggestion(row)
}

func (s *PostgresStore) ListSuggestions(ctx context.Context, status model.SuggestionStatus, limit int) ([]model.PatternSuggestion, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, category, sample_text, expected_value, status, attempt_count, created_at, updated_at
		 FROM pattern_suggestions WHERE 1=1`
	var args []any
	if status != "" {
		args = append(args, string(status))
		query += ` AND status = $1`
	}
	args = append(args, limit)
	query += ` ORDER BY attempt_count DESC, updated_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suggestions")
	}
	defer rows.Close()

	var out []model.PatternSuggestion
	for rows.Next() {
		sg, err := scanPgSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sg)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list suggestions iterate")
}

func (s *PostgresStore) UpdateSuggestionStatus(ctx context.Context, id string, status model.SuggestionStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pattern_suggestions SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update suggestion %s", id)
	}
	return checkTag(tag, "suggestion", id)
}

// helpers

func checkTag(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func scanPgRule(row pgx.Row) (*model.Rule, error) {
	var r model.Rule
	var source string

	err := row.Scan(&r.ID, &r.Category, &r.Pattern, &r.Description, &r.ConfidenceScore,
		&r.SuccessCount, &r.FailureCount, &r.Priority, &source, &r.IsActive,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("rule not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan rule")
	}
	r.Source = model.RuleSource(source)
	return &r, nil
}

func scanPgSuggestion(row pgx.Row) (*model.PatternSuggestion, error) {
	var sg model.PatternSuggestion
	var status string

	err := row.Scan(&sg.ID, &sg.Category, &sg.SampleText, &sg.ExpectedValue,
		&status, &sg.AttemptCount, &sg.CreatedAt, &sg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("suggestion not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan suggestion")
	}
	sg.Status = model.SuggestionStatus(status)
	return &sg, nil
}

