package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/impactlens/esg-cli/internal/db"
	"github.com/impactlens/esg-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_analysis":  `INSERT INTO analyses (id, company, result, created_at) VALUES ($1, $2, $3, $4)`,
	"latest_analysis":  `SELECT result FROM analyses WHERE company = $1 ORDER BY created_at DESC LIMIT 1`,
	"insert_scores":    `INSERT INTO esg_scores (id, company, e_score, s_score, g_score, overall_score, confidence, data_points, recorded_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"latest_scores":    `SELECT e_score, s_score, g_score, overall_score, confidence, data_points FROM esg_scores WHERE company = $1 ORDER BY recorded_at DESC LIMIT 1`,
	"get_cached_texts": `SELECT texts FROM text_cache WHERE cache_key = $1 AND expires_at > now() ORDER BY cached_at DESC LIMIT 1`,
	"resolve_alert":    `UPDATE alerts SET resolved = true WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company    TEXT NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS esg_scores (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company       TEXT NOT NULL,
	e_score       DOUBLE PRECISION NOT NULL,
	s_score       DOUBLE PRECISION NOT NULL,
	g_score       DOUBLE PRECISION NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL,
	data_points   INTEGER NOT NULL DEFAULT 0,
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company, recorded_at)
);

CREATE TABLE IF NOT EXISTS risk_findings (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	analysis_id     TEXT NOT NULL REFERENCES analyses(id),
	company         TEXT NOT NULL,
	excerpt         TEXT NOT NULL,
	category        TEXT NOT NULL,
	keyword         TEXT NOT NULL,
	severity        TEXT NOT NULL,
	sentiment_score DOUBLE PRECISION NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company    TEXT NOT NULL,
	message    TEXT NOT NULL,
	severity   TEXT NOT NULL,
	resolved   BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS text_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	cache_key  TEXT NOT NULL UNIQUE,
	texts      JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_company ON analyses(company);
CREATE INDEX IF NOT EXISTS idx_esg_scores_company ON esg_scores(company, recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_risk_findings_company ON risk_findings(company);
CREATE INDEX IF NOT EXISTS idx_alerts_company ON alerts(company);
CREATE INDEX IF NOT EXISTS idx_text_cache_expires_at ON text_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, analysis *model.CompanyAnalysis) (string, error) {
	id := uuid.New().String()

	resultJSON, err := json.Marshal(analysis)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal analysis")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, company, result, created_at) VALUES ($1, $2, $3, $4)`,
		id, analysis.CompanyName, resultJSON, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert analysis")
	}
	return id, nil
}

func (s *PostgresStore) GetLatestAnalysis(ctx context.Context, company string) (*model.CompanyAnalysis, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM analyses WHERE company = $1 ORDER BY created_at DESC LIMIT 1`,
		company,
	).Scan(&resultJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get latest analysis %s", company)
	}

	var analysis model.CompanyAnalysis
	if err := json.Unmarshal(resultJSON, &analysis); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal analysis")
	}
	return &analysis, nil
}

func (s *PostgresStore) SaveScores(ctx context.Context, company string, scores model.ScoreSet) (*ScoreRecord, error) {
	rec := ScoreRecord{
		ID:         uuid.New().String(),
		Company:    company,
		Scores:     scores,
		RecordedAt: time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO esg_scores (id, company, e_score, s_score, g_score, overall_score, confidence, data_points, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, company, scores.EScore, scores.SScore, scores.GScore,
		scores.OverallScore, scores.Confidence, scores.DataPoints, rec.RecordedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert scores %s", company)
	}
	return &rec, nil
}

func (s *PostgresStore) LatestScores(ctx context.Context, company string) (*model.ScoreSet, error) {
	var sc model.ScoreSet
	err := s.pool.QueryRow(ctx,
		`SELECT e_score, s_score, g_score, overall_score, confidence, data_points
		 FROM esg_scores WHERE company = $1 ORDER BY recorded_at DESC LIMIT 1`,
		company,
	).Scan(&sc.EScore, &sc.SScore, &sc.GScore, &sc.OverallScore, &sc.Confidence, &sc.DataPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: latest scores %s", company)
	}
	return &sc, nil
}

func (s *PostgresStore) ScoreHistory(ctx context.Context, company string, limit int) ([]ScoreRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, company, e_score, s_score, g_score, overall_score, confidence, data_points, recorded_at
		 FROM esg_scores WHERE company = $1 ORDER BY recorded_at DESC LIMIT $2`,
		company, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: score history %s", company)
	}
	defer rows.Close()

	var records []ScoreRecord
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.ID, &r.Company, &r.Scores.EScore, &r.Scores.SScore, &r.Scores.GScore,
			&r.Scores.OverallScore, &r.Scores.Confidence, &r.Scores.DataPoints, &r.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: score history iterate")
}

// ImportScores bulk-upserts a history export, keyed on (company, recorded_at)
// so the same export can be replayed safely.
func (s *PostgresStore) ImportScores(ctx context.Context, records []ScoreRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		rows = append(rows, []any{
			id, r.Company, r.Scores.EScore, r.Scores.SScore, r.Scores.GScore,
			r.Scores.OverallScore, r.Scores.Confidence, r.Scores.DataPoints, r.RecordedAt.UTC(),
		})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "esg_scores",
		Columns:      []string{"id", "company", "e_score", "s_score", "g_score", "overall_score", "confidence", "data_points", "recorded_at"},
		ConflictKeys: []string{"company", "recorded_at"},
		UpdateCols:   []string{"e_score", "s_score", "g_score", "overall_score", "confidence", "data_points"},
	}, rows)
}

func (s *PostgresStore) SaveRisks(ctx context.Context, analysisID, company string, risks []model.RiskFinding) error {
	if len(risks) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(risks))
	for _, r := range risks {
		rows = append(rows, []any{
			uuid.New().String(), analysisID, company, r.Text, string(r.Category),
			r.Keyword, string(r.Severity), r.SentimentScore, r.Confidence, r.Timestamp.UTC(),
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "risk_findings",
		[]string{"id", "analysis_id", "company", "excerpt", "category", "keyword", "severity", "sentiment_score", "confidence", "created_at"},
		rows,
	)
	return eris.Wrapf(err, "postgres: save risks %s", company)
}

func (s *PostgresStore) ListRisks(ctx context.Context, company string, limit int) ([]model.RiskFinding, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT excerpt, category, keyword, severity, sentiment_score, confidence, created_at
		 FROM risk_findings WHERE company = $1
		 ORDER BY created_at DESC,
		   CASE severity WHEN 'critical' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC
		 LIMIT $2`,
		company, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list risks %s", company)
	}
	defer rows.Close()

	var risks []model.RiskFinding
	for rows.Next() {
		var r model.RiskFinding
		var category, severity string
		if err := rows.Scan(&r.Text, &category, &r.Keyword, &severity,
			&r.SentimentScore, &r.Confidence, &r.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan risk")
		}
		r.Category = model.Category(category)
		r.Severity = model.Severity(severity)
		risks = append(risks, r)
	}
	return risks, eris.Wrap(rows.Err(), "postgres: list risks iterate")
}

func (s *PostgresStore) CreateAlert(ctx context.Context, alert model.Alert) (*model.Alert, error) {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (id, company, message, severity, resolved, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		alert.ID, alert.Company, alert.Message, string(alert.Severity), alert.Resolved, alert.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert alert for %s", alert.Company)
	}
	return &alert, nil
}

func (s *PostgresStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	query := `SELECT id, company, message, severity, resolved, created_at FROM alerts WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Company != "" {
		query += fmt.Sprintf(` AND company = $%d`, argIdx)
		args = append(args, filter.Company)
		argIdx++
	}
	if filter.Severity != "" {
		query += fmt.Sprintf(` AND severity = $%d`, argIdx)
		args = append(args, string(filter.Severity))
		argIdx++
	}
	if !filter.IncludeResolved {
		query += ` AND resolved = false`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		var severity string
		if err := rows.Scan(&a.ID, &a.Company, &a.Message, &severity, &a.Resolved, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert")
		}
		a.Severity = model.AlertSeverity(severity)
		alerts = append(alerts, a)
	}
	return alerts, eris.Wrap(rows.Err(), "postgres: list alerts iterate")
}

func (s *PostgresStore) ResolveAlert(ctx context.Context, alertID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts SET resolved = true WHERE id = $1`,
		alertID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: resolve alert %s", alertID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("alert not found: %s", alertID)
	}
	return nil
}

func (s *PostgresStore) GetCachedTexts(ctx context.Context, key string) ([]string, error) {
	var textsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT texts FROM text_cache
		 WHERE cache_key = $1 AND expires_at > now()
		 ORDER BY cached_at DESC LIMIT 1`,
		key,
	).Scan(&textsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached texts")
	}

	var texts []string
	if err := json.Unmarshal(textsJSON, &texts); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached texts")
	}
	return texts, nil
}

func (s *PostgresStore) SetCachedTexts(ctx context.Context, key string, texts []string, ttl time.Duration) error {
	textsJSON, err := json.Marshal(texts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal texts")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO text_cache (id, cache_key, texts, cached_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cache_key) DO UPDATE SET texts = $3, cached_at = $4, expires_at = $5`,
		uuid.New().String(), key, textsJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached texts")
}

func (s *PostgresStore) DeleteExpiredTexts(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM text_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired texts")
	}
	return int(tag.RowsAffected()), nil
}
