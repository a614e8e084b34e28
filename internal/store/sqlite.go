package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/impactlens/esg-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS esg_scores (
	id            TEXT PRIMARY KEY,
	company       TEXT NOT NULL,
	e_score       REAL NOT NULL,
	s_score       REAL NOT NULL,
	g_score       REAL NOT NULL,
	overall_score REAL NOT NULL,
	confidence    REAL NOT NULL,
	data_points   INTEGER NOT NULL DEFAULT 0,
	recorded_at   DATETIME NOT NULL,
	UNIQUE (company, recorded_at)
);

CREATE TABLE IF NOT EXISTS risk_findings (
	id              TEXT PRIMARY KEY,
	analysis_id     TEXT NOT NULL REFERENCES analyses(id),
	company         TEXT NOT NULL,
	excerpt         TEXT NOT NULL,
	category        TEXT NOT NULL,
	keyword         TEXT NOT NULL,
	severity        TEXT NOT NULL,
	sentiment_score REAL NOT NULL,
	confidence      REAL NOT NULL,
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	message    TEXT NOT NULL,
	severity   TEXT NOT NULL,
	resolved   INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS text_cache (
	id         TEXT PRIMARY KEY,
	cache_key  TEXT NOT NULL UNIQUE,
	texts      TEXT NOT NULL,
	cached_at  DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_company ON analyses(company);
CREATE INDEX IF NOT EXISTS idx_esg_scores_company ON esg_scores(company, recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_risk_findings_company ON risk_findings(company);
CREATE INDEX IF NOT EXISTS idx_alerts_company ON alerts(company);
CREATE INDEX IF NOT EXISTS idx_text_cache_expires_at ON text_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, analysis *model.CompanyAnalysis) (string, error) {
	id := uuid.New().String()

	resultJSON, err := json.Marshal(analysis)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal analysis")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, company, result, created_at) VALUES (?, ?, ?, ?)`,
		id, analysis.CompanyName, string(resultJSON), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert analysis")
	}
	return id, nil
}

func (s *SQLiteStore) GetLatestAnalysis(ctx context.Context, company string) (*model.CompanyAnalysis, error) {
	var resultJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM analyses WHERE company = ? ORDER BY created_at DESC LIMIT 1`,
		company,
	).Scan(&resultJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get latest analysis %s", company)
	}

	var analysis model.CompanyAnalysis
	if err := json.Unmarshal([]byte(resultJSON), &analysis); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal analysis")
	}
	return &analysis, nil
}

func (s *SQLiteStore) SaveScores(ctx context.Context, company string, scores model.ScoreSet) (*ScoreRecord, error) {
	rec := ScoreRecord{
		ID:         uuid.New().String(),
		Company:    company,
		Scores:     scores,
		RecordedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO esg_scores (id, company, e_score, s_score, g_score, overall_score, confidence, data_points, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, company, scores.EScore, scores.SScore, scores.GScore,
		scores.OverallScore, scores.Confidence, scores.DataPoints, rec.RecordedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert scores %s", company)
	}
	return &rec, nil
}

func (s *SQLiteStore) LatestScores(ctx context.Context, company string) (*model.ScoreSet, error) {
	var sc model.ScoreSet
	err := s.db.QueryRowContext(ctx,
		`SELECT e_score, s_score, g_score, overall_score, confidence, data_points
		 FROM esg_scores WHERE company = ? ORDER BY recorded_at DESC LIMIT 1`,
		company,
	).Scan(&sc.EScore, &sc.SScore, &sc.GScore, &sc.OverallScore, &sc.Confidence, &sc.DataPoints)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: latest scores %s", company)
	}
	return &sc, nil
}

func (s *SQLiteStore) ScoreHistory(ctx context.Context, company string, limit int) ([]ScoreRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company, e_score, s_score, g_score, overall_score, confidence, data_points, recorded_at
		 FROM esg_scores WHERE company = ? ORDER BY recorded_at DESC LIMIT ?`,
		company, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: score history %s", company)
	}
	defer rows.Close()

	var records []ScoreRecord
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.ID, &r.Company, &r.Scores.EScore, &r.Scores.SScore, &r.Scores.GScore,
			&r.Scores.OverallScore, &r.Scores.Confidence, &r.Scores.DataPoints, &r.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: score history iterate")
}

func (s *SQLiteStore) ImportScores(ctx context.Context, records []ScoreRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: import scores begin tx")
	}
	defer tx.Rollback()

	var imported int64
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO esg_scores (id, company, e_score, s_score, g_score, overall_score, confidence, data_points, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (company, recorded_at) DO UPDATE SET
			   e_score = excluded.e_score, s_score = excluded.s_score, g_score = excluded.g_score,
			   overall_score = excluded.overall_score, confidence = excluded.confidence,
			   data_points = excluded.data_points`,
			id, r.Company, r.Scores.EScore, r.Scores.SScore, r.Scores.GScore,
			r.Scores.OverallScore, r.Scores.Confidence, r.Scores.DataPoints, r.RecordedAt.UTC(),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: import scores %s", r.Company)
		}
		n, _ := res.RowsAffected()
		imported += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: import scores commit")
	}
	return imported, nil
}

func (s *SQLiteStore) SaveRisks(ctx context.Context, analysisID, company string, risks []model.RiskFinding) error {
	if len(risks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: save risks begin tx")
	}
	defer tx.Rollback()

	for _, r := range risks {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO risk_findings (id, analysis_id, company, excerpt, category, keyword, severity, sentiment_score, confidence, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), analysisID, company, r.Text, string(r.Category),
			r.Keyword, string(r.Severity), r.SentimentScore, r.Confidence, r.Timestamp.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert risk for %s", company)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: save risks commit")
}

func (s *SQLiteStore) ListRisks(ctx context.Context, company string, limit int) ([]model.RiskFinding, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT excerpt, category, keyword, severity, sentiment_score, confidence, created_at
		 FROM risk_findings WHERE company = ?
		 ORDER BY created_at DESC,
		   CASE severity WHEN 'critical' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC
		 LIMIT ?`,
		company, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list risks %s", company)
	}
	defer rows.Close()

	var risks []model.RiskFinding
	for rows.Next() {
		var r model.RiskFinding
		if err := rows.Scan(&r.Text, &r.Category, &r.Keyword, &r.Severity,
			&r.SentimentScore, &r.Confidence, &r.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan risk")
		}
		risks = append(risks, r)
	}
	return risks, eris.Wrap(rows.Err(), "sqlite: list risks iterate")
}

func (s *SQLiteStore) CreateAlert(ctx context.Context, alert model.Alert) (*model.Alert, error) {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, company, message, severity, resolved, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.Company, alert.Message, string(alert.Severity), alert.Resolved, alert.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert alert for %s", alert.Company)
	}
	return &alert, nil
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	query := `SELECT id, company, message, severity, resolved, created_at FROM alerts WHERE 1=1`
	var args []any

	if filter.Company != "" {
		query += ` AND company = ?`
		args = append(args, filter.Company)
	}
	if filter.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, string(filter.Severity))
	}
	if !filter.IncludeResolved {
		query += ` AND resolved = 0`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.Company, &a.Message, &a.Severity, &a.Resolved, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert")
		}
		alerts = append(alerts, a)
	}
	return alerts, eris.Wrap(rows.Err(), "sqlite: list alerts iterate")
}

func (s *SQLiteStore) ResolveAlert(ctx context.Context, alertID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET resolved = 1 WHERE id = ?`,
		alertID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: resolve alert %s", alertID)
	}
	return checkRowsAffected(res, "alert", alertID)
}

func (s *SQLiteStore) GetCachedTexts(ctx context.Context, key string) ([]string, error) {
	var textsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT texts FROM text_cache WHERE cache_key = ? AND expires_at > ? ORDER BY cached_at DESC LIMIT 1`,
		key, time.Now().UTC(),
	).Scan(&textsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get cached texts")
	}

	var texts []string
	if err := json.Unmarshal([]byte(textsJSON), &texts); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached texts")
	}
	return texts, nil
}

func (s *SQLiteStore) SetCachedTexts(ctx context.Context, key string, texts []string, ttl time.Duration) error {
	textsJSON, err := json.Marshal(texts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal texts")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO text_cache (id, cache_key, texts, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (cache_key) DO UPDATE SET texts = excluded.texts, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		uuid.New().String(), key, string(textsJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached texts")
}

func (s *SQLiteStore) DeleteExpiredTexts(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM text_cache WHERE expires_at <= ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired texts")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: expired texts rows affected")
	}
	return int(n), nil
}

// checkRowsAffected returns a not-found error when an UPDATE matched no rows.
func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
