package staging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore keeps findings in a shared postgres database, for teams
// reviewing the same staging queue.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to the DSN and ensures the schema exists.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("staging backend postgres requires a dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open staging database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to staging database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS findings (
	  id          TEXT PRIMARY KEY,
	  person_ref  TEXT NOT NULL,
	  person_name TEXT NOT NULL,
	  source      TEXT NOT NULL,
	  url         TEXT NOT NULL,
	  record_json JSONB NOT NULL,
	  match_score INTEGER NOT NULL,
	  query_json  JSONB NOT NULL,
	  status      TEXT NOT NULL,
	  notes       TEXT NOT NULL DEFAULT '',
	  created_at  BIGINT NOT NULL,
	  reviewed_at BIGINT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_findings_person_source_url
	ON findings(person_ref, source, url);

	CREATE INDEX IF NOT EXISTS idx_findings_status
	ON findings(status, created_at DESC);

	CREATE TABLE IF NOT EXISTS searches (
	  person_ref  TEXT NOT NULL,
	  source      TEXT NOT NULL,
	  searched_at BIGINT NOT NULL,
	  PRIMARY KEY (person_ref, source)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply staging schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Add(ctx context.Context, f *Finding) (bool, error) {
	if f.ID == "" {
		id, err := newID()
		if err != nil {
			return false, err
		}
		f.ID = id
	}
	if f.Status == "" {
		f.Status = StatusPending
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	record, err := json.Marshal(f.Record)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}
	query, err := json.Marshal(f.Query)
	if err != nil {
		return false, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO findings (id, person_ref, person_name, source, url, record_json, match_score, query_json, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (person_ref, source, url) DO NOTHING`,
		f.ID, f.PersonRef, f.PersonName, f.Source, f.URL, string(record), f.MatchScore, string(query), f.Status, f.Notes, f.CreatedAt.Unix())
	if err != nil {
		return false, fmt.Errorf("stage finding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) ByStatus(ctx context.Context, status string) ([]Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_ref, person_name, source, url, record_json::text, match_score, query_json::text, status, notes, created_at, reviewed_at
		FROM findings WHERE status = $1 ORDER BY created_at DESC, id DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		findings = append(findings, *f)
	}
	return findings, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Finding, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, person_ref, person_name, source, url, record_json::text, match_score, query_json::text, status, notes, created_at, reviewed_at
		FROM findings WHERE id = $1`, id)
	f, err := scanFinding(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("finding %s not found", id)
	}
	return f, err
}

func (s *PostgresStore) SetStatus(ctx context.Context, id, status, notes string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE findings SET status = $1, notes = $2, reviewed_at = $3 WHERE id = $4`,
		status, notes, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update finding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finding %s not found", id)
	}
	return nil
}

func (s *PostgresStore) Summary(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM findings GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize findings: %w", err)
	}
	defer rows.Close()
	return scanSummary(rows)
}

func (s *PostgresStore) MarkSearched(ctx context.Context, personRef, source string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (person_ref, source, searched_at) VALUES ($1, $2, $3)
		ON CONFLICT (person_ref, source) DO UPDATE SET searched_at = EXCLUDED.searched_at`,
		personRef, source, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("journal search: %w", err)
	}
	return nil
}

func (s *PostgresStore) SearchedSources(ctx context.Context, personRef string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source FROM searches WHERE person_ref = $1 ORDER BY source`, personRef)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var _ Store = (*PostgresStore)(nil)
