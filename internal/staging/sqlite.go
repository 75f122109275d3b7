package staging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pmilanese/kinseek/internal/cache"
	"github.com/pmilanese/kinseek/internal/model"
)

// schemaVersion is the latest sqlite schema version. Bump when adding
// migrations.
const schemaVersion = 1

// SQLiteStore keeps findings in a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the findings database at path. The parent
// directory is created if missing; "~" expands to the home directory.
func OpenSQLite(path string) (*SQLiteStore, error) {
	path = cache.ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open staging database: %w", err)
	}

	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(path, 0600)

	return &SQLiteStore{db: db}, nil
}

func migrateSQLite(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS findings (
		  id          TEXT PRIMARY KEY,
		  person_ref  TEXT NOT NULL,
		  person_name TEXT NOT NULL,
		  source      TEXT NOT NULL,
		  url         TEXT NOT NULL,
		  record_json TEXT NOT NULL,
		  match_score INTEGER NOT NULL,
		  query_json  TEXT NOT NULL,
		  status      TEXT NOT NULL,
		  notes       TEXT NOT NULL DEFAULT '',
		  created_at  INTEGER NOT NULL,
		  reviewed_at INTEGER
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_findings_person_source_url
		ON findings(person_ref, source, url);

		CREATE INDEX IF NOT EXISTS idx_findings_status
		ON findings(status, created_at DESC);

		CREATE TABLE IF NOT EXISTS searches (
		  person_ref  TEXT NOT NULL,
		  source      TEXT NOT NULL,
		  searched_at INTEGER NOT NULL,
		  PRIMARY KEY (person_ref, source)
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", schemaVersion)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, f *Finding) (bool, error) {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(person_ref, source, url) DO NOTHING`,
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

func (s *SQLiteStore) ByStatus(ctx context.Context, status string) ([]Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_ref, person_name, source, url, record_json, match_score, query_json, status, notes, created_at, reviewed_at
		FROM findings WHERE status = ? ORDER BY created_at DESC, id DESC`, status)
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

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Finding, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, person_ref, person_name, source, url, record_json, match_score, query_json, status, notes, created_at, reviewed_at
		FROM findings WHERE id = ?`, id)
	f, err := scanFinding(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("finding %s not found", id)
	}
	return f, err
}

func (s *SQLiteStore) SetStatus(ctx context.Context, id, status, notes string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE findings SET status = ?, notes = ?, reviewed_at = ? WHERE id = ?`,
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

func (s *SQLiteStore) Summary(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM findings GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize findings: %w", err)
	}
	defer rows.Close()
	return scanSummary(rows)
}

func (s *SQLiteStore) MarkSearched(ctx context.Context, personRef, source string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (person_ref, source, searched_at) VALUES (?, ?, ?)
		ON CONFLICT(person_ref, source) DO UPDATE SET searched_at = excluded.searched_at`,
		personRef, source, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("journal search: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SearchedSources(ctx context.Context, personRef string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source FROM searches WHERE person_ref = ? ORDER BY source`, personRef)
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFinding(row rowScanner) (*Finding, error) {
	var (
		f          Finding
		record     string
		query      string
		createdAt  int64
		reviewedAt sql.NullInt64
	)
	err := row.Scan(&f.ID, &f.PersonRef, &f.PersonName, &f.Source, &f.URL,
		&record, &f.MatchScore, &query, &f.Status, &f.Notes, &createdAt, &reviewedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(record), &f.Record); err != nil {
		return nil, fmt.Errorf("decode record for %s: %w", f.ID, err)
	}
	if err := json.Unmarshal([]byte(query), &f.Query); err != nil {
		return nil, fmt.Errorf("decode query for %s: %w", f.ID, err)
	}
	f.CreatedAt = time.Unix(createdAt, 0)
	if reviewedAt.Valid {
		t := time.Unix(reviewedAt.Int64, 0)
		f.ReviewedAt = &t
	}
	return &f, nil
}

type countRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanSummary(rows countRows) (Summary, error) {
	var summary Summary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return summary, err
		}
		switch status {
		case StatusPending:
			summary.Pending = count
		case StatusApproved:
			summary.Approved = count
		case StatusRejected:
			summary.Rejected = count
		case StatusSubmitted:
			summary.Submitted = count
		}
	}
	return summary, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)

// FindingFromCandidate builds a pending finding for a scored candidate.
func FindingFromCandidate(sc model.ScoredCandidate, q model.SearchQuery, personRef string) *Finding {
	return &Finding{
		PersonRef:  personRef,
		PersonName: q.FullName(),
		Source:     sc.Source,
		URL:        sc.URL,
		Record:     sc.CandidateRecord,
		MatchScore: sc.MatchScore,
		Query:      q,
		Status:     StatusPending,
	}
}
