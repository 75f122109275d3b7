// Package staging persists candidate findings between search and review.
// A finding is one scored record staged for a human decision; searches are
// journalled so a person is not re-queried against a source needlessly.
package staging

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pmilanese/kinseek/internal/model"
)

// Finding statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusSubmitted = "submitted"
)

// Finding is one staged candidate record awaiting review.
type Finding struct {
	ID         string                `json:"id"`
	PersonRef  string                `json:"person_ref"`
	PersonName string                `json:"person_name"`
	Source     string                `json:"source"`
	URL        string                `json:"url"`
	Record     model.CandidateRecord `json:"record"`
	MatchScore int                   `json:"match_score"`
	Query      model.SearchQuery     `json:"query"`
	Status     string                `json:"status"`
	Notes      string                `json:"notes,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	ReviewedAt *time.Time            `json:"reviewed_at,omitempty"`
}

// Summary counts findings per status.
type Summary struct {
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Submitted int `json:"submitted"`
}

// Total returns the number of findings across all statuses.
func (s Summary) Total() int {
	return s.Pending + s.Approved + s.Rejected + s.Submitted
}

// Store persists findings and the per-person search journal.
type Store interface {
	// Add stages a finding. A finding with the same person, source and URL
	// as an existing one is silently dropped; Add reports whether it stored.
	Add(ctx context.Context, f *Finding) (bool, error)

	// ByStatus returns findings with the given status, newest first.
	ByStatus(ctx context.Context, status string) ([]Finding, error)

	// Get returns a finding by id.
	Get(ctx context.Context, id string) (*Finding, error)

	// SetStatus moves a finding to the given status and records the notes.
	SetStatus(ctx context.Context, id, status, notes string) error

	// Summary counts findings per status.
	Summary(ctx context.Context) (Summary, error)

	// MarkSearched journals that the person was searched against a source.
	MarkSearched(ctx context.Context, personRef, source string) error

	// SearchedSources lists the sources already searched for a person.
	SearchedSources(ctx context.Context, personRef string) ([]string, error)

	Close() error
}

// Open returns the store selected by the configuration.
func Open(cfg model.StagingConfig) (Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return OpenSQLite(cfg.Path)
	case "postgres":
		return OpenPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown staging backend %q", cfg.Backend)
	}
}

// Approve marks a finding approved.
func Approve(ctx context.Context, s Store, id, notes string) error {
	return s.SetStatus(ctx, id, StatusApproved, notes)
}

// Reject marks a finding rejected.
func Reject(ctx context.Context, s Store, id, notes string) error {
	return s.SetStatus(ctx, id, StatusRejected, notes)
}

func newID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", fmt.Errorf("generate finding id: %w", err)
	}
	return id.String(), nil
}
