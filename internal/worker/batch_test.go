package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pmilanese/kinseek/internal/model"
)

// MockSearcher implements the Searcher interface.
type MockSearcher struct {
	ShouldError bool
}

func (m *MockSearcher) Search(ctx context.Context, q model.SearchQuery) ([]model.PersonCluster, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("search error")
	}
	return []model.PersonCluster{{
		Representative: model.ScoredCandidate{
			CandidateRecord: model.CandidateRecord{Name: q.FullName(), Source: "findagrave"},
			MatchScore:      80,
		},
		Confidence: 80,
	}}, nil
}

func queries(n int) []model.SearchQuery {
	out := make([]model.SearchQuery, n)
	for i := range out {
		out[i] = model.SearchQuery{GivenName: "Mary", Surname: "Johnson"}
	}
	return out
}

func TestBatchProcessor_ProcessQueries(t *testing.T) {
	processor := NewBatchProcessor(&MockSearcher{}, 2)

	outcomes := processor.ProcessQueries(context.Background(), queries(3))

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	for _, outcome := range outcomes {
		if outcome.Error != nil {
			t.Errorf("unexpected error: %v", outcome.Error)
		}
		if len(outcome.Clusters) != 1 {
			t.Errorf("expected 1 cluster, got %d", len(outcome.Clusters))
		}
	}
}

func TestBatchProcessor_Errors(t *testing.T) {
	processor := NewBatchProcessor(&MockSearcher{ShouldError: true}, 2)

	outcomes := processor.ProcessQueries(context.Background(), queries(2))

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, outcome := range outcomes {
		if outcome.GetError() == nil {
			t.Error("expected error outcome")
		}
	}
}

// liveContextSearcher counts searches that run with an uncancelled context.
type liveContextSearcher struct {
	liveCalls int32
}

func (s *liveContextSearcher) Search(ctx context.Context, q model.SearchQuery) ([]model.PersonCluster, error) {
	if ctx.Err() == nil {
		atomic.AddInt32(&s.liveCalls, 1)
	}
	return nil, ctx.Err()
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	searcher := &liveContextSearcher{}
	processor := NewBatchProcessor(searcher, 2)
	processor.ProcessQueries(ctx, queries(4))

	if n := atomic.LoadInt32(&searcher.liveCalls); n != 0 {
		t.Errorf("expected no search to run with a live context, got %d", n)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockSearcher{}, 2)
	if got := processor.ProcessQueries(context.Background(), nil); len(got) != 0 {
		t.Errorf("expected no outcomes, got %d", len(got))
	}
}

func TestReadQueriesFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	content := "given_name,surname,birth_year,location\n" +
		"Mary,Johnson,1870,\"London, England\"\n" +
		"Jean,Dupont,,Paris\n" +
		",,,\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := ReadQueriesFromCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 queries (blank row skipped), got %d", len(got))
	}
	if got[0].BirthYear == nil || *got[0].BirthYear != 1870 {
		t.Errorf("expected birth year 1870, got %v", got[0].BirthYear)
	}
	if got[0].Location != "London, England" {
		t.Errorf("expected quoted location preserved, got %q", got[0].Location)
	}
	if got[1].BirthYear != nil {
		t.Errorf("expected nil birth year, got %v", got[1].BirthYear)
	}
}

func TestReadQueriesFromCSV_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("name\nMary\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadQueriesFromCSV(path); err == nil {
		t.Error("expected error for missing surname column")
	}
}

func TestReadQueriesFromCSV_BadYear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("given_name,surname,birth_year\nMary,Johnson,abc\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadQueriesFromCSV(path); err == nil {
		t.Error("expected error for non-numeric birth_year")
	}
}
