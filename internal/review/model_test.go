package review

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/staging"
)

func openStoreWithPending(t *testing.T, n int) (*staging.SQLiteStore, []staging.Finding) {
	t.Helper()
	store, err := staging.OpenSQLite(filepath.Join(t.TempDir(), "findings.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for i := 0; i < n; i++ {
		f := &staging.Finding{
			PersonRef:  "mary-johnson-1870",
			PersonName: "Mary Johnson",
			Source:     "findagrave",
			URL:        "https://example.com/" + strings.Repeat("x", i+1),
			Record:     model.CandidateRecord{Name: "Mary Johnson", Source: "findagrave"},
			MatchScore: 90 - i,
			Query:      model.SearchQuery{GivenName: "Mary", Surname: "Johnson"},
		}
		if _, err := store.Add(ctx, f); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	pending, err := store.ByStatus(ctx, staging.StatusPending)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	return store, pending
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoadPopulatesFindings(t *testing.T) {
	store, pending := openStoreWithPending(t, 2)
	m := New(store)

	msg := m.loadPending()
	updated, _ := m.Update(msg)
	m = updated.(Model)

	if m.loading {
		t.Error("still loading after loadedMsg")
	}
	if len(m.findings) != len(pending) {
		t.Errorf("expected %d findings, got %d", len(pending), len(m.findings))
	}
}

func TestNavigationStaysInBounds(t *testing.T) {
	store, _ := openStoreWithPending(t, 2)
	m := New(store)
	updated, _ := m.Update(m.loadPending())
	m = updated.(Model)

	updated, _ = m.Update(key("k"))
	m = updated.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor moved above top: %d", m.cursor)
	}

	for i := 0; i < 5; i++ {
		updated, _ = m.Update(key("j"))
		m = updated.(Model)
	}
	if m.cursor != 1 {
		t.Errorf("cursor moved past bottom: %d", m.cursor)
	}
}

func TestApproveRemovesFromQueue(t *testing.T) {
	store, _ := openStoreWithPending(t, 2)
	m := New(store)
	updated, _ := m.Update(m.loadPending())
	m = updated.(Model)

	target := m.findings[0].ID
	updated, cmd := m.Update(key("a"))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected a decide command")
	}

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if len(m.findings) != 1 {
		t.Fatalf("expected 1 finding left, got %d", len(m.findings))
	}
	if m.findings[0].ID == target {
		t.Error("approved finding still queued")
	}
	if m.approved != 1 {
		t.Errorf("approved count: %d", m.approved)
	}

	approved, err := store.ByStatus(context.Background(), staging.StatusApproved)
	if err != nil {
		t.Fatalf("approved: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != target {
		t.Errorf("store not updated: %+v", approved)
	}
}

func TestEmptyQueueQuits(t *testing.T) {
	store, _ := openStoreWithPending(t, 1)
	m := New(store)
	updated, _ := m.Update(m.loadPending())
	m = updated.(Model)

	updated, cmd := m.Update(key("r"))
	m = updated.(Model)
	updated, quitCmd := m.Update(cmd())
	m = updated.(Model)

	if !m.quitting {
		t.Error("expected quit after last decision")
	}
	if quitCmd == nil {
		t.Error("expected tea.Quit command")
	}
	if m.rejected != 1 {
		t.Errorf("rejected count: %d", m.rejected)
	}
}

func TestQuitKey(t *testing.T) {
	store, _ := openStoreWithPending(t, 1)
	m := New(store)
	updated, _ := m.Update(m.loadPending())
	m = updated.(Model)

	updated, cmd := m.Update(key("q"))
	m = updated.(Model)
	if !m.quitting || cmd == nil {
		t.Error("q should quit")
	}
}

func TestViewShowsQueue(t *testing.T) {
	store, _ := openStoreWithPending(t, 2)
	m := New(store)
	updated, _ := m.Update(m.loadPending())
	m = updated.(Model)

	view := m.View()
	for _, want := range []string{"Pending findings", "Mary Johnson", "findagrave", "a approve"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
