// Package review is the interactive queue for staged findings. Each pending
// finding is shown with its record details; the reviewer approves, rejects,
// or skips it.
package review

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pmilanese/kinseek/internal/staging"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	scoreStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	detailStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type loadedMsg struct {
	findings []staging.Finding
	err      error
}

type decidedMsg struct {
	id     string
	status string
	err    error
}

// Model is the review queue view.
type Model struct {
	store    staging.Store
	findings []staging.Finding
	cursor   int
	width    int
	height   int
	status   string
	err      error
	loading  bool
	quitting bool

	approved int
	rejected int
}

// New creates a review model over the store's pending findings.
func New(store staging.Store) Model {
	return Model{store: store, loading: true}
}

func (m Model) Init() tea.Cmd {
	return m.loadPending
}

func (m Model) loadPending() tea.Msg {
	findings, err := m.store.ByStatus(context.Background(), staging.StatusPending)
	return loadedMsg{findings: findings, err: err}
}

func (m Model) decide(id, status string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		err := store.SetStatus(context.Background(), id, status, "")
		return decidedMsg{id: id, status: status, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		m.findings = msg.findings

	case decidedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		switch msg.status {
		case staging.StatusApproved:
			m.approved++
		case staging.StatusRejected:
			m.rejected++
		}
		m.removeFinding(msg.id)
		if len(m.findings) == 0 {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.findings)-1 {
				m.cursor++
			}

		case "a":
			if f := m.current(); f != nil {
				return m, m.decide(f.ID, staging.StatusApproved)
			}

		case "r":
			if f := m.current(); f != nil {
				return m, m.decide(f.ID, staging.StatusRejected)
			}

		case "s":
			// Skip: leave pending, move on.
			if m.cursor < len(m.findings)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *Model) removeFinding(id string) {
	for i, f := range m.findings {
		if f.ID == id {
			m.findings = append(m.findings[:i], m.findings[i+1:]...)
			break
		}
	}
	if m.cursor >= len(m.findings) && m.cursor > 0 {
		m.cursor = len(m.findings) - 1
	}
}

func (m Model) current() *staging.Finding {
	if m.cursor < 0 || m.cursor >= len(m.findings) {
		return nil
	}
	return &m.findings[m.cursor]
}

func (m Model) View() string {
	if m.quitting {
		return fmt.Sprintf("Review done: %d approved, %d rejected.\n", m.approved, m.rejected)
	}
	if m.loading {
		return "Loading pending findings...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Pending findings"))
	fmt.Fprintf(&b, " %s\n\n", dimStyle.Render(fmt.Sprintf("(%d left)", len(m.findings))))

	if m.err != nil {
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n\n")
	}

	if len(m.findings) == 0 {
		b.WriteString(dimStyle.Render("Nothing to review.") + "\n")
		return b.String()
	}

	for i, f := range m.findings {
		line := fmt.Sprintf("%s  %s  %s",
			scoreStyle.Render(fmt.Sprintf("%3d", f.MatchScore)), f.PersonName, dimStyle.Render(f.Source))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + selectedStyle.Render(line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	if f := m.current(); f != nil {
		b.WriteString("\n" + detailStyle.Render(renderDetail(*f)) + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("a approve · r reject · s skip · j/k move · q quit") + "\n")
	return b.String()
}

func renderDetail(f staging.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  (match %d)\n", f.Record.Name, f.MatchScore)
	if f.Record.IsFallback() {
		fmt.Fprintf(&b, "unparsed results page, open and inspect manually\n")
	}
	if f.Record.BirthYear != nil {
		fmt.Fprintf(&b, "born %d", *f.Record.BirthYear)
		if f.Record.BirthPlace != "" {
			fmt.Fprintf(&b, " in %s", f.Record.BirthPlace)
		}
		b.WriteString("\n")
	} else if f.Record.BirthPlace != "" {
		fmt.Fprintf(&b, "birth place %s\n", f.Record.BirthPlace)
	}
	if f.Record.DeathYear != nil {
		fmt.Fprintf(&b, "died %d", *f.Record.DeathYear)
		if f.Record.DeathPlace != "" {
			fmt.Fprintf(&b, " in %s", f.Record.DeathPlace)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "searched as %s\n", f.Query.String())
	fmt.Fprintf(&b, "%s", f.URL)
	return b.String()
}

// Run starts the interactive review and blocks until the reviewer quits or
// the queue is empty.
func Run(store staging.Store) error {
	p := tea.NewProgram(New(store), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
