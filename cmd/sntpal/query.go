package main

import (
	"context"
	"strings"

	"github.com/AndrewLester/sntpal/internal/ui"
	"github.com/AndrewLester/sntpal/pkg/sntp"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	padding  = 10
	maxWidth = 80
)

// runQueryUI drives the sampler on its own goroutine and renders a progress
// bar until every attempt has reported. Quitting early cancels the sampler
// between attempts.
func runQueryUI(ctx context.Context, sampler *sntp.Sampler, server string, record func(sntp.Attempt)) ([]sntp.Attempt, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan sntp.Attempt)
	go func() {
		defer close(updates)
		sampler.Run(ctx, func(a sntp.Attempt) {
			record(a)
			select {
			case updates <- a:
			case <-ctx.Done():
			}
		})
	}()

	m := newQueryModel(server, sampler.Attempts, updates, cancel)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, err
	}
	qm := final.(queryModel)
	return qm.attempts, nil
}

type queryModel struct {
	progress progress.Model
	server   string
	total    int
	updates  <-chan sntp.Attempt
	cancel   context.CancelFunc

	attempts []sntp.Attempt
	done     bool
}

type attemptMessage sntp.Attempt
type samplingDoneMessage struct{}

func newQueryModel(server string, total int, updates <-chan sntp.Attempt, cancel context.CancelFunc) queryModel {
	if total <= 0 {
		total = sntp.DefaultAttempts
	}
	return queryModel{
		progress: progress.New(progress.WithScaledGradient("#68b1b1", "#6ea4ff")),
		server:   server,
		total:    total,
		updates:  updates,
		cancel:   cancel,
	}
}

func listenCommand(updates <-chan sntp.Attempt) tea.Cmd {
	return func() tea.Msg {
		a, ok := <-updates
		if !ok {
			return samplingDoneMessage{}
		}
		return attemptMessage(a)
	}
}

func (m queryModel) Init() tea.Cmd {
	return listenCommand(m.updates)
}

func (m queryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}
		return m, nil
	case attemptMessage:
		m.attempts = append(m.attempts, sntp.Attempt(msg))
		return m, listenCommand(m.updates)
	case samplingDoneMessage:
		m.done = true
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m queryModel) percentage() float64 {
	return float64(len(m.attempts)) / float64(m.total)
}

func (m queryModel) View() string {
	var s strings.Builder
	if !m.done {
		s.WriteString(ui.Title("sntpal - Query "+m.server) + "\n\n")
		s.WriteString(m.progress.ViewAs(m.percentage()) + "\n\n")
	}
	for _, a := range m.attempts {
		s.WriteString(styledAttempt(a, m.server) + "\n")
	}
	if !m.done {
		s.WriteString(ui.Help("q: exit") + "\n")
	}
	return s.String()
}

func styledAttempt(a sntp.Attempt, server string) string {
	line := formatAttempt(a, server)
	if !a.OK() {
		return ui.Failure(line)
	}
	return ui.Offset(a.Result.Offset, line)
}
