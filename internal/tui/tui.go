// Package tui is the optional live view: a Bubble Tea program that consumes
// the same display actions as the console renderer, with a scrollback
// viewport and a status bar.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/planmon/planmon/internal/render"
	"github.com/planmon/planmon/internal/theme"
)

// Forwarder is a render.Renderer that feeds actions into a running program.
// Program.Send is safe from any goroutine.
type Forwarder struct {
	p *tea.Program
}

// NewForwarder wraps a program.
func NewForwarder(p *tea.Program) *Forwarder { return &Forwarder{p: p} }

// Render forwards the action as a Bubble Tea message.
func (f *Forwarder) Render(a render.Action) { f.p.Send(a) }

// tickMsg drives the elapsed-time display.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the root live-view model.
type Model struct {
	cancel context.CancelFunc

	viewport   viewport.Model
	spinner    spinner.Model
	console    *render.Console
	buf        strings.Builder // scratch for rendering one action
	scrollback strings.Builder // full rendered history

	width  int
	height int
	ready  bool

	phase     string
	thoughts  int
	findings  int
	startedAt time.Time
	quitting  bool
	finished  bool
}

// New creates the live view. cancel stops the supervisor; it is invoked on
// q or ctrl+c, which then follows the normal operator-cancellation path.
func New(cancel context.CancelFunc) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorThought)
	m := &Model{
		cancel:    cancel,
		spinner:   sp,
		phase:     "Initializing",
		startedAt: time.Now(),
	}
	m.console = render.NewConsole(&m.buf, 0)
	return m
}

// Init starts the spinner and the clock.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			// Replay anything rendered before the first size arrived.
			m.viewport.SetContent(m.scrollback.String())
			m.viewport.GotoBottom()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.quitting {
				m.quitting = true
				m.cancel()
			}
			if m.finished {
				return m, tea.Quit
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m, tick()

	case render.Action:
		return m.applyAction(msg)
	}

	return m, nil
}

func (m *Model) applyAction(a render.Action) (tea.Model, tea.Cmd) {
	switch a := a.(type) {
	case render.PhaseAction:
		m.phase = a.Phase
	case render.ThoughtAction:
		m.thoughts++
	case render.FindingAction:
		m.findings++
	case render.SummaryAction:
		m.finished = true
	}

	m.buf.Reset()
	m.console.Render(a)
	if out := m.buf.String(); out != "" {
		m.scrollback.WriteString(out)
		m.viewport.SetContent(m.scrollback.String())
		m.viewport.GotoBottom()
	}

	if m.finished {
		return m, tea.Quit
	}
	return m, nil
}

// View draws the scrollback plus a one-line status bar.
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	elapsed := time.Since(m.startedAt).Round(time.Second)
	status := fmt.Sprintf("%s %s | thoughts %d | findings %d | %s",
		m.spinner.View(), m.phase, m.thoughts, m.findings, elapsed)
	if m.quitting {
		status += " | cancelling..."
	}
	bar := lipgloss.NewStyle().
		Foreground(theme.ColorBright).
		Width(m.width).
		Render(status)

	return m.viewport.View() + "\n" + bar
}
