// Package tui provides an optional live monitor for long solves and
// convergence runs. The solver core never depends on it: it attaches as a
// progress observer and the core functions identically without it.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/vortex2d/internal/converge"
	"github.com/san-kum/vortex2d/internal/sim"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// StepMsg carries solver progress into the monitor.
type StepMsg sim.StepInfo

// TrialMsg carries a completed convergence trial into the monitor.
type TrialMsg converge.Trial

// DoneMsg ends the monitor.
type DoneMsg struct{}

// Model is the bubbletea model for the monitor. Events arrive over a
// channel fed by the observer callbacks.
type Model struct {
	title   string
	events  <-chan tea.Msg
	steps   int
	time    float64
	diag    string
	history []float64
	trials  []converge.Trial
	done    bool
}

func NewModel(title string, events <-chan tea.Msg) Model {
	return Model{
		title:   title,
		events:  events,
		history: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.events
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case StepMsg:
		m.steps = msg.Step
		m.time = msg.Time
		m.diag = fmt.Sprintf("max|w|=%.5g  u_max=%.4g  E=%.5g  Z=%.5g",
			msg.Diagnostics.MaxVorticity, msg.MaxSpeed, msg.Diagnostics.Energy, msg.Diagnostics.Enstrophy)
		m.history = append(m.history, msg.Diagnostics.MaxVorticity)
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
		return m, m.waitForEvent()

	case TrialMsg:
		m.trials = append(m.trials, converge.Trial(msg))
		return m, m.waitForEvent()

	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(m.title))
	sb.WriteString("\n")

	sb.WriteString(labelStyle.Render("step"))
	sb.WriteString(valueStyle.Render(fmt.Sprintf("%d  (t=%.4f)", m.steps, m.time)))
	sb.WriteString("\n")
	if m.diag != "" {
		sb.WriteString(labelStyle.Render("diagnostics"))
		sb.WriteString(valueStyle.Render(m.diag))
		sb.WriteString("\n")
	}

	if len(m.history) >= 2 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("max vorticity"),
		)
		sb.WriteString(graphStyle.Render(graph))
		sb.WriteString("\n")
	}

	if len(m.trials) > 0 {
		sb.WriteString("\n")
		sb.WriteString(headerStyle.Render("trials"))
		sb.WriteString("\n")
		for _, t := range m.trials {
			if t.Failed() {
				sb.WriteString(failStyle.Render(fmt.Sprintf("  N=%-5d %s", t.N, t.ErrKind)))
			} else {
				sb.WriteString(valueStyle.Render(fmt.Sprintf("  N=%-5d %.6g", t.N, t.Value)))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(helpStyle.Render("q: quit"))
	return sb.String()
}
