// Package tui provides the Bubble Tea login flow for seedkit.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/monolythium/mono-seedkit/internal/chains"
	"github.com/monolythium/mono-seedkit/internal/session"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1).
			MarginLeft(2)
)

// Phase is the current step of the login flow.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseRecovered
	PhaseFailed
)

// loginDoneMsg carries the result of the RecoverSecret call. Only the
// derived address and the mnemonic word count are surfaced; key material
// never reaches the view.
type loginDoneMsg struct {
	address string
	words   int
	err     error
}

// Model is the Bubble Tea model for the login flow.
type Model struct {
	sess    *session.Session
	network chains.ProviderNetwork
	ctx     context.Context
	cancel  context.CancelFunc
	spinner spinner.Model

	phase   Phase
	address string
	words   int
	err     error
}

// NewModel creates a login-flow model. The context bounds the
// interactive login; cancel is invoked when the user quits mid-flight.
func NewModel(ctx context.Context, cancel context.CancelFunc, sess *session.Session, network chains.ProviderNetwork) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	return Model{
		sess:    sess,
		network: network,
		ctx:     ctx,
		cancel:  cancel,
		spinner: sp,
		phase:   PhaseConnecting,
	}
}

// Init starts the spinner and kicks off the recovery call.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, recoverCmd(m.ctx, m.sess))
}

// recoverCmd runs the blocking login flow off the update loop.
func recoverCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		if _, err := sess.RecoverSecret(ctx); err != nil {
			return loginDoneMsg{err: err}
		}
		acct, err := sess.Account(0)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		address, err := acct.Address()
		if err != nil {
			return loginDoneMsg{err: err}
		}
		words, err := sess.Mnemonic()
		if err != nil {
			return loginDoneMsg{err: err}
		}
		return loginDoneMsg{address: address, words: len(strings.Fields(words))}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case loginDoneMsg:
		if msg.err != nil {
			m.phase = PhaseFailed
			m.err = msg.err
			return m, nil
		}
		m.phase = PhaseRecovered
		m.address = msg.address
		m.words = msg.words
		return m, nil

	case spinner.TickMsg:
		if m.phase != PhaseConnecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current phase.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("seedkit login"))
	b.WriteString("\n\n")

	switch m.phase {
	case PhaseConnecting:
		b.WriteString(statusStyle.Render(fmt.Sprintf("%s Waiting for provider login (%s)...", m.spinner.View(), m.network)))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("q: cancel"))

	case PhaseRecovered:
		b.WriteString(statusStyle.Render(fmt.Sprintf("Secret recovered (%d-word mnemonic)", m.words)))
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("Account 0: " + m.address))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter/q: done"))

	case PhaseFailed:
		b.WriteString(errorStyle.Render("Login failed: " + m.err.Error()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("q: quit"))
	}

	b.WriteString("\n")
	return b.String()
}

// Err returns the error the flow ended with, if any.
func (m Model) Err() error {
	return m.err
}

// Run drives the login flow to completion and returns the error the
// flow ended with, if any.
func Run(sess *session.Session, network chains.ProviderNetwork) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(NewModel(ctx, cancel, sess, network))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
