// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package ui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/walletkeeper/internal/i18n"
)

var (
	readyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

// finishedMsg is sent once the watched operation completed.
type finishedMsg struct{ err error }

// Progress is a bubbletea model showing a spinner until done is closed.
type Progress struct {
	spinner spinner.Model
	name    string
	done    <-chan struct{}
	result  func() error

	finished    bool
	interrupted bool
	err         error
}

// NewProgress watches done; result is called once done is closed.
func NewProgress(name string, done <-chan struct{}, result func() error) Progress {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Progress{spinner: s, name: name, done: done, result: result}
}

func (m Progress) waitForDone() tea.Msg {
	<-m.done
	return finishedMsg{err: m.result()}
}

// Init starts the spinner and the completion watcher.
func (m Progress) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForDone)
}

// Update handles completion, quit keys and spinner ticks.
func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case finishedMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.interrupted = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the current state.
func (m Progress) View() string {
	switch {
	case m.finished && m.err == nil:
		return readyStyle.Render(i18n.T("wallet.init.ready")) + "\n"
	case m.finished:
		return errorTitleStyle.Render(i18n.T("error.init_failed")) + "\n"
	default:
		return m.spinner.View() + " " + i18n.T("wallet.init.waiting", m.name) + "  " + hintStyle.Render(i18n.T("progress.quit_hint")) + "\n"
	}
}

// Finished reports whether the operation completed, and with which error.
func (m Progress) Finished() (bool, error) { return m.finished, m.err }

// Interrupted reports whether the user stopped waiting.
func (m Progress) Interrupted() bool { return m.interrupted }

// RunProgress shows the progress view on out until done is closed, the user
// quits, or ctx ends. It returns the final model.
func RunProgress(ctx context.Context, name string, done <-chan struct{}, result func() error, in io.Reader, out io.Writer) (Progress, error) {
	p := tea.NewProgram(NewProgress(name, done, result), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if m, ok := final.(Progress); ok {
		return m, err
	}
	return Progress{}, err
}
