// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package ui renders wallet lifecycle feedback for terminal users: terminal
// failures and an interactive startup progress view.
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/walletkeeper/internal/i18n"
)

var (
	errorTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	errorBoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1)
)

// ErrorPresenter writes terminal failures to a writer as a styled box.
type ErrorPresenter struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

// NewErrorPresenter returns a presenter writing to out.
func NewErrorPresenter(out io.Writer) *ErrorPresenter {
	return &ErrorPresenter{out: out}
}

// ShowError renders message under the localized error title.
func (p *ErrorPresenter) ShowError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = message
	box := errorBoxStyle.Render(errorTitleStyle.Render(i18n.T("error.title")) + "\n" + message)
	_, _ = fmt.Fprintln(p.out, box)
}

// Last returns the most recently shown message.
func (p *ErrorPresenter) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
