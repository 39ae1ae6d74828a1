// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging owns the process-wide logger. Components that accept an
// injected *log.Logger fall back to L.
package logging

import (
	"fmt"
	"io"
	"os"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. Callers should use the helper functions
// below for compatibility with existing calls.
var L = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	Prefix:          "walletkeeper",
})

// SetDebug toggles debug-level output on L.
func SetDebug(enabled bool) {
	if enabled {
		L.SetLevel(clog.DebugLevel)
		return
	}
	L.SetLevel(clog.InfoLevel)
}

// New returns a logger with the given prefix writing to w, used where a
// component wants its own prefix or tests want a buffer.
func New(w io.Writer, prefix string) *clog.Logger {
	l := clog.NewWithOptions(w, clog.Options{Prefix: prefix})
	l.SetLevel(L.GetLevel())
	return l
}

// OrDefault returns l, or L when l is nil.
func OrDefault(l *clog.Logger) *clog.Logger {
	if l == nil {
		return L
	}
	return l
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}
