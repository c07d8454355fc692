// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Package audit appends human-readable installer events to a plain text log.
// Every entry is a single line of the form
//
//	[2025-01-31 14:05:09] message
//
// using local time. The file is opened, appended to and closed for each entry
// so that a crash never loses lines that were already reported.
package audit

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// DefaultFile is the log file name used when nothing else is configured.
const DefaultFile = "installer.log"

// Writer is the interface the wizard depends on.
type Writer interface {
	Log(msg string) error
}

// Logger appends entries to a file.
type Logger struct {
	path  string
	clock Clock
	mu    sync.Mutex
}

// New returns a Logger writing to path. An empty path means DefaultFile in the
// working directory.
func New(path string) *Logger {
	if strings.TrimSpace(path) == "" {
		path = DefaultFile
	}
	return &Logger{path: path, clock: systemClock{}}
}

// WithClock replaces the logger's clock. Tests may set a FixedClock.
func (l *Logger) WithClock(c Clock) *Logger {
	if c == nil {
		c = systemClock{}
	}
	l.clock = c
	return l
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string { return l.path }

// Format renders one audit line including the trailing newline.
func Format(c Clock, msg string) string {
	return fmt.Sprintf("[%s] %s\n", c.Now().Local().Format("2006-01-02 15:04:05"), msg)
}

// Log appends msg as a single timestamped line.
func (l *Logger) Log(msg string) error {
	line := Format(l.clock, msg)

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log %s: %w", l.path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write audit log %s: %w", l.path, err)
	}
	return f.Close()
}

// Logf formats according to a format specifier and appends the result.
func (l *Logger) Logf(format string, args ...any) error {
	return l.Log(fmt.Sprintf(format, args...))
}

// Discard is a Writer that drops every entry.
var Discard Writer = discard{}

type discard struct{}

func (discard) Log(string) error { return nil }
