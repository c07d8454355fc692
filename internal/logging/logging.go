// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging holds the installer's diagnostic logger. It is separate
// from the audit log (installer.log), which is a product artifact.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	clog "github.com/charmbracelet/log"
)

// Init points the package logger at w. Debug output is emitted only when
// debug is true.
func Init(w io.Writer, debug bool) {
	if w == nil {
		w = io.Discard
	}
	L = clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "htm-installer",
	})
	SetDebug(debug)
}

// SetDebug toggles debug-level output.
func SetDebug(enabled bool) {
	if enabled {
		L.SetLevel(clog.DebugLevel)
		return
	}
	L.SetLevel(clog.InfoLevel)
}

// OpenFile opens (appending) a diagnostic log file in dir and returns it for
// use with Init. The caller closes it on exit.
func OpenFile(dir, name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
