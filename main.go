// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Command htm-installer prepares a workstation for Hotel Task Manager.
//
// Usage:
//
//	htm-installer [flags]
//	htm-installer config [--write]
//
// Without a subcommand the interactive wizard starts. See --help for options.
package main

import (
	"os"

	"github.com/hoteltaskmanager/htm-installer/internal/cli"
)

func main() {
	// Cobra has already printed the error.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
