// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command line entry point of the installer using
// Cobra. It loads settings, wires the production collaborators of the wizard
// and hands control to the TUI. CLI code stays thin; installation logic lives
// in internal/wizard.
package cli
