// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hoteltaskmanager/htm-installer/internal/assets"
	"github.com/hoteltaskmanager/htm-installer/internal/audit"
	"github.com/hoteltaskmanager/htm-installer/internal/config"
	"github.com/hoteltaskmanager/htm-installer/internal/db"
	"github.com/hoteltaskmanager/htm-installer/internal/frontend"
	"github.com/hoteltaskmanager/htm-installer/internal/health"
	"github.com/hoteltaskmanager/htm-installer/internal/i18n"
	"github.com/hoteltaskmanager/htm-installer/internal/logging"
	"github.com/hoteltaskmanager/htm-installer/internal/probe"
	"github.com/hoteltaskmanager/htm-installer/internal/runner"
	"github.com/hoteltaskmanager/htm-installer/internal/tui"
	"github.com/hoteltaskmanager/htm-installer/internal/wizard"
)

// DebugLogFile receives diagnostic output when --debug is given.
const DebugLogFile = "htm-installer-debug.log"

// isTerminal is replaced in tests.
var isTerminal = func(fd uintptr) bool { return term.IsTerminal(int(fd)) }

// runTUI is replaced in tests.
var runTUI = tui.Run

// app carries state shared by the commands of one root command instance.
type app struct {
	cfgFile  string
	settings config.Settings
	logFile  *os.File
}

// Execute runs the CLI. The main package handles the process exit code.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds a fresh command tree. Tests call it once per case so no
// flag state leaks between them.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "htm-installer",
		Short: "Installs the Hotel Task Manager environment.",
		Long: `htm-installer prepares a workstation for Hotel Task Manager.
It installs MariaDB and Java when needed, creates the application database,
unpacks the backend and the frontend and writes the frontend config.json.

Running without a subcommand launches the interactive wizard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInstaller(cmd)
		},
	}
	cmd.Version = versionString()

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "settings file (default is <user config dir>/htm-installer/"+config.FileName+")")
	cmd.PersistentFlags().String("lang", "", `interface language ("pl", "en")`)
	cmd.PersistentFlags().Bool("debug", false, "write diagnostic output to "+DebugLogFile)

	cmd.AddCommand(newConfigCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	s, err := config.Load(cmd, a.cfgFile)
	if err != nil {
		return err
	}
	a.settings = s

	i18n.Init(s.Language)

	if s.Debug {
		f, err := logging.OpenFile(".", DebugLogFile)
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		a.logFile = f
		logging.Init(f, true)
	} else {
		logging.Init(io.Discard, false)
	}
	logging.Debugf("settings: %+v", s)
	return nil
}

func (a *app) teardown() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) runInstaller(cmd *cobra.Command) error {
	if !isTerminal(os.Stdin.Fd()) || !isTerminal(os.Stdout.Fd()) {
		return errors.New(i18n.T("cli.no_terminal"))
	}

	// Child processes must not draw over the alternate screen.
	var out io.Writer = io.Discard
	if a.logFile != nil {
		out = a.logFile
	}
	run := runner.New(out, out)
	run.Stdin = strings.NewReader("")

	deps, writer := productionDeps(a.settings, run)
	m := wizard.New(deps, wizardOptions(a.settings))
	defer a.teardown()
	return runTUI(cmd.Context(), m, writer.Path)
}

// productionDeps wires the real collaborators of the wizard.
func productionDeps(s config.Settings, run *runner.Runner) (wizard.Deps, *frontend.Writer) {
	host := probe.NewHost(run.Output)
	writer := frontend.NewWriter(host.UserConfigDir)
	return wizard.Deps{
		Assets:   assets.Embedded(),
		Probe:    host,
		Runner:   run,
		Database: db.NewProvisioner(),
		Config:   writer,
		Health:   health.New(s.HealthTimeout),
		Audit:    audit.New(s.AuditLog),
	}, writer
}

func wizardOptions(s config.Settings) wizard.Options {
	return wizard.Options{
		InstallRoot:          s.InstallRoot,
		SettleDelay:          s.SettleDelay,
		JavaRedetectDelay:    s.JavaRedetectDelay,
		JavaRedetectAttempts: s.JavaRedetectAttempts,
		LocalAPIHost:         s.LocalBackend.APIHost,
		LocalAPIPort:         s.LocalBackend.Port,
	}
}
