// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package wizard

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/hoteltaskmanager/htm-installer/internal/audit"
	"github.com/hoteltaskmanager/htm-installer/internal/db"
	"github.com/hoteltaskmanager/htm-installer/internal/frontend"
	"github.com/hoteltaskmanager/htm-installer/internal/runner"
)

// Assets materializes embedded installer payloads.
type Assets interface {
	Materialize(name, dest string) error
}

// Probe inspects and changes the host environment.
type Probe interface {
	ExecutableInPath(name string) bool
	DetectJavaHome(ctx context.Context) (string, bool)
	ReadEnv(key string) string
	SetSystemJavaHome(path string) error
}

// Runner launches external programs.
type Runner interface {
	RunBlocking(ctx context.Context, program string, args ...string) runner.Result
	Start(program string, args ...string) error
}

// Database provisions the application database.
type Database interface {
	TestConnection(ctx context.Context, c db.Credentials) error
	CreateDatabase(ctx context.Context, host, rootPass, dbName string) error
}

// ConfigWriter merges values into the frontend config.json.
type ConfigWriter interface {
	Update(u frontend.Update) error
}

// HealthChecker probes a remote backend.
type HealthChecker interface {
	Check(ctx context.Context, url, port string) (string, error)
}

// Deps bundles every collaborator of the machine.
type Deps struct {
	Assets   Assets
	Probe    Probe
	Runner   Runner
	Database Database
	Config   ConfigWriter
	Health   HealthChecker
	Audit    audit.Writer

	// MkdirAll defaults to os.MkdirAll.
	MkdirAll func(path string, perm os.FileMode) error
	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration)
}

// Options holds tunables loaded from the installer settings.
type Options struct {
	InstallRoot          string
	SettleDelay          time.Duration
	JavaRedetectDelay    time.Duration
	JavaRedetectAttempts int
	LocalAPIHost         string
	LocalAPIPort         string
}

// DefaultInstallRoot is the directory all artifacts are placed under.
const DefaultInstallRoot = "C:/Hotel Task Manager Environment"

// DefaultOptions mirrors the installer defaults.
func DefaultOptions() Options {
	return Options{
		InstallRoot:          DefaultInstallRoot,
		SettleDelay:          time.Second,
		JavaRedetectDelay:    3 * time.Second,
		JavaRedetectAttempts: 3,
		LocalAPIHost:         "http://localhost",
		LocalAPIPort:         "8080",
	}
}

// TmpDir is the scratch directory for installer payloads.
func (o Options) TmpDir() string {
	return filepath.Join(o.InstallRoot, "tmp")
}

// BackendDir holds the installed backend artifact.
func (o Options) BackendDir() string {
	return filepath.Join(o.InstallRoot, "backend")
}

// BackendJarPath is the location of the installed backend.jar. Forward
// slashes are used so the value written to config.json is the same on every
// host.
func (o Options) BackendJarPath() string {
	return filepath.ToSlash(filepath.Join(o.BackendDir(), "backend.jar"))
}

func (d *Deps) fillDefaults() {
	if d.MkdirAll == nil {
		d.MkdirAll = os.MkdirAll
	}
	if d.Sleep == nil {
		d.Sleep = sleep
	}
	if d.Audit == nil {
		d.Audit = audit.Discard
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
