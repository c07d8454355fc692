// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package wizard

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hoteltaskmanager/htm-installer/internal/assets"
	"github.com/hoteltaskmanager/htm-installer/internal/db"
	"github.com/hoteltaskmanager/htm-installer/internal/frontend"
	"github.com/hoteltaskmanager/htm-installer/internal/i18n"
	"github.com/hoteltaskmanager/htm-installer/internal/logging"
	"github.com/hoteltaskmanager/htm-installer/internal/runner"
)

const (
	mariaDBServer = "mysqld"
	msiexec       = "msiexec"
	javaHomeVar   = "JAVA_HOME"
)

var errJavaMissing = errors.New("java not detected")

func (d Deps) log(msg string) {
	if err := d.Audit.Log(msg); err != nil {
		logging.Warnf("audit: %v", err)
	}
}

// fail logs status and returns an Outcome that keeps the step.
func (d Deps) fail(status string) Outcome {
	d.log(status)
	return Outcome{Status: status, Failed: true}
}

// runMSI materializes asset into the scratch directory and runs msiexec on
// it. A non-empty status describes why the installation did not succeed.
func runMSI(ctx context.Context, d Deps, o Options, asset, prefix string) string {
	tmp := o.TmpDir()
	if err := d.MkdirAll(tmp, 0o755); err != nil {
		return i18n.T(prefix+".tmp_error", err)
	}
	path := filepath.Join(tmp, asset)
	if err := d.Assets.Materialize(asset, path); err != nil {
		if errors.Is(err, assets.ErrResourceMissing) {
			return i18n.T(prefix+".resource_missing", err)
		}
		return i18n.T("common.write_error", err)
	}

	res := d.Runner.RunBlocking(ctx, msiexec, "/i", path, "/quiet")
	logging.Infof("%s %s: %s", msiexec, asset, res)
	switch res.Kind {
	case runner.Success:
		return ""
	case runner.ExitedWithCode:
		return i18n.T(prefix+".exit_code", res.Code)
	default:
		return i18n.T(prefix+".spawn_error", res.Message)
	}
}

func (m *Machine) ensureMariaDB() Job {
	d, o := m.deps, m.opts
	return func(ctx context.Context) Outcome {
		ready := func(s *Session) { s.DBServerReady = true }

		if d.Probe.ExecutableInPath(mariaDBServer) {
			status := i18n.T("mariadb.already_installed")
			d.log(status)
			return Outcome{Status: status, mutate: ready}
		}

		d.log(i18n.T("mariadb.installing"))
		if status := runMSI(ctx, d, o, assets.MariaDBInstaller, "mariadb"); status != "" {
			out := d.fail(status)
			out.mutate = func(s *Session) { s.DBServerReady = false }
			return out
		}
		status := i18n.T("mariadb.installed")
		d.log(status)
		return Outcome{Status: status, mutate: ready}
	}
}

func (m *Machine) createDatabase() (Job, error) {
	name := strings.TrimSpace(m.sess.DBName)
	if name == "" {
		return nil, m.reject(i18n.T("mariadb.name_required"))
	}
	if !db.ValidIdentifier(name) {
		return nil, m.reject(i18n.T("mariadb.invalid_name"))
	}

	d, o := m.deps, m.opts
	rootPass := m.sess.DBPass
	force := func(s *Session) {
		s.DBHost = "localhost"
		s.DBUser = db.RootUser
		s.DBName = name
	}
	return func(ctx context.Context) Outcome {
		if err := d.Database.CreateDatabase(ctx, "localhost", rootPass, name); err != nil {
			status := i18n.T("mariadb.create_error", err)
			d.log(status)
			return Outcome{Status: status, mutate: force}
		}
		status := i18n.T("mariadb.created")
		d.log(status)
		d.Sleep(ctx, o.SettleDelay)
		return Outcome{
			Status:  status,
			Advance: true,
			Target:  StepJava,
			mutate: func(s *Session) {
				force(s)
				s.DBPass = ""
			},
		}
	}, nil
}

func (m *Machine) testConnection() Job {
	d := m.deps
	creds := db.Credentials{
		Host: strings.TrimSpace(m.sess.DBHost),
		Name: strings.TrimSpace(m.sess.DBName),
		User: strings.TrimSpace(m.sess.DBUser),
		Pass: strings.TrimSpace(m.sess.DBPass),
	}
	return func(ctx context.Context) Outcome {
		if err := d.Database.TestConnection(ctx, creds); err != nil {
			status := i18n.T("db.connection_error", err)
			d.log(status)
			return Outcome{Status: status}
		}
		status := i18n.T("db.connection_ok")
		d.log(status)
		return Outcome{Status: status}
	}
}

// applyJavaHome points the machine-wide JAVA_HOME at home and returns the
// status line describing the result. Unless force is set, a JAVA_HOME that
// already names a Java directory is kept.
func applyJavaHome(d Deps, home string, force bool) string {
	if !force {
		current := d.Probe.ReadEnv(javaHomeVar)
		if strings.TrimSpace(current) != "" && strings.Contains(current, "Java") {
			return i18n.T("java.home_present")
		}
	}
	if err := d.Probe.SetSystemJavaHome(home); err != nil {
		msg := i18n.T("java.home_error", err)
		d.log(msg)
		return msg
	}
	d.log(i18n.T("java.home_set_to", home))
	return i18n.T("java.home_set")
}

// redetectJava waits for the fresh installation to become visible and
// probes again a bounded number of times.
func redetectJava(ctx context.Context, d Deps, o Options) (string, bool) {
	d.Sleep(ctx, o.JavaRedetectDelay)

	var home string
	op := func() error {
		h, ok := d.Probe.DetectJavaHome(ctx)
		if !ok {
			return errJavaMissing
		}
		home = h
		return nil
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.JavaRedetectDelay), uint64(o.JavaRedetectAttempts-1)),
		ctx,
	)
	notify := func(err error, next time.Duration) {
		logging.Debugf("java re-detection: %v, next attempt in %s", err, next)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return "", false
	}
	return home, true
}

func (m *Machine) ensureJava() Job {
	d, o := m.deps, m.opts
	return func(ctx context.Context) Outcome {
		if home, ok := d.Probe.DetectJavaHome(ctx); ok {
			status := i18n.T("java.detected")
			d.log(status)
			status += "\n" + applyJavaHome(d, home, false)
			return Outcome{
				Status:  status,
				Advance: true,
				Target:  StepBackend,
				mutate:  func(s *Session) { s.JavaInstalled = true },
			}
		}

		d.log(i18n.T("java.installing"))
		if status := runMSI(ctx, d, o, assets.OpenJDKInstaller, "java"); status != "" {
			return d.fail(status)
		}
		status := i18n.T("java.installed")
		d.log(status)

		home, found := redetectJava(ctx, d, o)
		if found {
			status += "\n" + i18n.T("java.install_success")
			status += "\n" + applyJavaHome(d, home, true)
		} else {
			msg := i18n.T("java.still_missing")
			d.log(msg)
			status += "\n" + msg
		}
		return Outcome{
			Status:  status,
			Advance: true,
			Target:  StepBackend,
			mutate:  func(s *Session) { s.JavaInstalled = found },
		}
	}
}

func (m *Machine) installBackend() Job {
	d, o := m.deps, m.opts
	return func(ctx context.Context) Outcome {
		d.log(i18n.T("backend.heading"))
		dir := o.BackendDir()
		if err := d.MkdirAll(dir, 0o755); err != nil {
			return d.fail(i18n.T("backend.dir_error", err))
		}
		if err := d.Assets.Materialize(assets.BackendJar, filepath.Join(dir, assets.BackendJar)); err != nil {
			return d.fail(i18n.T("backend.copy_error", err))
		}
		status := i18n.T("backend.copied", o.BackendJarPath())
		d.log(status)
		d.Sleep(ctx, o.SettleDelay)
		return Outcome{
			Status:  status,
			Advance: true,
			Target:  StepFrontend,
			mutate:  func(s *Session) { s.BackendInstalled = true },
		}
	}
}

func (m *Machine) installFrontend() Job {
	d, o := m.deps, m.opts
	return func(ctx context.Context) Outcome {
		tmp := o.TmpDir()
		if err := d.MkdirAll(tmp, 0o755); err != nil {
			return d.fail(i18n.T("frontend.tmp_error", err))
		}
		exe := filepath.Join(tmp, assets.FrontendInstaller)
		if err := d.Assets.Materialize(assets.FrontendInstaller, exe); err != nil {
			if errors.Is(err, assets.ErrResourceMissing) {
				return d.fail(i18n.T("frontend.resource_missing", err))
			}
			return d.fail(i18n.T("common.write_error", err))
		}
		if err := d.Runner.Start(exe); err != nil {
			return d.fail(i18n.T("frontend.launch_error", err))
		}
		d.log(i18n.T("frontend.launched_log"))
		return Outcome{Status: i18n.T("frontend.launched")}
	}
}

// configUpdate computes the values written to config.json for s. Operator
// input is trimmed the same way it was for the connection and health checks.
func configUpdate(s Session, o Options) frontend.Update {
	if s.BackendChoice == ChoiceLocal {
		return frontend.Update{
			APIHost: o.LocalAPIHost,
			APIPort: o.LocalAPIPort,
			JarPath: o.BackendJarPath(),
			DBHost:  frontend.String(strings.TrimSpace(s.DBHost)),
			DBName:  frontend.String(strings.TrimSpace(s.DBName)),
			DBUser:  frontend.String(strings.TrimSpace(s.DBUser)),
			DBPass:  frontend.String(strings.TrimSpace(s.DBPass)),
		}
	}
	return frontend.Update{
		APIHost: strings.TrimSpace(s.ExternalAPIURL),
		APIPort: strings.TrimSpace(s.ExternalAPIPort),
		JarPath: "",
	}
}

func (m *Machine) writeConfig() Job {
	d := m.deps
	u := configUpdate(m.sess, m.opts)
	return func(ctx context.Context) Outcome {
		if err := d.Config.Update(u); err != nil {
			return d.fail(i18n.T("config.error", err))
		}
		status := i18n.T("config.updated")
		d.log(status)
		return Outcome{Status: status, Advance: true, Target: StepDone}
	}
}

func (m *Machine) checkHealth() Job {
	d := m.deps
	url, port := strings.TrimSpace(m.sess.ExternalAPIURL), strings.TrimSpace(m.sess.ExternalAPIPort)
	return func(ctx context.Context) Outcome {
		msg, err := d.Health.Check(ctx, url, port)
		if err != nil {
			d.log(i18n.T("remote.error_log", err))
			return Outcome{Status: i18n.T("remote.error", err)}
		}
		d.log(i18n.T("remote.ok_log", msg))
		return Outcome{Status: msg}
	}
}
