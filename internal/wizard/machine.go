// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Package wizard implements the installer's step graph. A Machine owns the
// Session and is driven by operator events. Slow work is returned to the
// caller as a Job so a UI can run it off its event loop; the Job's Outcome
// is applied back on the loop with Apply. Only one Job is in flight at a
// time.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hoteltaskmanager/htm-installer/internal/i18n"
	"github.com/hoteltaskmanager/htm-installer/internal/logging"
)

var (
	// ErrBusy is returned while a Job is running.
	ErrBusy = errors.New("wizard: an operation is already running")
	// ErrInvalidEvent is returned for events the current step does not accept.
	ErrInvalidEvent = errors.New("wizard: event not accepted in this step")
	// ErrInputValidation means operator-supplied fields are incomplete or malformed.
	ErrInputValidation = errors.New("wizard: invalid input")
)

// Event is an operator action.
type Event int

const (
	EventNext Event = iota
	EventBack
	EventTestConnection
	EventCreateDatabase
	EventInstallFrontend
	EventFrontendInstalled
	EventCheckHealth
	EventRetry
)

func (e Event) String() string {
	switch e {
	case EventNext:
		return "next"
	case EventBack:
		return "back"
	case EventTestConnection:
		return "test-connection"
	case EventCreateDatabase:
		return "create-database"
	case EventInstallFrontend:
		return "install-frontend"
	case EventFrontendInstalled:
		return "frontend-installed"
	case EventCheckHealth:
		return "check-health"
	case EventRetry:
		return "retry"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Phase tells whether a Job is in flight.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
)

// Job performs the slow part of an action. It must not touch the Machine.
type Job func(ctx context.Context) Outcome

// Outcome is the result of a Job.
type Outcome struct {
	Status string
	// Advance moves the session to Target.
	Advance bool
	Target  Step
	// Failed marks an entry action that must be retried explicitly.
	Failed bool
	mutate func(*Session)
}

// Machine drives a Session through the step graph.
type Machine struct {
	sess  Session
	deps  Deps
	opts  Options
	phase Phase

	// entryDone is set once the current step's entry action was started.
	entryDone bool
	// entryFailed is set when that action failed and awaits Retry.
	entryFailed bool
	// entryRunning is set while the in-flight Job is an entry action.
	entryRunning bool
}

// New returns a Machine positioned on the welcome step.
func New(deps Deps, opts Options) *Machine {
	deps.fillDefaults()
	if opts.InstallRoot == "" {
		opts.InstallRoot = DefaultInstallRoot
	}
	if opts.JavaRedetectAttempts < 1 {
		opts.JavaRedetectAttempts = 1
	}
	def := DefaultOptions()
	if opts.LocalAPIHost == "" {
		opts.LocalAPIHost = def.LocalAPIHost
	}
	if opts.LocalAPIPort == "" {
		opts.LocalAPIPort = def.LocalAPIPort
	}
	return &Machine{sess: Session{Step: StepWelcome}, deps: deps, opts: opts}
}

// Session returns a copy of the current session.
func (m *Machine) Session() Session { return m.sess }

// Step is shorthand for Session().Step.
func (m *Machine) Step() Step { return m.sess.Step }

// Phase reports whether a Job is running.
func (m *Machine) Phase() Phase { return m.phase }

// Options returns the effective options.
func (m *Machine) Options() Options { return m.opts }

// NeedsRetry reports whether the current step's entry action failed.
func (m *Machine) NeedsRetry() bool { return m.entryFailed }

// SetChoice records the answer of the welcome step.
func (m *Machine) SetChoice(c Choice) error {
	if m.phase == PhaseRunning {
		return ErrBusy
	}
	m.sess.BackendChoice = c
	return nil
}

// SetUseExistingDB selects between creating a local database and using an
// existing one.
func (m *Machine) SetUseExistingDB(existing bool) error {
	if m.phase == PhaseRunning {
		return ErrBusy
	}
	m.sess.UseExistingDB = existing
	return nil
}

// SetCredentials stores the database fields typed by the operator.
func (m *Machine) SetCredentials(c Credentials) error {
	if m.phase == PhaseRunning {
		return ErrBusy
	}
	m.sess.DBHost = c.Host
	m.sess.DBName = c.Name
	m.sess.DBUser = c.User
	m.sess.DBPass = c.Pass
	return nil
}

// SetRemote stores the remote backend address.
func (m *Machine) SetRemote(url, port string) error {
	if m.phase == PhaseRunning {
		return ErrBusy
	}
	m.sess.ExternalAPIURL = url
	m.sess.ExternalAPIPort = port
	return nil
}

// Begin validates ev against the current step. Transitions that need no I/O
// are applied immediately and a nil Job is returned. Otherwise the Machine
// enters PhaseRunning and the returned Job must be run and its Outcome passed
// to Apply.
func (m *Machine) Begin(ev Event) (Job, error) {
	if m.phase == PhaseRunning {
		return nil, ErrBusy
	}
	logging.Debugf("wizard: %s on step %s", ev, m.sess.Step)

	job, err := m.handle(ev)
	if err != nil {
		return nil, err
	}
	if job != nil {
		m.phase = PhaseRunning
	}
	return job, nil
}

// EntryJob returns the entry action of the current step when it has not run
// since the step was entered. It returns nil otherwise.
func (m *Machine) EntryJob() Job {
	if m.phase == PhaseRunning || m.entryDone || !m.sess.Step.Auto() {
		return nil
	}
	job := m.entryAction(m.sess.Step)
	if job == nil {
		return nil
	}
	m.entryDone = true
	m.entryRunning = true
	m.phase = PhaseRunning
	return job
}

// Apply records the Outcome of a Job started by Begin or EntryJob.
func (m *Machine) Apply(o Outcome) {
	m.phase = PhaseIdle
	entry := m.entryRunning
	m.entryRunning = false
	if o.mutate != nil {
		o.mutate(&m.sess)
	}
	if o.Status != "" {
		m.sess.Status = o.Status
	}
	if o.Advance {
		if err := m.goTo(o.Target); err != nil {
			logging.Errorf("wizard: %v", err)
			m.sess.Status = err.Error()
		}
		return
	}
	if entry {
		m.entryFailed = o.Failed
	}
}

// Dispatch runs ev to completion on the calling goroutine, followed by any
// entry actions the resulting steps trigger.
func (m *Machine) Dispatch(ctx context.Context, ev Event) error {
	job, err := m.Begin(ev)
	if err != nil {
		return err
	}
	if job != nil {
		m.Apply(job(ctx))
	}
	m.RunEntry(ctx)
	return nil
}

// RunEntry runs pending entry actions until the session rests on a step that
// needs operator input or an action failed.
func (m *Machine) RunEntry(ctx context.Context) {
	for job := m.EntryJob(); job != nil; job = m.EntryJob() {
		m.Apply(job(ctx))
	}
}

func (m *Machine) goTo(target Step) error {
	if !allowed(m.sess.Step, target) {
		return fmt.Errorf("wizard: no transition from %s to %s", m.sess.Step, target)
	}
	logging.Infof("wizard: %s -> %s", m.sess.Step, target)
	m.sess.Step = target
	m.entryDone = false
	m.entryFailed = false
	return nil
}

// reject records a validation failure in the status and audit log.
func (m *Machine) reject(status string) error {
	m.sess.Status = status
	m.log(status)
	return fmt.Errorf("%w: %s", ErrInputValidation, status)
}

func (m *Machine) log(msg string) {
	if err := m.deps.Audit.Log(msg); err != nil {
		logging.Warnf("audit: %v", err)
	}
}

func (m *Machine) handle(ev Event) (Job, error) {
	s := &m.sess
	def := steps[s.Step]

	if ev == EventBack {
		if !def.hasBack {
			return nil, ErrInvalidEvent
		}
		return nil, m.goTo(def.back)
	}
	if ev == EventRetry {
		if !def.auto || !m.entryFailed {
			return nil, ErrInvalidEvent
		}
		m.entryDone = true
		m.entryFailed = false
		m.entryRunning = true
		return m.entryAction(s.Step), nil
	}

	switch s.Step {
	case StepWelcome:
		if ev != EventNext {
			return nil, ErrInvalidEvent
		}
		switch s.BackendChoice {
		case ChoiceLocal:
			return nil, m.goTo(StepDatabase)
		case ChoiceRemote:
			return nil, m.goTo(StepRemote)
		}
		return nil, m.reject(i18n.T("status.choose_one"))

	case StepDatabase:
		switch ev {
		case EventTestConnection:
			if !s.UseExistingDB {
				return nil, ErrInvalidEvent
			}
			if !credentialsComplete(s) {
				return nil, m.reject(i18n.T("db.missing_fields"))
			}
			return m.testConnection(), nil
		case EventNext:
			if !s.UseExistingDB {
				return nil, m.goTo(StepMariaDB)
			}
			if !credentialsComplete(s) {
				return nil, m.reject(i18n.T("db.missing_fields"))
			}
			return nil, m.goTo(StepJava)
		}

	case StepMariaDB:
		if ev == EventCreateDatabase {
			if !s.DBServerReady {
				return nil, m.reject(i18n.T("mariadb.not_ready"))
			}
			return m.createDatabase()
		}

	case StepFrontend:
		switch ev {
		case EventInstallFrontend:
			return m.installFrontend(), nil
		case EventFrontendInstalled:
			return nil, m.goTo(StepConfig)
		}

	case StepRemote:
		switch ev {
		case EventCheckHealth:
			return m.checkHealth(), nil
		case EventNext:
			return nil, m.goTo(StepFrontend)
		}
	}
	return nil, ErrInvalidEvent
}

func (m *Machine) entryAction(s Step) Job {
	switch s {
	case StepMariaDB:
		return m.ensureMariaDB()
	case StepJava:
		return m.ensureJava()
	case StepBackend:
		return m.installBackend()
	case StepConfig:
		return m.writeConfig()
	}
	return nil
}

func credentialsComplete(s *Session) bool {
	return strings.TrimSpace(s.DBHost) != "" &&
		strings.TrimSpace(s.DBName) != "" &&
		strings.TrimSpace(s.DBUser) != ""
}
