// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package wizard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hoteltaskmanager/htm-installer/internal/assets"
	"github.com/hoteltaskmanager/htm-installer/internal/db"
	"github.com/hoteltaskmanager/htm-installer/internal/frontend"
	"github.com/hoteltaskmanager/htm-installer/internal/i18n"
	"github.com/hoteltaskmanager/htm-installer/internal/runner"
)

type fakeAssets struct {
	missing      map[string]bool
	materialized []string
}

func (f *fakeAssets) Materialize(name, dest string) error {
	if f.missing[name] {
		return fmt.Errorf("%w: %s", assets.ErrResourceMissing, name)
	}
	f.materialized = append(f.materialized, dest)
	return nil
}

type fakeProbe struct {
	inPath map[string]bool
	// java holds the results of successive detections; "" is a miss. The
	// last entry repeats once the queue is drained.
	java    []string
	env     map[string]string
	setErr  error
	setHome []string
	detects int
}

func (f *fakeProbe) ExecutableInPath(name string) bool { return f.inPath[name] }

func (f *fakeProbe) DetectJavaHome(context.Context) (string, bool) {
	f.detects++
	if len(f.java) == 0 {
		return "", false
	}
	home := f.java[0]
	if len(f.java) > 1 {
		f.java = f.java[1:]
	}
	return home, home != ""
}

func (f *fakeProbe) ReadEnv(key string) string { return f.env[key] }

func (f *fakeProbe) SetSystemJavaHome(path string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setHome = append(f.setHome, path)
	return nil
}

type fakeRunner struct {
	// results is keyed by the base name of the installer passed to msiexec.
	results  map[string]runner.Result
	calls    [][]string
	startErr error
	started  []string
}

func (f *fakeRunner) RunBlocking(_ context.Context, program string, args ...string) runner.Result {
	f.calls = append(f.calls, append([]string{program}, args...))
	if len(args) >= 2 {
		if r, ok := f.results[filepath.Base(args[1])]; ok {
			return r
		}
	}
	return runner.Result{Kind: runner.Success}
}

func (f *fakeRunner) Start(program string, _ ...string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, program)
	return nil
}

type fakeDB struct {
	testErr   error
	createErr error
	tests     []db.Credentials
	creates   [][3]string
}

func (f *fakeDB) TestConnection(_ context.Context, c db.Credentials) error {
	f.tests = append(f.tests, c)
	return f.testErr
}

func (f *fakeDB) CreateDatabase(_ context.Context, host, rootPass, dbName string) error {
	f.creates = append(f.creates, [3]string{host, rootPass, dbName})
	return f.createErr
}

func (f *fakeDB) calls() int { return len(f.tests) + len(f.creates) }

type fakeConfig struct {
	err     error
	updates []frontend.Update
}

func (f *fakeConfig) Update(u frontend.Update) error {
	f.updates = append(f.updates, u)
	return f.err
}

type fakeHealth struct {
	msg   string
	err   error
	calls [][2]string
}

func (f *fakeHealth) Check(_ context.Context, url, port string) (string, error) {
	f.calls = append(f.calls, [2]string{url, port})
	return f.msg, f.err
}

type memAudit struct {
	mu    sync.Mutex
	lines []string
}

func (a *memAudit) Log(msg string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = append(a.lines, msg)
	return nil
}

func (a *memAudit) contains(msg string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, l := range a.lines {
		if l == msg {
			return true
		}
	}
	return false
}

// harness wires a Machine to fakes. The frontend config is written by the
// real writer into a temporary user config directory.
type harness struct {
	m       *Machine
	assets  *fakeAssets
	probe   *fakeProbe
	runner  *fakeRunner
	db      *fakeDB
	health  *fakeHealth
	audit   *memAudit
	dirs    []string
	sleeps  []time.Duration
	config  ConfigWriter
	cfgRoot string
}

func newHarness(t *testing.T, mutate ...func(*harness)) *harness {
	t.Helper()
	i18n.Init("pl")

	h := &harness{
		assets: &fakeAssets{missing: map[string]bool{}},
		probe: &fakeProbe{
			inPath: map[string]bool{"mysqld": true},
			java:   []string{`C:\Program Files\Java\jdk-21`},
			env:    map[string]string{},
		},
		runner:  &fakeRunner{results: map[string]runner.Result{}},
		db:      &fakeDB{},
		health:  &fakeHealth{msg: "Połączenie OK - status UP"},
		audit:   &memAudit{},
		cfgRoot: t.TempDir(),
	}
	root := h.cfgRoot
	h.config = frontend.NewWriter(func() (string, bool) { return root, true })
	for _, fn := range mutate {
		fn(h)
	}

	opts := DefaultOptions()
	opts.JavaRedetectDelay = 0
	h.m = New(Deps{
		Assets:   h.assets,
		Probe:    h.probe,
		Runner:   h.runner,
		Database: h.db,
		Config:   h.config,
		Health:   h.health,
		Audit:    h.audit,
		MkdirAll: func(path string, _ os.FileMode) error {
			h.dirs = append(h.dirs, path)
			return nil
		},
		Sleep: func(_ context.Context, d time.Duration) { h.sleeps = append(h.sleeps, d) },
	}, opts)
	return h
}

func (h *harness) dispatch(t *testing.T, ev Event) error {
	t.Helper()
	return h.m.Dispatch(context.Background(), ev)
}

func (h *harness) mustDispatch(t *testing.T, ev Event) {
	t.Helper()
	if err := h.dispatch(t, ev); err != nil {
		t.Fatalf("%s on step %s: %v (status %q)", ev, h.m.Step(), err, h.m.Session().Status)
	}
}

func (h *harness) expectStep(t *testing.T, want Step) {
	t.Helper()
	if got := h.m.Step(); got != want {
		t.Fatalf("expected step %s, got %s (status %q)", want, got, h.m.Session().Status)
	}
}

func (h *harness) configJSON(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.cfgRoot, frontend.AppDirName, frontend.FileName))
	if err != nil {
		t.Fatalf("read config.json: %v", err)
	}
	return data
}
