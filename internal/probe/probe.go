// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Package probe answers questions about the host the installer runs on:
// what is on PATH, which Java is installed, what the environment says, and
// where per-user configuration lives. It also persists JAVA_HOME machine-wide.
package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/hoteltaskmanager/htm-installer/internal/logging"
)

// MinJavaVersion is the constraint a detected Java runtime must satisfy.
const MinJavaVersion = ">= 21"

var javaConstraint = version.MustConstraints(version.NewConstraint(MinJavaVersion))

// ErrRegistryUnsupported is returned by SetSystemJavaHome on hosts without a
// Windows registry.
var ErrRegistryUnsupported = errors.New("system environment registry is only available on Windows")

// RegistryError wraps a failure to persist a system environment variable.
type RegistryError struct {
	Name string
	Err  error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("set system %s: %v", e.Name, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Host probes the local machine. Every field can be replaced in tests.
type Host struct {
	LookPath     func(file string) (string, error)
	Output       func(ctx context.Context, program string, args ...string) ([]byte, error)
	Getenv       func(key string) string
	ConfigDir    func() (string, error)
	SetSystemEnv func(name, value string) error
}

// OutputFunc runs a program and returns its combined output.
type OutputFunc func(ctx context.Context, program string, args ...string) ([]byte, error)

// NewHost returns a Host backed by the operating system. output is used to
// run `java --version`.
func NewHost(output OutputFunc) *Host {
	return &Host{
		LookPath:     exec.LookPath,
		Output:       output,
		Getenv:       os.Getenv,
		ConfigDir:    os.UserConfigDir,
		SetSystemEnv: setSystemEnv,
	}
}

// ExecutableInPath reports whether name resolves to an executable on PATH.
func (h *Host) ExecutableInPath(name string) bool {
	_, err := h.LookPath(name)
	return err == nil
}

// DetectJavaHome runs the java found on PATH and, when it reports a major
// version satisfying MinJavaVersion, returns the directory two levels above
// the binary (…/jdk-21/bin/java -> …/jdk-21).
func (h *Host) DetectJavaHome(ctx context.Context) (string, bool) {
	javaPath, err := h.LookPath("java")
	if err != nil {
		logging.Debugf("java not on PATH: %v", err)
		return "", false
	}
	out, err := h.Output(ctx, javaPath, "--version")
	if err != nil && len(out) == 0 {
		logging.Debugf("java --version failed: %v", err)
		return "", false
	}

	v, ok := ParseJavaVersion(out)
	if !ok {
		logging.Debugf("no java >= 21 in output %q", out)
		return "", false
	}
	logging.Debugf("detected java %s at %s", v, javaPath)

	home := filepath.Dir(filepath.Dir(javaPath))
	if home == javaPath || home == "" {
		return "", false
	}
	return home, true
}

// ParseJavaVersion scans `java --version` output for the first version token
// satisfying MinJavaVersion. Only lines mentioning "version" or "openjdk"
// are considered.
func ParseJavaVersion(out []byte) (*version.Version, bool) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "version") && !strings.Contains(line, "openjdk") {
			continue
		}
		for _, word := range strings.Fields(line) {
			v, ok := majorVersion(word)
			if !ok {
				continue
			}
			if javaConstraint.Check(v) {
				return v, true
			}
		}
	}
	return nil, false
}

// majorVersion extracts the leading integer of a token such as `21.0.2`
// or `"17.0.1"`.
func majorVersion(word string) (*version.Version, bool) {
	clean := strings.Trim(word, `"'`)
	major, _, _ := strings.Cut(clean, ".")
	if _, err := strconv.ParseUint(major, 10, 32); err != nil {
		return nil, false
	}
	v, err := version.NewVersion(major)
	if err != nil {
		return nil, false
	}
	return v, true
}

// ReadEnv returns the installer process' view of key, or "" when unset.
func (h *Host) ReadEnv(key string) string {
	return h.Getenv(key)
}

// SetSystemJavaHome persists JAVA_HOME in the machine-wide environment.
// Requires administrator rights on Windows.
func (h *Host) SetSystemJavaHome(path string) error {
	if err := h.SetSystemEnv("JAVA_HOME", path); err != nil {
		return &RegistryError{Name: "JAVA_HOME", Err: err}
	}
	return nil
}

// UserConfigDir returns the per-user configuration root (%APPDATA% on Windows).
func (h *Host) UserConfigDir() (string, bool) {
	dir, err := h.ConfigDir()
	if err != nil || dir == "" {
		return "", false
	}
	return dir, true
}
