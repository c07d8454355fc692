// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Package runner spawns external programs (MSI installers, the frontend
// installer, the java launcher) and classifies how they ended.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/hoteltaskmanager/htm-installer/internal/logging"
)

// Kind classifies the end of a blocking run.
type Kind int

const (
	Success Kind = iota
	ExitedWithCode
	SpawnFailed
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ExitedWithCode:
		return "exited-with-code"
	case SpawnFailed:
		return "spawn-failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the outcome of RunBlocking.
type Result struct {
	Kind    Kind
	Code    int    // exit code when Kind == ExitedWithCode
	Message string // spawn error text when Kind == SpawnFailed
}

// OK reports whether the program exited with status 0.
func (r Result) OK() bool { return r.Kind == Success }

func (r Result) String() string {
	switch r.Kind {
	case ExitedWithCode:
		return fmt.Sprintf("exit code %d", r.Code)
	case SpawnFailed:
		return "spawn failed: " + r.Message
	}
	return "success"
}

// Runner starts child processes. The zero value inherits the installer's
// standard streams.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Runner writing child output to the given streams. Nil
// writers fall back to the process' own stdout and stderr.
func New(stdout, stderr io.Writer) *Runner {
	return &Runner{Stdout: stdout, Stderr: stderr}
}

func (r *Runner) streams() (io.Reader, io.Writer, io.Writer) {
	in, out, errw := r.Stdin, r.Stdout, r.Stderr
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if errw == nil {
		errw = os.Stderr
	}
	return in, out, errw
}

// RunBlocking starts program and waits for it to exit. No timeout is applied
// beyond ctx.
func (r *Runner) RunBlocking(ctx context.Context, program string, args ...string) Result {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = r.streams()

	logging.Debugf("run %s %v", program, args)
	if err := cmd.Start(); err != nil {
		return Result{Kind: SpawnFailed, Message: err.Error()}
	}
	err := cmd.Wait()
	if err == nil {
		return Result{Kind: Success}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logging.Debugf("%s exited with code %d", program, exitErr.ExitCode())
		return Result{Kind: ExitedWithCode, Code: exitErr.ExitCode()}
	}
	return Result{Kind: SpawnFailed, Message: err.Error()}
}

// Start launches program without waiting for it. The child is released so
// it outlives the installer.
func (r *Runner) Start(program string, args ...string) error {
	cmd := exec.Command(program, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	logging.Debugf("started %s (pid %d)", program, cmd.Process.Pid)
	return cmd.Process.Release()
}

// Output runs program and returns its stderr followed by its stdout. A
// non-zero exit is returned as an error together with whatever was printed.
func (r *Runner) Output(ctx context.Context, program string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, program, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	combined := append(stderr.Bytes(), stdout.Bytes()...)
	return combined, err
}
