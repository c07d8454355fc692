// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
)

// TestHelperProcess is not a real test. It is re-executed as a child process
// by the tests below and behaves according to HTM_HELPER_* variables.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("HTM_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprint(os.Stdout, os.Getenv("HTM_HELPER_STDOUT"))
	fmt.Fprint(os.Stderr, os.Getenv("HTM_HELPER_STDERR"))
	code, _ := strconv.Atoi(os.Getenv("HTM_HELPER_EXIT"))
	os.Exit(code)
}

func helperArgs() []string {
	return []string{"-test.run=TestHelperProcess", "--"}
}

func withHelperEnv(t *testing.T, exit int, stdout, stderr string) {
	t.Helper()
	t.Setenv("HTM_HELPER_PROCESS", "1")
	t.Setenv("HTM_HELPER_EXIT", strconv.Itoa(exit))
	t.Setenv("HTM_HELPER_STDOUT", stdout)
	t.Setenv("HTM_HELPER_STDERR", stderr)
}

func TestRunBlocking_Success(t *testing.T) {
	withHelperEnv(t, 0, "installed\n", "")
	var out bytes.Buffer
	r := New(&out, &out)

	res := r.RunBlocking(context.Background(), os.Args[0], helperArgs()...)
	if !res.OK() || res.Kind != Success {
		t.Fatalf("expected success, got %v", res)
	}
	if !strings.Contains(out.String(), "installed") {
		t.Fatalf("child stdout not forwarded: %q", out.String())
	}
}

func TestRunBlocking_ExitCode(t *testing.T) {
	withHelperEnv(t, 1603, "", "fatal error during installation")
	var out bytes.Buffer
	r := New(&out, &out)

	res := r.RunBlocking(context.Background(), os.Args[0], helperArgs()...)
	if res.Kind != ExitedWithCode {
		t.Fatalf("expected ExitedWithCode, got %v", res)
	}
	// Exit statuses are truncated to 8 bits on unix.
	if res.Code == 0 {
		t.Fatalf("expected non-zero code")
	}
	if res.OK() {
		t.Fatalf("non-zero exit must not be OK")
	}
}

func TestRunBlocking_SpawnFailed(t *testing.T) {
	r := New(nil, nil)
	res := r.RunBlocking(context.Background(), "htm-definitely-not-a-program-xyz")
	if res.Kind != SpawnFailed {
		t.Fatalf("expected SpawnFailed, got %v", res)
	}
	if res.Message == "" {
		t.Fatalf("expected spawn message")
	}
	if !strings.HasPrefix(res.String(), "spawn failed: ") {
		t.Fatalf("unexpected String(): %s", res.String())
	}
}

func TestOutput_CombinesStderrAndStdout(t *testing.T) {
	withHelperEnv(t, 0, "OpenJDK Runtime Environment\n", "openjdk 21.0.2 2024-01-16\n")
	r := New(nil, nil)

	out, err := r.Output(context.Background(), os.Args[0], helperArgs()...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := string(out)
	if !strings.HasPrefix(got, "openjdk 21.0.2") || !strings.Contains(got, "Runtime Environment") {
		t.Fatalf("unexpected combined output %q", got)
	}
}

func TestStart_DoesNotWait(t *testing.T) {
	withHelperEnv(t, 0, "", "")
	r := New(nil, nil)
	if err := r.Start(os.Args[0], helperArgs()...); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Start("htm-definitely-not-a-program-xyz"); err == nil {
		t.Fatalf("expected spawn error")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{Success: "success", ExitedWithCode: "exited-with-code", SpawnFailed: "spawn-failed"}
	for k, want := range cases {
		if k.String() != want {
			t.Fatalf("%d: got %s want %s", k, k.String(), want)
		}
	}
}
