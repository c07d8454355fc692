// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package frontend

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	root := t.TempDir()
	w := NewWriter(func() (string, bool) { return root, true })
	return w, filepath.Join(root, AppDirName, FileName)
}

func compact(t *testing.T, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		t.Fatalf("compact: %v (%s)", err, data)
	}
	return buf.String()
}

func localUpdate() Update {
	return Update{
		APIHost: "http://localhost",
		APIPort: "8080",
		JarPath: "C:/Hotel Task Manager Environment/backend/backend.jar",
		DBHost:  String("localhost"),
		DBName:  String("hoteltaskmanager"),
		DBUser:  String("root"),
		DBPass:  String(""),
	}
}

func TestUpdate_LocalCreatesFile(t *testing.T) {
	w, path := tempWriter(t)
	if err := w.Update(localUpdate()); err != nil {
		t.Fatalf("update: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := `{"API_HOST":"http://localhost","JAR_PATH":"C:/Hotel Task Manager Environment/backend/backend.jar","BACKEND_PORT":8080,"DB_HOST":"localhost","DB_NAME":"hoteltaskmanager","DB_USER":"root","DB_PASS":""}`
	if got := compact(t, data); got != want {
		t.Fatalf("unexpected config\n got: %s\nwant: %s", got, want)
	}
	if !strings.Contains(string(data), "\n  \"API_HOST\"") {
		t.Fatalf("expected two-space pretty printing, got %s", data)
	}
}

func TestUpdate_RemoteOmitsDBKeys(t *testing.T) {
	w, path := tempWriter(t)
	// A previous local run left DB keys behind.
	if err := w.Update(localUpdate()); err != nil {
		t.Fatal(err)
	}
	err := w.Update(Update{APIHost: "http://api.example", APIPort: "8443", JarPath: ""})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	data, _ := os.ReadFile(path)
	want := `{"API_HOST":"http://api.example","JAR_PATH":"","BACKEND_PORT":8443}`
	if got := compact(t, data); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	if strings.Contains(string(data), "DB_") || strings.Contains(string(data), "null") {
		t.Fatalf("DB keys or nulls present: %s", data)
	}
}

func TestUpdate_IdempotentBytes(t *testing.T) {
	w, path := tempWriter(t)
	if err := w.Update(localUpdate()); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(path)
	if err := w.Update(localUpdate()); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)
	if !bytes.Equal(first, second) {
		t.Fatalf("output differs between identical updates:\n%s\n%s", first, second)
	}
}

func TestRoundTrip_ReadThenRewrite(t *testing.T) {
	w, path := tempWriter(t)
	if err := w.Update(localUpdate()); err != nil {
		t.Fatal(err)
	}
	original, _ := os.ReadFile(path)

	cfg, err := w.Read()
	if err != nil || cfg == nil {
		t.Fatalf("read: %v %v", cfg, err)
	}
	again, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(original, again) {
		t.Fatalf("round trip mismatch:\n%s\n%s", original, again)
	}
}

func TestUpdate_PortBoundaries(t *testing.T) {
	w, path := tempWriter(t)
	for _, port := range []string{"0", "65535"} {
		u := localUpdate()
		u.APIPort = port
		if err := w.Update(u); err != nil {
			t.Fatalf("port %s: %v", port, err)
		}
		cfg, err := readConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		want, _ := ParsePort(port)
		if cfg.BackendPort != want {
			t.Fatalf("port %s read back as %d", port, cfg.BackendPort)
		}
	}

	for _, port := range []string{"65536", "abc", "", "-1", "80.5"} {
		u := localUpdate()
		u.APIPort = port
		if err := w.Update(u); !errors.Is(err, ErrBadPort) {
			t.Fatalf("port %q: expected ErrBadPort, got %v", port, err)
		}
	}
}

func TestUpdate_ExistingDocuments(t *testing.T) {
	w, path := tempWriter(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	// Blank files are treated as absent.
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Update(localUpdate()); err != nil {
		t.Fatalf("blank file: %v", err)
	}

	// Unknown keys do not survive the rewrite.
	if err := os.WriteFile(path, []byte(`{"API_HOST":"old","JAR_PATH":"x","BACKEND_PORT":1,"THEME":"dark"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Update(localUpdate()); err != nil {
		t.Fatalf("existing file: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "THEME") || !strings.Contains(string(data), `"API_HOST": "http://localhost"`) {
		t.Fatalf("unexpected merged document: %s", data)
	}

	// Malformed documents are reported, not overwritten.
	if err := os.WriteFile(path, []byte(`{"API_HOST":`), 0o644); err != nil {
		t.Fatal(err)
	}
	err := w.Update(localUpdate())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != `{"API_HOST":` {
		t.Fatalf("malformed file was modified: %s", data)
	}
}

func TestUpdate_NoConfigDir(t *testing.T) {
	w := NewWriter(func() (string, bool) { return "", false })
	if err := w.Update(localUpdate()); !errors.Is(err, ErrNoConfigDir) {
		t.Fatalf("expected ErrNoConfigDir, got %v", err)
	}
	if _, err := (&Writer{}).Path(); !errors.Is(err, ErrNoConfigDir) {
		t.Fatalf("expected ErrNoConfigDir for nil resolver, got %v", err)
	}
}

func TestUpdate_DirectoryCreationFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWriter(func() (string, bool) { return blocker, true })
	var we *WriteError
	if err := w.Update(localUpdate()); !errors.As(err, &we) || we.Op != "mkdir" {
		t.Fatalf("expected mkdir WriteError, got %v", err)
	}
}
