// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Package frontend maintains the config.json read by the Hotel Task Manager
// desktop client. Updates are read-modify-write over a closed schema.
package frontend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hoteltaskmanager/htm-installer/internal/logging"
)

const (
	// AppDirName is the directory below the user config root owned by the frontend.
	AppDirName = "Hotel Task Manager"
	// FileName is the frontend configuration file name.
	FileName = "config.json"
)

var (
	// ErrNoConfigDir is returned when the per-user config root cannot be resolved.
	ErrNoConfigDir = errors.New("cannot determine the user configuration directory")
	// ErrBadPort is returned when the API port is not an unsigned 16-bit integer.
	ErrBadPort = errors.New("invalid port number")
)

// Config is the persisted document. Optional fields are omitted from the
// output when nil.
type Config struct {
	APIHost     string  `json:"API_HOST"`
	JarPath     string  `json:"JAR_PATH"`
	BackendPort uint16  `json:"BACKEND_PORT"`
	DBHost      *string `json:"DB_HOST,omitempty"`
	DBName      *string `json:"DB_NAME,omitempty"`
	DBUser      *string `json:"DB_USER,omitempty"`
	DBPass      *string `json:"DB_PASS,omitempty"`
}

// Update carries the values written by Writer.Update. Nil DB fields remove
// the corresponding keys.
type Update struct {
	APIHost string
	APIPort string
	JarPath string
	DBHost  *string
	DBName  *string
	DBUser  *string
	DBPass  *string
}

// ParseError reports an existing config.json that is not valid for the schema.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// WriteError reports a failure to create the directory, read or write the file.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// Writer updates config.json below the directory returned by ConfigDir.
type Writer struct {
	ConfigDir func() (string, bool)
}

// NewWriter returns a Writer rooted at the directory reported by configDir.
func NewWriter(configDir func() (string, bool)) *Writer {
	return &Writer{ConfigDir: configDir}
}

// Path resolves <config dir>/Hotel Task Manager/config.json.
func (w *Writer) Path() (string, error) {
	if w.ConfigDir == nil {
		return "", ErrNoConfigDir
	}
	dir, ok := w.ConfigDir()
	if !ok || dir == "" {
		return "", ErrNoConfigDir
	}
	return filepath.Join(dir, AppDirName, FileName), nil
}

// ParsePort parses s as an unsigned 16-bit integer.
func ParsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPort, s)
	}
	return uint16(n), nil
}

// Read loads the current document. A missing or blank file yields (nil, nil).
func (w *Writer) Read() (*Config, error) {
	path, err := w.Path()
	if err != nil {
		return nil, err
	}
	return readConfig(path)
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &WriteError{Op: "read", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &c, nil
}

// Update merges u into config.json, creating the file and its directory when
// needed. The write is not atomic; callers may simply retry.
func (w *Writer) Update(u Update) error {
	path, err := w.Path()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Op: "mkdir", Path: dir, Err: err}
	}

	port, err := ParsePort(strings.TrimSpace(u.APIPort))
	if err != nil {
		return err
	}

	cfg, err := readConfig(path)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &Config{}
	}

	cfg.APIHost = u.APIHost
	cfg.BackendPort = port
	cfg.JarPath = u.JarPath
	cfg.DBHost = u.DBHost
	cfg.DBName = u.DBName
	cfg.DBUser = u.DBUser
	cfg.DBPass = u.DBPass

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &WriteError{Op: "write", Path: path, Err: err}
	}
	logging.Infof("frontend config written to %s", path)
	return nil
}

// Marshal renders c as pretty-printed JSON with two-space indentation.
func Marshal(c *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// String returns a pointer to s, for filling optional fields.
func String(s string) *string { return &s }
