// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Package assets exposes the installer payloads bundled into the binary
// (MSI packages, the backend JAR, the frontend installer) by logical name.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Logical names of the bundled payloads.
const (
	MariaDBInstaller  = "mariadb.msi"
	OpenJDKInstaller  = "openjdk.msi"
	BackendJar        = "backend.jar"
	FrontendInstaller = "frontend.exe"
)

//go:embed resources
var embedded embed.FS

// ErrResourceMissing is returned when no payload exists under the requested name.
var ErrResourceMissing = errors.New("resource not found")

// WriteError reports a failure to write a payload to disk.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store is a read-only view over a set of named blobs.
type Store struct {
	fsys fs.FS
}

// New returns a Store reading blobs from the root of fsys.
func New(fsys fs.FS) *Store {
	return &Store{fsys: fsys}
}

// Embedded returns the Store backed by the payloads compiled into the binary.
func Embedded() *Store {
	sub, err := fs.Sub(embedded, "resources")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return New(sub)
}

// Get returns the full content of name.
func (s *Store) Get(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %s", ErrResourceMissing, name)
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceMissing, name)
		}
		return nil, fmt.Errorf("read resource %s: %w", name, err)
	}
	return data, nil
}

// Materialize writes the blob stored under name to dest, replacing any
// existing file. The parent directory of dest must already exist.
func (s *Store) Materialize(name, dest string) error {
	data, err := s.Get(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	return nil
}
