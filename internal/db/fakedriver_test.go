// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

// fakeServer records what the provisioner sends. It stands in for a MySQL
// server behind the "htmfake" database/sql driver.
type fakeServer struct {
	mu        sync.Mutex
	dsns      []string
	execs     []string
	openErr   error
	pingErr   error
	execErr   error
	databases map[string]bool
}

var (
	fakeMu     sync.Mutex
	fakeActive *fakeServer
	fakeOnce   sync.Once
)

func useFakeServer(s *fakeServer) func() {
	fakeOnce.Do(func() { sql.Register("htmfake", fakeDriver{}) })
	fakeMu.Lock()
	fakeActive = s
	fakeMu.Unlock()
	return func() {
		fakeMu.Lock()
		fakeActive = nil
		fakeMu.Unlock()
	}
}

type fakeDriver struct{}

func (fakeDriver) Open(dsn string) (driver.Conn, error) {
	fakeMu.Lock()
	s := fakeActive
	fakeMu.Unlock()
	if s == nil {
		return nil, errors.New("no fake server")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dsns = append(s.dsns, dsn)
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &fakeConn{s: s}, nil
}

type fakeConn struct{ s *fakeServer }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("tx not supported") }

func (c *fakeConn) Ping(ctx context.Context) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.pingErr
}

func (c *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if len(args) > 0 {
		return nil, driver.ErrSkip
	}
	c.s.execs = append(c.s.execs, query)
	if c.s.execErr != nil {
		return nil, c.s.execErr
	}
	if c.s.databases == nil {
		c.s.databases = map[string]bool{}
	}
	c.s.databases[query] = true
	return driver.RowsAffected(1), nil
}

// QueryContext answers the version probe issued by the bun mysql dialect.
func (c *fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	return &versionRows{}, nil
}

type versionRows struct{ done bool }

func (r *versionRows) Columns() []string { return []string{"version()"} }
func (r *versionRows) Close() error      { return nil }
func (r *versionRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = []byte("10.11.6-MariaDB")
	return nil
}
