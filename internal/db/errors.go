// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db provisions the MariaDB/MySQL database used by the backend:
// it checks that a set of credentials can open a session and creates the
// application database idempotently.
package db

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// Kind classifies provisioning failures.
type Kind int

const (
	// KindValidation means the request was rejected before any SQL was sent.
	KindValidation Kind = iota
	// KindConnect covers DSN, network and authentication failures.
	KindConnect
	// KindExec covers failures of an issued statement.
	KindExec
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConnect:
		return "connect"
	case KindExec:
		return "exec"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every Provisioner operation. Its text is meant to be
// shown to the operator as-is.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a provisioning error of kind k.
func IsKind(err error, k Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == k
}

// Server error numbers that indicate the session could not be established.
var connectErrorNumbers = map[uint16]bool{
	1044: true, // ER_DBACCESS_DENIED_ERROR
	1045: true, // ER_ACCESS_DENIED_ERROR
	1049: true, // ER_BAD_DB_ERROR
	1130: true, // ER_HOST_NOT_PRIVILEGED
}

// classify maps a driver error raised while executing a statement. Access
// errors reported by the server are connection problems from the operator's
// point of view.
func classify(err error) *Error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && connectErrorNumbers[me.Number] {
		return &Error{Kind: KindConnect, Err: err}
	}
	return &Error{Kind: KindExec, Err: err}
}
