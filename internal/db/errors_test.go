// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"access denied", &mysql.MySQLError{Number: 1045, Message: "Access denied for user 'root'@'localhost'"}, KindConnect},
		{"db access denied", &mysql.MySQLError{Number: 1044, Message: "Access denied"}, KindConnect},
		{"host not privileged", fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1130, Message: "Host is not allowed"}), KindConnect},
		{"syntax error", &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}, KindExec},
		{"plain error", errors.New("broken pipe"), KindExec},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := classify(c.err)
			if got.Kind != c.want {
				t.Fatalf("kind = %v, want %v", got.Kind, c.want)
			}
			if !errors.Is(got, c.err) {
				t.Fatalf("classified error does not wrap the original")
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("create: %w", &Error{Kind: KindValidation, Err: errors.New("bad name")})
	if !IsKind(err, KindValidation) {
		t.Fatal("expected validation kind through wrapping")
	}
	if IsKind(err, KindConnect) {
		t.Fatal("unexpected connect kind")
	}
	if IsKind(errors.New("x"), KindExec) {
		t.Fatal("plain errors have no kind")
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{KindValidation: "validation", KindConnect: "connect", KindExec: "exec", Kind(9): "kind(9)"} {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(k), k.String(), want)
		}
	}
	e := &Error{Kind: KindConnect, Err: errors.New("dial tcp: refused")}
	if e.Error() != "connect: dial tcp: refused" {
		t.Fatalf("Error() = %q", e.Error())
	}
}
