// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// Package health probes a remote backend through its Spring actuator
// endpoint.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hoteltaskmanager/htm-installer/internal/i18n"
	"github.com/hoteltaskmanager/htm-installer/internal/logging"
)

// Path is appended to "<url>:<port>".
const Path = "/actuator/health"

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 10 * time.Second

var (
	// ErrTransport means no HTTP response was received.
	ErrTransport = errors.New("health: transport failure")
	// ErrStatus means the endpoint answered with a non-2xx code or a status other than UP.
	ErrStatus = errors.New("health: backend not healthy")
	// ErrBodyShape means the body was not a JSON document.
	ErrBodyShape = errors.New("health: unexpected response body")
)

// Error carries one of the sentinel kinds and the operator-facing diagnostic.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Kind }

// Checker performs health probes.
type Checker struct {
	client *resty.Client
}

// New returns a Checker whose requests time out after timeout.
// A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{client: resty.New().SetTimeout(timeout)}
}

// URL builds the probe address. The url is used as typed, including its scheme.
func URL(url, port string) string {
	return fmt.Sprintf("%s:%s%s", url, port, Path)
}

// Check issues GET <url>:<port>/actuator/health and returns the success text
// when the backend reports {"status":"UP"}.
func (c *Checker) Check(ctx context.Context, url, port string) (string, error) {
	target := URL(url, port)
	logging.Debugf("health: GET %s", target)

	resp, err := c.client.R().SetContext(ctx).Get(target)
	if err != nil {
		return "", &Error{Kind: ErrTransport, Detail: i18n.T("health.transport", err)}
	}
	if !resp.IsSuccess() {
		return "", &Error{Kind: ErrStatus, Detail: i18n.T("health.http_status", resp.Status())}
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", &Error{Kind: ErrBodyShape, Detail: i18n.T("health.bad_json")}
	}
	status, ok := body["status"]
	if s, isString := status.(string); ok && isString && s == "UP" {
		return i18n.T("health.ok"), nil
	}

	// Render the reported value as JSON so "DOWN" keeps its quotes and a
	// missing field reads as null.
	rendered, _ := json.Marshal(status)
	return "", &Error{Kind: ErrStatus, Detail: i18n.T("health.not_up", string(rendered))}
}
