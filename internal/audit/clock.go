// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package audit

import "time"

// Clock provides an abstraction over time.Now for testability.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
