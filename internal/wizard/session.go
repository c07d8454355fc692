// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package wizard

// Choice records where the backend will run.
type Choice int

const (
	ChoiceUndecided Choice = iota
	ChoiceLocal
	ChoiceRemote
)

func (c Choice) String() string {
	switch c {
	case ChoiceLocal:
		return "local"
	case ChoiceRemote:
		return "remote"
	}
	return "undecided"
}

// Session is the in-memory state of one installer run. It is never persisted.
type Session struct {
	Step          Step
	BackendChoice Choice
	UseExistingDB bool

	ExternalAPIURL  string
	ExternalAPIPort string

	DBHost string
	DBName string
	DBUser string
	DBPass string

	// DBServerReady is set once a MariaDB server was found or installed.
	DBServerReady    bool
	JavaInstalled    bool
	BackendInstalled bool

	Status string
}

// Credentials holds the database fields typed by the operator.
type Credentials struct {
	Host string
	Name string
	User string
	Pass string
}
