// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package wizard

import (
	"fmt"
	"slices"
)

// Step identifies a wizard screen. The numbering is stable and shows up in
// debug logs.
type Step int

const (
	StepWelcome  Step = 0
	StepDatabase Step = 1
	StepMariaDB  Step = 2
	StepJava     Step = 3
	StepBackend  Step = 4
	StepFrontend Step = 5
	StepConfig   Step = 6
	StepDone     Step = 7
	StepRemote   Step = 10
)

func (s Step) String() string {
	switch s {
	case StepWelcome:
		return "welcome"
	case StepDatabase:
		return "database"
	case StepMariaDB:
		return "mariadb"
	case StepJava:
		return "java"
	case StepBackend:
		return "backend"
	case StepFrontend:
		return "frontend"
	case StepConfig:
		return "config"
	case StepDone:
		return "done"
	case StepRemote:
		return "remote"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// stepDef describes the edges leaving a step.
type stepDef struct {
	// targets lists every step reachable from this one, back edges included.
	targets []Step
	// back is the target of the Back event, when hasBack is set.
	back    Step
	hasBack bool
	// auto marks steps whose action runs on entry.
	auto bool
}

var steps = map[Step]stepDef{
	StepWelcome:  {targets: []Step{StepDatabase, StepRemote}},
	StepDatabase: {targets: []Step{StepWelcome, StepMariaDB, StepJava}, back: StepWelcome, hasBack: true},
	StepMariaDB:  {targets: []Step{StepDatabase, StepJava}, back: StepDatabase, hasBack: true, auto: true},
	StepJava:     {targets: []Step{StepBackend}, auto: true},
	StepBackend:  {targets: []Step{StepFrontend}, auto: true},
	StepFrontend: {targets: []Step{StepConfig}},
	StepConfig:   {targets: []Step{StepDone}, auto: true},
	StepDone:     {},
	StepRemote:   {targets: []Step{StepWelcome, StepFrontend}, back: StepWelcome, hasBack: true},
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	_, ok := steps[s]
	return ok
}

// Auto reports whether s runs an action as soon as it is entered.
func (s Step) Auto() bool {
	return steps[s].auto
}

// CanGoBack reports whether s accepts the Back event.
func (s Step) CanGoBack() bool {
	return steps[s].hasBack
}

// Steps returns every known step in ascending order.
func Steps() []Step {
	out := make([]Step, 0, len(steps))
	for s := range steps {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

func allowed(from, to Step) bool {
	def, ok := steps[from]
	if !ok {
		return false
	}
	return slices.Contains(def.targets, to)
}
