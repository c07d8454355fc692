// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal front end of the installer.
// This file implements the wizard screen: one view per installer step, with
// every slow action run as a tea.Cmd so the spinner keeps moving while
// installers and network calls are in progress.
package tui // import "github.com/hoteltaskmanager/htm-installer/internal/tui"

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hoteltaskmanager/htm-installer/internal/i18n"
	"github.com/hoteltaskmanager/htm-installer/internal/logging"
	"github.com/hoteltaskmanager/htm-installer/internal/wizard"
)

// Input indexes per form.
const (
	dbHost = iota
	dbName
	dbUser
	dbPass
)

const (
	rootPass = iota
	newDBName
)

const (
	remoteURL = iota
	remotePort
)

// jobDoneMsg carries the result of a wizard job back to the event loop.
type jobDoneMsg struct {
	outcome wizard.Outcome
}

// wizardModel renders the installer and forwards operator input to the
// state machine.
type wizardModel struct {
	ctx     context.Context
	machine *wizard.Machine
	spinner spinner.Model

	// choiceCursor is -1 until the operator picks an answer on the welcome step.
	choiceCursor   int
	frontendCursor int

	// focus 0 on the database step is the mode selector; inputs follow.
	focus        int
	dbInputs     []textinput.Model
	rootInputs   []textinput.Model
	remoteInputs []textinput.Model

	configPath func() (string, error)
	copied     bool
	copyErr    error
	quitting   bool
}

func newInput(placeholder string, password bool) textinput.Model {
	t := textinput.New()
	t.Cursor.Style = focusedStyle
	t.CharLimit = 128
	t.Width = 40
	t.Placeholder = placeholder
	if password {
		t.EchoMode = textinput.EchoPassword
		t.EchoCharacter = '•'
	}
	return t
}

func newWizardModel(ctx context.Context, m *wizard.Machine, configPath func() (string, error)) *wizardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = specialStyle

	w := &wizardModel{
		ctx:          ctx,
		machine:      m,
		spinner:      sp,
		choiceCursor: -1,
		configPath:   configPath,
		dbInputs: []textinput.Model{
			newInput(i18n.T("db.host"), false),
			newInput(i18n.T("db.name"), false),
			newInput(i18n.T("db.user"), false),
			newInput(i18n.T("db.pass"), true),
		},
		rootInputs: []textinput.Model{
			newInput(i18n.T("db.pass"), true),
			newInput(i18n.T("mariadb.db_name_hint"), false),
		},
		remoteInputs: []textinput.Model{
			newInput(i18n.T("remote.url_hint"), false),
			newInput(i18n.T("remote.port_hint"), false),
		},
	}
	return w
}

// Init starts the spinner.
func (m *wizardModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the wizard state.
func (m *wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.machine.Phase() == wizard.PhaseRunning {
			return m, nil
		}
		return m.handleKeyMsg(msg)

	case jobDoneMsg:
		before := m.machine.Step()
		m.machine.Apply(msg.outcome)
		return m, m.afterTransition(before)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, m.updateInputs(msg)
}

// handleKeyMsg dispatches keyboard input to the handler of the current step.
func (m *wizardModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := m.machine.Step()
	if msg.String() == "esc" && step.CanGoBack() {
		return m, m.fire(wizard.EventBack)
	}
	switch step {
	case wizard.StepWelcome:
		return m.handleWelcomeKeys(msg)
	case wizard.StepDatabase:
		return m.handleDatabaseKeys(msg)
	case wizard.StepMariaDB:
		return m.handleMariaDBKeys(msg)
	case wizard.StepJava, wizard.StepBackend, wizard.StepConfig:
		if msg.String() == "r" && m.machine.NeedsRetry() {
			return m, m.fire(wizard.EventRetry)
		}
	case wizard.StepFrontend:
		return m.handleFrontendKeys(msg)
	case wizard.StepRemote:
		return m.handleRemoteKeys(msg)
	case wizard.StepDone:
		return m.handleDoneKeys(msg)
	}
	return m, nil
}

func (m *wizardModel) handleWelcomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.choiceCursor = 0
	case "right", "l":
		m.choiceCursor = 1
	case "enter":
		choice := wizard.ChoiceUndecided
		switch m.choiceCursor {
		case 0:
			choice = wizard.ChoiceLocal
		case 1:
			choice = wizard.ChoiceRemote
		}
		_ = m.machine.SetChoice(choice)
		return m, m.fire(wizard.EventNext)
	}
	return m, nil
}

func (m *wizardModel) handleDatabaseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	existing := m.machine.Session().UseExistingDB
	switch msg.String() {
	case "enter":
		return m, m.fire(wizard.EventNext)
	case "ctrl+t":
		return m, m.fire(wizard.EventTestConnection)
	case "tab", "down":
		if existing {
			return m, m.setFocus((m.focus+1)%(len(m.dbInputs)+1), m.dbInputs, 1)
		}
		return m, nil
	case "shift+tab", "up":
		if existing {
			return m, m.setFocus((m.focus+len(m.dbInputs))%(len(m.dbInputs)+1), m.dbInputs, 1)
		}
		return m, nil
	case "left", "right":
		if m.focus == 0 {
			_ = m.machine.SetUseExistingDB(!existing)
			return m, nil
		}
	}
	if m.focus > 0 {
		return m, m.updateInputs(msg)
	}
	return m, nil
}

func (m *wizardModel) handleMariaDBKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m, m.fire(wizard.EventCreateDatabase)
	case "ctrl+r":
		if m.machine.NeedsRetry() {
			return m, m.fire(wizard.EventRetry)
		}
		return m, nil
	case "tab", "shift+tab", "up", "down":
		return m, m.setFocus(1-m.focus, m.rootInputs, 0)
	}
	return m, m.updateInputs(msg)
}

func (m *wizardModel) handleFrontendKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "right", "h", "l":
		m.frontendCursor = 1 - m.frontendCursor
	case "enter":
		if m.frontendCursor == 0 {
			return m, m.fire(wizard.EventInstallFrontend)
		}
		return m, m.fire(wizard.EventFrontendInstalled)
	}
	return m, nil
}

func (m *wizardModel) handleRemoteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m, m.fire(wizard.EventNext)
	case "ctrl+t":
		return m, m.fire(wizard.EventCheckHealth)
	case "tab", "shift+tab", "up", "down":
		return m, m.setFocus(1-m.focus, m.remoteInputs, 0)
	}
	return m, m.updateInputs(msg)
}

func (m *wizardModel) handleDoneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		path, err := m.configPath()
		if err == nil {
			err = clipboard.WriteAll(path)
		}
		m.copied, m.copyErr = err == nil, err
	case "enter", "q", "esc":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// syncInputs copies the form values of the current step into the session.
func (m *wizardModel) syncInputs() {
	s := m.machine.Session()
	switch s.Step {
	case wizard.StepDatabase:
		_ = m.machine.SetCredentials(wizard.Credentials{
			Host: m.dbInputs[dbHost].Value(),
			Name: m.dbInputs[dbName].Value(),
			User: m.dbInputs[dbUser].Value(),
			Pass: m.dbInputs[dbPass].Value(),
		})
	case wizard.StepMariaDB:
		_ = m.machine.SetCredentials(wizard.Credentials{
			Host: s.DBHost,
			User: s.DBUser,
			Name: m.rootInputs[newDBName].Value(),
			Pass: m.rootInputs[rootPass].Value(),
		})
	case wizard.StepRemote:
		_ = m.machine.SetRemote(m.remoteInputs[remoteURL].Value(), m.remoteInputs[remotePort].Value())
	}
}

// fire hands ev to the state machine and schedules the resulting job.
func (m *wizardModel) fire(ev wizard.Event) tea.Cmd {
	m.syncInputs()
	before := m.machine.Step()
	job, err := m.machine.Begin(ev)
	if err != nil {
		logging.Debugf("tui: %s rejected: %v", ev, err)
		return nil
	}
	if job != nil {
		return m.run(job)
	}
	return m.afterTransition(before)
}

func (m *wizardModel) run(job wizard.Job) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return jobDoneMsg{outcome: job(ctx)}
	}
}

// afterTransition resets the forms of a newly entered step and starts its
// entry action.
func (m *wizardModel) afterTransition(before wizard.Step) tea.Cmd {
	var cmds []tea.Cmd
	if step := m.machine.Step(); step != before {
		m.focus = 0
		switch step {
		case wizard.StepMariaDB:
			cmds = append(cmds, m.setFocus(0, m.rootInputs, 0))
		case wizard.StepRemote:
			cmds = append(cmds, m.setFocus(0, m.remoteInputs, 0))
		case wizard.StepDatabase:
			cmds = append(cmds, m.setFocus(0, m.dbInputs, 1))
		}
	}
	if job := m.machine.EntryJob(); job != nil {
		cmds = append(cmds, m.run(job))
	}
	return tea.Batch(cmds...)
}

// setFocus moves the focus to index focus. Inputs are numbered from offset,
// so on the database step focus 0 is the mode selector.
func (m *wizardModel) setFocus(focus int, inputs []textinput.Model, offset int) tea.Cmd {
	m.focus = focus
	var cmd tea.Cmd
	for i := range inputs {
		if i+offset == focus {
			cmd = inputs[i].Focus()
			inputs[i].TextStyle = focusedStyle
			continue
		}
		inputs[i].Blur()
		inputs[i].TextStyle = lipgloss.NewStyle()
	}
	return cmd
}

func (m *wizardModel) updateInputs(msg tea.Msg) tea.Cmd {
	var inputs []textinput.Model
	switch m.machine.Step() {
	case wizard.StepDatabase:
		inputs = m.dbInputs
	case wizard.StepMariaDB:
		inputs = m.rootInputs
	case wizard.StepRemote:
		inputs = m.remoteInputs
	default:
		return nil
	}
	cmds := make([]tea.Cmd, len(inputs))
	for i := range inputs {
		inputs[i], cmds[i] = inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

// View renders the current step.
func (m *wizardModel) View() string {
	if m.quitting {
		return ""
	}
	var content []string
	switch m.machine.Step() {
	case wizard.StepWelcome:
		content = m.viewWelcome()
	case wizard.StepDatabase:
		content = m.viewDatabase()
	case wizard.StepMariaDB:
		content = m.viewMariaDB()
	case wizard.StepJava:
		content = []string{i18n.T("java.heading")}
	case wizard.StepBackend:
		content = []string{i18n.T("backend.heading")}
	case wizard.StepFrontend:
		content = m.viewFrontend()
	case wizard.StepConfig:
		content = []string{i18n.T("config.heading")}
	case wizard.StepDone:
		content = m.viewDone()
	case wizard.StepRemote:
		content = m.viewRemote()
	}
	return m.frame(content)
}

// frame wraps content in the shared dialog with the status line and the help
// footer of the current step.
func (m *wizardModel) frame(content []string) string {
	lines := []string{mainTitleStyle.Render(i18n.T("app.title")), ""}
	lines = append(lines, content...)

	if m.machine.Phase() == wizard.PhaseRunning {
		lines = append(lines, "", m.spinner.View()+" "+i18n.T("tui.working"))
	}
	if status := m.machine.Session().Status; status != "" {
		lines = append(lines, "", m.statusStyle(status).Render(i18n.T("common.status", status)))
	}

	mainContent := dialogBoxStyle.
		BorderForeground(colorSubtle).
		Width(80).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	helpFooterStyle := helpStyle.
		Background(lipgloss.Color("236")).
		Padding(0, 1).
		Italic(true)

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, mainContent, "", helpFooterStyle.Render(m.helpText())))
}

func (m *wizardModel) helpText() string {
	if m.machine.Phase() == wizard.PhaseRunning {
		return i18n.T("tui.help.running")
	}
	switch m.machine.Step() {
	case wizard.StepWelcome:
		return i18n.T("tui.help.welcome")
	case wizard.StepDatabase:
		return i18n.T("tui.help.database")
	case wizard.StepMariaDB:
		return i18n.T("tui.help.mariadb")
	case wizard.StepFrontend:
		return i18n.T("tui.help.frontend")
	case wizard.StepRemote:
		return i18n.T("tui.help.remote")
	case wizard.StepDone:
		return i18n.T("tui.help.done")
	}
	if m.machine.NeedsRetry() {
		return i18n.T("tui.help.retry")
	}
	return i18n.T("tui.help.quit")
}

func buttons(labels []string, cursor int) string {
	rendered := make([]string, 0, len(labels)*2)
	for i, l := range labels {
		if i > 0 {
			rendered = append(rendered, "  ")
		}
		if i == cursor {
			rendered = append(rendered, activeButtonStyle.Render(l))
		} else {
			rendered = append(rendered, buttonStyle.Render(l))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, rendered...)
}

func (m *wizardModel) viewWelcome() []string {
	return []string{
		titleStyle.Render(i18n.T("welcome.greeting")),
		specialStyle.Render(i18n.T("welcome.admin_notice")),
		specialStyle.Render(i18n.T("welcome.admin_hint")),
		"",
		i18n.T("welcome.question"),
		buttons([]string{i18n.T("welcome.yes"), i18n.T("welcome.no")}, m.choiceCursor),
	}
}

func (m *wizardModel) viewDatabase() []string {
	existing := m.machine.Session().UseExistingDB
	mode := 0
	if existing {
		mode = 1
	}
	modeButtons := buttons([]string{i18n.T("db.option_new"), i18n.T("db.option_existing")}, mode)
	if m.focus == 0 {
		modeButtons = lipgloss.JoinHorizontal(lipgloss.Left, focusedStyle.Render("> "), modeButtons)
	}
	content := []string{i18n.T("db.question"), modeButtons}
	if !existing {
		return content
	}
	content = append(content, "", i18n.T("db.credentials"))
	for _, in := range m.dbInputs {
		content = append(content, in.View())
	}
	return content
}

func (m *wizardModel) viewMariaDB() []string {
	content := []string{i18n.T("mariadb.heading")}
	if m.machine.Session().DBServerReady {
		content = append(content,
			"",
			i18n.T("mariadb.root_pass_prompt"),
			m.rootInputs[rootPass].View(),
			i18n.T("mariadb.db_name_prompt"),
			m.rootInputs[newDBName].View(),
		)
	}
	return content
}

func (m *wizardModel) viewFrontend() []string {
	return []string{
		i18n.T("frontend.question"),
		buttons([]string{i18n.T("frontend.install_now"), i18n.T("frontend.already")}, m.frontendCursor),
	}
}

func (m *wizardModel) viewRemote() []string {
	return []string{
		i18n.T("remote.heading"),
		m.remoteInputs[remoteURL].View(),
		m.remoteInputs[remotePort].View(),
	}
}

func (m *wizardModel) viewDone() []string {
	content := []string{
		successStyle.Render(i18n.T("done.heading")),
		i18n.T("done.body"),
	}
	if path, err := m.configPath(); err == nil {
		content = append(content, "", i18n.T("done.config_path", path))
	}
	switch {
	case m.copied:
		content = append(content, successStyle.Render(i18n.T("done.copied")))
	case m.copyErr != nil:
		content = append(content, errorStyle.Render(i18n.T("done.copy_error", m.copyErr)))
	}
	return content
}

// statusStyle colors failure texts red.
func (m *wizardModel) statusStyle(status string) lipgloss.Style {
	if m.machine.NeedsRetry() || strings.HasPrefix(status, i18n.T("tui.error_prefix")) {
		return errorStyle
	}
	return lipgloss.NewStyle()
}

// Run starts the interactive installer and blocks until the operator quits.
func Run(ctx context.Context, m *wizard.Machine, configPath func() (string, error)) error {
	_, err := tea.NewProgram(newWizardModel(ctx, m, configPath), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
