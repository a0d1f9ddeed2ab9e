package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/nhle/persistdo/internal/keys"
	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/scheduler"
	"github.com/nhle/persistdo/internal/theme"
	"github.com/nhle/persistdo/internal/tracker"
	"github.com/nhle/persistdo/internal/ui"
	"github.com/nhle/persistdo/internal/ui/command"
	"github.com/nhle/persistdo/internal/ui/detail"
	"github.com/nhle/persistdo/internal/ui/focus"
	helpview "github.com/nhle/persistdo/internal/ui/help"
	"github.com/nhle/persistdo/internal/ui/stats"
	"github.com/nhle/persistdo/internal/ui/taskform"
	"github.com/nhle/persistdo/internal/ui/tasklist"
)

// welcomeBackAfter is how long since the last visit before the header
// greets the user.
const welcomeBackAfter = 12 * time.Hour

const saveFailedPrefix = "save failed: "

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewFocus
	ViewStats
	ViewDetail
	ViewHelp
	ViewCommand
	ViewTaskCreate
	ViewTaskEdit
)

// mainViews are the views cycled with tab.
var mainViews = []ViewState{ViewList, ViewFocus, ViewStats}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the tracker.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	tracker      *tracker.Tracker
	scheduler    *scheduler.Scheduler
	keys         *keys.KeyMap
	taskList     tasklist.Model
	focusView    focus.Model
	statsView    stats.Model
	detailView   detail.Model
	helpView     helpview.Model
	commandView  command.Model
	taskForm     taskform.Model
	ready        bool
	streak       model.StreakState
	welcome      string
	status       string
	errMessage   string
}

// New creates the root model. The scheduler is started by Init and
// stopped on quit.
func New(t *tracker.Tracker, s *scheduler.Scheduler) Model {
	k := keys.DefaultKeyMap()
	prefs := t.Preferences()
	theme.SetDarkMode(prefs.DarkMode)

	m := Model{
		currentView: ViewList,
		tracker:     t,
		scheduler:   s,
		keys:        k,
		taskList:    tasklist.New(t, k, 80, 22),
		focusView:   focus.New(80, 22),
		statsView:   stats.New(80, 22),
		detailView:  detail.New(k, 80, 22),
		helpView:    helpview.New(k, 80, 22),
		commandView: command.New(80, 22),
		taskForm:    taskform.New(80, 22),
		streak:      t.Streak(),
		welcome:     welcomeNote(t.PreviousVisit(), t.Now()),
	}
	if prefs.ViewMode == model.ViewModeFocus {
		m.currentView = ViewFocus
	}
	return m
}

// welcomeNote greets a user returning after a long absence.
func welcomeNote(prev, now time.Time) string {
	if prev.IsZero() || now.Sub(prev) <= welcomeBackAfter {
		return ""
	}
	return "Welcome back! Last visit " + humanize.RelTime(prev, now, "ago", "from now")
}

// Init loads the views and starts the reset scheduler, which sweeps once
// right away.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.scheduler.Start(),
		m.taskList.Init(),
		m.loadState(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.taskList.SetSize(contentWidth, contentHeight)
		m.focusView.SetSize(contentWidth, contentHeight)
		m.statsView.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.taskForm.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case scheduler.ResetMsg:
		if n := len(msg.TaskIDs); n > 0 {
			m.status = fmt.Sprintf("%d task(s) reset", n)
		}
		return m, tea.Batch(m.refresh(), m.scheduler.WaitForReset())

	case taskChangedMsg:
		if msg.err != nil {
			m.errMessage = msg.err.Error()
		} else {
			m.errMessage = ""
			if msg.note != "" {
				m.status = msg.note
			}
		}
		return m, m.refresh()

	case stateLoadedMsg:
		m.streak = msg.stats.Streak
		m.focusView.SetTasks(msg.tasks, msg.now)
		m.statsView.SetData(msg.stats, msg.tasks)
		if !m.detailView.Refresh(msg.tasks, msg.now) && m.currentView == ViewDetail {
			m.currentView = ViewList
		}
		if err := m.tracker.SaveErr(); err != nil {
			m.errMessage = saveFailedPrefix + err.Error()
		} else if strings.HasPrefix(m.errMessage, saveFailedPrefix) {
			m.errMessage = ""
		}
		return m, nil

	case tasklist.TasksLoadedMsg:
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd

	case taskform.SubmitMsg:
		m.currentView = m.previousView
		if msg.ID == "" {
			return m, m.createTask(msg.Fields)
		}
		return m, m.updateTask(msg.ID, msg.Fields)

	case taskform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.currentView {
		case ViewTaskCreate, ViewTaskEdit, ViewCommand:
			return m.updateActiveView(msg)
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleKey processes global keys outside the form and the palette.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quitHandled()

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Back):
		switch m.currentView {
		case ViewHelp:
			m.currentView = m.previousView
			return m, nil, true
		case ViewDetail:
			m.currentView = ViewList
			return m, nil, true
		}
	}

	if m.currentView == ViewHelp {
		return m, nil, true
	}

	switch {
	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.CycleView):
		m.currentView = nextMainView(m.currentView)
		return m, m.persistViewMode(), true

	case key.Matches(msg, m.keys.DarkMode):
		m.toggleDarkMode()
		return m, nil, true

	case key.Matches(msg, m.keys.Sweep):
		m.status = "checking for resets"
		return m, m.sweepNow(), true

	case key.Matches(msg, m.keys.New):
		m.previousView = m.currentView
		m.currentView = ViewTaskCreate
		return m, m.taskForm.StartCreate(), true

	case key.Matches(msg, m.keys.Toggle):
		if task, ok := m.currentTask(); ok {
			return m, m.toggleTask(task.ID), true
		}
		return m, nil, true
	}

	if m.currentView != ViewList && m.currentView != ViewDetail {
		return m, nil, false
	}

	task, ok := m.currentTask()
	switch {
	case key.Matches(msg, m.keys.Select):
		if !ok || m.currentView != ViewList {
			return m, nil, true
		}
		m.detailView.SetTask(task, m.tracker.Now())
		m.currentView = ViewDetail
		return m, nil, true

	case key.Matches(msg, m.keys.Edit):
		if !ok {
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewTaskEdit
		return m, m.taskForm.StartEdit(task), true

	case key.Matches(msg, m.keys.Delete):
		if !ok {
			return m, nil, true
		}
		m.currentView = ViewList
		return m, m.deleteTask(task.ID), true

	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		if !ok || m.currentView != ViewList {
			return m, nil, true
		}
		delta := 1
		if key.Matches(msg, m.keys.MoveUp) {
			delta = -1
		}
		m.taskList.SelectID(task.ID)
		return m, m.moveTask(task.ID, delta), true
	}

	return m, nil, false
}

// executeCommand runs a command typed into the palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "new", "add":
		m.previousView = m.currentView
		m.currentView = ViewTaskCreate
		return m, m.taskForm.StartCreate()
	case "sweep", "reset":
		m.status = "checking for resets"
		return m, m.sweepNow()
	case "dark":
		m.toggleDarkMode()
		return m, nil
	case "list":
		m.currentView = ViewList
		return m, m.persistViewMode()
	case "focus":
		m.currentView = ViewFocus
		return m, m.persistViewMode()
	case "stats":
		m.currentView = ViewStats
		return m, nil
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case "quit", "q":
		return m.quit()
	}

	if name, ok := strings.CutPrefix(cmd, "filter "); ok {
		f, err := tracker.ParseFilter(name)
		if err != nil {
			m.errMessage = err.Error()
			return m, nil
		}
		m.errMessage = ""
		m.currentView = ViewList
		return m, m.taskList.SetFilter(f)
	}

	m.errMessage = fmt.Sprintf("unknown command %q", cmd)
	return m, nil
}

func (m *Model) toggleDarkMode() {
	dark := !m.tracker.Preferences().DarkMode
	m.tracker.SetDarkMode(dark)
	theme.SetDarkMode(dark)
}

// currentTask is the task a toggle applies to in the active view.
func (m Model) currentTask() (model.Task, bool) {
	switch m.currentView {
	case ViewList:
		return m.taskList.SelectedTask()
	case ViewFocus:
		return m.focusView.Task()
	case ViewDetail:
		return m.detailView.Task()
	}
	return model.Task{}, false
}

func nextMainView(v ViewState) ViewState {
	for i, mv := range mainViews {
		if mv == v {
			return mainViews[(i+1)%len(mainViews)]
		}
	}
	return ViewList
}

// persistViewMode stores list or focus as the preferred start view.
func (m Model) persistViewMode() tea.Cmd {
	var mode string
	switch m.currentView {
	case ViewList:
		mode = model.ViewModeList
	case ViewFocus:
		mode = model.ViewModeFocus
	default:
		return nil
	}
	t := m.tracker
	return func() tea.Msg {
		if err := t.SetViewMode(mode); err != nil {
			return taskChangedMsg{err: err}
		}
		return nil
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.scheduler.Stop()
	return m, tea.Quit
}

func (m Model) quitHandled() (tea.Model, tea.Cmd, bool) {
	next, cmd := m.quit()
	return next, cmd, true
}

// refresh reloads every view from the tracker.
func (m Model) refresh() tea.Cmd {
	return tea.Batch(m.taskList.LoadTasks(), m.loadState())
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskCreate, ViewTaskEdit:
		m.taskForm, cmd = m.taskForm.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "PersistDo"
	if m.welcome != "" {
		title += "  " + theme.WelcomeStyle.Render(m.welcome)
	}
	header := m.layout.RenderHeader(title, m.headerRight())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.errMessage)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// headerRight shows today's date and the streak.
func (m Model) headerRight() string {
	date := m.tracker.Now().Format("Mon Jan 2")
	return fmt.Sprintf("%s · %s", date, theme.StreakStyle.Render(fmt.Sprintf("streak %d", m.streak.Count)))
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewFocus:
		return m.focusView.View()
	case ViewStats:
		return m.statsView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskCreate, ViewTaskEdit:
		return m.taskForm.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	var hints string
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter run | tab complete | esc cancel"
	case ViewTaskCreate, ViewTaskEdit:
		return "enter submit | esc cancel"
	case ViewDetail:
		hints = "space done | e edit | d delete | j/k scroll | esc back"
	case ViewFocus:
		hints = "space done | n new | tab view | ? help | q quit"
	case ViewStats:
		hints = "tab view | D dark mode | ? help | q quit"
	default:
		hints = "space done | enter details | n new | e edit | d delete | J/K move | 1/2/3 filter | tab view | : command | ? help | q quit"
	}
	if m.status != "" {
		return m.status + " | " + hints
	}
	return hints
}
