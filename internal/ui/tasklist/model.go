package tasklist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/persistdo/internal/keys"
	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/theme"
	"github.com/nhle/persistdo/internal/tracker"
)

// Source is the read side of the task store the list renders from.
type Source interface {
	Filter(f tracker.Filter) []model.Task
	Now() time.Time
}

// TasksLoadedMsg is sent when tasks have been read from the store.
type TasksLoadedMsg struct {
	Tasks []model.Task
	Now   time.Time
}

// Model is the main task list view component.
type Model struct {
	list     list.Model
	src      Source
	keys     *keys.KeyMap
	filter   tracker.Filter
	selectID string
	width    int
	height   int
}

// New creates a new task list model.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.SetShowTitle(true)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("task", "tasks")

	m := Model{
		list:   l,
		src:    src,
		keys:   k,
		filter: tracker.FilterAll,
		width:  width,
		height: height,
	}
	m.updateTitle()
	return m
}

// Init returns a command that loads the initial set of tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		items := make([]list.Item, len(msg.Tasks))
		for i, task := range msg.Tasks {
			items[i] = TaskItem{Task: task, Now: msg.Now}
		}
		cmd := m.list.SetItems(items)
		if m.selectID != "" {
			for i, task := range msg.Tasks {
				if task.ID == m.selectID {
					m.list.Select(i)
					break
				}
			}
			m.selectID = ""
		}
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.FilterAll):
			return m, m.SetFilter(tracker.FilterAll)
		case key.Matches(msg, m.keys.FilterActive):
			return m, m.SetFilter(tracker.FilterActive)
		case key.Matches(msg, m.keys.FilterCompleted):
			return m, m.SetFilter(tracker.FilterCompleted)
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch m.filter {
	case tracker.FilterActive:
		return style.Render("Nothing left to do.\nPress 1 to see all tasks.")
	case tracker.FilterCompleted:
		return style.Render("Nothing completed yet.\nPress 1 to see all tasks.")
	}
	return style.Render("No tasks yet.\n\nPress n to add one.")
}

// LoadTasks returns a tea.Cmd that reads the tasks matching the current filter.
func (m Model) LoadTasks() tea.Cmd {
	f := m.filter
	src := m.src
	return func() tea.Msg {
		return TasksLoadedMsg{Tasks: src.Filter(f), Now: src.Now()}
	}
}

// SetFilter switches the filter and reloads.
func (m *Model) SetFilter(f tracker.Filter) tea.Cmd {
	m.filter = f
	m.list.ResetSelected()
	m.updateTitle()
	return m.LoadTasks()
}

// Filter returns the active filter.
func (m Model) Filter() tracker.Filter {
	return m.filter
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// SelectID moves the cursor to the task with id on the next load.
func (m *Model) SelectID(id string) {
	m.selectID = id
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

func (m *Model) updateTitle() {
	m.list.Title = fmt.Sprintf("Tasks · %s", m.filter)
}
