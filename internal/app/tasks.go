package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/tracker"
)

// taskChangedMsg is sent after a tracker mutation. note is shown in the
// status bar on success.
type taskChangedMsg struct {
	note string
	err  error
}

// stateLoadedMsg carries what the focus and stats views render from.
type stateLoadedMsg struct {
	tasks []model.Task
	stats tracker.Stats
	now   time.Time
}

// loadState reads the full task list and stats from the tracker.
func (m Model) loadState() tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		return stateLoadedMsg{tasks: t.Tasks(), stats: t.Stats(), now: t.Now()}
	}
}

// createTask adds a task from the form.
func (m Model) createTask(f tracker.TaskFields) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		task, err := t.Create(f.Text, f.Notes, f.Priority, f.ResetIntervalHours)
		if err != nil {
			return taskChangedMsg{err: err}
		}
		return taskChangedMsg{note: fmt.Sprintf("added %q", task.Text)}
	}
}

// updateTask saves edits from the form.
func (m Model) updateTask(id string, f tracker.TaskFields) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		task, err := t.Update(id, f)
		if err != nil {
			return taskChangedMsg{err: err}
		}
		return taskChangedMsg{note: fmt.Sprintf("updated %q", task.Text)}
	}
}

// toggleTask flips a task between pending and completed.
func (m Model) toggleTask(id string) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		task, err := t.Toggle(id)
		if err != nil {
			return taskChangedMsg{err: err}
		}
		if task.Completed {
			return taskChangedMsg{note: fmt.Sprintf("done: %s", task.Text)}
		}
		return taskChangedMsg{note: fmt.Sprintf("reopened: %s", task.Text)}
	}
}

// deleteTask removes a task.
func (m Model) deleteTask(id string) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		if !t.Delete(id) {
			return taskChangedMsg{}
		}
		return taskChangedMsg{note: "task deleted"}
	}
}

// moveTask shifts a task one slot up (delta -1) or down (delta 1).
func (m Model) moveTask(id string, delta int) tea.Cmd {
	t := m.tracker
	return func() tea.Msg {
		return taskChangedMsg{err: t.Move(id, delta)}
	}
}

// sweepNow asks the scheduler for an immediate reset check. The result
// arrives as a scheduler.ResetMsg.
func (m Model) sweepNow() tea.Cmd {
	s := m.scheduler
	return func() tea.Msg {
		s.SweepNow()
		return nil
	}
}
