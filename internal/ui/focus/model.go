// Package focus renders the single next pending task.
package focus

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/theme"
)

// Model is the focus view: the first pending task in list order, or the
// time until the next completed task comes back.
type Model struct {
	task      model.Task
	hasTask   bool
	nextReset time.Time
	now       time.Time
	width     int
	height    int
}

// New creates a focus view.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetTasks recomputes the view from the full ordered task list.
func (m *Model) SetTasks(tasks []model.Task, now time.Time) {
	m.now = now
	m.hasTask = false
	m.nextReset = time.Time{}

	for _, t := range tasks {
		if !t.Completed {
			if !m.hasTask {
				m.task = t
				m.hasTask = true
			}
			continue
		}
		if at, ok := t.ResetsAt(); ok && (m.nextReset.IsZero() || at.Before(m.nextReset)) {
			m.nextReset = at
		}
	}
}

// Task returns the task in focus.
func (m Model) Task() (model.Task, bool) {
	return m.task, m.hasTask
}

// View renders the focus panel.
func (m Model) View() string {
	var body string
	if m.hasTask {
		body = m.renderTask()
	} else {
		body = m.renderAllClear()
	}

	panel := theme.PanelStyle.
		Width(min(max(m.width-8, 20), 72)).
		Render(body)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func (m Model) renderTask() string {
	label := theme.HelpStyle.Render("NEXT UP")
	pri := theme.PriorityStyle(m.task.Priority).Render(theme.PriorityLabel(m.task.Priority))
	text := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(m.task.Text)

	lines := []string{label, "", pri + " " + text}
	if m.task.Notes != "" {
		lines = append(lines, "", theme.MetaStyle.Render(m.task.Notes))
	}
	lines = append(lines, "", theme.HelpStyle.Render("space to complete · tab to switch view"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderAllClear() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).Render("All clear.")
	lines := []string{title, ""}
	if m.nextReset.IsZero() {
		lines = append(lines, theme.MetaStyle.Render("No tasks yet. Press n to add one."))
	} else {
		lines = append(lines, theme.MetaStyle.Render(
			"Next task comes back "+humanize.RelTime(m.nextReset, m.now, "ago", "from now")+".",
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
