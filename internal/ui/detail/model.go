package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/persistdo/internal/keys"
	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Model is the task detail view component.
type Model struct {
	task     model.Task
	hasTask  bool
	now      time.Time
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle().Padding(0, 2)

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg {
			return BackMsg{}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if !m.hasTask {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No task selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Text))

	status := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render("PENDING")
	if task.Completed {
		status = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).Render("DONE")
	}
	priBadge := theme.PriorityStyle(task.Priority).Render(string(task.Priority))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, status, "  ", priBadge))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-10s", label)), valStyle.Render(value))
	}

	sections = append(sections, row("Resets:", fmt.Sprintf("every %d hours after completion", task.ResetIntervalHours)))
	if task.Completed && task.CompletedAt != nil {
		done := task.CompletedAt.Local()
		sections = append(sections, row("Done:", fmt.Sprintf("%s (%s)",
			done.Format("2006-01-02 15:04"),
			humanize.RelTime(done, m.now, "ago", "from now"),
		)))
		if at, ok := task.ResetsAt(); ok {
			sections = append(sections, row("Returns:", fmt.Sprintf("%s (%s)",
				at.Local().Format("2006-01-02 15:04"),
				humanize.RelTime(at, m.now, "ago", "from now"),
			)))
		}
	}
	sections = append(sections, row("ID:", task.ID))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	notesHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sections = append(sections, notesHeaderStyle.Render("Notes"))

	notes := task.Notes
	if notes == "" {
		notes = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No notes")
	}
	sections = append(sections, notes)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTask updates the task being displayed and re-renders the content.
func (m *Model) SetTask(task model.Task, now time.Time) {
	m.task = task
	m.hasTask = true
	m.now = now
	m.viewport.SetContent(m.renderContent())
}

// Task returns the displayed task.
func (m Model) Task() (model.Task, bool) {
	return m.task, m.hasTask
}

// Refresh replaces the displayed task with its latest version from tasks.
// It reports false when the task no longer exists.
func (m *Model) Refresh(tasks []model.Task, now time.Time) bool {
	if !m.hasTask {
		return false
	}
	for _, t := range tasks {
		if t.ID == m.task.ID {
			m.SetTask(t, now)
			return true
		}
	}
	m.hasTask = false
	return false
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if m.hasTask {
		m.viewport.SetContent(m.renderContent())
	}
}
