package taskform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/theme"
	"github.com/nhle/persistdo/internal/tracker"
)

// SubmitMsg is dispatched when the form is completed. ID is empty for a
// new task.
type SubmitMsg struct {
	ID     string
	Fields tracker.TaskFields
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text     string
	notes    string
	priority model.Priority
	interval int
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editID   string
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium, interval: model.ResetDaily},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = ""
	m.fb.text = ""
	m.fb.notes = ""
	m.fb.priority = model.PriorityMedium
	m.fb.interval = model.ResetDaily
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with an existing task.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editMode = true
	m.editID = task.ID
	m.fb.text = task.Text
	m.fb.notes = task.Notes
	m.fb.priority = task.Priority
	m.fb.interval = task.ResetIntervalHours
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.submit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	priorities := make([]huh.Option[model.Priority], 0, len(model.Priorities))
	for i := len(model.Priorities) - 1; i >= 0; i-- {
		p := model.Priorities[i]
		priorities = append(priorities, huh.NewOption(string(p), p))
	}

	intervals := make([]huh.Option[int], 0, len(model.ResetIntervals))
	for _, h := range model.ResetIntervals {
		intervals = append(intervals, huh.NewOption(fmt.Sprintf("Every %d hours", h), h))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				Placeholder("What do you want to keep doing?").
				Value(&m.fb.text).
				Validate(validateRequired("Task")),
			huh.NewText().
				Title("Notes").
				Placeholder("Optional details...").
				Value(&m.fb.notes),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(priorities...).
				Value(&m.fb.priority),
			huh.NewSelect[int]().
				Title("Resets").
				Options(intervals...).
				Value(&m.fb.interval),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight()).WithShowHelp(true)
}

func (m Model) submit() tea.Cmd {
	msg := SubmitMsg{
		Fields: tracker.TaskFields{
			Text:               m.fb.text,
			Notes:              m.fb.notes,
			Priority:           m.fb.priority,
			ResetIntervalHours: m.fb.interval,
		},
	}
	if m.editMode {
		msg.ID = m.editID
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
