package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
// Now is the time the relative labels are computed against.
type TaskItem struct {
	Task model.Task
	Now  time.Time
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Text }

// Title returns the task text for the list.
func (i TaskItem) Title() string { return i.Task.Text }

// Description returns the secondary line: interval, completion and
// reset timing, and notes.
func (i TaskItem) Description() string {
	t := i.Task
	parts := []string{fmt.Sprintf("every %dh", t.ResetInterval()/time.Hour)}

	if t.Completed && t.CompletedAt != nil {
		parts = append(parts, "done "+humanize.RelTime(*t.CompletedAt, i.Now, "ago", "from now"))
		if at, ok := t.ResetsAt(); ok {
			parts = append(parts, "resets "+humanize.RelTime(at, i.Now, "ago", "from now"))
		}
	}
	if t.Notes != "" {
		parts = append(parts, firstLine(t.Notes))
	}
	return strings.Join(parts, " · ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a task as a title line and a details line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	task := ti.Task
	isSelected := index == m.Index()

	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	pri := theme.PriorityStyle(task.Priority).Render(fmt.Sprintf("%-4s", theme.PriorityLabel(task.Priority)))

	text := task.Text
	if task.Completed {
		text = theme.DimmedStyle.Render(text)
	}

	title := fmt.Sprintf("%s %s %s", check, pri, text)
	meta := "    " + theme.MetaStyle.Render(ti.Description())
	line := title + "\n" + meta

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
