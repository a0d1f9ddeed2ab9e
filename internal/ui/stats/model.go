// Package stats renders streak and completion progress.
package stats

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/theme"
	"github.com/nhle/persistdo/internal/tracker"
)

const barWidth = 30

// PriorityCount is the done/total tally for one priority.
type PriorityCount struct {
	Priority model.Priority
	Done     int
	Total    int
}

// Model is the stats view.
type Model struct {
	stats      tracker.Stats
	byPriority []PriorityCount
	width      int
	height     int
}

// New creates a stats view.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetData refreshes the view from the tracker summary and task list.
func (m *Model) SetData(s tracker.Stats, tasks []model.Task) {
	m.stats = s
	m.byPriority = CountByPriority(tasks)
}

// CountByPriority tallies tasks per priority, highest priority first.
// Priorities with no tasks are left out.
func CountByPriority(tasks []model.Task) []PriorityCount {
	var out []PriorityCount
	for i := len(model.Priorities) - 1; i >= 0; i-- {
		pc := PriorityCount{Priority: model.Priorities[i]}
		for _, t := range tasks {
			if t.Priority != pc.Priority {
				continue
			}
			pc.Total++
			if t.Completed {
				pc.Done++
			}
		}
		if pc.Total > 0 {
			out = append(out, pc)
		}
	}
	return out
}

// ProgressBar draws a bar of width cells filled to percent.
func ProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = min(max(filled, 0), width)
	return lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(strings.Repeat("░", width-filled))
}

// View renders the stats panel.
func (m Model) View() string {
	streak := theme.StreakStyle.Render(fmt.Sprintf("%d day streak", m.stats.Streak.Count))
	if m.stats.Streak.LastDate != "" {
		streak += theme.MetaStyle.Render("  last credited " + m.stats.Streak.LastDate)
	}

	progress := fmt.Sprintf("%s %3.0f%%  %s of %s done",
		ProgressBar(m.stats.Progress, barWidth),
		m.stats.Progress,
		humanize.Comma(int64(m.stats.Done)),
		humanize.Comma(int64(m.stats.Total)),
	)

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Today"),
		"",
		streak,
		progress,
	}
	if len(m.byPriority) > 0 {
		lines = append(lines, "")
		for _, pc := range m.byPriority {
			lines = append(lines, fmt.Sprintf("%s %d/%d",
				theme.PriorityStyle(pc.Priority).Render(fmt.Sprintf("%-4s", theme.PriorityLabel(pc.Priority))),
				pc.Done, pc.Total,
			))
		}
	}

	panel := theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
