package tasklist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/persistdo/internal/model"
)

func TestTaskItemDescription(t *testing.T) {
	now := time.Date(2024, time.May, 2, 12, 0, 0, 0, time.UTC)
	completed := now.Add(-3 * time.Hour)

	tests := []struct {
		name string
		task model.Task
		want string
	}{
		{
			name: "pending",
			task: model.Task{Text: "Walk", ResetIntervalHours: 24},
			want: "every 24h",
		},
		{
			name: "pending with notes",
			task: model.Task{Text: "Walk", Notes: "around the park\nthen home", ResetIntervalHours: 12},
			want: "every 12h · around the park…",
		},
		{
			name: "completed",
			task: model.Task{Text: "Walk", Completed: true, CompletedAt: &completed, ResetIntervalHours: 12},
			want: "every 12h · done 3 hours ago · resets 9 hours from now",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := TaskItem{Task: tt.task, Now: now}
			assert.Equal(t, tt.want, item.Description())
			assert.Equal(t, tt.task.Text, item.Title())
		})
	}
}
