package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/persistdo/internal/model"
)

func completedTask(id string, at time.Time, hours int) model.Task {
	return model.Task{
		ID:                 id,
		Text:               "task " + id,
		Priority:           model.PriorityMedium,
		Completed:          true,
		CompletedAt:        &at,
		ResetIntervalHours: hours,
	}
}

func TestResetExpired_Boundary(t *testing.T) {
	completedAt := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		elapsed   time.Duration
		wantReset bool
	}{
		{"just before the interval", 23*time.Hour + 59*time.Minute, false},
		{"exactly at the interval", 24 * time.Hour, false},
		{"just after the interval", 24*time.Hour + time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := []model.Task{completedTask("a", completedAt, 24)}

			reset := ResetExpired(tasks, completedAt.Add(tt.elapsed))

			if tt.wantReset {
				assert.Equal(t, []string{"a"}, reset)
				assert.False(t, tasks[0].Completed)
				assert.Nil(t, tasks[0].CompletedAt)
			} else {
				assert.Empty(t, reset)
				assert.True(t, tasks[0].Completed)
				require.NotNil(t, tasks[0].CompletedAt)
			}
		})
	}
}

func TestResetExpired_HalfDayInterval(t *testing.T) {
	completedAt := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		completedTask("half", completedAt, 12),
		completedTask("full", completedAt, 24),
		{ID: "pending", Text: "pending", Priority: model.PriorityLow, ResetIntervalHours: 12},
	}

	reset := ResetExpired(tasks, completedAt.Add(13*time.Hour))

	assert.Equal(t, []string{"half"}, reset)
	assert.False(t, tasks[0].Completed)
	assert.True(t, tasks[1].Completed)
	assert.False(t, tasks[2].Completed)
}

func TestSweep_Idempotent(t *testing.T) {
	completedAt := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	tr := New(model.AppState{Tasks: []model.Task{
		completedTask("a", completedAt, 12),
		completedTask("b", completedAt, 24),
	}})
	now := completedAt.Add(13 * time.Hour)

	first := tr.Sweep(now)
	afterFirst := tr.Snapshot()
	second := tr.Sweep(now)

	assert.Equal(t, []string{"a"}, first)
	assert.Empty(t, second)
	assert.Equal(t, afterFirst, tr.Snapshot())
}

func TestSweep_ResetsOncePerCompletion(t *testing.T) {
	completedAt := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	tr := New(model.AppState{Tasks: []model.Task{completedTask("a", completedAt, 12)}})

	require.Equal(t, []string{"a"}, tr.Sweep(completedAt.Add(13*time.Hour)))
	assert.Empty(t, tr.Sweep(completedAt.Add(48*time.Hour)))
}
