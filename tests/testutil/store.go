package testutil

import (
	"testing"
	"time"

	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SampleState returns a populated state covering every persisted field.
// Timestamps are whole milliseconds in UTC, as the tracker stores them.
func SampleState() model.AppState {
	done := time.UnixMilli(1714550400123).UTC()
	return model.AppState{
		Tasks: []model.Task{
			{
				ID:                 "b3a1",
				Text:               "Stretch",
				Notes:              "ten minutes, hips first",
				Priority:           model.PriorityHigh,
				Completed:          true,
				CompletedAt:        &done,
				ResetIntervalHours: model.ResetHalfDay,
			},
			{
				ID:                 "c9f2",
				Text:               "Read",
				Priority:           model.PriorityLow,
				ResetIntervalHours: model.ResetDaily,
			},
			{
				ID:                 "07de",
				Text:               "Water plants",
				Notes:              "balcony only",
				Priority:           model.PriorityMedium,
				ResetIntervalHours: model.ResetDaily,
			},
		},
		Streak: model.StreakState{Count: 6, LastDate: "2024-05-01"},
		Preferences: model.Preferences{
			DarkMode: true,
			ViewMode: model.ViewModeFocus,
		},
		LastVisit: 1714560000456,
	}
}
