package tracker

import (
	"time"

	"github.com/nhle/persistdo/internal/model"
)

// ResetExpired reverts every completed task whose reset interval has fully
// elapsed at now. Tasks are modified in place; the ids of reset tasks are
// returned in list order. Running it again with the same now is a no-op.
func ResetExpired(tasks []model.Task, now time.Time) []string {
	var reset []string
	for i := range tasks {
		t := &tasks[i]
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		if now.Sub(*t.CompletedAt) > t.ResetInterval() {
			t.Completed = false
			t.CompletedAt = nil
			reset = append(reset, t.ID)
		}
	}
	return reset
}

// Sweep resets expired tasks at now and schedules a save when anything
// changed. It shares the tracker lock with user operations, so a sweep
// and a toggle never interleave on the same task.
func (t *Tracker) Sweep(now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	reset := ResetExpired(t.state.Tasks, now)
	if len(reset) > 0 {
		t.commitLocked()
	}
	return reset
}

// SweepNow is Sweep at the tracker's current time.
func (t *Tracker) SweepNow() []string {
	return t.Sweep(t.now())
}
