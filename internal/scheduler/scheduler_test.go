package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/tracker"
)

// countingSweeper records every sweep it receives.
type countingSweeper struct {
	mu    sync.Mutex
	calls []time.Time
	reset []string
}

func (c *countingSweeper) Sweep(now time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, now)
	r := c.reset
	c.reset = nil
	return r
}

func (c *countingSweeper) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestStart_SweepsImmediately(t *testing.T) {
	sw := &countingSweeper{reset: []string{"missed-overnight"}}
	now := time.Date(2024, time.May, 2, 7, 0, 0, 0, time.UTC)
	s := New(sw, time.Hour, WithClock(func() time.Time { return now }))

	cmd := s.Start()
	defer s.Stop()

	require.NotNil(t, cmd)
	assert.Equal(t, 1, sw.count())
	msg, ok := cmd().(ResetMsg)
	require.True(t, ok)
	assert.Equal(t, []string{"missed-overnight"}, msg.TaskIDs)
	assert.Equal(t, now, msg.At)
	assert.Equal(t, now, s.LastSweep())
}

func TestStart_SweepsPeriodically(t *testing.T) {
	sw := &countingSweeper{}
	s := New(sw, time.Second)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return sw.count() >= 2 }, 5*time.Second, 50*time.Millisecond)
}

func TestStop_HaltsSweeps(t *testing.T) {
	sw := &countingSweeper{}
	s := New(sw, time.Second)

	s.Start()
	s.Stop()
	s.Stop() // second stop is a no-op

	after := sw.count()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, sw.count())
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(&countingSweeper{}, 0)
	assert.Equal(t, DefaultInterval, s.Interval())
}

func TestSweepNow_ResetsExpiredTasks(t *testing.T) {
	completed := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	tr := tracker.New(model.AppState{Tasks: []model.Task{
		{ID: "a", Text: "A", Priority: model.PriorityLow, Completed: true, CompletedAt: &completed, ResetIntervalHours: 12},
		{ID: "b", Text: "B", Priority: model.PriorityLow, Completed: true, CompletedAt: &completed, ResetIntervalHours: 24},
	}})
	clock := completed.Add(12*time.Hour + time.Minute)
	s := New(tr, time.Minute, WithClock(func() time.Time { return clock }))

	assert.Equal(t, []string{"a"}, s.SweepNow())
	assert.Empty(t, s.SweepNow(), "second sweep finds nothing new")

	msg := s.WaitForReset()().(ResetMsg)
	assert.Equal(t, []string{"a"}, msg.TaskIDs)
}
