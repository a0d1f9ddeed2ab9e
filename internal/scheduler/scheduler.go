// Package scheduler runs the periodic auto-reset sweep.
package scheduler

import (
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	rcron "github.com/robfig/cron/v3"
)

// DefaultInterval is the sweep cadence when none is configured.
// Reset intervals are whole hours, so minute precision is plenty.
const DefaultInterval = time.Minute

// Sweeper resets tasks whose reset interval has elapsed at now and
// returns their ids.
type Sweeper interface {
	Sweep(now time.Time) []string
}

// ResetMsg is a tea.Msg sent after every sweep.
type ResetMsg struct {
	// TaskIDs lists the tasks reverted to pending; empty when nothing expired.
	TaskIDs []string
	At      time.Time
}

// Scheduler sweeps once on Start to catch up on resets missed while the
// app was closed, then again on a fixed cadence until Stop.
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	now      func() time.Time

	cron     *rcron.Cron
	resultCh chan ResetMsg

	mu        sync.Mutex
	running   bool
	lastSweep time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the clock passed to the sweeper.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler for sweeper. A non-positive interval falls back
// to DefaultInterval.
func New(sweeper Sweeper, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		now:      time.Now,
		resultCh: make(chan ResetMsg, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the catch-up sweep, starts the periodic sweep and returns a
// command that delivers the next ResetMsg to the Bubble Tea runtime.
// Calling Start on a running scheduler only returns the subscription.
func (s *Scheduler) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return s.WaitForReset()
	}
	s.running = true
	s.cron = rcron.New(rcron.WithChain(rcron.SkipIfStillRunning(rcron.DefaultLogger)))
	s.cron.Schedule(rcron.Every(s.interval), rcron.FuncJob(func() { s.sweep() }))
	c := s.cron
	s.mu.Unlock()

	s.sweep()
	c.Start()
	log.Printf("[scheduler] started, sweeping every %s", s.interval)

	return s.WaitForReset()
}

// Stop halts the periodic sweep and waits for a sweep in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
	log.Printf("[scheduler] stopped")
}

// SweepNow runs an immediate sweep outside the regular cadence.
func (s *Scheduler) SweepNow() []string {
	return s.sweep()
}

// LastSweep returns when the most recent sweep ran.
func (s *Scheduler) LastSweep() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweep
}

// Interval returns the sweep cadence.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) sweep() []string {
	now := s.now()
	reset := s.sweeper.Sweep(now)

	s.mu.Lock()
	s.lastSweep = now
	s.mu.Unlock()

	if len(reset) > 0 {
		log.Printf("[scheduler] reset %d task(s): %v", len(reset), reset)
	}
	s.sendResult(ResetMsg{TaskIDs: reset, At: now})
	return reset
}

// sendResult sends a ResetMsg on the result channel without blocking.
func (s *Scheduler) sendResult(msg ResetMsg) {
	select {
	case s.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the sweep
	}
}

// WaitForReset returns a tea.Cmd that waits for the next sweep result.
// Call it again after handling a ResetMsg to keep listening.
func (s *Scheduler) WaitForReset() tea.Cmd {
	return func() tea.Msg {
		return <-s.resultCh
	}
}
