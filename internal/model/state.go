package model

import "time"

// DateLayout is the calendar-day format used for streak dates.
const DateLayout = "2006-01-02"

// View modes remembered between sessions.
const (
	ViewModeList  = "list"
	ViewModeFocus = "focus"
)

// StreakState tracks consecutive days with at least one completion.
type StreakState struct {
	Count int

	// LastDate is the last calendar day (DateLayout) that was credited,
	// or empty if no day has been credited yet.
	LastDate string
}

// Preferences are display settings persisted with the state.
type Preferences struct {
	DarkMode bool
	ViewMode string
}

// AppState is the whole persisted state of the tracker.
type AppState struct {
	Tasks       []Task
	Streak      StreakState
	Preferences Preferences

	// LastVisit is the epoch milliseconds of the previous session.
	LastVisit int64
}

// Clone returns a deep copy of the state.
func (s AppState) Clone() AppState {
	out := s
	if s.Tasks == nil {
		return out
	}
	out.Tasks = make([]Task, len(s.Tasks))
	for i, t := range s.Tasks {
		out.Tasks[i] = t.Clone()
	}
	return out
}

// LastVisitTime returns LastVisit as a time, or the zero time when unset.
func (s AppState) LastVisitTime() time.Time {
	if s.LastVisit == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastVisit).UTC()
}

// SeedTask is the task placed in an empty store on first run.
func SeedTask(id string) Task {
	return Task{
		ID:                 id,
		Text:               "Initialize System",
		Notes:              "Welcome to the future.",
		Priority:           PriorityHigh,
		ResetIntervalHours: ResetDaily,
	}
}
