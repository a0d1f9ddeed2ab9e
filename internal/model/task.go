package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the importance of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority resolves a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Reset interval choices, in hours.
const (
	ResetHalfDay = 12
	ResetDaily   = 24
)

// ResetIntervals lists the supported reset intervals in hours.
var ResetIntervals = []int{ResetHalfDay, ResetDaily}

// ValidResetInterval reports whether hours is a supported reset interval.
func ValidResetInterval(hours int) bool {
	return hours == ResetHalfDay || hours == ResetDaily
}

// Task is a recurring to-do item.
type Task struct {
	// ID is an opaque unique identifier.
	ID string

	// Text is the display text. Never blank.
	Text string

	// Notes holds optional details.
	Notes string

	Priority Priority

	Completed bool

	// CompletedAt is set while Completed is true and nil otherwise.
	CompletedAt *time.Time

	// ResetIntervalHours is how long a completion lasts before the task
	// reverts to pending (12 or 24).
	ResetIntervalHours int
}

// ResetInterval returns the reset interval as a duration.
func (t Task) ResetInterval() time.Duration {
	return time.Duration(t.ResetIntervalHours) * time.Hour
}

// ResetsAt returns when a completed task becomes eligible for reset.
// The second result is false when the task is pending.
func (t Task) ResetsAt() (time.Time, bool) {
	if !t.Completed || t.CompletedAt == nil {
		return time.Time{}, false
	}
	return t.CompletedAt.Add(t.ResetInterval()), true
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
