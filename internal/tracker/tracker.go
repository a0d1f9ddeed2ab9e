// Package tracker owns the in-memory habit state: the ordered task list,
// the daily streak and display preferences. Every mutation goes through a
// single mutex and is followed by a background save of the whole state.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/persistdo/internal/model"
)

// Filter selects which tasks a list view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists the filters in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter resolves a filter name; empty means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterCompleted:
		return FilterCompleted, nil
	}
	return "", &ValidationError{Field: "filter", Reason: fmt.Sprintf("unknown filter %q", s)}
}

// TaskFields are the user-editable fields of a task.
type TaskFields struct {
	Text               string
	Notes              string
	Priority           model.Priority
	ResetIntervalHours int
}

// Stats summarises the current list for the stats view.
type Stats struct {
	Total    int
	Done     int
	Progress float64 // percent of tasks completed, 0 when there are none
	Streak   model.StreakState
}

// Tracker is the task store. It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	state model.AppState

	now           func() time.Time
	loc           *time.Location
	newID         func() string
	darkByDefault bool

	saver     *autoSaver
	prevVisit time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the timezone whose calendar days the streak counts.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithIDGenerator overrides task id generation.
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// WithDarkModeDefault sets the dark mode preference used on first run.
func WithDarkModeDefault(dark bool) Option {
	return func(t *Tracker) { t.darkByDefault = dark }
}

func newTracker(opts []Option) *Tracker {
	t := &Tracker{
		now:   time.Now,
		loc:   time.Local,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// New creates a tracker over state without persistence.
func New(state model.AppState, opts ...Option) *Tracker {
	t := newTracker(opts)
	t.state = state.Clone()
	t.normalize()
	return t
}

// Open loads state from p once and returns a tracker that saves back to p
// after every mutation. With nothing saved yet it starts from a seeded
// default state. The previous visit time is kept for PreviousVisit and the
// stored last visit is moved to now.
func Open(ctx context.Context, p Persister, opts ...Option) (*Tracker, error) {
	t := newTracker(opts)

	loaded, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if loaded == nil {
		t.state = t.defaultState()
	} else {
		t.state = loaded.Clone()
		t.prevVisit = loaded.LastVisitTime()
	}
	t.normalize()

	t.saver = newAutoSaver(p)
	t.mu.Lock()
	t.state.LastVisit = t.now().UnixMilli()
	t.commitLocked()
	t.mu.Unlock()

	return t, nil
}

// Close flushes the pending save, if any, and stops the background saver.
// It returns the error of the last save attempt.
func (t *Tracker) Close() error {
	if t.saver == nil {
		return nil
	}
	t.saver.close()
	return t.saver.err()
}

// SaveErr returns the error of the most recent background save.
func (t *Tracker) SaveErr() error {
	if t.saver == nil {
		return nil
	}
	return t.saver.err()
}

func (t *Tracker) defaultState() model.AppState {
	return model.AppState{
		Tasks: []model.Task{model.SeedTask(t.newID())},
		Preferences: model.Preferences{
			DarkMode: t.darkByDefault,
			ViewMode: model.ViewModeList,
		},
	}
}

// normalize repairs loaded state that breaks the model invariants.
func (t *Tracker) normalize() {
	if t.state.Tasks == nil {
		t.state.Tasks = []model.Task{}
	}
	for i := range t.state.Tasks {
		task := &t.state.Tasks[i]
		if task.ID == "" {
			task.ID = t.newID()
		}
		if !task.Priority.Valid() {
			task.Priority = model.PriorityMedium
		}
		if !model.ValidResetInterval(task.ResetIntervalHours) {
			task.ResetIntervalHours = model.ResetDaily
		}
		// A completion without a timestamp can never expire; treat it as pending.
		if !task.Completed || task.CompletedAt == nil {
			task.Completed = false
			task.CompletedAt = nil
		}
	}
	if t.state.Streak.Count < 0 {
		t.state.Streak.Count = 0
	}
	if t.state.Preferences.ViewMode == "" {
		t.state.Preferences.ViewMode = model.ViewModeList
	}
}

// commitLocked schedules a save of the current state. Callers hold t.mu.
func (t *Tracker) commitLocked() {
	if t.saver == nil {
		return
	}
	t.saver.schedule(t.state.Clone())
}

// stamp returns the current time as stored in CompletedAt.
func (t *Tracker) stamp() time.Time {
	return t.now().UTC().Truncate(time.Millisecond)
}

func (t *Tracker) indexLocked(id string) int {
	for i := range t.state.Tasks {
		if t.state.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func validateFields(f TaskFields) (TaskFields, error) {
	f.Text = strings.TrimSpace(f.Text)
	f.Notes = strings.TrimSpace(f.Notes)
	if f.Text == "" {
		return f, &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if !f.Priority.Valid() {
		return f, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", f.Priority)}
	}
	if !model.ValidResetInterval(f.ResetIntervalHours) {
		return f, &ValidationError{
			Field:  "reset interval",
			Reason: fmt.Sprintf("%d hours is not one of 12 or 24", f.ResetIntervalHours),
		}
	}
	return f, nil
}

// Create adds a pending task at the top of the list.
func (t *Tracker) Create(text, notes string, priority model.Priority, intervalHours int) (model.Task, error) {
	f, err := validateFields(TaskFields{
		Text:               text,
		Notes:              notes,
		Priority:           priority,
		ResetIntervalHours: intervalHours,
	})
	if err != nil {
		return model.Task{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	task := model.Task{
		ID:                 t.newID(),
		Text:               f.Text,
		Notes:              f.Notes,
		Priority:           f.Priority,
		ResetIntervalHours: f.ResetIntervalHours,
	}
	t.state.Tasks = append([]model.Task{task}, t.state.Tasks...)
	t.commitLocked()
	return task.Clone(), nil
}

// Update replaces the editable fields of a task. Completion is untouched.
func (t *Tracker) Update(id string, fields TaskFields) (model.Task, error) {
	f, err := validateFields(fields)
	if err != nil {
		return model.Task{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexLocked(id)
	if i < 0 {
		return model.Task{}, &NotFoundError{ID: id}
	}
	task := &t.state.Tasks[i]
	task.Text = f.Text
	task.Notes = f.Notes
	task.Priority = f.Priority
	task.ResetIntervalHours = f.ResetIntervalHours
	t.commitLocked()
	return task.Clone(), nil
}

// Delete removes a task. Deleting an unknown id does nothing and reports false.
func (t *Tracker) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexLocked(id)
	if i < 0 {
		return false
	}
	t.state.Tasks = append(t.state.Tasks[:i], t.state.Tasks[i+1:]...)
	t.commitLocked()
	return true
}

// Toggle flips a task between pending and completed. Completing stamps the
// completion time and credits the streak; un-completing clears the stamp
// and leaves the streak as it is.
func (t *Tracker) Toggle(id string) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexLocked(id)
	if i < 0 {
		return model.Task{}, &NotFoundError{ID: id}
	}
	task := &t.state.Tasks[i]
	if task.Completed {
		task.Completed = false
		task.CompletedAt = nil
	} else {
		now := t.stamp()
		task.Completed = true
		task.CompletedAt = &now
		t.state.Streak = CreditStreak(t.state.Streak, now, t.loc)
	}
	t.commitLocked()
	return task.Clone(), nil
}

// Reorder moves a task to newIndex, clamped to the list bounds.
func (t *Tracker) Reorder(id string, newIndex int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexLocked(id)
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if last := len(t.state.Tasks) - 1; newIndex > last {
		newIndex = last
	}
	if newIndex == i {
		return nil
	}

	task := t.state.Tasks[i]
	tasks := append(t.state.Tasks[:i:i], t.state.Tasks[i+1:]...)
	tasks = append(tasks[:newIndex], append([]model.Task{task}, tasks[newIndex:]...)...)
	t.state.Tasks = tasks
	t.commitLocked()
	return nil
}

// Move shifts a task by delta positions (negative is up).
func (t *Tracker) Move(id string, delta int) error {
	t.mu.Lock()
	i := t.indexLocked(id)
	t.mu.Unlock()
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	return t.Reorder(id, i+delta)
}

// Get returns a copy of the task with the given id.
func (t *Tracker) Get(id string) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexLocked(id)
	if i < 0 {
		return model.Task{}, &NotFoundError{ID: id}
	}
	return t.state.Tasks[i].Clone(), nil
}

// Tasks returns a copy of all tasks in list order.
func (t *Tracker) Tasks() []model.Task {
	return t.Filter(FilterAll)
}

// Filter returns copies of the tasks matching f, in list order.
func (t *Tracker) Filter(f Filter) []model.Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.Task, 0, len(t.state.Tasks))
	for _, task := range t.state.Tasks {
		switch {
		case f == FilterActive && task.Completed:
			continue
		case f == FilterCompleted && !task.Completed:
			continue
		}
		out = append(out, task.Clone())
	}
	return out
}

// Focus returns the first pending task in list order.
func (t *Tracker) Focus() (model.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, task := range t.state.Tasks {
		if !task.Completed {
			return task.Clone(), true
		}
	}
	return model.Task{}, false
}

// Stats summarises completion progress and the streak.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{Total: len(t.state.Tasks), Streak: t.state.Streak}
	for _, task := range t.state.Tasks {
		if task.Completed {
			s.Done++
		}
	}
	if s.Total > 0 {
		s.Progress = float64(s.Done) / float64(s.Total) * 100
	}
	return s
}

// Streak returns the current streak state.
func (t *Tracker) Streak() model.StreakState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Streak
}

// Snapshot returns a deep copy of the full state.
func (t *Tracker) Snapshot() model.AppState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Preferences returns the display preferences.
func (t *Tracker) Preferences() model.Preferences {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Preferences
}

// SetDarkMode stores the dark mode preference.
func (t *Tracker) SetDarkMode(dark bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Preferences.DarkMode == dark {
		return
	}
	t.state.Preferences.DarkMode = dark
	t.commitLocked()
}

// SetViewMode stores the preferred view ("list" or "focus").
func (t *Tracker) SetViewMode(mode string) error {
	if mode != model.ViewModeList && mode != model.ViewModeFocus {
		return &ValidationError{Field: "view mode", Reason: fmt.Sprintf("unknown view mode %q", mode)}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Preferences.ViewMode == mode {
		return nil
	}
	t.state.Preferences.ViewMode = mode
	t.commitLocked()
	return nil
}

// PreviousVisit returns when the previous session recorded its last
// visit, or the zero time on first run.
func (t *Tracker) PreviousVisit() time.Time {
	return t.prevVisit
}

// Now returns the tracker's current time.
func (t *Tracker) Now() time.Time {
	return t.now()
}
