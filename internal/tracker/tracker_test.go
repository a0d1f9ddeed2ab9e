package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/persistdo/internal/model"
)

// fakeClock is a settable clock for pinning "now" in tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	}
}

func newTestTracker(t *testing.T, clock *fakeClock) *Tracker {
	t.Helper()
	return New(model.AppState{},
		WithClock(clock.Now),
		WithLocation(time.UTC),
		WithIDGenerator(sequentialIDs()),
	)
}

func mustCreate(t *testing.T, tr *Tracker, text string) model.Task {
	t.Helper()
	task, err := tr.Create(text, "", model.PriorityMedium, model.ResetDaily)
	require.NoError(t, err)
	return task
}

func TestCreate_PrependsPendingTask(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, clock)

	first := mustCreate(t, tr, "Water plants")
	second, err := tr.Create("  Stretch  ", "  ten minutes ", model.PriorityHigh, model.ResetHalfDay)
	require.NoError(t, err)

	assert.Equal(t, "Stretch", second.Text)
	assert.Equal(t, "ten minutes", second.Notes)
	assert.False(t, second.Completed)
	assert.Nil(t, second.CompletedAt)
	assert.NotEqual(t, first.ID, second.ID)

	tasks := tr.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		priority model.Priority
		hours    int
		field    string
	}{
		{"empty text", "", model.PriorityLow, 24, "text"},
		{"whitespace text", " \t\n ", model.PriorityLow, 24, "text"},
		{"unknown priority", "Read", model.Priority("Urgent"), 24, "priority"},
		{"unsupported interval", "Read", model.PriorityLow, 6, "reset interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(model.AppState{})

			_, err := tr.Create(tt.text, "", tt.priority, tt.hours)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, tr.Tasks())
		})
	}
}

func TestUpdate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, clock)
	task := mustCreate(t, tr, "Journal")
	_, err := tr.Toggle(task.ID)
	require.NoError(t, err)

	updated, err := tr.Update(task.ID, TaskFields{
		Text:               "Journal before bed",
		Notes:              "one page",
		Priority:           model.PriorityHigh,
		ResetIntervalHours: model.ResetHalfDay,
	})
	require.NoError(t, err)

	assert.Equal(t, "Journal before bed", updated.Text)
	assert.Equal(t, "one page", updated.Notes)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
	assert.Equal(t, model.ResetHalfDay, updated.ResetIntervalHours)
	assert.True(t, updated.Completed, "update must not touch completion")
	assert.NotNil(t, updated.CompletedAt)
}

func TestUpdate_UnknownID(t *testing.T) {
	tr := New(model.AppState{})
	before := tr.Snapshot()

	_, err := tr.Update("missing", TaskFields{Text: "x", Priority: model.PriorityLow, ResetIntervalHours: 24})

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, before, tr.Snapshot())
}

func TestUpdate_BlankTextRejected(t *testing.T) {
	tr := New(model.AppState{})
	task := mustCreate(t, tr, "Walk")

	_, err := tr.Update(task.ID, TaskFields{Text: "   ", Priority: model.PriorityLow, ResetIntervalHours: 24})

	assert.True(t, errors.Is(err, ErrValidation))
	got, err := tr.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walk", got.Text)
}

func TestDelete(t *testing.T) {
	tr := New(model.AppState{})
	a := mustCreate(t, tr, "A")
	b := mustCreate(t, tr, "B")

	assert.True(t, tr.Delete(a.ID))
	assert.False(t, tr.Delete(a.ID), "second delete is a no-op")
	assert.False(t, tr.Delete("never-existed"))

	tasks := tr.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, b.ID, tasks[0].ID)
}

func TestToggle_StampsAndClears(t *testing.T) {
	at := time.Date(2024, time.May, 1, 9, 30, 15, 123456789, time.UTC)
	clock := &fakeClock{now: at}
	tr := newTestTracker(t, clock)
	original := mustCreate(t, tr, "Meditate")

	done, err := tr.Toggle(original.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, at.Truncate(time.Millisecond), *done.CompletedAt)

	undone, err := tr.Toggle(original.ID)
	require.NoError(t, err)
	assert.Equal(t, original, undone, "double toggle restores the task exactly")
}

func TestToggle_UnknownID(t *testing.T) {
	tr := New(model.AppState{})

	_, err := tr.Toggle("missing")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
}

func TestToggle_StreakSequence(t *testing.T) {
	dayD := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: dayD}
	tr := newTestTracker(t, clock)
	a := mustCreate(t, tr, "A")
	b := mustCreate(t, tr, "B")
	c := mustCreate(t, tr, "C")
	d := mustCreate(t, tr, "D")

	_, err := tr.Toggle(a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StreakState{Count: 1, LastDate: "2024-05-01"}, tr.Streak())

	clock.Set(dayD.Add(6 * time.Hour))
	_, err = tr.Toggle(b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StreakState{Count: 1, LastDate: "2024-05-01"}, tr.Streak())

	clock.Set(dayD.AddDate(0, 0, 1))
	_, err = tr.Toggle(c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StreakState{Count: 2, LastDate: "2024-05-02"}, tr.Streak())

	clock.Set(dayD.AddDate(0, 0, 3))
	_, err = tr.Toggle(d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StreakState{Count: 1, LastDate: "2024-05-04"}, tr.Streak())
}

func TestToggle_UncompleteKeepsStreak(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, clock)
	a := mustCreate(t, tr, "A")

	_, err := tr.Toggle(a.ID)
	require.NoError(t, err)
	_, err = tr.Toggle(a.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StreakState{Count: 1, LastDate: "2024-05-01"}, tr.Streak())
}

func TestReorder_PreservesMembership(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, clock)
	for _, text := range []string{"A", "B", "C", "D"} {
		mustCreate(t, tr, text)
	}
	_, err := tr.Toggle("task-2")
	require.NoError(t, err)
	before := tr.Tasks() // D C B A

	require.NoError(t, tr.Reorder("task-4", 2))

	after := tr.Tasks()
	assert.ElementsMatch(t, before, after)
	var order []string
	for _, task := range after {
		order = append(order, task.Text)
	}
	assert.Equal(t, []string{"C", "B", "D", "A"}, order)
}

func TestReorder_ClampsIndex(t *testing.T) {
	tr := New(model.AppState{}, WithIDGenerator(sequentialIDs()))
	for _, text := range []string{"A", "B", "C"} {
		mustCreate(t, tr, text)
	}

	require.NoError(t, tr.Reorder("task-3", 99))
	assert.Equal(t, "task-3", tr.Tasks()[2].ID)

	require.NoError(t, tr.Reorder("task-3", -5))
	assert.Equal(t, "task-3", tr.Tasks()[0].ID)

	assert.True(t, errors.Is(tr.Reorder("missing", 0), ErrNotFound))
}

func TestMove(t *testing.T) {
	tr := New(model.AppState{}, WithIDGenerator(sequentialIDs()))
	for _, text := range []string{"A", "B", "C"} {
		mustCreate(t, tr, text)
	}
	// Order is C B A.

	require.NoError(t, tr.Move("task-1", -1))
	assert.Equal(t, []string{"C", "A", "B"}, texts(tr.Tasks()))

	require.NoError(t, tr.Move("task-3", -1), "moving the top task up stays put")
	assert.Equal(t, []string{"C", "A", "B"}, texts(tr.Tasks()))
}

func texts(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Text
	}
	return out
}

func TestFilterFocusStats(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, clock)
	for _, text := range []string{"A", "B", "C", "D"} {
		mustCreate(t, tr, text)
	}
	// Order is D C B A; complete D and B.
	_, err := tr.Toggle("task-4")
	require.NoError(t, err)
	_, err = tr.Toggle("task-2")
	require.NoError(t, err)

	assert.Equal(t, []string{"D", "C", "B", "A"}, texts(tr.Filter(FilterAll)))
	assert.Equal(t, []string{"C", "A"}, texts(tr.Filter(FilterActive)))
	assert.Equal(t, []string{"D", "B"}, texts(tr.Filter(FilterCompleted)))

	focus, ok := tr.Focus()
	require.True(t, ok)
	assert.Equal(t, "C", focus.Text)

	stats := tr.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Done)
	assert.InDelta(t, 50.0, stats.Progress, 0.001)
	assert.Equal(t, 1, stats.Streak.Count)
}

func TestFocus_AllClear(t *testing.T) {
	tr := New(model.AppState{})
	_, ok := tr.Focus()
	assert.False(t, ok)
	assert.Zero(t, tr.Stats().Progress)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("Active")
	require.NoError(t, err)
	assert.Equal(t, FilterActive, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("done")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNew_NormalizesBrokenState(t *testing.T) {
	at := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	tr := New(model.AppState{
		Tasks: []model.Task{
			{ID: "a", Text: "completed without stamp", Completed: true, Priority: "bogus", ResetIntervalHours: 3},
			{ID: "b", Text: "stamp without completion", CompletedAt: &at, Priority: model.PriorityLow, ResetIntervalHours: 12},
		},
		Streak: model.StreakState{Count: -2},
	})

	tasks := tr.Tasks()
	assert.False(t, tasks[0].Completed)
	assert.Equal(t, model.PriorityMedium, tasks[0].Priority)
	assert.Equal(t, model.ResetDaily, tasks[0].ResetIntervalHours)
	assert.Nil(t, tasks[1].CompletedAt)
	assert.Equal(t, 0, tr.Streak().Count)
	assert.Equal(t, model.ViewModeList, tr.Preferences().ViewMode)
}

func TestPreferences(t *testing.T) {
	tr := New(model.AppState{})

	tr.SetDarkMode(true)
	require.NoError(t, tr.SetViewMode(model.ViewModeFocus))
	assert.Equal(t, model.Preferences{DarkMode: true, ViewMode: model.ViewModeFocus}, tr.Preferences())

	assert.True(t, errors.Is(tr.SetViewMode("grid"), ErrValidation))
}

func TestConcurrentToggleAndSweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, clock)
	task := mustCreate(t, tr, "A")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = tr.Toggle(task.ID)
		}()
		go func() {
			defer wg.Done()
			tr.Sweep(clock.Now().Add(48 * time.Hour))
		}()
	}
	wg.Wait()

	got, err := tr.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Completed, got.CompletedAt != nil)
}

// memPersister records saves in memory.
type memPersister struct {
	mu      sync.Mutex
	state   *model.AppState
	saves   int
	loadErr error
	saveErr error
}

func (p *memPersister) Load(context.Context) (*model.AppState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if p.state == nil {
		return nil, nil
	}
	s := p.state.Clone()
	return &s, nil
}

func (p *memPersister) Save(_ context.Context, state model.AppState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	s := state.Clone()
	p.state = &s
	return nil
}

func (p *memPersister) saved() model.AppState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

func TestOpen_SeedsFirstRun(t *testing.T) {
	now := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	p := &memPersister{}

	tr, err := Open(context.Background(), p,
		WithClock(func() time.Time { return now }),
		WithIDGenerator(sequentialIDs()),
		WithDarkModeDefault(true),
	)
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	saved := p.saved()
	require.Len(t, saved.Tasks, 1)
	assert.Equal(t, model.SeedTask("task-1"), saved.Tasks[0])
	assert.True(t, saved.Preferences.DarkMode)
	assert.Equal(t, now.UnixMilli(), saved.LastVisit)
	assert.True(t, tr.PreviousVisit().IsZero())
}

func TestOpen_SavesLatestStateAfterMutations(t *testing.T) {
	now := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	earlier := now.Add(-30 * time.Hour)
	p := &memPersister{state: &model.AppState{
		Tasks:     []model.Task{},
		Streak:    model.StreakState{Count: 3, LastDate: "2024-04-30"},
		LastVisit: earlier.UnixMilli(),
	}}

	tr, err := Open(context.Background(), p,
		WithClock(func() time.Time { return now }),
		WithLocation(time.UTC),
		WithIDGenerator(sequentialIDs()),
	)
	require.NoError(t, err)
	assert.Equal(t, earlier.UnixMilli(), tr.PreviousVisit().UnixMilli())

	a := mustCreate(t, tr, "A")
	_, err = tr.Toggle(a.ID)
	require.NoError(t, err)
	mustCreate(t, tr, "B")
	require.NoError(t, tr.Close())

	saved := p.saved()
	assert.Equal(t, tr.Snapshot(), saved)
	assert.Equal(t, model.StreakState{Count: 4, LastDate: "2024-05-01"}, saved.Streak)
	assert.Equal(t, []string{"B", "A"}, texts(saved.Tasks))
}

func TestOpen_LoadError(t *testing.T) {
	p := &memPersister{loadErr: errors.New("disk on fire")}

	_, err := Open(context.Background(), p)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestSaveFailureIsNotFatal(t *testing.T) {
	p := &memPersister{saveErr: errors.New("read-only filesystem")}
	tr, err := Open(context.Background(), p, WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)

	task := mustCreate(t, tr, "Still works")
	_, err = tr.Toggle(task.ID)
	require.NoError(t, err)

	got, err := tr.Get(task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	closeErr := tr.Close()
	require.Error(t, closeErr)
	assert.Contains(t, closeErr.Error(), "read-only filesystem")
}
