package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/persistdo/internal/model"
	"github.com/nhle/persistdo/internal/store"
	"github.com/nhle/persistdo/tests/testutil"
)

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := testutil.NewTestStore(t)

	state, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	want := testutil.SampleState()

	require.NoError(t, s.Save(ctx, want))
	got, err := s.Load(ctx)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestSQLiteStore_SaveReplacesPreviousState(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testutil.SampleState()))

	next := testutil.SampleState()
	next.Tasks = []model.Task{next.Tasks[2], next.Tasks[0]}
	next.Streak = model.StreakState{}
	next.Preferences.DarkMode = false
	require.NoError(t, s.Save(ctx, next))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, *got)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persistdo.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, testutil.SampleState()))
	require.NoError(t, s.Close())

	reopened, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.SampleState(), *got)
}

func TestJSONStore_LoadMissingFile(t *testing.T) {
	s := store.NewJSONStore(filepath.Join(t.TempDir(), "state.json"))

	state, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestJSONStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := store.NewJSONStore(path)
	ctx := context.Background()
	want := testutil.SampleState()

	require.NoError(t, s.Save(ctx, want))
	got, err := s.Load(ctx)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := store.NewJSONStore(path).Load(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestEncodeState_WireFormat(t *testing.T) {
	data, err := store.EncodeState(testutil.SampleState())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"tasks": [
			{"id": "b3a1", "text": "Stretch", "notes": "ten minutes, hips first",
			 "priority": "High", "completed": true, "completedAt": 1714550400123,
			 "resetIntervalHours": 12},
			{"id": "c9f2", "text": "Read", "priority": "Low", "completed": false,
			 "resetIntervalHours": 24},
			{"id": "07de", "text": "Water plants", "notes": "balcony only",
			 "priority": "Medium", "completed": false, "resetIntervalHours": 24}
		],
		"streak": 6,
		"lastStreakDate": "2024-05-01",
		"darkMode": true,
		"viewMode": "focus",
		"lastVisit": 1714560000456
	}`, string(data))
}

func TestDecodeState_AbsentStreakDate(t *testing.T) {
	state, err := store.DecodeState([]byte(`{"tasks": [], "streak": 0, "lastStreakDate": null, "darkMode": false, "viewMode": "list", "lastVisit": 0}`))

	require.NoError(t, err)
	assert.Equal(t, "", state.Streak.LastDate)
	assert.NotNil(t, state.Tasks)
	assert.Empty(t, state.Tasks)
}

func TestOpen_SelectsDriver(t *testing.T) {
	dir := t.TempDir()

	p, err := store.Open(model.StorageConfig{Driver: model.DriverJSON, Path: filepath.Join(dir, "nested", "state.json")})
	require.NoError(t, err)
	assert.IsType(t, &store.JSONStore{}, p)
	require.NoError(t, p.Close())

	p, err = store.Open(model.StorageConfig{Driver: model.DriverSQLite, Path: filepath.Join(dir, "db", "persistdo.db")})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, p)
	require.NoError(t, p.Close())

	_, err = store.Open(model.StorageConfig{Driver: "postgres", Path: filepath.Join(dir, "x")})
	assert.Error(t, err)
}
