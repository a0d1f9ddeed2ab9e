package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nhle/persistdo/internal/model"
)

// taskRecord is the JSON form of a task. Timestamps are epoch milliseconds.
type taskRecord struct {
	ID                 string         `json:"id"`
	Text               string         `json:"text"`
	Notes              string         `json:"notes,omitempty"`
	Priority           model.Priority `json:"priority"`
	Completed          bool           `json:"completed"`
	CompletedAt        *int64         `json:"completedAt,omitempty"`
	ResetIntervalHours int            `json:"resetIntervalHours"`
}

// stateRecord is the JSON document holding the whole state.
type stateRecord struct {
	Tasks          []taskRecord `json:"tasks"`
	Streak         int          `json:"streak"`
	LastStreakDate *string      `json:"lastStreakDate"`
	DarkMode       bool         `json:"darkMode"`
	ViewMode       string       `json:"viewMode"`
	LastVisit      int64        `json:"lastVisit"`
}

// EncodeState serializes state to the JSON document format.
func EncodeState(state model.AppState) ([]byte, error) {
	rec := stateRecord{
		Streak:    state.Streak.Count,
		DarkMode:  state.Preferences.DarkMode,
		ViewMode:  state.Preferences.ViewMode,
		LastVisit: state.LastVisit,
	}
	if state.Streak.LastDate != "" {
		d := state.Streak.LastDate
		rec.LastStreakDate = &d
	}
	if state.Tasks != nil {
		rec.Tasks = make([]taskRecord, len(state.Tasks))
		for i, t := range state.Tasks {
			rec.Tasks[i] = taskRecord{
				ID:                 t.ID,
				Text:               t.Text,
				Notes:              t.Notes,
				Priority:           t.Priority,
				Completed:          t.Completed,
				ResetIntervalHours: t.ResetIntervalHours,
			}
			if t.CompletedAt != nil {
				ms := t.CompletedAt.UnixMilli()
				rec.Tasks[i].CompletedAt = &ms
			}
		}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

// DecodeState parses a JSON document produced by EncodeState.
func DecodeState(data []byte) (*model.AppState, error) {
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}

	state := &model.AppState{
		Streak: model.StreakState{Count: rec.Streak},
		Preferences: model.Preferences{
			DarkMode: rec.DarkMode,
			ViewMode: rec.ViewMode,
		},
		LastVisit: rec.LastVisit,
	}
	if rec.LastStreakDate != nil {
		state.Streak.LastDate = *rec.LastStreakDate
	}
	if rec.Tasks != nil {
		state.Tasks = make([]model.Task, len(rec.Tasks))
		for i, r := range rec.Tasks {
			state.Tasks[i] = model.Task{
				ID:                 r.ID,
				Text:               r.Text,
				Notes:              r.Notes,
				Priority:           r.Priority,
				Completed:          r.Completed,
				ResetIntervalHours: r.ResetIntervalHours,
			}
			if r.CompletedAt != nil {
				state.Tasks[i].CompletedAt = fromMillis(*r.CompletedAt)
			}
		}
	}
	return state, nil
}

// JSONStore implements Persister with a single JSON file.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore returns a store backed by the file at path.
// The file is created on the first Save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the state file. A missing file yields nil, nil.
func (s *JSONStore) Load(_ context.Context) (*model.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", s.path, err)
	}

	state, err := DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", s.path, err)
	}
	return state, nil
}

// Save writes the state to a temporary file and renames it over the
// previous one so a crash never leaves a half-written document.
func (s *JSONStore) Save(ctx context.Context, state model.AppState) error {
	data, err := EncodeState(state)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing state file %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the file is not held open between saves.
func (s *JSONStore) Close() error {
	return nil
}
