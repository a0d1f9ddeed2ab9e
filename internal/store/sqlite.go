package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/persistdo/internal/model"
)

// SQLiteStore implements Persister using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One writer only; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// taskRow mirrors a row of the tasks table.
type taskRow struct {
	ID                 string        `db:"id"`
	Position           int           `db:"position"`
	Text               string        `db:"text"`
	Notes              string        `db:"notes"`
	Priority           string        `db:"priority"`
	Completed          int           `db:"completed"`
	CompletedAt        sql.NullInt64 `db:"completed_at"`
	ResetIntervalHours int           `db:"reset_interval_hours"`
}

// stateRow mirrors the single row of the app_state table.
type stateRow struct {
	ID             int            `db:"id"`
	Streak         int            `db:"streak"`
	LastStreakDate sql.NullString `db:"last_streak_date"`
	LastVisit      int64          `db:"last_visit"`
	DarkMode       int            `db:"dark_mode"`
	ViewMode       string         `db:"view_mode"`
}

// Load reads the saved state. It returns nil, nil on a fresh database.
func (s *SQLiteStore) Load(ctx context.Context) (*model.AppState, error) {
	var st stateRow
	err := s.db.GetContext(ctx, &st, "SELECT * FROM app_state WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading app state: %w", err)
	}

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM tasks ORDER BY position"); err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	state := &model.AppState{
		Tasks: make([]model.Task, 0, len(rows)),
		Streak: model.StreakState{
			Count:    st.Streak,
			LastDate: st.LastStreakDate.String,
		},
		Preferences: model.Preferences{
			DarkMode: st.DarkMode != 0,
			ViewMode: st.ViewMode,
		},
		LastVisit: st.LastVisit,
	}
	for _, r := range rows {
		task := model.Task{
			ID:                 r.ID,
			Text:               r.Text,
			Notes:              r.Notes,
			Priority:           model.Priority(r.Priority),
			Completed:          r.Completed != 0,
			ResetIntervalHours: r.ResetIntervalHours,
		}
		if r.CompletedAt.Valid {
			task.CompletedAt = fromMillis(r.CompletedAt.Int64)
		}
		state.Tasks = append(state.Tasks, task)
	}

	return state, nil
}

// Save replaces the stored tasks and app state in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, state model.AppState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO tasks (
			id, position, text, notes, priority,
			completed, completed_at, reset_interval_hours
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing task insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range state.Tasks {
		_, err := stmt.ExecContext(ctx,
			t.ID, i, t.Text, t.Notes, string(t.Priority),
			boolToInt(t.Completed), toNullMillis(t.CompletedAt), t.ResetIntervalHours,
		)
		if err != nil {
			return fmt.Errorf("saving task %s: %w", t.ID, err)
		}
	}

	var lastDate sql.NullString
	if state.Streak.LastDate != "" {
		lastDate = sql.NullString{String: state.Streak.LastDate, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO app_state (
			id, streak, last_streak_date, last_visit, dark_mode, view_mode
		) VALUES (1, ?, ?, ?, ?, ?)`,
		state.Streak.Count, lastDate, state.LastVisit,
		boolToInt(state.Preferences.DarkMode), state.Preferences.ViewMode,
	)
	if err != nil {
		return fmt.Errorf("saving app state: %w", err)
	}

	return tx.Commit()
}

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(ms int64) *time.Time {
	t := time.UnixMilli(ms).UTC()
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
