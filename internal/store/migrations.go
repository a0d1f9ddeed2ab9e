package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                   TEXT PRIMARY KEY,
	position             INTEGER NOT NULL,
	text                 TEXT NOT NULL,
	notes                TEXT NOT NULL DEFAULT '',
	priority             TEXT NOT NULL DEFAULT 'Medium' CHECK(priority IN ('Low', 'Medium', 'High')),
	completed            INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	completed_at         INTEGER,
	reset_interval_hours INTEGER NOT NULL DEFAULT 24 CHECK(reset_interval_hours IN (12, 24))
);

CREATE INDEX IF NOT EXISTS idx_tasks_position ON tasks(position);

CREATE TABLE IF NOT EXISTS app_state (
	id               INTEGER PRIMARY KEY CHECK(id = 1),
	streak           INTEGER NOT NULL DEFAULT 0 CHECK(streak >= 0),
	last_streak_date TEXT,
	last_visit       INTEGER NOT NULL DEFAULT 0
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE app_state ADD COLUMN dark_mode INTEGER NOT NULL DEFAULT 0 CHECK(dark_mode IN (0, 1));
ALTER TABLE app_state ADD COLUMN view_mode TEXT NOT NULL DEFAULT 'list';

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
