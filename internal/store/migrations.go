package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1. The SQL
// is restricted to the subset SQLite and PostgreSQL share; dates are
// stored as YYYY-MM-DD text.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL CHECK(role IN ('USER', 'ADMIN'))
);

CREATE TABLE IF NOT EXISTS tags (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	task_count BIGINT NOT NULL DEFAULT 0 CHECK(task_count >= 0)
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT NOT NULL,
	creator     TEXT NOT NULL REFERENCES users(username),
	description TEXT NOT NULL CHECK(description <> ''),
	priority    INTEGER NOT NULL CHECK(priority BETWEEN 0 AND 2),
	created_at  TEXT NOT NULL,
	finish_date TEXT NOT NULL,
	tag_id      TEXT NOT NULL REFERENCES tags(id),
	PRIMARY KEY (creator, id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_tag_id ON tasks(tag_id);
CREATE INDEX IF NOT EXISTS idx_tasks_finish_date ON tasks(finish_date);
CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);
CREATE INDEX IF NOT EXISTS idx_tasks_id ON tasks(id);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS task_files (
	id           TEXT PRIMARY KEY,
	creator      TEXT NOT NULL,
	task_id      TEXT NOT NULL,
	name         TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
	path         TEXT NOT NULL,
	size         BIGINT NOT NULL DEFAULT 0,
	checksum     TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	FOREIGN KEY (creator, task_id) REFERENCES tasks(creator, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_task_files_task ON task_files(creator, task_id);
`,
	},
}
