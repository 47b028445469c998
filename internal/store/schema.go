package store

const schema = `
CREATE TABLE IF NOT EXISTS builds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	version TEXT NOT NULL,
	build_number INTEGER NOT NULL DEFAULT 0,
	build_string TEXT NOT NULL DEFAULT '',
	subdir TEXT NOT NULL DEFAULT '',
	recipe_path TEXT NOT NULL DEFAULT '',
	artifact_path TEXT NOT NULL DEFAULT '',
	sha256 TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_builds_name ON builds(name);
CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
`
