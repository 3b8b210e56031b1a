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
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	due_date     DATETIME,
	priority     TEXT NOT NULL DEFAULT '' CHECK(priority IN ('', 'low', 'medium', 'high')),
	completed    INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	completed_at DATETIME,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(user_id, completed);

CREATE TABLE IF NOT EXISTS chats (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	participant_email TEXT NOT NULL DEFAULT '',
	title             TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_chats_participant
	ON chats(user_id, participant_email) WHERE participant_email != '';

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	chat_id     TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	sender_id   TEXT NOT NULL DEFAULT '',
	sender_name TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL,
	sent_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_chat_sent ON messages(chat_id, sent_at);

CREATE TABLE IF NOT EXISTS contacts (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	summary     TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	start_at    DATETIME NOT NULL,
	end_at      DATETIME NOT NULL,
	time_zone   TEXT NOT NULL DEFAULT '',
	all_day     INTEGER NOT NULL DEFAULT 0 CHECK(all_day IN (0, 1))
);

CREATE INDEX IF NOT EXISTS idx_events_user_start ON events(user_id, start_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
