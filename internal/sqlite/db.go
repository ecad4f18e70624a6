package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. Queue rows are keyed by name, slides
// by id, quota counters by (user, kind).
func (db *DB) RunMigrations() error {
	migration := `
-- Users known to the engine, with comma-separated group membership
CREATE TABLE users (
    name TEXT PRIMARY KEY,
    groups TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- API keys resolving to a user and an editing session
CREATE TABLE api_keys (
    key_hash TEXT PRIMARY KEY,
    user_name TEXT NOT NULL,
    session_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    FOREIGN KEY (user_name) REFERENCES users(name)
);
CREATE INDEX idx_api_keys_user ON api_keys(user_name);

-- Slide queues, keyed by name
CREATE TABLE queues (
    name TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Slides; position is the committed ordering index within the queue
CREATE TABLE slides (
    id TEXT PRIMARY KEY,
    queue_name TEXT NOT NULL,
    owner TEXT NOT NULL,
    name TEXT NOT NULL,
    position INTEGER NOT NULL,
    duration INTEGER NOT NULL,
    markup TEXT NOT NULL,
    enabled INTEGER NOT NULL,
    sched INTEGER NOT NULL,
    sched_t_s INTEGER NOT NULL,
    sched_t_e INTEGER NOT NULL,
    animation INTEGER NOT NULL,
    lock_session TEXT,
    lock_acquired_at TIMESTAMP,
    lock_ttl INTEGER,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (queue_name) REFERENCES queues(name)
);
CREATE INDEX idx_slides_queue ON slides(queue_name, position);
CREATE INDEX idx_slides_owner ON slides(owner);

-- Slide collaborator lists
CREATE TABLE slide_collaborators (
    slide_id TEXT NOT NULL,
    user_name TEXT NOT NULL,
    PRIMARY KEY (slide_id, user_name),
    FOREIGN KEY (slide_id) REFERENCES slides(id) ON DELETE CASCADE
);

-- Per-user quota counters
CREATE TABLE quotas (
    user_name TEXT NOT NULL,
    kind TEXT NOT NULL,
    used INTEGER NOT NULL DEFAULT 0,
    max_value INTEGER NOT NULL,
    PRIMARY KEY (user_name, kind)
);

-- Activity log
CREATE TABLE activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_name TEXT NOT NULL,
    slide_id TEXT,
    queue_name TEXT,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_activity_user ON activity_log(user_name);
CREATE INDEX idx_activity_queue ON activity_log(queue_name);
CREATE INDEX idx_activity_created ON activity_log(created_at);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
