package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// split_bill_results keeps two JSON snapshots: result_data (editable) and
// original_result_data (immutable once written). passcode_attempts holds
// one row per (result_id, client_key) pair; all timestamps are Unix
// milliseconds.
const schema = `
CREATE TABLE IF NOT EXISTS split_bill_results (
    id TEXT PRIMARY KEY,
    result_data TEXT NOT NULL,
    original_result_data TEXT NOT NULL,
    currency TEXT NOT NULL DEFAULT 'IDR',
    receipt_image_url TEXT NOT NULL DEFAULT '',
    visibility TEXT NOT NULL DEFAULT 'public',
    passcode_hash TEXT,
    payment_instruction TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS passcode_attempts (
    result_id TEXT NOT NULL,
    client_key TEXT NOT NULL,
    failed_count INTEGER NOT NULL,
    window_start INTEGER NOT NULL,
    last_attempt_at INTEGER NOT NULL,
    locked_until INTEGER,
    PRIMARY KEY (result_id, client_key)
);

CREATE INDEX IF NOT EXISTS idx_passcode_attempts_result_id ON passcode_attempts(result_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
