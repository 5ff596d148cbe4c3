package storage

import (
	"database/sql"
	"fmt"
)

// NewTestDB wraps an existing connection in a DB struct for testing.
func NewTestDB(sqlDB *sql.DB) *DB {
	return &DB{conn: sqlDB}
}

// CreateTestSchema applies the catalog schema directly, for in-memory
// databases where the file-based migration runner cannot attach.
func CreateTestSchema(db *DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS cards (
			name            TEXT PRIMARY KEY,
			color_identity  TEXT NOT NULL DEFAULT 'C',
			mana_value      REAL NOT NULL DEFAULT 0,
			type_line       TEXT NOT NULL DEFAULT '',
			text            TEXT NOT NULL DEFAULT '',
			keywords        TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_cards_color_identity ON cards(color_identity);
		CREATE TABLE IF NOT EXISTS catalog_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	if _, err := db.Conn().Exec(schema); err != nil {
		return fmt.Errorf("failed to create test schema: %w", err)
	}
	return nil
}
