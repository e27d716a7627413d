package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: lookup indexes for the list filters and the pickup joins.
	`CREATE INDEX IF NOT EXISTS idx_items_status ON items(status)`,
	`CREATE INDEX IF NOT EXISTS idx_items_reported_at ON items(reported_at)`,
	`CREATE INDEX IF NOT EXISTS idx_pickup_items_item ON pickup_items(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_item_events_item ON item_events(item_id)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
