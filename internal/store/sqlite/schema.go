package sqlite

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS storylets (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		title         TEXT NOT NULL,
		text_template TEXT NOT NULL DEFAULT '',
		requires      TEXT NOT NULL DEFAULT '{}',
		choices       TEXT NOT NULL DEFAULT '[]',
		weight        REAL NOT NULL DEFAULT 1.0,
		pos_x         INTEGER,
		pos_y         INTEGER,
		CONSTRAINT uq_storylet_cell UNIQUE (pos_x, pos_y)
	);

	CREATE TABLE IF NOT EXISTS session_vars (
		session_id TEXT PRIMARY KEY,
		vars       TEXT NOT NULL DEFAULT '{}',
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_session_vars_updated ON session_vars (updated_at);
	`

	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}
	return nil
}
