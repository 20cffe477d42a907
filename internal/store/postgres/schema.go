package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS storylets (
    id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    title         TEXT NOT NULL,
    text_template TEXT NOT NULL DEFAULT '',
    requires      JSONB NOT NULL DEFAULT '{}',
    choices       JSONB NOT NULL DEFAULT '[]',
    weight        DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    pos_x         INTEGER,
    pos_y         INTEGER,
    CONSTRAINT uq_storylet_cell UNIQUE (pos_x, pos_y)
);

CREATE TABLE IF NOT EXISTS session_vars (
    session_id TEXT PRIMARY KEY,
    vars       JSONB NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_session_vars_updated ON session_vars (updated_at);
`

	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring postgres schema: %w", err)
	}
	return nil
}
