package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

func (c *Client) LoadSessionState(ctx context.Context, sessionID string) (map[string]any, error) {
	var varsJSON string
	err := c.db.QueryRowContext(ctx,
		"SELECT vars FROM session_vars WHERE session_id = ?", sessionID,
	).Scan(&varsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", sessionID, err)
	}

	var vars map[string]any
	if err := json.Unmarshal([]byte(varsJSON), &vars); err != nil {
		return nil, fmt.Errorf("unmarshaling session %q vars: %w", sessionID, err)
	}
	return vars, nil
}

func (c *Client) SaveSessionState(ctx context.Context, sessionID string, vars map[string]any) error {
	if vars == nil {
		vars = map[string]any{}
	}
	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("marshaling session %q vars: %w", sessionID, err)
	}

	_, err = c.db.ExecContext(ctx, `
	INSERT INTO session_vars (session_id, vars, updated_at)
	VALUES (?, ?, datetime('now'))
	ON CONFLICT (session_id) DO UPDATE SET
		vars = excluded.vars,
		updated_at = excluded.updated_at`,
		sessionID, string(varsJSON),
	)
	if err != nil {
		return fmt.Errorf("saving session %q: %w", sessionID, err)
	}
	return nil
}

func (c *Client) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	cutoffText := cutoff.UTC().Format("2006-01-02 15:04:05")

	rows, err := c.db.QueryContext(ctx,
		"SELECT session_id FROM session_vars WHERE updated_at < ?", cutoffText,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stale sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing stale sessions: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}
	if _, err := c.db.ExecContext(ctx,
		"DELETE FROM session_vars WHERE updated_at < ?", cutoffText,
	); err != nil {
		return nil, fmt.Errorf("deleting stale sessions: %w", err)
	}
	return ids, nil
}
