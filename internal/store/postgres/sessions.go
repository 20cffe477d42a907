package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (c *Client) LoadSessionState(ctx context.Context, sessionID string) (map[string]any, error) {
	var varsJSON []byte
	err := c.pool.QueryRow(ctx,
		"SELECT vars FROM session_vars WHERE session_id = $1", sessionID,
	).Scan(&varsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", sessionID, err)
	}

	var vars map[string]any
	if err := json.Unmarshal(varsJSON, &vars); err != nil {
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

	_, err = c.pool.Exec(ctx, `
INSERT INTO session_vars (session_id, vars, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (session_id) DO UPDATE SET
    vars = EXCLUDED.vars,
    updated_at = EXCLUDED.updated_at`,
		sessionID, varsJSON,
	)
	if err != nil {
		return fmt.Errorf("saving session %q: %w", sessionID, err)
	}
	return nil
}

func (c *Client) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := c.pool.Query(ctx,
		"DELETE FROM session_vars WHERE updated_at < $1 RETURNING session_id", cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("deleting stale sessions: %w", err)
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
		return nil, fmt.Errorf("deleting stale sessions: %w", err)
	}
	return ids, nil
}
