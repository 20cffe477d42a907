package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"worldweaver/internal/store"
	"worldweaver/internal/storylet"
)

const storyletColumns = "id, title, text_template, requires, choices, weight, pos_x, pos_y"

func (c *Client) ListStorylets(ctx context.Context) ([]storylet.Storylet, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT "+storyletColumns+" FROM storylets ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing storylets: %w", err)
	}
	defer rows.Close()

	var out []storylet.Storylet
	for rows.Next() {
		s, err := scanStorylet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing storylets: %w", err)
	}
	return out, nil
}

func (c *Client) GetStorylet(ctx context.Context, id int64) (*storylet.Storylet, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+storyletColumns+" FROM storylets WHERE id = ?", id)
	s, err := scanStorylet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateStorylet(ctx context.Context, in store.StoryletInput) (int64, error) {
	requiresJSON, choicesJSON, err := store.EncodeInput(in)
	if err != nil {
		return 0, fmt.Errorf("creating storylet: %w", err)
	}

	var posX, posY any
	if in.Position != nil {
		posX, posY = in.Position.X, in.Position.Y
	}

	res, err := c.db.ExecContext(ctx, `
	INSERT INTO storylets (title, text_template, requires, choices, weight, pos_x, pos_y)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.TextTemplate, string(requiresJSON), string(choicesJSON), in.Weight, posX, posY,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("creating storylet: %w", storylet.ErrPositionTaken)
		}
		return 0, fmt.Errorf("creating storylet: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("creating storylet: %w", err)
	}
	return id, nil
}

func (c *Client) CountStorylets(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM storylets").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting storylets: %w", err)
	}
	return count, nil
}

func (c *Client) UpdatePosition(ctx context.Context, id int64, pos storylet.Position) error {
	res, err := c.db.ExecContext(ctx,
		"UPDATE storylets SET pos_x = ?, pos_y = ? WHERE id = ?",
		pos.X, pos.Y, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cell (%d,%d): %w", pos.X, pos.Y, storylet.ErrPositionTaken)
		}
		return fmt.Errorf("updating position for storylet %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating position for storylet %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("updating position: storylet %d not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStorylet(row rowScanner) (storylet.Storylet, error) {
	var (
		id           int64
		title, tmpl  string
		requiresJSON string
		choicesJSON  string
		weight       float64
		posX, posY   sql.NullInt64
	)
	if err := row.Scan(&id, &title, &tmpl, &requiresJSON, &choicesJSON, &weight, &posX, &posY); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storylet.Storylet{}, err
		}
		return storylet.Storylet{}, fmt.Errorf("scanning storylet: %w", err)
	}

	var px, py *int64
	if posX.Valid && posY.Valid {
		px, py = &posX.Int64, &posY.Int64
	}
	return store.DecodeStorylet(id, title, tmpl, []byte(requiresJSON), []byte(choicesJSON), weight, px, py)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
