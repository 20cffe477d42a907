package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"worldweaver/internal/store"
	"worldweaver/internal/storylet"
)

const storyletColumns = "id, title, text_template, requires, choices, weight, pos_x, pos_y"

func (c *Client) ListStorylets(ctx context.Context) ([]storylet.Storylet, error) {
	rows, err := c.pool.Query(ctx, "SELECT "+storyletColumns+" FROM storylets ORDER BY id")
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
	row := c.pool.QueryRow(ctx, "SELECT "+storyletColumns+" FROM storylets WHERE id = $1", id)
	s, err := scanStorylet(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

	var id int64
	err = c.pool.QueryRow(ctx, `
INSERT INTO storylets (title, text_template, requires, choices, weight, pos_x, pos_y)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		in.Title, in.TextTemplate, requiresJSON, choicesJSON, in.Weight, posX, posY,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("creating storylet: %w", storylet.ErrPositionTaken)
		}
		return 0, fmt.Errorf("creating storylet: %w", err)
	}
	return id, nil
}

func (c *Client) CountStorylets(ctx context.Context) (int64, error) {
	var count int64
	if err := c.pool.QueryRow(ctx, "SELECT COUNT(*) FROM storylets").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting storylets: %w", err)
	}
	return count, nil
}

func (c *Client) UpdatePosition(ctx context.Context, id int64, pos storylet.Position) error {
	tag, err := c.pool.Exec(ctx,
		"UPDATE storylets SET pos_x = $1, pos_y = $2 WHERE id = $3",
		pos.X, pos.Y, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cell (%d,%d): %w", pos.X, pos.Y, storylet.ErrPositionTaken)
		}
		return fmt.Errorf("updating position for storylet %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating position: storylet %d not found", id)
	}
	return nil
}

func scanStorylet(row pgx.Row) (storylet.Storylet, error) {
	var (
		id           int64
		title, tmpl  string
		requiresJSON []byte
		choicesJSON  []byte
		weight       float64
		posX, posY   *int64
	)
	if err := row.Scan(&id, &title, &tmpl, &requiresJSON, &choicesJSON, &weight, &posX, &posY); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storylet.Storylet{}, err
		}
		return storylet.Storylet{}, fmt.Errorf("scanning storylet: %w", err)
	}
	return store.DecodeStorylet(id, title, tmpl, requiresJSON, choicesJSON, weight, posX, posY)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
