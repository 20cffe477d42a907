package store

import (
	"context"
	"time"

	"worldweaver/internal/storylet"
)

// Store is the persistence boundary for the engine: the storylet repository
// and the per-session variable store. Lookup misses return nil, nil; position
// writes that lose the one-storylet-per-cell constraint return an error
// wrapping storylet.ErrPositionTaken.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	ListStorylets(ctx context.Context) ([]storylet.Storylet, error)
	GetStorylet(ctx context.Context, id int64) (*storylet.Storylet, error)
	CreateStorylet(ctx context.Context, in StoryletInput) (int64, error)
	CountStorylets(ctx context.Context) (int64, error)
	UpdatePosition(ctx context.Context, id int64, pos storylet.Position) error

	LoadSessionState(ctx context.Context, sessionID string) (map[string]any, error)
	SaveSessionState(ctx context.Context, sessionID string, vars map[string]any) error
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// StoryletInput carries a new storylet from authoring or seeding. Requires is
// the raw requirement mapping; it is validated by parsing before the row is
// written so malformed predicates fail at creation, not at evaluation.
type StoryletInput struct {
	Title        string
	TextTemplate string
	Requires     map[string]any
	Choices      []storylet.Choice
	Weight       float64
	Position     *storylet.Position
}
