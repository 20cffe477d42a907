package seed

import (
	"context"
	"testing"
	"time"

	"worldweaver/internal/store"
	"worldweaver/internal/storylet"
)

type countingStore struct {
	store.Store
	created []store.StoryletInput
}

func (c *countingStore) CountStorylets(context.Context) (int64, error) {
	return int64(len(c.created)), nil
}

func (c *countingStore) CreateStorylet(_ context.Context, in store.StoryletInput) (int64, error) {
	if _, err := storylet.ParseRequirements(in.Requires); err != nil {
		return 0, err
	}
	c.created = append(c.created, in)
	return int64(len(c.created)), nil
}

func (c *countingStore) ListStorylets(context.Context) ([]storylet.Storylet, error) { return nil, nil }
func (c *countingStore) DeleteSessionsBefore(context.Context, time.Time) ([]string, error) {
	return nil, nil
}

func TestIfEmpty(t *testing.T) {
	st := &countingStore{}
	ctx := context.Background()

	n, err := IfEmpty(ctx, st)
	if err != nil {
		t.Fatalf("IfEmpty: %v", err)
	}
	if n != len(st.created) || n == 0 {
		t.Fatalf("seeded %d rows, store saw %d", n, len(st.created))
	}

	// Compass ring plus center plus the cavern world.
	if n != 13 {
		t.Fatalf("seeded %d rows, want 13", n)
	}

	positions := map[storylet.Position]string{}
	for _, in := range st.created {
		if in.Position == nil {
			t.Fatalf("seed %q has no position", in.Title)
		}
		if prev, ok := positions[*in.Position]; ok {
			t.Fatalf("seeds %q and %q share %+v", prev, in.Title, *in.Position)
		}
		positions[*in.Position] = in.Title
	}

	ring := []storylet.Position{
		{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1},
		{X: 0, Y: 0},
	}
	for _, pos := range ring {
		if _, ok := positions[pos]; !ok {
			t.Fatalf("compass cell %+v not seeded", pos)
		}
	}
}

func TestIfEmptySkipsPopulatedStore(t *testing.T) {
	st := &countingStore{created: []store.StoryletInput{{Title: "existing"}}}

	n, err := IfEmpty(context.Background(), st)
	if err != nil {
		t.Fatalf("IfEmpty: %v", err)
	}
	if n != 0 {
		t.Fatalf("seeded %d rows into a populated store", n)
	}
	if len(st.created) != 1 {
		t.Fatalf("populated store was modified: %d rows", len(st.created))
	}
}
