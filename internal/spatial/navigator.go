package spatial

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"worldweaver/internal/storylet"
)

var (
	// ErrNotFound marks a lookup for a storylet the navigator does not know.
	ErrNotFound = errors.New("storylet not found")
	// ErrInvalidDirection marks a token outside the 8 compass directions.
	ErrInvalidDirection = errors.New("invalid direction")
	// ErrNoPositions marks navigation before any storylet has a position.
	ErrNoPositions = errors.New("no storylets positioned")
)

// ErrPositionTaken is the shared invariant error; repositories return it
// (wrapped) when a position write loses to a concurrent claim.
var ErrPositionTaken = storylet.ErrPositionTaken

// Repository is the slice of the storylet store the navigator needs.
type Repository interface {
	ListStorylets(ctx context.Context) ([]storylet.Storylet, error)
	UpdatePosition(ctx context.Context, id int64, pos storylet.Position) error
}

// Neighbor describes the storylet occupying an adjacent cell.
type Neighbor struct {
	ID       int64             `json:"id"`
	Title    string            `json:"title"`
	Position storylet.Position `json:"position"`
}

// MapEntry is one positioned storylet in the world map.
type MapEntry struct {
	ID       int64             `json:"id"`
	Title    string            `json:"title"`
	Position storylet.Position `json:"position"`
}

// Navigator maintains the storylet-to-position index and answers adjacency
// and movement queries. The index is shared across sessions: writers
// (assignment) are exclusive, readers see a consistent snapshot, and no two
// storylets ever share a cell.
type Navigator struct {
	repo Repository

	mu        sync.RWMutex
	loaded    bool
	entries   map[int64]*entry
	cells     map[storylet.Position]int64
	locations map[string]int64
}

type entry struct {
	id       int64
	title    string
	loc      string
	requires storylet.Requirements
	pos      *storylet.Position
}

func NewNavigator(repo Repository) *Navigator {
	return &Navigator{
		repo:      repo,
		entries:   make(map[int64]*entry),
		cells:     make(map[storylet.Position]int64),
		locations: make(map[string]int64),
	}
}

// Refresh rebuilds the index from the repository. Stored storylets that
// collide on a cell keep only the lowest id positioned; the rest are treated
// as unpositioned so the next assignment pass re-places them.
func (n *Navigator) Refresh(ctx context.Context) error {
	storylets, err := n.repo.ListStorylets(ctx)
	if err != nil {
		return fmt.Errorf("listing storylets: %w", err)
	}

	sort.Slice(storylets, func(i, j int) bool { return storylets[i].ID < storylets[j].ID })

	n.mu.Lock()
	defer n.mu.Unlock()

	n.entries = make(map[int64]*entry, len(storylets))
	n.cells = make(map[storylet.Position]int64, len(storylets))
	n.locations = make(map[string]int64)

	for _, s := range storylets {
		e := &entry{id: s.ID, title: s.Title, requires: s.Requires}
		if s.Position != nil {
			if _, taken := n.cells[*s.Position]; !taken {
				pos := *s.Position
				e.pos = &pos
				n.cells[pos] = s.ID
			}
		}
		if loc, ok := s.Requires.Location(); ok {
			e.loc = loc
			if _, seen := n.locations[loc]; !seen {
				n.locations[loc] = s.ID
			}
		}
		n.entries[s.ID] = e
	}
	n.loaded = true
	return nil
}

func (n *Navigator) ensureLoaded(ctx context.Context) error {
	n.mu.RLock()
	loaded := n.loaded
	n.mu.RUnlock()
	if loaded {
		return nil
	}
	return n.Refresh(ctx)
}

// Position returns the storylet's cell.
func (n *Navigator) Position(ctx context.Context, id int64) (storylet.Position, error) {
	if err := n.ensureLoaded(ctx); err != nil {
		return storylet.Position{}, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	e, ok := n.entries[id]
	if !ok {
		return storylet.Position{}, fmt.Errorf("storylet %d: %w", id, ErrNotFound)
	}
	if e.pos == nil {
		return storylet.Position{}, fmt.Errorf("storylet %d: %w", id, ErrNoPositions)
	}
	return *e.pos, nil
}

// FindByLocation resolves a location anchor to the storylet anchored there.
// The index is built at load time, not by scanning serialized requirements.
func (n *Navigator) FindByLocation(ctx context.Context, location string) (int64, error) {
	if err := n.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	id, ok := n.locations[location]
	if !ok {
		return 0, fmt.Errorf("location %q: %w", location, ErrNotFound)
	}
	return id, nil
}

// Locations lists every known location anchor in sorted order.
func (n *Navigator) Locations(ctx context.Context) ([]string, error) {
	if err := n.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]string, 0, len(n.locations))
	for loc := range n.locations {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out, nil
}

// DirectionalNavigation looks up each of the 8 neighbor cells around the
// storylet. A direction maps to nil when no storylet occupies that exact
// cell; movement is never farther than one cell.
func (n *Navigator) DirectionalNavigation(ctx context.Context, id int64) (map[Direction]*Neighbor, error) {
	if err := n.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	e, ok := n.entries[id]
	if !ok {
		return nil, fmt.Errorf("storylet %d: %w", id, ErrNotFound)
	}
	if e.pos == nil {
		return nil, fmt.Errorf("storylet %d: %w", id, ErrNoPositions)
	}

	out := make(map[Direction]*Neighbor, len(Directions))
	for _, dir := range Directions {
		cell := dir.Apply(*e.pos)
		neighborID, occupied := n.cells[cell]
		if !occupied {
			out[dir] = nil
			continue
		}
		neighbor := n.entries[neighborID]
		out[dir] = &Neighbor{ID: neighbor.id, Title: neighbor.title, Position: cell}
	}
	return out, nil
}

// CanMoveTo reports whether moving one cell in the direction is allowed:
// false when no storylet occupies the destination, otherwise exactly the
// destination storylet's own requirements evaluated against the snapshot.
func (n *Navigator) CanMoveTo(ctx context.Context, id int64, dir Direction, snapshot map[string]any) (bool, error) {
	if _, ok := offsets[dir]; !ok {
		return false, fmt.Errorf("direction %q: %w", dir, ErrInvalidDirection)
	}
	if err := n.ensureLoaded(ctx); err != nil {
		return false, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	e, ok := n.entries[id]
	if !ok {
		return false, fmt.Errorf("storylet %d: %w", id, ErrNotFound)
	}
	if e.pos == nil {
		return false, fmt.Errorf("storylet %d: %w", id, ErrNoPositions)
	}

	neighborID, occupied := n.cells[dir.Apply(*e.pos)]
	if !occupied {
		return false, nil
	}
	return n.entries[neighborID].requires.Evaluate(snapshot), nil
}

// MapData snapshots every positioned storylet, ordered by id.
func (n *Navigator) MapData(ctx context.Context) ([]MapEntry, error) {
	if err := n.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]MapEntry, 0, len(n.cells))
	for _, e := range n.entries {
		if e.pos == nil {
			continue
		}
		out = append(out, MapEntry{ID: e.id, Title: e.title, Position: *e.pos})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
