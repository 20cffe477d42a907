package spatial

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"worldweaver/internal/storylet"
)

var origin = storylet.Position{X: 0, Y: 0}

// AutoAssignCoordinates places every unpositioned storylet (or the given
// subset) on the nearest free cell and persists the result. The seed is the
// position of an already-placed storylet sharing the candidate's location
// anchor, falling back to the origin. Candidates are processed in ascending
// id order, cells scanned outward in Chebyshev rings with lexicographic
// (x, y) tie-breaks, so the same input always yields the same layout.
// Already-positioned storylets are untouched and not counted.
func (n *Navigator) AutoAssignCoordinates(ctx context.Context, candidates []int64) (int, error) {
	if err := n.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	ids, err := n.candidateIDsLocked(candidates)
	if err != nil {
		return 0, err
	}

	blocked := make(map[storylet.Position]bool)
	count := 0
	for _, id := range ids {
		e := n.entries[id]
		if e.pos != nil {
			continue
		}
		if _, err := n.placeLocked(ctx, e, n.seedForLocked(e), blocked); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// AssignSpatialPositions lays out a whole batch, clustering storylets that
// share a location anchor onto contiguous cells before falling back to the
// plain ring expansion. Returns the positions actually assigned.
func (n *Navigator) AssignSpatialPositions(ctx context.Context, candidates []int64) (map[int64]storylet.Position, error) {
	if err := n.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	ids, err := n.candidateIDsLocked(candidates)
	if err != nil {
		return nil, err
	}

	clusters := make(map[string][]int64)
	for _, id := range ids {
		if n.entries[id].pos != nil {
			continue
		}
		clusters[n.entries[id].loc] = append(clusters[n.entries[id].loc], id)
	}

	names := make([]string, 0, len(clusters))
	for name := range clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	// Anchored clusters first; the unanchored group (empty name sorts first)
	// fills whatever cells remain.
	if len(names) > 0 && names[0] == "" {
		names = append(names[1:], "")
	}

	blocked := make(map[storylet.Position]bool)
	assigned := make(map[int64]storylet.Position)
	for _, name := range names {
		members := clusters[name]
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

		// A cluster whose anchor already has positioned storylets grows
		// from the existing cells, not from the origin.
		seed := n.seedForLocked(n.entries[members[0]])
		for i, id := range members {
			pos, err := n.placeLocked(ctx, n.entries[id], seed, blocked)
			if err != nil {
				return assigned, err
			}
			assigned[id] = pos
			if i == 0 && name != "" {
				seed = pos
			}
		}
	}
	return assigned, nil
}

// SetPosition places one storylet on an explicit cell, refusing cells held
// by any other storylet.
func (n *Navigator) SetPosition(ctx context.Context, id int64, pos storylet.Position) error {
	if err := n.ensureLoaded(ctx); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	e, ok := n.entries[id]
	if !ok {
		return fmt.Errorf("storylet %d: %w", id, ErrNotFound)
	}
	if holder, taken := n.cells[pos]; taken && holder != id {
		return fmt.Errorf("cell (%d,%d): %w", pos.X, pos.Y, ErrPositionTaken)
	}
	if e.pos != nil && *e.pos == pos {
		return nil
	}

	if err := n.repo.UpdatePosition(ctx, id, pos); err != nil {
		return fmt.Errorf("persisting position for storylet %d: %w", id, err)
	}
	n.indexLocked(e, pos)
	return nil
}

func (n *Navigator) candidateIDsLocked(candidates []int64) ([]int64, error) {
	if candidates == nil {
		ids := make([]int64, 0, len(n.entries))
		for id, e := range n.entries {
			if e.pos == nil {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return ids, nil
	}

	ids := make([]int64, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := n.entries[id]; !ok {
			return nil, fmt.Errorf("storylet %d: %w", id, ErrNotFound)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// seedForLocked picks the ring-expansion seed for a candidate: the cell of a
// positioned storylet sharing its location anchor, else the origin.
func (n *Navigator) seedForLocked(e *entry) storylet.Position {
	if e.loc == "" {
		return origin
	}
	for _, other := range n.entries {
		if other.id != e.id && other.loc == e.loc && other.pos != nil {
			return *other.pos
		}
	}
	return origin
}

// placeLocked finds the nearest free cell to seed, persists it, and indexes
// it. A Conflict from the repository (another process claimed the cell
// between our scan and the write) records the cell in blocked and retries
// once. Lost cells live only in blocked, scoped to the assignment pass; the
// shared index holds nothing but real storylet ids, so navigation reads stay
// safe after a conflict.
func (n *Navigator) placeLocked(ctx context.Context, e *entry, seed storylet.Position, blocked map[storylet.Position]bool) (storylet.Position, error) {
	pos := n.nearestFreeLocked(seed, blocked)
	err := n.repo.UpdatePosition(ctx, e.id, pos)
	if errors.Is(err, ErrPositionTaken) {
		blocked[pos] = true
		pos = n.nearestFreeLocked(seed, blocked)
		err = n.repo.UpdatePosition(ctx, e.id, pos)
	}
	if err != nil {
		return storylet.Position{}, fmt.Errorf("persisting position for storylet %d: %w", e.id, err)
	}
	n.indexLocked(e, pos)
	return pos, nil
}

func (n *Navigator) indexLocked(e *entry, pos storylet.Position) {
	if e.pos != nil {
		delete(n.cells, *e.pos)
	}
	p := pos
	e.pos = &p
	n.cells[pos] = e.id
}

// nearestFreeLocked scans outward from seed in Chebyshev rings, skipping
// indexed cells and cells in blocked. Ring 0 is the seed itself, ring r the
// square shell at distance r. Within a ring, cells are visited in
// lexicographic (x, y) order. The grid is unbounded, so the scan always
// terminates.
func (n *Navigator) nearestFreeLocked(seed storylet.Position, blocked map[storylet.Position]bool) storylet.Position {
	if _, taken := n.cells[seed]; !taken && !blocked[seed] {
		return seed
	}
	for r := 1; ; r++ {
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				cell := storylet.Position{X: seed.X + dx, Y: seed.Y + dy}
				if blocked[cell] {
					continue
				}
				if _, taken := n.cells[cell]; !taken {
					return cell
				}
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
