package state

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDimension marks a relationship delta against a dimension that
// does not exist.
var ErrUnknownDimension = errors.New("unknown relationship dimension")

const (
	relationshipMin = -100.0
	relationshipMax = 100.0
	memoryCap       = 10
)

// Relationship tracks how two entities regard each other. Scores are clamped
// to [-100, 100]; memories are a bounded log with the oldest entries evicted
// past the cap.
type Relationship struct {
	Trust            float64
	Respect          float64
	Familiarity      float64
	InteractionCount int
	Memories         []string
}

// Disposition derives one comparable score from trust and respect, weighted
// toward trust.
func (r *Relationship) Disposition() float64 {
	return 0.6*r.Trust + 0.4*r.Respect
}

// pairKey keys relationships by the unordered entity pair.
func pairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "|" + b
}

// Relationship returns a copy of the record for the pair, or nil when the
// entities have never interacted.
func (m *Manager) Relationship(a, b string) *Relationship {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel, ok := m.relationships[pairKey(a, b)]
	if !ok {
		return nil
	}
	cp := *rel
	cp.Memories = append([]string(nil), rel.Memories...)
	return &cp
}

// UpdateRelationship applies numeric deltas to the pair's record, clamps each
// dimension, bumps the interaction counter, and appends the optional memory
// note. Returns the updated record.
func (m *Manager) UpdateRelationship(a, b string, changes map[string]float64, memory string) (*Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(a, b)
	rel, ok := m.relationships[key]
	if !ok {
		rel = &Relationship{}
	}

	next := *rel
	for dim, delta := range changes {
		switch dim {
		case "trust":
			next.Trust = clamp(next.Trust+delta, relationshipMin, relationshipMax)
		case "respect":
			next.Respect = clamp(next.Respect+delta, relationshipMin, relationshipMax)
		case "familiarity":
			next.Familiarity = clamp(next.Familiarity+delta, relationshipMin, relationshipMax)
		default:
			return nil, fmt.Errorf("dimension %q: %w", dim, ErrUnknownDimension)
		}
	}

	next.InteractionCount++
	next.Memories = append([]string(nil), rel.Memories...)
	if memory != "" {
		next.Memories = append(next.Memories, memory)
		if len(next.Memories) > memoryCap {
			next.Memories = next.Memories[len(next.Memories)-memoryCap:]
		}
	}

	m.relationships[key] = &next
	cp := next
	cp.Memories = append([]string(nil), next.Memories...)
	return &cp, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
