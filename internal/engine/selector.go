package engine

import (
	"math/rand"
	"sync"

	"worldweaver/internal/storylet"
)

// selector performs eligibility filtering and weighted random choice. The
// random source is injected so tests can pin the distribution; access is
// serialized because rand.Rand is not safe for concurrent use.
type selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSelector(rng *rand.Rand) *selector {
	return &selector{rng: rng}
}

// Select returns one eligible storylet, or nil when none qualifies. Each
// eligible storylet is drawn with probability proportional to max(0, weight);
// when every weight is zero or negative the draw is uniform instead, so an
// eligible set never comes back empty-handed.
func (s *selector) Select(storylets []storylet.Storylet, snapshot map[string]any) *storylet.Storylet {
	var eligible []*storylet.Storylet
	for i := range storylets {
		if storylets[i].Requires.Evaluate(snapshot) {
			eligible = append(eligible, &storylets[i])
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	total := 0.0
	for _, c := range eligible {
		if c.Weight > 0 {
			total += c.Weight
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if total <= 0 {
		return eligible[s.rng.Intn(len(eligible))]
	}

	roll := s.rng.Float64() * total
	var last *storylet.Storylet
	for _, c := range eligible {
		if c.Weight <= 0 {
			continue
		}
		last = c
		if roll < c.Weight {
			return c
		}
		roll -= c.Weight
	}
	// Float rounding can exhaust the roll; the last weighted candidate
	// absorbs it.
	return last
}
