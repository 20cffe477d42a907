package storylet

import "errors"

// ErrPositionTaken marks a write that would put two storylets on the same
// grid cell. The storylet-to-position mapping is injective.
var ErrPositionTaken = errors.New("position already occupied")

// Storylet is an atomic narrative fragment. It becomes reachable when its
// requirements hold against a session snapshot, and optionally occupies one
// cell on the world grid.
type Storylet struct {
	ID           int64
	Title        string
	TextTemplate string
	Requires     Requirements
	Choices      []Choice
	Weight       float64
	Position     *Position
}

// Choice is one player option. Set is applied to session variables when the
// choice is taken.
type Choice struct {
	Label string         `json:"label"`
	Set   map[string]any `json:"set"`
}

// Position is a cell on the unbounded integer grid. Y grows southward,
// matching screen-space grids.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Less orders positions lexicographically by (x, y). Used for deterministic
// tie-breaks during coordinate assignment.
func (p Position) Less(o Position) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

// Location returns the spatial anchor from the storylet's requirements, if
// one is present.
func (s *Storylet) Location() (string, bool) {
	return s.Requires.Location()
}
