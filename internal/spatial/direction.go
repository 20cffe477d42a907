package spatial

import (
	"fmt"
	"strings"

	"worldweaver/internal/storylet"
)

// Direction is one of the 8 compass tokens.
type Direction string

const (
	North     Direction = "N"
	Northeast Direction = "NE"
	East      Direction = "E"
	Southeast Direction = "SE"
	South     Direction = "S"
	Southwest Direction = "SW"
	West      Direction = "W"
	Northwest Direction = "NW"
)

// Directions lists the compass in clockwise order from north. Iteration over
// neighbors always follows this order.
var Directions = []Direction{North, Northeast, East, Southeast, South, Southwest, West, Northwest}

// offsets maps each direction to its unit cell offset. Y grows southward.
var offsets = map[Direction]storylet.Position{
	North:     {X: 0, Y: -1},
	Northeast: {X: 1, Y: -1},
	East:      {X: 1, Y: 0},
	Southeast: {X: 1, Y: 1},
	South:     {X: 0, Y: 1},
	Southwest: {X: -1, Y: 1},
	West:      {X: -1, Y: 0},
	Northwest: {X: -1, Y: -1},
}

var longNames = map[string]Direction{
	"north":     North,
	"northeast": Northeast,
	"east":      East,
	"southeast": Southeast,
	"south":     South,
	"southwest": Southwest,
	"west":      West,
	"northwest": Northwest,
}

// ParseDirection normalizes a direction token. Both the short compass form
// (case-insensitive "ne") and the long form ("northeast") are accepted.
func ParseDirection(token string) (Direction, error) {
	trimmed := strings.ToLower(strings.TrimSpace(token))
	if d, ok := longNames[trimmed]; ok {
		return d, nil
	}
	upper := Direction(strings.ToUpper(trimmed))
	if _, ok := offsets[upper]; ok {
		return upper, nil
	}
	return "", fmt.Errorf("direction %q: %w", token, ErrInvalidDirection)
}

// Offset returns the direction's unit cell offset.
func (d Direction) Offset() storylet.Position {
	return offsets[d]
}

// Apply returns the cell one step from p in the direction.
func (d Direction) Apply(p storylet.Position) storylet.Position {
	off := offsets[d]
	return storylet.Position{X: p.X + off.X, Y: p.Y + off.Y}
}
