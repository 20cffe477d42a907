// Package seed populates an empty store with starter worlds.
package seed

import (
	"context"
	"fmt"
	"strings"

	"worldweaver/internal/store"
	"worldweaver/internal/storylet"
)

// IfEmpty seeds the store when it holds no storylets and reports how many
// rows were written. A non-empty store is left untouched so reseeding is
// always safe.
func IfEmpty(ctx context.Context, st store.Store) (int, error) {
	count, err := st.CountStorylets(ctx)
	if err != nil {
		return 0, fmt.Errorf("seeding: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inputs := compassWorld()
	inputs = append(inputs, cavernWorld()...)

	for _, in := range inputs {
		if _, err := st.CreateStorylet(ctx, in); err != nil {
			return 0, fmt.Errorf("seeding %q: %w", in.Title, err)
		}
	}
	return len(inputs), nil
}

// compassWorld is the navigation test ring: a center storylet with one
// neighbor in each of the 8 compass directions, all without requirements.
func compassWorld() []store.StoryletInput {
	directions := []struct {
		name string
		dx   int
		dy   int
	}{
		{"North", 0, -1},
		{"Northeast", 1, -1},
		{"East", 1, 0},
		{"Southeast", 1, 1},
		{"South", 0, 1},
		{"Southwest", -1, 1},
		{"West", -1, 0},
		{"Northwest", -1, -1},
	}

	inputs := make([]store.StoryletInput, 0, len(directions)+1)
	for _, d := range directions {
		lower := strings.ToLower(d.name)
		inputs = append(inputs, store.StoryletInput{
			Title:        "Test " + d.name,
			TextTemplate: fmt.Sprintf("You move %s.", lower),
			Requires:     map[string]any{},
			Choices:      []storylet.Choice{{Label: "Go " + lower, Set: map[string]any{}}},
			Weight:       1.0,
			Position:     &storylet.Position{X: d.dx, Y: d.dy},
		})
	}
	inputs = append(inputs, store.StoryletInput{
		Title:        "Test Center",
		TextTemplate: "You are at the center.",
		Requires:     map[string]any{},
		Choices:      []storylet.Choice{{Label: "Stay", Set: map[string]any{}}},
		Weight:       1.0,
		Position:     &storylet.Position{X: 0, Y: 0},
	})
	return inputs
}

// cavernWorld is a small playable mine: anchored locations, threshold gates,
// and choices that mutate variables. It is laid out away from the compass
// ring so the two worlds never contend for cells.
func cavernWorld() []store.StoryletInput {
	return []store.StoryletInput{
		{
			Title:        "The Mine Entrance",
			TextTemplate: "You stand at the mouth of the old mine, {name}. Timbers groan overhead.",
			Requires:     map[string]any{"location": "start"},
			Choices: []storylet.Choice{
				{Label: "Light your lamp", Set: map[string]any{"lamp_lit": true}},
				{Label: "Listen to the dark", Set: map[string]any{}},
			},
			Weight:   2.0,
			Position: &storylet.Position{X: 10, Y: 10},
		},
		{
			Title:        "The Winding Gallery",
			TextTemplate: "The gallery winds downward. Your lamp throws long shadows.",
			Requires:     map[string]any{"location": "gallery", "lamp_lit": true},
			Choices: []storylet.Choice{
				{Label: "Press deeper", Set: map[string]any{"danger": 2}},
				{Label: "Turn back", Set: map[string]any{"location": "start"}},
			},
			Weight:   1.0,
			Position: &storylet.Position{X: 11, Y: 10},
		},
		{
			Title:        "The Flooded Shaft",
			TextTemplate: "Black water fills the shaft below. Something glimmers beneath the surface.",
			Requires:     map[string]any{"location": "flooded_shaft", "danger_min": 3},
			Choices: []storylet.Choice{
				{Label: "Dive for the glimmer", Set: map[string]any{"found_ore": true, "danger": 5}},
				{Label: "Mark it and retreat", Set: map[string]any{"location": "gallery"}},
			},
			Weight:   1.0,
			Position: &storylet.Position{X: 11, Y: 11},
		},
		{
			Title:        "A Quiet Alcove",
			TextTemplate: "A dry alcove offers a moment's rest.",
			Requires:     map[string]any{"danger_max": 1},
			Choices: []storylet.Choice{
				{Label: "Rest a while", Set: map[string]any{"rested": true}},
			},
			Weight:   0.5,
			Position: &storylet.Position{X: 9, Y: 10},
		},
	}
}
