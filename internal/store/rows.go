package store

import (
	"encoding/json"
	"fmt"

	"worldweaver/internal/storylet"
)

// DecodeStorylet builds a domain storylet from raw row values. Requirements
// are parsed here, once at load, so every later evaluation works on the
// tagged form.
func DecodeStorylet(id int64, title, textTemplate string, requiresJSON, choicesJSON []byte, weight float64, posX, posY *int64) (storylet.Storylet, error) {
	s := storylet.Storylet{
		ID:           id,
		Title:        title,
		TextTemplate: textTemplate,
		Weight:       weight,
	}

	if len(requiresJSON) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(requiresJSON, &raw); err != nil {
			return storylet.Storylet{}, fmt.Errorf("storylet %d: unmarshaling requires: %w", id, err)
		}
		reqs, err := storylet.ParseRequirements(raw)
		if err != nil {
			return storylet.Storylet{}, fmt.Errorf("storylet %d: %w", id, err)
		}
		s.Requires = reqs
	}

	if len(choicesJSON) > 0 {
		if err := json.Unmarshal(choicesJSON, &s.Choices); err != nil {
			return storylet.Storylet{}, fmt.Errorf("storylet %d: unmarshaling choices: %w", id, err)
		}
	}

	if posX != nil && posY != nil {
		s.Position = &storylet.Position{X: int(*posX), Y: int(*posY)}
	}
	return s, nil
}

// EncodeInput validates and serializes a storylet input for insertion.
func EncodeInput(in StoryletInput) (requiresJSON, choicesJSON []byte, err error) {
	if _, err := storylet.ParseRequirements(in.Requires); err != nil {
		return nil, nil, err
	}
	requires := in.Requires
	if requires == nil {
		requires = map[string]any{}
	}
	requiresJSON, err = json.Marshal(requires)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling requires: %w", err)
	}

	choices := in.Choices
	if choices == nil {
		choices = []storylet.Choice{}
	}
	choicesJSON, err = json.Marshal(choices)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling choices: %w", err)
	}
	return requiresJSON, choicesJSON, nil
}
