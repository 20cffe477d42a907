package state

import (
	"errors"
	"fmt"

	"worldweaver/internal/storylet"
)

// ErrInvalidQuantity marks a non-positive item quantity.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// Item is one inventory entry. Properties may carry a "requires" mapping in
// the same shape as storylet requirements; it gates the "use" action against
// the current snapshot.
type Item struct {
	ID         string
	Name       string
	Quantity   int
	Condition  string
	Properties map[string]any
}

// AvailableActions lists what the player can do with the item given the
// current contextual snapshot. Examine and drop are always possible; use is
// withheld for broken items and for items whose use requirements do not hold.
func (it *Item) AvailableActions(snapshot map[string]any) []string {
	actions := []string{"examine", "drop"}
	if it.Condition == "broken" {
		return actions
	}
	if raw, ok := it.Properties["requires"].(map[string]any); ok {
		reqs, err := storylet.ParseRequirements(raw)
		if err != nil || !reqs.Evaluate(snapshot) {
			return actions
		}
	}
	return append(actions, "use")
}

// AddItem inserts an inventory entry or increments an existing one. New
// entries start in pristine condition unless the properties say otherwise.
func (m *Manager) AddItem(id, name string, quantity int, properties map[string]any) (*Item, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("item %q quantity %d: %w", id, quantity, ErrInvalidQuantity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.inventory[id]
	if !ok {
		condition := "pristine"
		if c, ok := properties["condition"].(string); ok && c != "" {
			condition = c
		}
		item = &Item{
			ID:         id,
			Name:       name,
			Condition:  condition,
			Properties: properties,
		}
		m.inventory[id] = item
	}
	item.Quantity += quantity

	cp := *item
	return &cp, nil
}

// Item returns a copy of the inventory entry, or nil when absent.
func (m *Manager) Item(id string) *Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.inventory[id]
	if !ok {
		return nil
	}
	cp := *item
	return &cp
}
