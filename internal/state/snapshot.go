package state

import (
	"fmt"
	"strings"
)

// ContextualVariables flattens every state facet into one snapshot mapping
// for requirement evaluation and template rendering. The flatten is pure and
// deterministic: derived keys are produced first, then the flat variables are
// overlaid so an explicit variable always wins over a derived one.
//
// Derived keys:
//
//	time_of_day, weather, danger           environment
//	rel_<a>_<b>_trust / _respect /
//	_disposition / _interactions           relationships (pair sorted)
//	has_<item>, item_<item>_quantity,
//	item_<item>_condition                  inventory
//
// The returned map is a fresh copy; mutating it never touches the manager.
func (m *Manager) ContextualVariables() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]any, len(m.variables)+3*len(m.inventory)+4*len(m.relationships)+3)

	snapshot["time_of_day"] = m.environment.TimeOfDay
	snapshot["weather"] = m.environment.Weather
	snapshot["danger"] = m.environment.DangerLevel

	for key, rel := range m.relationships {
		prefix := "rel_" + strings.ReplaceAll(key, "|", "_")
		snapshot[prefix+"_trust"] = rel.Trust
		snapshot[prefix+"_respect"] = rel.Respect
		snapshot[prefix+"_disposition"] = rel.Disposition()
		snapshot[prefix+"_interactions"] = rel.InteractionCount
	}

	for id, item := range m.inventory {
		snapshot["has_"+id] = true
		snapshot[fmt.Sprintf("item_%s_quantity", id)] = item.Quantity
		snapshot[fmt.Sprintf("item_%s_condition", id)] = item.Condition
	}

	for k, v := range m.variables {
		snapshot[k] = v
	}

	return snapshot
}
