package state

import (
	"errors"
	"reflect"
	"testing"
)

func TestVariables(t *testing.T) {
	m := NewManager("s1")

	t.Run("get with default", func(t *testing.T) {
		if got := m.GetVariable("name", "Adventurer"); got != "Adventurer" {
			t.Fatalf("GetVariable default = %v", got)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		m.SetVariable("danger", 1)
		m.SetVariable("danger", 4)
		if got := m.GetVariable("danger", 0); got != 4 {
			t.Fatalf("GetVariable = %v, want 4", got)
		}
	})

	t.Run("set default does not overwrite", func(t *testing.T) {
		m.SetDefault("danger", 0)
		if got := m.GetVariable("danger", 0); got != 4 {
			t.Fatalf("SetDefault overwrote existing value: %v", got)
		}
	})
}

func TestUpdateRelationship(t *testing.T) {
	t.Run("deltas apply and disposition derives", func(t *testing.T) {
		m := NewManager("s1")
		rel, err := m.UpdateRelationship("miner", "foreman", map[string]float64{"trust": 10, "respect": 5}, "shared a lantern")
		if err != nil {
			t.Fatalf("UpdateRelationship: %v", err)
		}
		if rel.Trust != 10 || rel.Respect != 5 {
			t.Fatalf("unexpected scores: %+v", rel)
		}
		if got, want := rel.Disposition(), 0.6*10+0.4*5; got != want {
			t.Fatalf("Disposition() = %v, want %v", got, want)
		}
		if rel.InteractionCount != 1 {
			t.Fatalf("InteractionCount = %d", rel.InteractionCount)
		}
		if len(rel.Memories) != 1 || rel.Memories[0] != "shared a lantern" {
			t.Fatalf("Memories = %v", rel.Memories)
		}
	})

	t.Run("pair key is unordered", func(t *testing.T) {
		m := NewManager("s1")
		if _, err := m.UpdateRelationship("a", "b", map[string]float64{"trust": 3}, ""); err != nil {
			t.Fatalf("UpdateRelationship: %v", err)
		}
		rel, err := m.UpdateRelationship("b", "a", map[string]float64{"trust": 2}, "")
		if err != nil {
			t.Fatalf("UpdateRelationship: %v", err)
		}
		if rel.Trust != 5 || rel.InteractionCount != 2 {
			t.Fatalf("reversed pair did not hit same record: %+v", rel)
		}
	})

	t.Run("scores clamp to range", func(t *testing.T) {
		m := NewManager("s1")
		rel, err := m.UpdateRelationship("a", "b", map[string]float64{"trust": 250}, "")
		if err != nil {
			t.Fatalf("UpdateRelationship: %v", err)
		}
		if rel.Trust != 100 {
			t.Fatalf("Trust = %v, want clamped 100", rel.Trust)
		}
		rel, err = m.UpdateRelationship("a", "b", map[string]float64{"trust": -500}, "")
		if err != nil {
			t.Fatalf("UpdateRelationship: %v", err)
		}
		if rel.Trust != -100 {
			t.Fatalf("Trust = %v, want clamped -100", rel.Trust)
		}
	})

	t.Run("memory log evicts oldest past the cap", func(t *testing.T) {
		m := NewManager("s1")
		for i := 0; i < memoryCap+3; i++ {
			if _, err := m.UpdateRelationship("a", "b", nil, string(rune('a'+i))); err != nil {
				t.Fatalf("UpdateRelationship: %v", err)
			}
		}
		rel := m.Relationship("a", "b")
		if len(rel.Memories) != memoryCap {
			t.Fatalf("Memories length = %d, want %d", len(rel.Memories), memoryCap)
		}
		if rel.Memories[0] != "d" {
			t.Fatalf("oldest not evicted, got %q first", rel.Memories[0])
		}
	})

	t.Run("unknown dimension rejected without mutation", func(t *testing.T) {
		m := NewManager("s1")
		if _, err := m.UpdateRelationship("a", "b", map[string]float64{"charm": 1}, ""); !errors.Is(err, ErrUnknownDimension) {
			t.Fatalf("expected ErrUnknownDimension, got %v", err)
		}
		if m.Relationship("a", "b") != nil {
			t.Fatalf("failed update left a record behind")
		}
	})
}

func TestAddItem(t *testing.T) {
	t.Run("insert then increment", func(t *testing.T) {
		m := NewManager("s1")
		item, err := m.AddItem("rope", "Hemp Rope", 1, nil)
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if item.Quantity != 1 || item.Condition != "pristine" {
			t.Fatalf("unexpected item: %+v", item)
		}
		item, err = m.AddItem("rope", "Hemp Rope", 2, nil)
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if item.Quantity != 3 {
			t.Fatalf("Quantity = %d, want 3", item.Quantity)
		}
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		m := NewManager("s1")
		if _, err := m.AddItem("rope", "Hemp Rope", 0, nil); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
		if m.Item("rope") != nil {
			t.Fatalf("rejected item was stored")
		}
	})

	t.Run("use gated by item requirements", func(t *testing.T) {
		m := NewManager("s1")
		item, err := m.AddItem("diving_bell", "Diving Bell", 1, map[string]any{
			"requires": map[string]any{"location": "flooded_shaft"},
		})
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}

		dry := m.ContextualVariables()
		if actions := item.AvailableActions(dry); contains(actions, "use") {
			t.Fatalf("use offered while requirements unmet: %v", actions)
		}

		m.SetVariable("location", "flooded_shaft")
		wet := m.ContextualVariables()
		if actions := item.AvailableActions(wet); !contains(actions, "use") {
			t.Fatalf("use withheld while requirements met: %v", actions)
		}
	})

	t.Run("broken items cannot be used", func(t *testing.T) {
		m := NewManager("s1")
		item, err := m.AddItem("lantern", "Cracked Lantern", 1, map[string]any{"condition": "broken"})
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if actions := item.AvailableActions(m.ContextualVariables()); contains(actions, "use") {
			t.Fatalf("broken item offered use: %v", actions)
		}
	})
}

func TestUpdateEnvironment(t *testing.T) {
	t.Run("valid changes merge", func(t *testing.T) {
		m := NewManager("s1")
		env, err := m.UpdateEnvironment(map[string]any{"time_of_day": "night", "danger_level": 3})
		if err != nil {
			t.Fatalf("UpdateEnvironment: %v", err)
		}
		if env.TimeOfDay != "night" || env.DangerLevel != 3 || env.Weather != "clear" {
			t.Fatalf("unexpected environment: %+v", env)
		}
	})

	t.Run("invalid value rejects whole update", func(t *testing.T) {
		m := NewManager("s1")
		_, err := m.UpdateEnvironment(map[string]any{"time_of_day": "night", "danger_level": -1})
		if !errors.Is(err, ErrInvalidEnvironment) {
			t.Fatalf("expected ErrInvalidEnvironment, got %v", err)
		}
		if env := m.Environment(); env.TimeOfDay != "day" {
			t.Fatalf("rejected update mutated state: %+v", env)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		m := NewManager("s1")
		if _, err := m.UpdateEnvironment(map[string]any{"gravity": 2}); !errors.Is(err, ErrInvalidEnvironment) {
			t.Fatalf("expected ErrInvalidEnvironment, got %v", err)
		}
	})
}

func TestContextualVariables(t *testing.T) {
	m := NewManager("s1")
	m.SetVariable("name", "Adventurer")
	if _, err := m.UpdateEnvironment(map[string]any{"time_of_day": "dusk", "danger_level": 2}); err != nil {
		t.Fatalf("UpdateEnvironment: %v", err)
	}
	if _, err := m.UpdateRelationship("miner", "foreman", map[string]float64{"trust": 8}, ""); err != nil {
		t.Fatalf("UpdateRelationship: %v", err)
	}
	if _, err := m.AddItem("pickaxe", "Iron Pickaxe", 1, nil); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	snap := m.ContextualVariables()
	want := map[string]any{
		"name":        "Adventurer",
		"time_of_day": "dusk",
		"danger":      2,
		"has_pickaxe": true,
	}
	for k, v := range want {
		if snap[k] != v {
			t.Fatalf("snapshot[%q] = %v, want %v", k, snap[k], v)
		}
	}
	if snap["rel_foreman_miner_trust"] != 8.0 {
		t.Fatalf("relationship key missing or wrong: %v", snap["rel_foreman_miner_trust"])
	}

	t.Run("deterministic across calls", func(t *testing.T) {
		if !reflect.DeepEqual(m.ContextualVariables(), m.ContextualVariables()) {
			t.Fatalf("snapshots differ between calls")
		}
	})

	t.Run("explicit variable wins over derived key", func(t *testing.T) {
		m.SetVariable("danger", 9)
		if got := m.ContextualVariables()["danger"]; got != 9 {
			t.Fatalf("danger = %v, want explicit 9", got)
		}
	})

	t.Run("snapshot copy does not alias manager state", func(t *testing.T) {
		snap := m.ContextualVariables()
		snap["name"] = "Impostor"
		if m.GetVariable("name", "") != "Adventurer" {
			t.Fatalf("snapshot mutation reached manager")
		}
	})
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
