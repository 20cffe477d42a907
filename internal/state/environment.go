package state

import (
	"errors"
	"fmt"
)

// ErrInvalidEnvironment marks an environment change outside a field's valid
// domain. Nothing is applied when it is returned.
var ErrInvalidEnvironment = errors.New("invalid environment value")

// Environment holds the ambient world conditions for a session.
type Environment struct {
	TimeOfDay   string
	Weather     string
	DangerLevel int
}

var (
	timesOfDay = map[string]bool{"dawn": true, "day": true, "dusk": true, "night": true}
	weathers   = map[string]bool{"clear": true, "rain": true, "fog": true, "storm": true}
)

func defaultEnvironment() Environment {
	return Environment{TimeOfDay: "day", Weather: "clear", DangerLevel: 0}
}

// MoodModifiers derives narrative tone hints from the current conditions.
func (e Environment) MoodModifiers() []string {
	var moods []string
	if e.TimeOfDay == "night" {
		moods = append(moods, "shadowed")
	}
	if e.Weather == "rain" || e.Weather == "storm" {
		moods = append(moods, "somber")
	}
	if e.DangerLevel >= 4 {
		moods = append(moods, "tense")
	}
	if len(moods) == 0 {
		moods = append(moods, "calm")
	}
	return moods
}

// Environment returns the session's current environment.
func (m *Manager) Environment() Environment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.environment
}

// UpdateEnvironment merges field changes after validating every one of them.
// A single out-of-domain value rejects the whole update so existing state is
// never half-applied.
func (m *Manager) UpdateEnvironment(changes map[string]any) (Environment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.environment
	for field, value := range changes {
		switch field {
		case "time_of_day":
			s, ok := value.(string)
			if !ok || !timesOfDay[s] {
				return m.environment, fmt.Errorf("time_of_day %v: %w", value, ErrInvalidEnvironment)
			}
			next.TimeOfDay = s
		case "weather":
			s, ok := value.(string)
			if !ok || !weathers[s] {
				return m.environment, fmt.Errorf("weather %v: %w", value, ErrInvalidEnvironment)
			}
			next.Weather = s
		case "danger_level":
			n, ok := toInt(value)
			if !ok || n < 0 {
				return m.environment, fmt.Errorf("danger_level %v: %w", value, ErrInvalidEnvironment)
			}
			next.DangerLevel = n
		default:
			return m.environment, fmt.Errorf("unknown field %q: %w", field, ErrInvalidEnvironment)
		}
	}

	m.environment = next
	return next, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
