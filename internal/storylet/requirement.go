package storylet

import (
	"fmt"
	"sort"
	"strings"
)

// Op is a requirement comparison operator. The set is closed: equality plus
// the two inclusive thresholds. There is no OR; all requirements on a
// storylet are conjunctive.
type Op string

const (
	OpEquals  Op = "=="
	OpAtLeast Op = ">="
	OpAtMost  Op = "<="
)

// LocationKey is the requirement key that doubles as the spatial placement
// anchor for coordinate assignment.
const LocationKey = "location"

// Requirement is one parsed condition against a snapshot key.
type Requirement struct {
	Key   string
	Op    Op
	Value any
}

// Requirements is the parsed form of a storylet's requirement mapping. An
// empty set is always satisfied.
type Requirements []Requirement

// ParseRequirements converts a raw requirement mapping into its parsed form.
// Accepted shapes, per key:
//
//	"key": value                         equality
//	"key": {"op": ">=", "value": n}      threshold
//	"key_min": n                         shorthand for key >= n
//	"key_max": n                         shorthand for key <= n
//
// Unknown operator strings are a load-time error rather than a silent false
// at evaluation time. Keys are sorted so the parsed order is deterministic.
func ParseRequirements(raw map[string]any) (Requirements, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	reqs := make(Requirements, 0, len(keys))
	for _, key := range keys {
		req, err := parseOne(key, raw[key])
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func parseOne(key string, value any) (Requirement, error) {
	if obj, ok := value.(map[string]any); ok {
		if _, hasOp := obj["op"]; hasOp {
			return parseStructured(key, obj)
		}
		return Requirement{}, fmt.Errorf("requirement %q: object form needs an \"op\" field", key)
	}

	if base, ok := strings.CutSuffix(key, "_min"); ok && base != "" {
		if _, isNum := toFloat(value); !isNum {
			return Requirement{}, fmt.Errorf("requirement %q: threshold value must be numeric, got %T", key, value)
		}
		return Requirement{Key: base, Op: OpAtLeast, Value: value}, nil
	}
	if base, ok := strings.CutSuffix(key, "_max"); ok && base != "" {
		if _, isNum := toFloat(value); !isNum {
			return Requirement{}, fmt.Errorf("requirement %q: threshold value must be numeric, got %T", key, value)
		}
		return Requirement{Key: base, Op: OpAtMost, Value: value}, nil
	}

	return Requirement{Key: key, Op: OpEquals, Value: value}, nil
}

func parseStructured(key string, obj map[string]any) (Requirement, error) {
	opRaw, _ := obj["op"].(string)
	op := Op(opRaw)
	switch op {
	case OpEquals, OpAtLeast, OpAtMost:
	default:
		return Requirement{}, fmt.Errorf("requirement %q: unsupported operator %q", key, opRaw)
	}

	value, ok := obj["value"]
	if !ok {
		return Requirement{}, fmt.Errorf("requirement %q: missing \"value\"", key)
	}
	if op != OpEquals {
		if _, isNum := toFloat(value); !isNum {
			return Requirement{}, fmt.Errorf("requirement %q: threshold value must be numeric, got %T", key, value)
		}
	}
	return Requirement{Key: key, Op: op, Value: value}, nil
}

// Evaluate reports whether every requirement holds against the snapshot. It
// is a pure function of its inputs: a missing snapshot key or a type mismatch
// makes the storylet ineligible, never an error.
func (rs Requirements) Evaluate(snapshot map[string]any) bool {
	for _, req := range rs {
		actual, ok := snapshot[req.Key]
		if !ok {
			return false
		}
		if !req.holds(actual) {
			return false
		}
	}
	return true
}

func (req Requirement) holds(actual any) bool {
	switch req.Op {
	case OpAtLeast, OpAtMost:
		a, aok := toFloat(actual)
		b, bok := toFloat(req.Value)
		if !aok || !bok {
			return false
		}
		if req.Op == OpAtLeast {
			return a >= b
		}
		return a <= b
	default:
		return valuesEqual(actual, req.Value)
	}
}

// Location returns the value of the location anchor requirement, if present.
func (rs Requirements) Location() (string, bool) {
	for _, req := range rs {
		if req.Key == LocationKey && req.Op == OpEquals {
			if loc, ok := req.Value.(string); ok {
				return loc, true
			}
		}
	}
	return "", false
}

// ToMap renders the requirements back into their canonical raw mapping for
// persistence. Thresholds always serialize in the structured object form.
func (rs Requirements) ToMap() map[string]any {
	if len(rs) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(rs))
	for _, req := range rs {
		if req.Op == OpEquals {
			out[req.Key] = req.Value
			continue
		}
		out[req.Key] = map[string]any{"op": string(req.Op), "value": req.Value}
	}
	return out
}

func valuesEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

// toFloat widens any numeric type to float64. JSON round-trips hand us
// float64, the seeder hands us int.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
