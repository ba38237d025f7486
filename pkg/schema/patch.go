package schema

import (
	"fmt"
	"sort"
)

// PatchError reports a contract violation in a patch request. Unknown
// override keys are fatal, not ignored: a caller that misspells
// "wall_thickness" should find out immediately.
type PatchError struct {
	Key string
	Msg string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %q: %s", e.Key, e.Msg)
}

// Patch returns a copy of s with the named EnclosureConfig fields
// replaced. The receiver is never mutated; concurrent readers of s
// stay safe. Patching with the same overrides twice is idempotent.
//
// Recognized keys: wall_thickness, clearance, material, split.
// Values: float64 (or int) for the numeric fields, string otherwise.
func Patch(s *Schema, overrides map[string]any) (*Schema, error) {
	out := s.clone()

	enc := s.EnclosureOrDefault()
	out.Enclosure = &enc

	// Deterministic application order for reproducible error reporting.
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := overrides[k]
		switch k {
		case "wall_thickness":
			f, err := toFloat(v)
			if err != nil {
				return nil, &PatchError{Key: k, Msg: err.Error()}
			}
			enc.WallThickness = f
		case "clearance":
			f, err := toFloat(v)
			if err != nil {
				return nil, &PatchError{Key: k, Msg: err.Error()}
			}
			enc.Clearance = f
		case "material":
			str, ok := v.(string)
			if !ok {
				return nil, &PatchError{Key: k, Msg: fmt.Sprintf("want string, got %T", v)}
			}
			enc.Material = str
		case "split":
			str, ok := v.(string)
			if !ok {
				return nil, &PatchError{Key: k, Msg: fmt.Sprintf("want string, got %T", v)}
			}
			enc.Split = SplitMode(str)
		default:
			return nil, &PatchError{Key: k, Msg: "unknown override key"}
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("want number, got %T", v)
	}
}

// clone deep-copies the schema value. Slices are copied so the new
// value shares no mutable state with the receiver.
func (s *Schema) clone() *Schema {
	out := *s
	out.PCB.MountHoles = append([]MountHole(nil), s.PCB.MountHoles...)
	out.PCB.Connectors = append([]Connector(nil), s.PCB.Connectors...)
	if s.Enclosure != nil {
		enc := *s.Enclosure
		out.Enclosure = &enc
	}
	return &out
}
