package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// InvariantError reports a structural rule violated at construction
// or patch time. It is always fatal: no schema value carrying a
// violated invariant is ever handed downstream.
type InvariantError struct {
	Field string // dotted path to the offending field
	Msg   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("schema invariant: %s: %s", e.Field, e.Msg)
}

// UnsupportedVersionError reports a schema_version this code refuses
// to interpret. Unknown major versions are refused, never guessed at.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported schema version %q (supported major: %d)", e.Version, SupportedMajor)
}

// parseMajor extracts the major component of a semantic-version-like
// string ("1.0", "1.2.3").
func parseMajor(v string) (int, error) {
	head, _, _ := strings.Cut(v, ".")
	major, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, fmt.Errorf("malformed schema version %q", v)
	}
	return major, nil
}

// Validate checks every structural invariant eagerly. Constructing an
// invalid schema fails here rather than deferring to later use. The
// first violated invariant is returned; cross-field findings that are
// warnings by design (edge-crossing holes, unassigned connector
// edges) belong to the checker, not here.
func (s *Schema) Validate() error {
	if s.SchemaVersion == "" {
		return &InvariantError{Field: "schema_version", Msg: "missing"}
	}
	major, err := parseMajor(s.SchemaVersion)
	if err != nil {
		return &InvariantError{Field: "schema_version", Msg: err.Error()}
	}
	if major != SupportedMajor {
		return &UnsupportedVersionError{Version: s.SchemaVersion}
	}
	if s.Project == "" {
		return &InvariantError{Field: "project", Msg: "missing project identifier"}
	}

	o := s.PCB.Outline
	if o.Width <= 0 {
		return &InvariantError{Field: "pcb.outline.width", Msg: fmt.Sprintf("must be positive, got %g", o.Width)}
	}
	if o.Length <= 0 {
		return &InvariantError{Field: "pcb.outline.length", Msg: fmt.Sprintf("must be positive, got %g", o.Length)}
	}
	if o.Thickness <= 0 {
		return &InvariantError{Field: "pcb.outline.thickness", Msg: fmt.Sprintf("must be positive, got %g", o.Thickness)}
	}
	if o.Thickness > MaxBoardThickness {
		return &InvariantError{
			Field: "pcb.outline.thickness",
			Msg:   fmt.Sprintf("%gmm exceeds physical maximum %gmm", o.Thickness, MaxBoardThickness),
		}
	}

	for i, h := range s.PCB.MountHoles {
		if h.Diameter <= 0 {
			return &InvariantError{
				Field: fmt.Sprintf("pcb.mount_holes[%d].diameter", i),
				Msg:   fmt.Sprintf("must be positive, got %g", h.Diameter),
			}
		}
	}

	for i, c := range s.PCB.Connectors {
		if c.Type == "" {
			return &InvariantError{Field: fmt.Sprintf("pcb.connectors[%d].type", i), Msg: "missing type tag"}
		}
		if !c.Edge.Valid() {
			return &InvariantError{
				Field: fmt.Sprintf("pcb.connectors[%d].edge", i),
				Msg:   fmt.Sprintf("unrecognized edge %q", string(c.Edge)),
			}
		}
		if c.Dimensions.Width <= 0 || c.Dimensions.Height <= 0 {
			return &InvariantError{
				Field: fmt.Sprintf("pcb.connectors[%d].dimensions", i),
				Msg:   fmt.Sprintf("width and height must be positive, got %gx%g", c.Dimensions.Width, c.Dimensions.Height),
			}
		}
	}

	h := s.PCB.MaxComponentHeight
	if h.Top < 0 {
		return &InvariantError{Field: "pcb.max_component_height.top", Msg: fmt.Sprintf("must be non-negative, got %g", h.Top)}
	}
	if h.Bottom < 0 {
		return &InvariantError{Field: "pcb.max_component_height.bottom", Msg: fmt.Sprintf("must be non-negative, got %g", h.Bottom)}
	}

	if s.Enclosure != nil {
		e := s.Enclosure
		if e.WallThickness <= 0 {
			return &InvariantError{Field: "enclosure.wall_thickness", Msg: fmt.Sprintf("must be positive, got %g", e.WallThickness)}
		}
		if e.Clearance < 0 {
			return &InvariantError{Field: "enclosure.clearance", Msg: fmt.Sprintf("must be non-negative, got %g", e.Clearance)}
		}
		if !e.Split.Valid() {
			return &InvariantError{Field: "enclosure.split", Msg: fmt.Sprintf("unrecognized split mode %q", string(e.Split))}
		}
	}

	return nil
}
