package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeError reports malformed exchange-format text. Line is 1-based
// when the underlying reader could attribute one, 0 otherwise.
type DecodeError struct {
	Line int
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("schema decode: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("schema decode: %s", e.Msg)
}

// Decode parses exchange-format text into a validated Schema.
// Unknown keys at any level are preserved for re-encoding. An unknown
// major version or violated invariant is fatal.
func Decode(text []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(text, &s); err != nil {
		return nil, yamlDecodeError(err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Encode renders a schema to exchange-format text. Field order
// normalizes; preserved unknown keys are appended after the
// recognized ones at each level.
func Encode(s *Schema) ([]byte, error) {
	return yaml.Marshal(s)
}

var yamlLinePattern = regexp.MustCompile(`line (\d+):\s*(.*)`)

// yamlDecodeError extracts line information from a yaml error message
// so callers get a location without parsing error text themselves.
func yamlDecodeError(err error) *DecodeError {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &DecodeError{Line: line, Msg: strings.TrimSpace(m[2])}
	}
	return &DecodeError{Msg: msg}
}

// ---------------------------------------------------------------------------
// Mapping plumbing
// ---------------------------------------------------------------------------

// decodeMapping decodes the known keys of a mapping node into the
// supplied destinations and returns the unrecognized pairs verbatim.
func decodeMapping(n *yaml.Node, known map[string]any) (extraFields, error) {
	if n.Kind != yaml.MappingNode {
		return nil, &DecodeError{Line: n.Line, Msg: "expected a mapping"}
	}
	var extra extraFields
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		dst, ok := known[key.Value]
		if !ok {
			extra = append(extra, extraField{Key: key.Value, Value: val})
			continue
		}
		if err := val.Decode(dst); err != nil {
			return nil, yamlDecodeError(err)
		}
	}
	return extra, nil
}

type mapKV struct {
	key string
	val any
}

// encodeMapping builds a mapping node from ordered key/value pairs
// followed by any preserved unknown fields. Pairs with a nil value
// are omitted.
func encodeMapping(pairs []mapKV, extra extraFields) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range pairs {
		if p.val == nil {
			continue
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.key}
		val := &yaml.Node{}
		if err := val.Encode(p.val); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, key, val)
	}
	for _, x := range extra {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x.Key}
		n.Content = append(n.Content, key, x.Value)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Per-type YAML hooks
// ---------------------------------------------------------------------------

func (s *Schema) UnmarshalYAML(n *yaml.Node) error {
	extra, err := decodeMapping(n, map[string]any{
		"schema_version": &s.SchemaVersion,
		"project":        &s.Project,
		"pcb":            &s.PCB,
		"enclosure":      &s.Enclosure,
	})
	s.Extra = extra
	return err
}

func (s Schema) MarshalYAML() (any, error) {
	pairs := []mapKV{
		{"schema_version", s.SchemaVersion},
		{"project", s.Project},
		{"pcb", s.PCB},
	}
	if s.Enclosure != nil {
		pairs = append(pairs, mapKV{"enclosure", *s.Enclosure})
	}
	return encodeMapping(pairs, s.Extra)
}

func (p *PCB) UnmarshalYAML(n *yaml.Node) error {
	extra, err := decodeMapping(n, map[string]any{
		"outline":              &p.Outline,
		"mount_holes":          &p.MountHoles,
		"connectors":           &p.Connectors,
		"max_component_height": &p.MaxComponentHeight,
	})
	p.Extra = extra
	return err
}

func (p PCB) MarshalYAML() (any, error) {
	pairs := []mapKV{
		{"outline", p.Outline},
	}
	if len(p.MountHoles) > 0 {
		pairs = append(pairs, mapKV{"mount_holes", p.MountHoles})
	}
	if len(p.Connectors) > 0 {
		pairs = append(pairs, mapKV{"connectors", p.Connectors})
	}
	pairs = append(pairs, mapKV{"max_component_height", p.MaxComponentHeight})
	return encodeMapping(pairs, p.Extra)
}

func (o *BoardOutline) UnmarshalYAML(n *yaml.Node) error {
	o.Thickness = 1.6 // documented default when the key is absent
	extra, err := decodeMapping(n, map[string]any{
		"width":     &o.Width,
		"length":    &o.Length,
		"thickness": &o.Thickness,
	})
	o.Extra = extra
	return err
}

func (o BoardOutline) MarshalYAML() (any, error) {
	return encodeMapping([]mapKV{
		{"width", o.Width},
		{"length", o.Length},
		{"thickness", o.Thickness},
	}, o.Extra)
}

func (h *MountHole) UnmarshalYAML(n *yaml.Node) error {
	extra, err := decodeMapping(n, map[string]any{
		"x":        &h.X,
		"y":        &h.Y,
		"diameter": &h.Diameter,
	})
	h.Extra = extra
	return err
}

func (h MountHole) MarshalYAML() (any, error) {
	return encodeMapping([]mapKV{
		{"x", h.X},
		{"y", h.Y},
		{"diameter", h.Diameter},
	}, h.Extra)
}

func (p *Position) UnmarshalYAML(n *yaml.Node) error {
	extra, err := decodeMapping(n, map[string]any{
		"x": &p.X,
		"y": &p.Y,
		"z": &p.Z,
	})
	p.Extra = extra
	return err
}

func (p Position) MarshalYAML() (any, error) {
	return encodeMapping([]mapKV{
		{"x", p.X},
		{"y", p.Y},
		{"z", p.Z},
	}, p.Extra)
}

func (d *Dimensions) UnmarshalYAML(n *yaml.Node) error {
	extra, err := decodeMapping(n, map[string]any{
		"width":  &d.Width,
		"height": &d.Height,
		"depth":  &d.Depth,
	})
	d.Extra = extra
	return err
}

func (d Dimensions) MarshalYAML() (any, error) {
	pairs := []mapKV{
		{"width", d.Width},
		{"height", d.Height},
	}
	if d.Depth != 0 {
		pairs = append(pairs, mapKV{"depth", d.Depth})
	}
	return encodeMapping(pairs, d.Extra)
}

func (c *Connector) UnmarshalYAML(n *yaml.Node) error {
	extra, err := decodeMapping(n, map[string]any{
		"type":       &c.Type,
		"reference":  &c.Reference,
		"position":   &c.Position,
		"dimensions": &c.Dimensions,
		"edge":       &c.Edge,
	})
	c.Extra = extra
	return err
}

func (c Connector) MarshalYAML() (any, error) {
	return encodeMapping([]mapKV{
		{"type", c.Type},
		{"reference", c.Reference},
		{"position", c.Position},
		{"dimensions", c.Dimensions},
		{"edge", c.Edge},
	}, c.Extra)
}

func (h *ComponentHeight) UnmarshalYAML(n *yaml.Node) error {
	extra, err := decodeMapping(n, map[string]any{
		"top":    &h.Top,
		"bottom": &h.Bottom,
	})
	h.Extra = extra
	return err
}

func (h ComponentHeight) MarshalYAML() (any, error) {
	return encodeMapping([]mapKV{
		{"top", h.Top},
		{"bottom", h.Bottom},
	}, h.Extra)
}

func (e *EnclosureConfig) UnmarshalYAML(n *yaml.Node) error {
	// Missing optional keys take the documented defaults.
	*e = DefaultEnclosure()
	var split string
	extra, err := decodeMapping(n, map[string]any{
		"wall_thickness": &e.WallThickness,
		"clearance":      &e.Clearance,
		"material":       &e.Material,
		"split":          &split,
	})
	if err != nil {
		return err
	}
	if split != "" {
		e.Split = SplitMode(split)
	}
	e.Extra = extra
	return nil
}

func (e EnclosureConfig) MarshalYAML() (any, error) {
	return encodeMapping([]mapKV{
		{"wall_thickness", e.WallThickness},
		{"clearance", e.Clearance},
		{"material", e.Material},
		{"split", string(e.Split)},
	}, e.Extra)
}

// Edge serializes "none" for the internal (zero) assignment so the
// emitted document is explicit about the design decision.
func (e *Edge) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!null" {
		*e = EdgeNone
		return nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return yamlDecodeError(err)
	}
	if s == "none" {
		s = ""
	}
	*e = Edge(s)
	return nil
}

func (e Edge) MarshalYAML() (any, error) {
	if e == EdgeNone {
		return "none", nil
	}
	return string(e), nil
}
