// Package schema defines the unified intermediate representation
// connecting decoded board facts to enclosure parameters. A Schema is
// immutable value data once constructed: the only sanctioned mutation
// is Patch, which returns a new value.
package schema

import "gopkg.in/yaml.v3"

// Version is the schema version written by this code.
const Version = "1.0"

// SupportedMajor is the only major version this code accepts.
const SupportedMajor = 1

// MaxBoardThickness is the sanity ceiling for board thickness in mm.
// Anything above it is rejected at construction, never clamped.
const MaxBoardThickness = 10.0

// Edge names the outline edge a connector opens toward. The zero
// value means the connector is internal and gets no case opening.
//
// Coordinates are board-local with the origin at the bottom-left
// corner and Y pointing up: EdgeTop is the y=length side.
type Edge string

const (
	EdgeNone   Edge = ""
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// Valid reports whether e is a recognized edge value.
func (e Edge) Valid() bool {
	switch e {
	case EdgeNone, EdgeTop, EdgeBottom, EdgeLeft, EdgeRight:
		return true
	}
	return false
}

// SplitMode selects how the enclosure divides into mating solids.
type SplitMode string

const (
	SplitNone       SplitMode = "none"
	SplitHorizontal SplitMode = "horizontal"
	SplitVertical   SplitMode = "vertical"
)

func (m SplitMode) Valid() bool {
	switch m {
	case SplitNone, SplitHorizontal, SplitVertical:
		return true
	}
	return false
}

// BoardOutline is the board's rectangular footprint, millimeters.
type BoardOutline struct {
	Width     float64
	Length    float64
	Thickness float64

	Extra extraFields
}

// MountHole is a through-hole suitable for a screw or standoff,
// positioned in board-local coordinates.
type MountHole struct {
	X        float64
	Y        float64
	Diameter float64

	Extra extraFields
}

// Position is a 3-D point in board-local coordinates.
type Position struct {
	X float64
	Y float64
	Z float64

	Extra extraFields
}

// Dimensions is a connector's body envelope. Depth is optional; zero
// means unknown and strategies fall back to a default.
type Dimensions struct {
	Width  float64
	Height float64
	Depth  float64

	Extra extraFields
}

// Connector describes one externally-reachable connector. Type is an
// open string tag: new connector families appear over time, and
// downstream opening strategies key off the tag with a generic
// rectangular fallback.
type Connector struct {
	Type       string
	Reference  string
	Position   Position
	Dimensions Dimensions
	Edge       Edge

	Extra extraFields
}

// ComponentHeight bounds component heights above and below the board
// plane.
type ComponentHeight struct {
	Top    float64
	Bottom float64

	Extra extraFields
}

// PCB aggregates the facts decoded from one board design.
type PCB struct {
	Outline            BoardOutline
	MountHoles         []MountHole
	Connectors         []Connector
	MaxComponentHeight ComponentHeight

	Extra extraFields
}

// EnclosureConfig is the case design policy. Defaults are policy, not
// invariants, and every field can be overridden per invocation via
// Patch.
type EnclosureConfig struct {
	WallThickness float64
	Clearance     float64
	Material      string
	Split         SplitMode

	Extra extraFields
}

// DefaultEnclosure returns the default case policy.
func DefaultEnclosure() EnclosureConfig {
	return EnclosureConfig{
		WallThickness: 2.0,
		Clearance:     1.0,
		Material:      "PLA",
		Split:         SplitHorizontal,
	}
}

// Schema is the versioned root aggregate.
type Schema struct {
	SchemaVersion string
	Project       string
	PCB           PCB
	Enclosure     *EnclosureConfig

	Extra extraFields
}

// EnclosureOrDefault returns the configured enclosure policy, or the
// defaults when the schema carries none.
func (s *Schema) EnclosureOrDefault() EnclosureConfig {
	if s.Enclosure != nil {
		return *s.Enclosure
	}
	return DefaultEnclosure()
}

// extraFields preserves unrecognized mapping keys through a
// decode/encode round trip, in their original order.
type extraFields []extraField

type extraField struct {
	Key   string
	Value *yaml.Node
}
