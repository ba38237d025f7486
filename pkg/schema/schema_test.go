package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func baseSchema() *Schema {
	return &Schema{
		SchemaVersion: Version,
		Project:       "widget",
		PCB: PCB{
			Outline: BoardOutline{Width: 80, Length: 60, Thickness: 1.6},
			MountHoles: []MountHole{
				{X: 5, Y: 5, Diameter: 3.2},
			},
			Connectors: []Connector{
				{
					Type:       "USB-C",
					Reference:  "J1",
					Position:   Position{X: 40, Y: 60, Z: 1.6},
					Dimensions: Dimensions{Width: 9, Height: 3.2, Depth: 7.5},
					Edge:       EdgeTop,
				},
			},
			MaxComponentHeight: ComponentHeight{Top: 12, Bottom: 2.5},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Schema)
		wantErr string // substring of the invariant error, "" for valid
	}{
		{"valid", func(s *Schema) {}, ""},
		{"missing version", func(s *Schema) { s.SchemaVersion = "" }, "schema_version"},
		{"malformed version", func(s *Schema) { s.SchemaVersion = "one" }, "schema_version"},
		{"missing project", func(s *Schema) { s.Project = "" }, "project"},
		{"zero width", func(s *Schema) { s.PCB.Outline.Width = 0 }, "outline.width"},
		{"negative length", func(s *Schema) { s.PCB.Outline.Length = -5 }, "outline.length"},
		{"zero thickness", func(s *Schema) { s.PCB.Outline.Thickness = 0 }, "outline.thickness"},
		{"absurd thickness", func(s *Schema) { s.PCB.Outline.Thickness = 12 }, "physical maximum"},
		{"zero hole diameter", func(s *Schema) { s.PCB.MountHoles[0].Diameter = 0 }, "diameter"},
		{"untyped connector", func(s *Schema) { s.PCB.Connectors[0].Type = "" }, "type"},
		{"bad edge", func(s *Schema) { s.PCB.Connectors[0].Edge = "north" }, "edge"},
		{"flat connector", func(s *Schema) { s.PCB.Connectors[0].Dimensions.Height = 0 }, "dimensions"},
		{"negative top height", func(s *Schema) { s.PCB.MaxComponentHeight.Top = -1 }, "top"},
		{"zero wall", func(s *Schema) {
			e := DefaultEnclosure()
			e.WallThickness = 0
			s.Enclosure = &e
		}, "wall_thickness"},
		{"negative clearance", func(s *Schema) {
			e := DefaultEnclosure()
			e.Clearance = -0.5
			s.Enclosure = &e
		}, "clearance"},
		{"bad split", func(s *Schema) {
			e := DefaultEnclosure()
			e.Split = "diagonal"
			s.Enclosure = &e
		}, "split"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSchema()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRefusesForeignMajor(t *testing.T) {
	s := baseSchema()
	s.SchemaVersion = "2.0"
	var verr *UnsupportedVersionError
	if err := s.Validate(); !errors.As(err, &verr) {
		t.Fatalf("Validate() = %v, want *UnsupportedVersionError", err)
	}
	// Minor bumps within the supported major remain readable.
	s.SchemaVersion = "1.7"
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate(1.7) = %v, want nil", err)
	}
}

func TestPatch(t *testing.T) {
	s := baseSchema()

	patched, err := Patch(s, map[string]any{
		"wall_thickness": 3.0,
		"material":       "PETG",
		"split":          "vertical",
	})
	if err != nil {
		t.Fatalf("Patch failed: %v", err)
	}

	if got := patched.Enclosure.WallThickness; got != 3.0 {
		t.Errorf("WallThickness = %g, want 3.0", got)
	}
	if got := patched.Enclosure.Material; got != "PETG" {
		t.Errorf("Material = %q, want PETG", got)
	}
	if got := patched.Enclosure.Split; got != SplitVertical {
		t.Errorf("Split = %q, want vertical", got)
	}
	// Untouched fields keep their defaults.
	if got := patched.Enclosure.Clearance; got != DefaultEnclosure().Clearance {
		t.Errorf("Clearance = %g, want default", got)
	}
	// The receiver is never mutated.
	if s.Enclosure != nil {
		t.Error("Patch mutated the input schema")
	}

	// Applying the same overrides again changes nothing.
	again, err := Patch(patched, map[string]any{
		"wall_thickness": 3.0,
		"material":       "PETG",
		"split":          "vertical",
	})
	if err != nil {
		t.Fatalf("second Patch failed: %v", err)
	}
	if !reflect.DeepEqual(again.Enclosure, patched.Enclosure) {
		t.Errorf("patch not idempotent: %+v vs %+v", again.Enclosure, patched.Enclosure)
	}
}

func TestPatchAcceptsIntegers(t *testing.T) {
	s := baseSchema()
	patched, err := Patch(s, map[string]any{"wall_thickness": 3})
	if err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	if patched.Enclosure.WallThickness != 3.0 {
		t.Errorf("WallThickness = %g, want 3.0", patched.Enclosure.WallThickness)
	}
}

func TestPatchRejections(t *testing.T) {
	s := baseSchema()

	if _, err := Patch(s, map[string]any{"wall": 3.0}); err == nil {
		t.Error("unknown key accepted")
	} else {
		var perr *PatchError
		if !errors.As(err, &perr) || perr.Key != "wall" {
			t.Errorf("error = %v, want *PatchError for key wall", err)
		}
	}

	if _, err := Patch(s, map[string]any{"material": 42}); err == nil {
		t.Error("non-string material accepted")
	}

	// Values pass type checks but violate an invariant: the patched
	// schema must be rejected, not handed out.
	if _, err := Patch(s, map[string]any{"wall_thickness": -1.0}); err == nil {
		t.Error("negative wall thickness accepted")
	}
	if _, err := Patch(s, map[string]any{"split": "diagonal"}); err == nil {
		t.Error("bogus split mode accepted")
	}
}

const sampleYAML = `schema_version: "1.0"
project: widget
pcb:
  outline:
    width: 80
    length: 60
    thickness: 1.6
  mount_holes:
    - {x: 5, y: 5, diameter: 3.2}
    - {x: 75, y: 55, diameter: 3.2}
  connectors:
    - type: USB-C
      reference: J1
      position: {x: 40, y: 60, z: 1.6}
      dimensions: {width: 9, height: 3.2, depth: 7.5}
      edge: top
  max_component_height:
    top: 12
    bottom: 2.5
enclosure:
  wall_thickness: 2.0
  clearance: 1.0
  material: PLA
  split: none
`

func TestDecode(t *testing.T) {
	s, err := Decode([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if s.Project != "widget" {
		t.Errorf("Project = %q, want widget", s.Project)
	}
	if len(s.PCB.MountHoles) != 2 || len(s.PCB.Connectors) != 1 {
		t.Fatalf("got %d holes, %d connectors", len(s.PCB.MountHoles), len(s.PCB.Connectors))
	}
	if s.PCB.Connectors[0].Edge != EdgeTop {
		t.Errorf("Edge = %q, want top", s.PCB.Connectors[0].Edge)
	}
	if s.Enclosure == nil || s.Enclosure.Split != SplitNone {
		t.Errorf("Enclosure = %+v, want split none", s.Enclosure)
	}
}

func TestDecodeDefaults(t *testing.T) {
	minimal := `schema_version: "1.0"
project: tiny
pcb:
  outline:
    width: 30
    length: 20
`
	s, err := Decode([]byte(minimal))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if s.PCB.Outline.Thickness != 1.6 {
		t.Errorf("Thickness = %g, want default 1.6", s.PCB.Outline.Thickness)
	}
	if s.Enclosure != nil {
		t.Errorf("Enclosure = %+v, want nil when absent", s.Enclosure)
	}
	if got := s.EnclosureOrDefault(); !reflect.DeepEqual(got, DefaultEnclosure()) {
		t.Errorf("EnclosureOrDefault() = %+v", got)
	}
}

func TestDecodeEdgeSpellings(t *testing.T) {
	doc := `schema_version: "1.0"
project: p
pcb:
  outline: {width: 10, length: 10}
  connectors:
    - type: USB-C
      dimensions: {width: 9, height: 3.2}
      edge: %s
`
	for _, tt := range []struct {
		spelling string
		want     Edge
	}{
		{"none", EdgeNone},
		{"null", EdgeNone},
		{"left", EdgeLeft},
	} {
		s, err := Decode([]byte(strings.Replace(doc, "%s", tt.spelling, 1)))
		if err != nil {
			t.Fatalf("Decode(edge: %s) failed: %v", tt.spelling, err)
		}
		if got := s.PCB.Connectors[0].Edge; got != tt.want {
			t.Errorf("edge %s decoded to %q, want %q", tt.spelling, got, tt.want)
		}
	}
}

func TestDecodeRefusesUnsupportedVersion(t *testing.T) {
	doc := strings.Replace(sampleYAML, `"1.0"`, `"2.0"`, 1)
	var verr *UnsupportedVersionError
	if _, err := Decode([]byte(doc)); !errors.As(err, &verr) {
		t.Fatalf("Decode = %v, want *UnsupportedVersionError", err)
	}
}

func TestDecodeErrorCarriesLine(t *testing.T) {
	_, err := Decode([]byte("schema_version: \"1.0\"\nproject: [unclosed"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("error type = %T, want *DecodeError", err)
	}
	if derr.Line == 0 {
		t.Errorf("DecodeError has no line: %v", derr)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig, err := Decode([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	out, err := Encode(orig)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	back, err := Decode(out)
	if err != nil {
		t.Fatalf("re-Decode failed: %v\n%s", err, out)
	}

	if back.Project != orig.Project || back.SchemaVersion != orig.SchemaVersion {
		t.Errorf("identity fields changed: %+v", back)
	}
	if !reflect.DeepEqual(back.PCB.Outline, orig.PCB.Outline) {
		t.Errorf("outline changed: %+v vs %+v", back.PCB.Outline, orig.PCB.Outline)
	}
	if len(back.PCB.MountHoles) != len(orig.PCB.MountHoles) {
		t.Fatalf("hole count changed: %d vs %d", len(back.PCB.MountHoles), len(orig.PCB.MountHoles))
	}
	for i := range orig.PCB.MountHoles {
		if !reflect.DeepEqual(back.PCB.MountHoles[i], orig.PCB.MountHoles[i]) {
			t.Errorf("hole %d changed: %+v vs %+v", i, back.PCB.MountHoles[i], orig.PCB.MountHoles[i])
		}
	}
	if !reflect.DeepEqual(back.PCB.Connectors[0], orig.PCB.Connectors[0]) {
		t.Errorf("connector changed: %+v vs %+v", back.PCB.Connectors[0], orig.PCB.Connectors[0])
	}
	if !reflect.DeepEqual(back.Enclosure, orig.Enclosure) {
		t.Errorf("enclosure changed: %+v vs %+v", back.Enclosure, orig.Enclosure)
	}
}

func TestUnknownKeysSurviveRoundTrip(t *testing.T) {
	doc := `schema_version: "1.0"
project: widget
vendor_notes: keep me
pcb:
  outline:
    width: 80
    length: 60
    thickness: 1.6
    panelization: 2x2
  max_component_height: {top: 12, bottom: 2.5}
`
	s, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	out, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for _, want := range []string{"vendor_notes", "keep me", "panelization", "2x2"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("encoded output lost %q:\n%s", want, out)
		}
	}
}
