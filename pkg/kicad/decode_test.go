package kicad

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/fission/pkg/schema"
)

const fixtureBoard = `(kicad_pcb
  (version 20221018)
  (generator pcbnew)
  (general (thickness 1.6))
  (gr_line (start 100 100) (end 180 100) (layer "Edge.Cuts") (width 0.1))
  (gr_line (start 180 100) (end 180 160) (layer "Edge.Cuts") (width 0.1))
  (gr_line (start 180 160) (end 100 160) (layer "Edge.Cuts") (width 0.1))
  (gr_line (start 100 160) (end 100 100) (layer "Edge.Cuts") (width 0.1))
  (footprint "MountingHole:MountingHole_3.2mm_M3" (layer "F.Cu")
    (at 105 155)
    (pad "" np_thru_hole circle (at 0 0) (size 3.2 3.2) (drill 3.2) (layers "*.Cu" "*.Mask")))
  (footprint "Connector_USB:USB_C_Receptacle_GCT_USB4085" (layer "F.Cu")
    (at 140 100)
    (property "Reference" "J1")
    (pad "A1" smd rect (at 0 0) (size 0.6 1.4) (layers "F.Cu")))
  (footprint "Connector_PinHeader_2.54mm:PinHeader_1x04_P2.54mm_Vertical" (layer "F.Cu")
    (at 140 130)
    (property "Reference" "J2")))`

func TestDecodeBoard(t *testing.T) {
	s, warnings, err := Decode(fixtureBoard, "widget")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if s.Project != "widget" {
		t.Errorf("Project = %q, want widget", s.Project)
	}
	o := s.PCB.Outline
	if o.Width != 80 || o.Length != 60 || o.Thickness != 1.6 {
		t.Errorf("outline = %gx%gx%g, want 80x60x1.6", o.Width, o.Length, o.Thickness)
	}

	if len(s.PCB.MountHoles) != 1 {
		t.Fatalf("got %d mount holes, want 1", len(s.PCB.MountHoles))
	}
	h := s.PCB.MountHoles[0]
	if h.X != 5 || h.Y != 5 || h.Diameter != 3.2 {
		t.Errorf("hole = %+v, want (5, 5) d3.2", h)
	}

	if len(s.PCB.Connectors) != 2 {
		t.Fatalf("got %d connectors, want 2", len(s.PCB.Connectors))
	}
	usb := s.PCB.Connectors[0]
	if usb.Type != "USB-C" || usb.Reference != "J1" {
		t.Errorf("connector 0 = %s/%s, want USB-C/J1", usb.Type, usb.Reference)
	}
	// Raw (140, 100) on an outline spanning (100,100)-(180,160)
	// lands at board-local (40, 60): file Y points down, local Y up.
	if usb.Position.X != 40 || usb.Position.Y != 60 {
		t.Errorf("connector 0 at (%g, %g), want (40, 60)", usb.Position.X, usb.Position.Y)
	}
	if usb.Position.Z != 1.6 {
		t.Errorf("connector 0 z = %g, want board thickness for a front-side part", usb.Position.Z)
	}
	if usb.Edge != schema.EdgeTop {
		t.Errorf("connector 0 edge = %q, want top", usb.Edge)
	}
	if usb.Dimensions.Width != 9.0 || usb.Dimensions.Height != 3.2 || usb.Dimensions.Depth != 7.5 {
		t.Errorf("connector 0 dimensions = %+v, want USB-C defaults", usb.Dimensions)
	}

	header := s.PCB.Connectors[1]
	if header.Type != "Pin-Header" || header.Edge != schema.EdgeNone {
		t.Errorf("connector 1 = %s edge %q, want Pin-Header with no edge", header.Type, header.Edge)
	}

	// The interior pin header produces exactly one warning.
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
	}
	if warnings[0].Ref != "J2" || !strings.Contains(warnings[0].Msg, "not near any board edge") {
		t.Errorf("warning = %v", warnings[0])
	}

	hts := s.PCB.MaxComponentHeight
	if hts.Top != defaultTopComponentHeight || hts.Bottom != 0 {
		t.Errorf("component heights = %+v, want top-only defaults", hts)
	}
}

func TestDecodeSkipsUndrilledHole(t *testing.T) {
	src := `(kicad_pcb
  (version 20221018)
  (gr_rect (start 0 0) (end 50 40) (layer "Edge.Cuts"))
  (footprint "MountingHole:MountingHole_Pad" (layer "F.Cu")
    (at 10 10)
    (pad "1" smd circle (at 0 0) (size 3.2 3.2) (layers "F.Cu"))))`
	s, warnings, err := Decode(src, "p")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(s.PCB.MountHoles) != 0 {
		t.Errorf("undrilled hole decoded: %+v", s.PCB.MountHoles)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Msg, "no drilled pad") {
		t.Errorf("warnings = %v, want one about the missing drill", warnings)
	}
}

func TestDecodeRejectsOldVersion(t *testing.T) {
	src := `(kicad_pcb (version 20171129))`
	_, _, err := Decode(src, "p")
	var verr *UnsupportedVersionError
	if !errors.As(err, &verr) {
		t.Fatalf("Decode = %v, want *UnsupportedVersionError", err)
	}
	if verr.Version != 20171129 {
		t.Errorf("Version = %d, want 20171129", verr.Version)
	}
}

func TestDecodeRejectsNonBoard(t *testing.T) {
	_, _, err := Decode(`(kicad_sch (version 20221018))`, "p")
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Decode = %v, want *DecodeError", err)
	}
}

func TestDecodeRequiresOutline(t *testing.T) {
	_, _, err := Decode(`(kicad_pcb (version 20221018) (general (thickness 1.6)))`, "p")
	if err == nil || !strings.Contains(err.Error(), "outline") {
		t.Fatalf("Decode = %v, want missing-outline error", err)
	}
}

func TestDecodeLegacyFormat(t *testing.T) {
	// KiCad 5 era: footprints are (module ...) and the reference
	// lives in an fp_text node. The adapter chain lifts both.
	src := `(kicad_pcb
  (version 20171130)
  (gr_line (start 0 0) (end 50 0) (layer "Edge.Cuts"))
  (gr_line (start 50 0) (end 50 40) (layer "Edge.Cuts"))
  (gr_line (start 50 40) (end 0 40) (layer "Edge.Cuts"))
  (gr_line (start 0 40) (end 0 0) (layer "Edge.Cuts"))
  (module "Connector_USB:USB_C_Receptacle" (layer "F.Cu")
    (at 25 0)
    (fp_text reference "J9" (at 0 0) (layer "F.SilkS"))))`
	s, _, err := Decode(src, "legacy")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(s.PCB.Connectors) != 1 {
		t.Fatalf("got %d connectors, want 1", len(s.PCB.Connectors))
	}
	c := s.PCB.Connectors[0]
	if c.Reference != "J9" {
		t.Errorf("Reference = %q, want J9 lifted from fp_text", c.Reference)
	}
	if c.Edge != schema.EdgeTop {
		t.Errorf("Edge = %q, want top", c.Edge)
	}
}

func TestEstimateEdge(t *testing.T) {
	outline := schema.BoardOutline{Width: 80, Length: 60}
	tests := []struct {
		name string
		x, y float64
		want schema.Edge
	}{
		{"on top edge", 40, 60, schema.EdgeTop},
		{"near top edge", 40, 58, schema.EdgeTop},
		{"on bottom edge", 40, 0, schema.EdgeBottom},
		{"near left edge", 1.5, 30, schema.EdgeLeft},
		{"on right edge", 80, 30, schema.EdgeRight},
		{"interior", 40, 30, schema.EdgeNone},
		{"just past margin", 40, 55, schema.EdgeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateEdge(tt.x, tt.y, outline); got != tt.want {
				t.Errorf("estimateEdge(%g, %g) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestGuessConnectorType(t *testing.T) {
	tests := []struct {
		fpName string
		want   string
		ok     bool
	}{
		{"Connector_USB:USB_C_Receptacle_GCT_USB4085", "USB-C", true},
		{"Connector_USB:USB_Micro-B_Molex-105017-0001", "USB-Micro", true},
		{"Connector_RJ:RJ45_Amphenol_RJHSE538X", "RJ45", true},
		{"Connector_BarrelJack:BarrelJack_Horizontal", "DC-Jack", true},
		{"Connector_JST:JST_XH_B2B-XH-A_1x02", "JST", true},
		{"Connector_Misc:Some_Odd_Connector_Thing", "Unknown", true},
		{"Package_SO:SOIC-8_3.9x4.9mm_P1.27mm", "", false},
		{"Capacitor_SMD:C_0603_1608Metric", "", false},
	}
	for _, tt := range tests {
		got, ok := guessConnectorType(tt.fpName)
		if got != tt.want || ok != tt.ok {
			t.Errorf("guessConnectorType(%q) = %q, %v; want %q, %v", tt.fpName, got, ok, tt.want, tt.ok)
		}
	}
}
