package check

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/chazu/fission/pkg/kernel"
	"github.com/chazu/fission/pkg/schema"
)

// boxSolid and boxKernel approximate every geometry operation on
// bounding boxes, so level orchestration tests run in microseconds.
type boxSolid struct {
	min, max [3]float64
}

func (s boxSolid) BoundingBox() (min, max [3]float64) { return s.min, s.max }

type boxKernel struct{}

func asBox(s kernel.Solid) boxSolid {
	min, max := s.BoundingBox()
	return boxSolid{min: min, max: max}
}

func (k *boxKernel) Box(x, y, z float64) kernel.Solid {
	return boxSolid{min: [3]float64{-x / 2, -y / 2, -z / 2}, max: [3]float64{x / 2, y / 2, z / 2}}
}

func (k *boxKernel) Cylinder(height, radius float64, _ int) kernel.Solid {
	return boxSolid{
		min: [3]float64{-radius, -radius, -height / 2},
		max: [3]float64{radius, radius, height / 2},
	}
}

func (k *boxKernel) Union(a, b kernel.Solid) kernel.Solid {
	out, other := asBox(a), asBox(b)
	for i := 0; i < 3; i++ {
		out.min[i] = math.Min(out.min[i], other.min[i])
		out.max[i] = math.Max(out.max[i], other.max[i])
	}
	return out
}

func (k *boxKernel) Difference(a, _ kernel.Solid) kernel.Solid { return asBox(a) }

func (k *boxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	out, other := asBox(a), asBox(b)
	for i := 0; i < 3; i++ {
		out.min[i] = math.Max(out.min[i], other.min[i])
		out.max[i] = math.Min(out.max[i], other.max[i])
	}
	return out
}

func (k *boxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	out := asBox(s)
	d := [3]float64{x, y, z}
	for i := 0; i < 3; i++ {
		out.min[i] += d[i]
		out.max[i] += d[i]
	}
	return out
}

func (k *boxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	min, max := s.BoundingBox()
	lo := [3]float32{float32(min[0]), float32(min[1]), float32(min[2])}
	hi := [3]float32{float32(max[0]), float32(max[1]), float32(max[2])}
	return &kernel.Mesh{
		Vertices: []float32{
			lo[0], lo[1], lo[2],
			hi[0], lo[1], lo[2],
			hi[0], hi[1], lo[2],
			lo[0], hi[1], lo[2],
			lo[0], lo[1], hi[2],
			hi[0], lo[1], hi[2],
			hi[0], hi[1], hi[2],
			lo[0], hi[1], hi[2],
		},
		Indices: []uint32{
			0, 2, 1, 0, 3, 2,
			4, 5, 6, 4, 6, 7,
			0, 1, 5, 0, 5, 4,
			2, 3, 7, 2, 7, 6,
			0, 4, 7, 0, 7, 3,
			1, 2, 6, 1, 6, 5,
		},
	}, nil
}

func goodSchema() *schema.Schema {
	enc := schema.DefaultEnclosure()
	enc.Split = schema.SplitNone
	return &schema.Schema{
		SchemaVersion: schema.Version,
		Project:       "widget",
		PCB: schema.PCB{
			Outline: schema.BoardOutline{Width: 80, Length: 60, Thickness: 1.6},
			MountHoles: []schema.MountHole{
				{X: 5, Y: 5, Diameter: 3.2},
				{X: 75, Y: 55, Diameter: 3.2},
			},
			Connectors: []schema.Connector{
				{
					Type:       "USB-C",
					Reference:  "J1",
					Position:   schema.Position{X: 40, Y: 60, Z: 1.6},
					Dimensions: schema.Dimensions{Width: 9, Height: 3.2, Depth: 7.5},
					Edge:       schema.EdgeTop,
				},
			},
			MaxComponentHeight: schema.ComponentHeight{Top: 12, Bottom: 2.5},
		},
		Enclosure: &enc,
	}
}

func TestCheckCleanDesign(t *testing.T) {
	r, err := Check(context.Background(), &boxKernel{}, goodSchema(), LevelMesh)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	for _, f := range r.Findings {
		if f.Severity == SeverityFatal {
			t.Errorf("unexpected fatal finding: %v", f)
		}
	}
	for _, level := range []Level{LevelSchema, LevelGeometry, LevelMesh} {
		if got := r.LevelOutcome(level); got != SeverityPass {
			t.Errorf("LevelOutcome(%s) = %q, want pass", level, got)
		}
	}
}

func TestCheckStopsAtRequestedLevel(t *testing.T) {
	r, err := Check(context.Background(), &boxKernel{}, goodSchema(), LevelSchema)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	for _, f := range r.Findings {
		if f.Level != LevelSchema {
			t.Errorf("finding beyond requested level: %v", f)
		}
	}
	// Levels that never ran are absent, not skipped.
	if got := r.LevelOutcome(LevelGeometry); got != "" {
		t.Errorf("LevelOutcome(geometry) = %q, want absent", got)
	}
}

func TestCheckSchemaFatalBlocksDeeperLevels(t *testing.T) {
	s := goodSchema()
	// Declare the connector on the far edge: 60mm short of it.
	s.PCB.Connectors[0].Edge = schema.EdgeBottom

	r, err := Check(context.Background(), &boxKernel{}, s, LevelMesh)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if !r.HasFatal(LevelSchema) {
		t.Fatal("expected a fatal schema finding for the bogus edge declaration")
	}
	var found bool
	for _, f := range r.Findings {
		if f.Level == LevelSchema && f.Severity == SeverityFatal && f.Ref == "J1" {
			found = true
			if !strings.Contains(f.Message, "bottom") {
				t.Errorf("fatal finding does not name the declared edge: %v", f)
			}
		}
		if (f.Level == LevelGeometry || f.Level == LevelMesh) && f.Severity != SeveritySkipped {
			t.Errorf("deeper level ran despite schema fatal: %v", f)
		}
	}
	if !found {
		t.Error("no fatal finding names connector J1")
	}
	if got := r.LevelOutcome(LevelGeometry); got != SeveritySkipped {
		t.Errorf("LevelOutcome(geometry) = %q, want skipped", got)
	}
	if got := r.LevelOutcome(LevelMesh); got != SeveritySkipped {
		t.Errorf("LevelOutcome(mesh) = %q, want skipped", got)
	}
}

func TestCheckGeometryFatalBlocksMesh(t *testing.T) {
	s := goodSchema()
	// Passes every schema-level check but refuses synthesis.
	s.PCB.MaxComponentHeight.Top = 500

	r, err := Check(context.Background(), &boxKernel{}, s, LevelMesh)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if r.HasFatal(LevelSchema) {
		t.Fatal("schema level should pass; the refusal belongs to geometry")
	}
	if !r.HasFatal(LevelGeometry) {
		t.Fatal("expected a fatal geometry finding for the oversized cavity")
	}
	if got := r.LevelOutcome(LevelMesh); got != SeveritySkipped {
		t.Errorf("LevelOutcome(mesh) = %q, want skipped", got)
	}
}

func TestCheckUnknownLevel(t *testing.T) {
	if _, err := Check(context.Background(), &boxKernel{}, goodSchema(), Level("thorough")); err == nil {
		t.Fatal("unknown level accepted")
	}
}

func TestCheckInvalidSchemaIsFindingNotError(t *testing.T) {
	s := goodSchema()
	s.PCB.Outline.Width = -1

	r, err := Check(context.Background(), &boxKernel{}, s, LevelSchema)
	if err != nil {
		t.Fatalf("Check returned an error for a design problem: %v", err)
	}
	if !r.HasFatal(LevelSchema) {
		t.Error("invalid schema produced no fatal finding")
	}
}

func TestCheckAll(t *testing.T) {
	schemas := []*schema.Schema{goodSchema(), goodSchema(), goodSchema()}
	schemas[1].PCB.Connectors[0].Edge = schema.EdgeBottom

	reports, err := CheckAll(context.Background(), &boxKernel{}, schemas, LevelMesh)
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	if reports[0].HasFatal(LevelSchema) || reports[2].HasFatal(LevelSchema) {
		t.Error("clean designs reported schema fatals")
	}
	if !reports[1].HasFatal(LevelSchema) {
		t.Error("broken design reported no schema fatal")
	}
}

func TestReportCounts(t *testing.T) {
	r := &Report{Findings: []Finding{
		{Level: LevelSchema, Severity: SeverityPass},
		{Level: LevelSchema, Severity: SeverityPass},
		{Level: LevelSchema, Severity: SeverityWarning},
		{Level: LevelGeometry, Severity: SeverityFatal},
		{Level: LevelMesh, Severity: SeveritySkipped},
	}}
	counts := r.Counts()
	if counts[SeverityPass] != 2 || counts[SeverityWarning] != 1 ||
		counts[SeverityFatal] != 1 || counts[SeveritySkipped] != 1 {
		t.Errorf("Counts() = %v", counts)
	}
	if r.LevelOutcome(LevelSchema) != SeverityWarning {
		t.Errorf("LevelOutcome(schema) = %q, want warning", r.LevelOutcome(LevelSchema))
	}
}
