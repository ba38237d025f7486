package export

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/chazu/fission/pkg/kernel"
	"github.com/chazu/fission/pkg/schema"
)

// unitSolid and unitKernel give the exporter something meshable
// without a real geometry kernel.
type unitSolid struct{}

func (unitSolid) BoundingBox() (min, max [3]float64) {
	return [3]float64{0, 0, 0}, [3]float64{1, 1, 1}
}

type unitKernel struct{}

func (unitKernel) Box(x, y, z float64) kernel.Solid                       { return unitSolid{} }
func (unitKernel) Cylinder(h, r float64, _ int) kernel.Solid              { return unitSolid{} }
func (unitKernel) Union(a, _ kernel.Solid) kernel.Solid                   { return a }
func (unitKernel) Difference(a, _ kernel.Solid) kernel.Solid              { return a }
func (unitKernel) Intersection(a, _ kernel.Solid) kernel.Solid            { return a }
func (unitKernel) Translate(s kernel.Solid, _, _, _ float64) kernel.Solid { return s }

func (unitKernel) ToMesh(_ kernel.Solid) (*kernel.Mesh, error) {
	return &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}, nil
}

func exportSchema(split schema.SplitMode) *schema.Schema {
	enc := schema.DefaultEnclosure()
	enc.Split = split
	return &schema.Schema{
		SchemaVersion: schema.Version,
		Project:       "widget",
		PCB: schema.PCB{
			Outline:            schema.BoardOutline{Width: 80, Length: 60, Thickness: 1.6},
			MaxComponentHeight: schema.ComponentHeight{Top: 12, Bottom: 2.5},
		},
		Enclosure: &enc,
	}
}

func TestWriteSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	m := &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2},
		PartName: "bottom",
	}
	if err := WriteSTL(path, m); err != nil {
		t.Fatalf("WriteSTL failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading STL back: %v", err)
	}
	// 80-byte header, 4-byte count, 50 bytes per triangle.
	if want := 80 + 4 + 50; len(data) != want {
		t.Fatalf("file size = %d, want %d", len(data), want)
	}
	if count := binary.LittleEndian.Uint32(data[80:84]); count != 1 {
		t.Errorf("triangle count = %d, want 1", count)
	}
	if !strings.Contains(string(data[:80]), "bottom") {
		t.Errorf("header does not carry the part name: %q", data[:80])
	}
}

func TestWriteSTLRefusesEmptyMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.stl")
	if err := WriteSTL(path, &kernel.Mesh{}); err == nil {
		t.Fatal("empty mesh accepted")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("refused write still created a file")
	}
}

func TestEnclosureWritesOneFilePerPart(t *testing.T) {
	dir := t.TempDir()
	paths, err := Enclosure(context.Background(), unitKernel{}, exportSchema(schema.SplitHorizontal), dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Enclosure failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d files, want 2 for a horizontal split", len(paths))
	}
	wantNames := map[string]bool{"widget_bottom.stl": true, "widget_top.stl": true}
	for _, p := range paths {
		if !wantNames[filepath.Base(p)] {
			t.Errorf("unexpected file name %s", filepath.Base(p))
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("reported file missing: %v", err)
		}
	}
}

func TestEnclosureUnsplitFileName(t *testing.T) {
	dir := t.TempDir()
	paths, err := Enclosure(context.Background(), unitKernel{}, exportSchema(schema.SplitNone), dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Enclosure failed: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "widget.stl" {
		t.Errorf("paths = %v, want a single widget.stl", paths)
	}
}

func TestFullWithoutBoard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	res, err := Full(context.Background(), unitKernel{}, exportSchema(schema.SplitNone), Options{}, dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Full failed: %v", err)
	}

	data, err := os.ReadFile(res.SchemaPath)
	if err != nil {
		t.Fatalf("schema snapshot missing: %v", err)
	}
	if !strings.Contains(string(data), "project: widget") {
		t.Errorf("schema snapshot content wrong:\n%s", data)
	}
	if len(res.STLPaths) != 1 {
		t.Errorf("STLPaths = %v, want one mesh", res.STLPaths)
	}
	if res.StepPath != "" || res.GerberDir != "" {
		t.Errorf("board artifacts produced without a board: %+v", res)
	}
	found := false
	for _, s := range res.Skipped {
		if strings.Contains(s, "no board file") {
			found = true
		}
	}
	if !found {
		t.Errorf("Skipped = %v, want a no-board entry", res.Skipped)
	}
}

func TestFullSkipFlags(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	res, err := Full(context.Background(), unitKernel{}, exportSchema(schema.SplitNone),
		Options{SkipMesh: true, SkipBoard: true}, dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Full failed: %v", err)
	}
	if len(res.STLPaths) != 0 {
		t.Errorf("meshes written despite SkipMesh: %v", res.STLPaths)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("Skipped = %v, want mesh and board entries", res.Skipped)
	}
}
