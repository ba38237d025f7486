package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/chazu/fission/pkg/enclosure"
	"github.com/chazu/fission/pkg/kernel"
	"github.com/chazu/fission/pkg/schema"
)

// Result is what one full export produced. Paths are absolute or
// relative to the output directory exactly as written.
type Result struct {
	SchemaPath string
	STLPaths   []string
	GerberDir  string
	DrillDir   string
	PosPath    string
	StepPath   string
	Skipped    []string // artifact classes not produced, with reason
}

// Options selects which artifact classes a full export produces.
// The zero value exports everything possible.
type Options struct {
	BoardPath string // .kicad_pcb source; board artifacts skipped when empty
	SkipBoard bool   // skip gerber/drill/pos/step even when BoardPath is set
	SkipMesh  bool   // skip enclosure STL
}

// Enclosure tessellates the enclosure and writes one STL per part.
// File names follow the part names, e.g. widget_bottom.stl.
func Enclosure(ctx context.Context, k kernel.Kernel, s *schema.Schema, outDir string, log *zap.Logger) ([]string, error) {
	gen, err := enclosure.NewGenerator(s)
	if err != nil {
		return nil, err
	}
	meshes, err := gen.Meshes(ctx, k)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, m := range meshes {
		name := s.Project
		if m.PartName != "enclosure" {
			name += "_" + m.PartName
		}
		path := filepath.Join(outDir, name+".stl")
		if err := WriteSTL(path, m); err != nil {
			return nil, err
		}
		log.Info("wrote enclosure mesh",
			zap.String("path", path),
			zap.String("part", m.PartName),
			zap.Int("triangles", m.TriangleCount()))
		paths = append(paths, path)
	}
	return paths, nil
}

// Schema writes the design back out as YAML, preserving any fields
// this tool does not understand.
func Schema(s *schema.Schema, path string) error {
	data, err := schema.Encode(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Full produces the complete fabrication bundle under outDir: the
// schema snapshot, enclosure STLs, and board artifacts when a board
// file is available. Missing kicad-cli degrades to a skip, not an
// error, so enclosure-only workflows work on machines without KiCad.
func Full(ctx context.Context, k kernel.Kernel, s *schema.Schema, opts Options, outDir string, log *zap.Logger) (*Result, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	res := &Result{SchemaPath: filepath.Join(outDir, s.Project+".fission.yaml")}
	if err := Schema(s, res.SchemaPath); err != nil {
		return nil, err
	}
	log.Info("wrote schema snapshot", zap.String("path", res.SchemaPath))

	if opts.SkipMesh {
		res.Skipped = append(res.Skipped, "mesh: disabled")
	} else {
		paths, err := Enclosure(ctx, k, s, outDir, log)
		if err != nil {
			return nil, err
		}
		res.STLPaths = paths
	}

	switch {
	case opts.SkipBoard:
		res.Skipped = append(res.Skipped, "board: disabled")
	case opts.BoardPath == "":
		res.Skipped = append(res.Skipped, "board: no board file")
	default:
		if _, ok := KicadCLIAvailable(); !ok {
			res.Skipped = append(res.Skipped, "board: kicad-cli not on PATH")
			log.Warn("skipping board artifacts", zap.String("reason", "kicad-cli not on PATH"))
			break
		}
		if err := exportBoard(ctx, opts.BoardPath, outDir, res, log); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func exportBoard(ctx context.Context, boardPath, outDir string, res *Result, log *zap.Logger) error {
	res.GerberDir = filepath.Join(outDir, "gerbers")
	if err := os.MkdirAll(res.GerberDir, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	gerbers, err := Gerbers(ctx, boardPath, res.GerberDir)
	if err != nil {
		return err
	}
	log.Info("wrote gerbers", zap.String("dir", res.GerberDir), zap.Int("files", len(gerbers)))

	res.DrillDir = res.GerberDir
	if err := Drill(ctx, boardPath, res.DrillDir); err != nil {
		return err
	}
	log.Info("wrote drill files", zap.String("dir", res.DrillDir))

	res.PosPath = filepath.Join(outDir, "placement.csv")
	if err := Pos(ctx, boardPath, res.PosPath); err != nil {
		return err
	}
	log.Info("wrote placement", zap.String("path", res.PosPath))

	base := filepath.Base(boardPath)
	res.StepPath = filepath.Join(outDir, base[:len(base)-len(filepath.Ext(base))]+".step")
	if err := BoardStep(ctx, boardPath, res.StepPath); err != nil {
		return err
	}
	log.Info("wrote board step", zap.String("path", res.StepPath))
	return nil
}
