// Package enclosure synthesizes a parametric case solid from a
// unified schema. Synthesis is deterministic and side-effect free: it
// produces solids and meshes as values and writes nothing.
package enclosure

import (
	"context"
	"fmt"

	"github.com/chazu/fission/pkg/kernel"
	"github.com/chazu/fission/pkg/schema"
)

// PostDiameterMargin is the annular wall a mount post adds around its
// screw bore (diameter, not radius).
const PostDiameterMargin = 2.0

// MaxCavityHeight is the sanity ceiling: a computed cavity taller
// than this is a refused synthesis, not an oversized print.
const MaxCavityHeight = 300.0

// minPostHeight keeps posts printable when the clearance and bottom
// envelope are both near zero.
const minPostHeight = 0.5

// cylinderSegments is the circular facet count requested from
// kernels that tessellate cylinders.
const cylinderSegments = 32

// Part is one independently printable solid of the enclosure.
type Part struct {
	Name  string
	Solid kernel.Solid
}

// Generator computes enclosure geometry for one schema. All derived
// dimensions are fixed at construction, so a Generator can be shared
// by the geometry and mesh check levels without recomputation.
//
// Case coordinates: X/Y centered on the board, Z=0 at the outer
// bottom face.
type Generator struct {
	schema *schema.Schema
	cfg    schema.EnclosureConfig
	posts  bool

	// Derived outer dimensions actually produced.
	OuterW, OuterL, OuterH float64
	// Cavity interior dimensions.
	CavityW, CavityL, CavityH float64
	// Z of the board underside, from the outer bottom face.
	PCBBottomZ float64
	// Height of each mount post above the cavity floor.
	StandoffH float64
	// Split plane coordinate: Z for horizontal, X for vertical.
	SplitAt float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithPosts controls whether mount posts are synthesized under the
// board's mounting holes. Default on.
func WithPosts(enabled bool) Option {
	return func(g *Generator) { g.posts = enabled }
}

// NewGenerator validates the dimension arithmetic for s and returns a
// generator. A non-positive or absurd cavity height is a fatal,
// non-retryable SynthesisError; dimensions are never clamped.
func NewGenerator(s *schema.Schema, opts ...Option) (*Generator, error) {
	g := &Generator{schema: s, cfg: s.EnclosureOrDefault(), posts: true}
	for _, opt := range opts {
		opt(g)
	}

	o := s.PCB.Outline
	comp := s.PCB.MaxComponentHeight
	wall, clr := g.cfg.WallThickness, g.cfg.Clearance

	g.CavityW = o.Width + 2*clr
	g.CavityL = o.Length + 2*clr
	g.CavityH = o.Thickness + comp.Top + comp.Bottom + 2*clr

	if g.CavityH <= 0 {
		return nil, &SynthesisError{
			Op:  "dimensions",
			Msg: fmt.Sprintf("computed cavity height %.2fmm is not positive", g.CavityH),
		}
	}
	if g.CavityH > MaxCavityHeight {
		return nil, &SynthesisError{
			Op:  "dimensions",
			Msg: fmt.Sprintf("computed cavity height %.2fmm exceeds the %.0fmm sanity ceiling", g.CavityH, MaxCavityHeight),
		}
	}

	g.OuterW = o.Width + 2*(wall+clr)
	g.OuterL = o.Length + 2*(wall+clr)
	g.OuterH = g.CavityH + wall

	g.StandoffH = clr + comp.Bottom
	if g.StandoffH < minPostHeight {
		g.StandoffH = minPostHeight
	}
	g.PCBBottomZ = wall + g.StandoffH

	switch g.cfg.Split {
	case schema.SplitHorizontal:
		g.SplitAt = wall + g.CavityH/2
	case schema.SplitVertical:
		g.SplitAt = 0 // mid-width plane
	}

	return g, nil
}

// OuterDimensions returns the exact outer bounding dimensions the
// synthesizer produces for this configuration.
func (g *Generator) OuterDimensions() (w, l, h float64) {
	return g.OuterW, g.OuterL, g.OuterH
}

// checkCancelled is consulted between kernel calls so a caller-side
// timeout can abort a long boolean chain.
func checkCancelled(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &SynthesisError{Op: op, Msg: "cancelled", Retryable: true, Err: err}
	}
	return nil
}

// Build produces the complete enclosure solid: shell, mount posts
// with screw bores, and connector openings.
func (g *Generator) Build(ctx context.Context, k kernel.Kernel) (kernel.Solid, error) {
	wall := g.cfg.WallThickness

	if err := checkCancelled(ctx, "shell"); err != nil {
		return nil, err
	}
	outer := k.Translate(k.Box(g.OuterW, g.OuterL, g.OuterH), 0, 0, g.OuterH/2)

	// The cavity cut overshoots the top face by one wall thickness so
	// the open top is sliced cleanly.
	cavityCutH := g.CavityH + wall
	cavity := k.Translate(k.Box(g.CavityW, g.CavityL, cavityCutH), 0, 0, wall+cavityCutH/2)
	solid := k.Difference(outer, cavity)

	solid, err := g.addPosts(ctx, k, solid)
	if err != nil {
		return nil, err
	}
	return g.addOpenings(ctx, k, solid)
}

// caseXY converts a board-local position to case coordinates.
func (g *Generator) caseXY(x, y float64) (cx, cy float64) {
	o := g.schema.PCB.Outline
	return x - o.Width/2, y - o.Length/2
}

func (g *Generator) addPosts(ctx context.Context, k kernel.Kernel, solid kernel.Solid) (kernel.Solid, error) {
	if !g.posts || len(g.schema.PCB.MountHoles) == 0 {
		return solid, nil
	}
	wall := g.cfg.WallThickness

	for _, hole := range g.schema.PCB.MountHoles {
		if err := checkCancelled(ctx, "posts"); err != nil {
			return nil, err
		}
		cx, cy := g.caseXY(hole.X, hole.Y)
		postR := (hole.Diameter + PostDiameterMargin) / 2
		postZ := wall + g.StandoffH/2

		post := k.Translate(k.Cylinder(g.StandoffH, postR, cylinderSegments), cx, cy, postZ)
		solid = k.Union(solid, post)

		// Screw bore through the post, slightly overlong for a clean cut.
		bore := k.Translate(k.Cylinder(g.StandoffH+0.2, hole.Diameter/2, cylinderSegments), cx, cy, postZ)
		solid = k.Difference(solid, bore)
	}
	return solid, nil
}

func (g *Generator) addOpenings(ctx context.Context, k kernel.Kernel, solid kernel.Solid) (kernel.Solid, error) {
	wall := g.cfg.WallThickness
	o := g.schema.PCB.Outline

	for _, conn := range g.schema.PCB.Connectors {
		if conn.Edge == schema.EdgeNone {
			// Internal connector: no opening. A checker-visible
			// design decision, not an error.
			continue
		}
		if err := checkCancelled(ctx, "openings"); err != nil {
			return nil, err
		}

		cutW, cutH := openingFor(conn.Type).Opening(conn)
		cutDepth := wall * 3 // spans the full wall with margin either side
		cx, cy := g.caseXY(conn.Position.X, conn.Position.Y)
		connZ := g.PCBBottomZ + o.Thickness + conn.Dimensions.Height/2

		var cut kernel.Solid
		switch conn.Edge {
		case schema.EdgeTop:
			cut = k.Translate(k.Box(cutW, cutDepth, cutH), cx, g.OuterL/2, connZ)
		case schema.EdgeBottom:
			cut = k.Translate(k.Box(cutW, cutDepth, cutH), cx, -g.OuterL/2, connZ)
		case schema.EdgeRight:
			cut = k.Translate(k.Box(cutDepth, cutW, cutH), g.OuterW/2, cy, connZ)
		case schema.EdgeLeft:
			cut = k.Translate(k.Box(cutDepth, cutW, cutH), -g.OuterW/2, cy, connZ)
		}
		solid = k.Difference(solid, cut)
	}
	return solid, nil
}

// Parts builds the enclosure and partitions it per the split mode.
// Each returned part is an independently closed solid.
func (g *Generator) Parts(ctx context.Context, k kernel.Kernel) ([]Part, error) {
	solid, err := g.Build(ctx, k)
	if err != nil {
		return nil, err
	}

	switch g.cfg.Split {
	case schema.SplitHorizontal:
		if err := checkCancelled(ctx, "split"); err != nil {
			return nil, err
		}
		// Oversized clip boxes; intersection keeps each half closed.
		clipW, clipL := g.OuterW+2, g.OuterL+2
		bottomClip := k.Translate(k.Box(clipW, clipL, g.SplitAt), 0, 0, g.SplitAt/2)
		topH := g.OuterH - g.SplitAt
		topClip := k.Translate(k.Box(clipW, clipL, topH), 0, 0, g.SplitAt+topH/2)
		return []Part{
			{Name: "bottom", Solid: k.Intersection(solid, bottomClip)},
			{Name: "top", Solid: k.Intersection(solid, topClip)},
		}, nil

	case schema.SplitVertical:
		if err := checkCancelled(ctx, "split"); err != nil {
			return nil, err
		}
		clipL, clipH := g.OuterL+2, g.OuterH+2
		halfW := g.OuterW/2 + 1
		leftClip := k.Translate(k.Box(halfW, clipL, clipH), g.SplitAt-halfW/2, 0, g.OuterH/2)
		rightClip := k.Translate(k.Box(halfW, clipL, clipH), g.SplitAt+halfW/2, 0, g.OuterH/2)
		return []Part{
			{Name: "left", Solid: k.Intersection(solid, leftClip)},
			{Name: "right", Solid: k.Intersection(solid, rightClip)},
		}, nil

	default:
		return []Part{{Name: "enclosure", Solid: solid}}, nil
	}
}

// Meshes builds and tessellates every part.
func (g *Generator) Meshes(ctx context.Context, k kernel.Kernel) ([]*kernel.Mesh, error) {
	parts, err := g.Parts(ctx, k)
	if err != nil {
		return nil, err
	}
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		if err := checkCancelled(ctx, "mesh"); err != nil {
			return nil, err
		}
		m, err := k.ToMesh(p.Solid)
		if err != nil {
			return nil, &SynthesisError{Op: "mesh", Msg: "tessellation failed", Err: err}
		}
		if m.IsEmpty() {
			return nil, &MeshError{Part: p.Name, Msg: "tessellation produced no geometry"}
		}
		m.PartName = p.Name
		meshes = append(meshes, m)
	}
	return meshes, nil
}
