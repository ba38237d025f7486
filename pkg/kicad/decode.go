// Package kicad projects a parsed PCB design file onto the unified
// schema. The projection walks known node paths and tolerates
// everything it does not recognize; ambiguity surfaces as warnings,
// never as silent drops.
package kicad

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/fission/pkg/schema"
	"github.com/chazu/fission/pkg/sexp"
)

// minSupportedVersion is the oldest file format version the adapter
// chain covers (KiCad 5 era). Older files are refused outright.
const minSupportedVersion = 20171130

// edgeProximityMargin is how close (mm) a connector footprint must
// sit to an outline edge for the decoder to assign that edge.
const edgeProximityMargin = 3.0

// Heuristic component heights by populated board side, used when the
// design file carries no explicit height data.
const (
	defaultTopComponentHeight    = 2.5
	defaultBottomComponentHeight = 1.0
)

// DecodeError is a fatal projection failure with a source location.
type DecodeError struct {
	Pos sexp.Pos
	Msg string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// UnsupportedVersionError marks a recognized but unsupported file
// format version. The decoder refuses rather than guessing.
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported design file format version %d (oldest supported: %d)", e.Version, minSupportedVersion)
}

// Warning is a non-fatal projection finding: a fact the decoder saw
// but could not fully resolve.
type Warning struct {
	Pos sexp.Pos
	Ref string
	Msg string
}

func (w Warning) String() string {
	if w.Ref != "" {
		return fmt.Sprintf("%s: %s: %s", w.Pos, w.Ref, w.Msg)
	}
	return fmt.Sprintf("%s: %s", w.Pos, w.Msg)
}

// Decode parses design-file text into a validated Schema. The decode
// is a pure function of its input; warnings accompany a valid result.
func Decode(text string, project string) (*schema.Schema, []Warning, error) {
	root, err := sexp.Parse(text)
	if err != nil {
		return nil, nil, err
	}
	if root.Tag() != "kicad_pcb" {
		return nil, nil, &DecodeError{Pos: root.Pos, Msg: fmt.Sprintf("top-level group is (%s), want (kicad_pcb ...)", root.Tag())}
	}

	version := 0
	if vn := root.Find("version"); vn != nil {
		v, err := vn.Int(0)
		if err != nil {
			return nil, nil, err
		}
		version = v
		if version < minSupportedVersion {
			return nil, nil, &UnsupportedVersionError{Version: version}
		}
	}
	normalizeTree(root, version)

	thickness, err := boardThickness(root)
	if err != nil {
		return nil, nil, err
	}
	outline, origin, err := boardOutline(root, thickness)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	holes, err := mountHoles(root, origin, &warnings)
	if err != nil {
		return nil, nil, err
	}
	connectors, err := connectorsFromFootprints(root, outline, origin, &warnings)
	if err != nil {
		return nil, nil, err
	}

	s := &schema.Schema{
		SchemaVersion: schema.Version,
		Project:       project,
		PCB: schema.PCB{
			Outline:            outline,
			MountHoles:         holes,
			Connectors:         connectors,
			MaxComponentHeight: componentHeights(root),
		},
	}
	if err := s.Validate(); err != nil {
		return nil, nil, fmt.Errorf("decoded facts violate schema invariants: %w", err)
	}
	return s, warnings, nil
}

// origin is the minimum corner of the outline bounding box in raw
// file coordinates. The file has Y pointing down; schema coordinates
// are board-local with Y up, so y maps to maxY-y.
type boardOrigin struct {
	minX, minY, maxY float64
}

func (o boardOrigin) localX(x float64) float64 { return x - o.minX }
func (o boardOrigin) localY(y float64) float64 { return o.maxY - y }

func boardThickness(root *sexp.Node) (float64, error) {
	general := root.Find("general")
	if general == nil {
		return 1.6, nil
	}
	tn := general.Find("thickness")
	if tn == nil {
		return 1.6, nil
	}
	return tn.Float(0)
}

func layerOf(n *sexp.Node) string {
	ln := n.Find("layer")
	if ln == nil {
		return ""
	}
	return ln.Str(0)
}

// boardOutline computes the bounding box of all drawing primitives on
// the board edge layer.
func boardOutline(root *sexp.Node, thickness float64) (schema.BoardOutline, boardOrigin, error) {
	var xs, ys []float64
	addPoint := func(n *sexp.Node) error {
		x, err := n.Float(0)
		if err != nil {
			return err
		}
		y, err := n.Float(1)
		if err != nil {
			return err
		}
		xs = append(xs, x)
		ys = append(ys, y)
		return nil
	}

	for _, tag := range []string{"gr_line", "gr_rect", "gr_arc"} {
		for _, n := range root.FindAll(tag) {
			if layerOf(n) != "Edge.Cuts" {
				continue
			}
			for _, pt := range []string{"start", "mid", "end"} {
				if p := n.Find(pt); p != nil {
					if err := addPoint(p); err != nil {
						return schema.BoardOutline{}, boardOrigin{}, err
					}
				}
			}
		}
	}
	for _, n := range root.FindAll("gr_poly") {
		if layerOf(n) != "Edge.Cuts" {
			continue
		}
		if pts := n.Find("pts"); pts != nil {
			for _, xy := range pts.FindAll("xy") {
				if err := addPoint(xy); err != nil {
					return schema.BoardOutline{}, boardOrigin{}, err
				}
			}
		}
	}
	for _, n := range root.FindAll("gr_circle") {
		if layerOf(n) != "Edge.Cuts" {
			continue
		}
		center, end := n.Find("center"), n.Find("end")
		if center == nil || end == nil {
			continue
		}
		cx, err := center.Float(0)
		if err != nil {
			return schema.BoardOutline{}, boardOrigin{}, err
		}
		cy, err := center.Float(1)
		if err != nil {
			return schema.BoardOutline{}, boardOrigin{}, err
		}
		ex, err := end.Float(0)
		if err != nil {
			return schema.BoardOutline{}, boardOrigin{}, err
		}
		ey, err := end.Float(1)
		if err != nil {
			return schema.BoardOutline{}, boardOrigin{}, err
		}
		r := math.Hypot(ex-cx, ey-cy)
		xs = append(xs, cx-r, cx+r)
		ys = append(ys, cy-r, cy+r)
	}

	if len(xs) == 0 {
		return schema.BoardOutline{}, boardOrigin{}, &DecodeError{Pos: root.Pos, Msg: "no board outline found on Edge.Cuts layer"}
	}

	minX, maxX := minMax(xs)
	minY, maxY := minMax(ys)
	width := maxX - minX
	length := maxY - minY
	if width <= 0 || length <= 0 {
		return schema.BoardOutline{}, boardOrigin{}, &DecodeError{
			Pos: root.Pos,
			Msg: fmt.Sprintf("degenerate board outline: %gmm x %gmm", width, length),
		}
	}

	return schema.BoardOutline{Width: width, Length: length, Thickness: thickness},
		boardOrigin{minX: minX, minY: minY, maxY: maxY}, nil
}

func minMax(vs []float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func footprintAt(fp *sexp.Node) (x, y float64, ok bool, err error) {
	at := fp.Find("at")
	if at == nil {
		return 0, 0, false, nil
	}
	x, err = at.Float(0)
	if err != nil {
		return 0, 0, false, err
	}
	y, err = at.Float(1)
	if err != nil {
		return 0, 0, false, err
	}
	return x, y, true, nil
}

func propertyValue(fp *sexp.Node, name string) string {
	for _, prop := range fp.FindAll("property") {
		if prop.Str(0) == name {
			return prop.Str(1)
		}
	}
	return ""
}

func mountHoles(root *sexp.Node, origin boardOrigin, warnings *[]Warning) ([]schema.MountHole, error) {
	var holes []schema.MountHole
	for _, fp := range root.FindAll("footprint") {
		name := fp.Str(0)
		if !isMountingHole(name) {
			continue
		}
		x, y, ok, err := footprintAt(fp)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		diameter := 0.0
		for _, pad := range fp.FindAll("pad") {
			if drill := pad.Find("drill"); drill != nil {
				d, err := drill.Float(0)
				if err != nil {
					return nil, err
				}
				diameter = d
				break
			}
		}
		if diameter <= 0 {
			*warnings = append(*warnings, Warning{
				Pos: fp.Pos,
				Msg: fmt.Sprintf("mounting hole footprint %q has no drilled pad; skipped", name),
			})
			continue
		}
		holes = append(holes, schema.MountHole{
			X:        origin.localX(x),
			Y:        origin.localY(y),
			Diameter: diameter,
		})
	}
	return holes, nil
}

func connectorsFromFootprints(root *sexp.Node, outline schema.BoardOutline, origin boardOrigin, warnings *[]Warning) ([]schema.Connector, error) {
	var connectors []schema.Connector
	for _, fp := range root.FindAll("footprint") {
		name := fp.Str(0)
		if isMountingHole(name) {
			continue
		}
		family, ok := guessConnectorType(name)
		if !ok {
			continue
		}
		x, y, hasAt, err := footprintAt(fp)
		if err != nil {
			return nil, err
		}
		if !hasAt {
			continue
		}
		lx, ly := origin.localX(x), origin.localY(y)

		reference := propertyValue(fp, "Reference")
		layer := layerOf(fp)
		z := 0.0
		if strings.HasPrefix(layer, "F.") {
			z = outline.Thickness
		}

		edge := estimateEdge(lx, ly, outline)
		if edge == schema.EdgeNone {
			label := reference
			if label == "" {
				label = family
			}
			*warnings = append(*warnings, Warning{
				Pos: fp.Pos,
				Ref: reference,
				Msg: fmt.Sprintf("connector %s is not near any board edge; no case opening will be synthesized", label),
			})
		}

		connectors = append(connectors, schema.Connector{
			Type:       family,
			Reference:  reference,
			Position:   schema.Position{X: lx, Y: ly, Z: z},
			Dimensions: connectorDimensions(family),
			Edge:       edge,
		})
	}
	return connectors, nil
}

// estimateEdge assigns the nearest outline edge when the footprint
// sits within the proximity margin of it. Board-local coordinates,
// Y up: top is the y=length side.
func estimateEdge(x, y float64, outline schema.BoardOutline) schema.Edge {
	type cand struct {
		edge schema.Edge
		dist float64
	}
	cands := []cand{
		{schema.EdgeTop, outline.Length - y},
		{schema.EdgeBottom, y},
		{schema.EdgeLeft, x},
		{schema.EdgeRight, outline.Width - x},
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.dist < best.dist {
			best = c
		}
	}
	if best.dist <= edgeProximityMargin {
		return best.edge
	}
	return schema.EdgeNone
}

// componentHeights estimates the height envelope from which board
// sides carry footprints.
func componentHeights(root *sexp.Node) schema.ComponentHeight {
	var top, bottom bool
	for _, fp := range root.FindAll("footprint") {
		if isMountingHole(fp.Str(0)) {
			continue
		}
		layer := layerOf(fp)
		switch {
		case strings.HasPrefix(layer, "F."):
			top = true
		case strings.HasPrefix(layer, "B."):
			bottom = true
		}
	}
	h := schema.ComponentHeight{}
	if top {
		h.Top = defaultTopComponentHeight
	}
	if bottom {
		h.Bottom = defaultBottomComponentHeight
	}
	return h
}
