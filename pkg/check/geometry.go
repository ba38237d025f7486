package check

import (
	"context"
	"fmt"
	"math"

	"github.com/chazu/fission/pkg/enclosure"
	"github.com/chazu/fission/pkg/kernel"
	"github.com/chazu/fission/pkg/schema"
)

// bboxTolerance absorbs SDF surface rounding when comparing a built
// solid's bounds against the computed outer dimensions.
const bboxTolerance = 0.5

// geometryLevel synthesizes the enclosure and verifies that the
// produced geometry matches the dimensional contract. The returned
// generator is reused by the mesh level so dimensions are computed
// once per invocation.
func geometryLevel(ctx context.Context, k kernel.Kernel, s *schema.Schema) (*enclosure.Generator, []Finding) {
	gen, err := enclosure.NewGenerator(s)
	if err != nil {
		return nil, []Finding{{
			Level:    LevelGeometry,
			Severity: SeverityFatal,
			Name:     "synthesis",
			Message:  err.Error(),
		}}
	}

	var findings []Finding
	findings = append(findings, containmentCheck(s, gen))
	findings = append(findings, splitPositionCheck(s, gen)...)
	findings = append(findings, openingWallChecks(s, gen)...)
	findings = append(findings, postClearanceChecks(s, gen)...)

	solid, err := gen.BuildWithTimeout(ctx, k, 0)
	if err != nil {
		findings = append(findings, Finding{
			Level:    LevelGeometry,
			Severity: SeverityFatal,
			Name:     "solid build",
			Message:  err.Error(),
		})
		return gen, findings
	}
	findings = append(findings, boundingBoxChecks(solid, gen)...)
	return gen, findings
}

// containmentCheck verifies the cavity interior leaves the configured
// clearance around the board on every side.
func containmentCheck(s *schema.Schema, gen *enclosure.Generator) Finding {
	o := s.PCB.Outline
	cfg := s.EnclosureOrDefault()
	wantW := o.Width + 2*cfg.Clearance
	wantL := o.Length + 2*cfg.Clearance
	if gen.CavityW < wantW || gen.CavityL < wantL {
		return Finding{
			Level:    LevelGeometry,
			Severity: SeverityFatal,
			Name:     "cavity containment",
			Message: fmt.Sprintf("cavity %.2fx%.2fmm cannot hold board plus clearance %.2fx%.2fmm",
				gen.CavityW, gen.CavityL, wantW, wantL),
		}
	}
	return Finding{
		Level:    LevelGeometry,
		Severity: SeverityPass,
		Name:     "cavity containment",
		Message:  fmt.Sprintf("cavity %.2fx%.2fx%.2fmm", gen.CavityW, gen.CavityL, gen.CavityH),
	}
}

func splitPositionCheck(s *schema.Schema, gen *enclosure.Generator) []Finding {
	cfg := s.EnclosureOrDefault()
	switch cfg.Split {
	case schema.SplitHorizontal:
		f := Finding{Level: LevelGeometry, Name: "split position"}
		if gen.SplitAt > 0 && gen.SplitAt < gen.OuterH {
			f.Severity = SeverityPass
			f.Message = fmt.Sprintf("z=%.2fmm of %.2fmm", gen.SplitAt, gen.OuterH)
		} else {
			f.Severity = SeverityFatal
			f.Message = fmt.Sprintf("z=%.2fmm is outside (0, %.2fmm)", gen.SplitAt, gen.OuterH)
		}
		return []Finding{f}
	case schema.SplitVertical:
		f := Finding{Level: LevelGeometry, Name: "split position"}
		if math.Abs(gen.SplitAt) < gen.OuterW/2 {
			f.Severity = SeverityPass
			f.Message = fmt.Sprintf("x=%.2fmm of ±%.2fmm", gen.SplitAt, gen.OuterW/2)
		} else {
			f.Severity = SeverityFatal
			f.Message = fmt.Sprintf("x=%.2fmm is outside the case", gen.SplitAt)
		}
		return []Finding{f}
	default:
		return nil
	}
}

// openingRect is a connector opening's extent, in case coordinates,
// restricted to the plane of the wall it pierces.
type openingRect struct {
	ref                    string
	minX, maxX, minY, maxY float64
	minZ, maxZ             float64
}

func openingRects(s *schema.Schema, gen *enclosure.Generator) []openingRect {
	o := s.PCB.Outline
	wall := s.EnclosureOrDefault().WallThickness
	var rects []openingRect
	for _, c := range s.PCB.Connectors {
		if c.Edge == schema.EdgeNone {
			continue
		}
		ref := c.Reference
		if ref == "" {
			ref = c.Type
		}
		cutW, cutH := enclosure.OpeningSize(c)
		cx := c.Position.X - o.Width/2
		cy := c.Position.Y - o.Length/2
		connZ := gen.PCBBottomZ + o.Thickness + c.Dimensions.Height/2
		// The cut penetrates half a wall beyond the inner face.
		penetration := 1.5 * wall
		r := openingRect{ref: ref, minZ: connZ - cutH/2, maxZ: connZ + cutH/2}
		switch c.Edge {
		case schema.EdgeTop:
			r.minX, r.maxX = cx-cutW/2, cx+cutW/2
			r.minY, r.maxY = gen.OuterL/2-penetration, gen.OuterL/2
		case schema.EdgeBottom:
			r.minX, r.maxX = cx-cutW/2, cx+cutW/2
			r.minY, r.maxY = -gen.OuterL/2, -gen.OuterL/2+penetration
		case schema.EdgeLeft:
			r.minX, r.maxX = -gen.OuterW/2, -gen.OuterW/2+penetration
			r.minY, r.maxY = cy-cutW/2, cy+cutW/2
		case schema.EdgeRight:
			r.minX, r.maxX = gen.OuterW/2-penetration, gen.OuterW/2
			r.minY, r.maxY = cy-cutW/2, cy+cutW/2
		}
		rects = append(rects, r)
	}
	return rects
}

// openingWallChecks verifies each opening stays within its wall face,
// so no cut thins the floor or blows out a corner.
func openingWallChecks(s *schema.Schema, gen *enclosure.Generator) []Finding {
	wall := s.EnclosureOrDefault().WallThickness
	var findings []Finding
	for _, r := range openingRects(s, gen) {
		f := Finding{Level: LevelGeometry, Name: "opening wall fit", Ref: r.ref}
		switch {
		case r.minZ < wall:
			f.Severity = SeverityFatal
			f.Message = fmt.Sprintf("opening bottom at z=%.2fmm cuts into the %.2fmm floor", r.minZ, wall)
		case r.maxZ > gen.OuterH:
			f.Severity = SeverityFatal
			f.Message = fmt.Sprintf("opening top at z=%.2fmm exceeds the %.2fmm case height", r.maxZ, gen.OuterH)
		case r.minX < -gen.OuterW/2 || r.maxX > gen.OuterW/2 || r.minY < -gen.OuterL/2 || r.maxY > gen.OuterL/2:
			f.Severity = SeverityFatal
			f.Message = "opening extends past the corner of its wall face"
		default:
			f.Severity = SeverityPass
		}
		findings = append(findings, f)
	}
	return findings
}

// postClearanceChecks verifies every mount post keeps the configured
// clearance from every connector opening and from every other post.
func postClearanceChecks(s *schema.Schema, gen *enclosure.Generator) []Finding {
	o := s.PCB.Outline
	clearance := s.EnclosureOrDefault().Clearance
	rects := openingRects(s, gen)
	holes := s.PCB.MountHoles
	var findings []Finding

	for i, h := range holes {
		ref := fmt.Sprintf("hole(%.1f, %.1f)", h.X, h.Y)
		postR := (h.Diameter + enclosure.PostDiameterMargin) / 2
		px := h.X - o.Width/2
		py := h.Y - o.Length/2
		postTop := gen.PCBBottomZ

		for _, r := range rects {
			// Posts live near the floor; an opening above them
			// cannot interfere.
			if r.minZ >= postTop {
				continue
			}
			gap := pointRectDistance(px, py, r) - postR
			f := Finding{Level: LevelGeometry, Name: "post/opening clearance", Ref: ref}
			switch {
			case gap < 0:
				f.Severity = SeverityFatal
				f.Message = fmt.Sprintf("post intersects opening for %s (overlap %.2fmm)", r.ref, -gap)
			case gap < clearance:
				f.Severity = SeverityFatal
				f.Message = fmt.Sprintf("post is %.2fmm from opening for %s, under the %.2fmm clearance", gap, r.ref, clearance)
			default:
				f.Severity = SeverityPass
				f.Message = fmt.Sprintf("%.2fmm from opening for %s", gap, r.ref)
			}
			findings = append(findings, f)
		}

		for j := i + 1; j < len(holes); j++ {
			other := holes[j]
			otherR := (other.Diameter + enclosure.PostDiameterMargin) / 2
			gap := math.Hypot(h.X-other.X, h.Y-other.Y) - postR - otherR
			if gap < clearance {
				findings = append(findings, Finding{
					Level:    LevelGeometry,
					Severity: SeverityFatal,
					Name:     "post/post clearance",
					Ref:      ref,
					Message: fmt.Sprintf("posts at (%.1f, %.1f) and (%.1f, %.1f) are %.2fmm apart, under the %.2fmm clearance",
						h.X, h.Y, other.X, other.Y, gap, clearance),
				})
			}
		}
	}
	return findings
}

// pointRectDistance is the XY distance from a point to an
// axis-aligned rectangle; zero when the point is inside.
func pointRectDistance(px, py float64, r openingRect) float64 {
	dx := math.Max(math.Max(r.minX-px, 0), px-r.maxX)
	dy := math.Max(math.Max(r.minY-py, 0), py-r.maxY)
	return math.Hypot(dx, dy)
}

func boundingBoxChecks(solid kernel.Solid, gen *enclosure.Generator) []Finding {
	min, max := solid.BoundingBox()
	actual := [3]float64{max[0] - min[0], max[1] - min[1], max[2] - min[2]}
	expected := [3]float64{gen.OuterW, gen.OuterL, gen.OuterH}
	axes := [3]string{"W", "L", "H"}

	var findings []Finding
	for i := 0; i < 3; i++ {
		f := Finding{Level: LevelGeometry, Name: "bounding box " + axes[i]}
		diff := math.Abs(actual[i] - expected[i])
		if diff <= bboxTolerance {
			f.Severity = SeverityPass
			f.Message = fmt.Sprintf("%.2fmm (expected %.2fmm)", actual[i], expected[i])
		} else {
			f.Severity = SeverityFatal
			f.Message = fmt.Sprintf("%.2fmm, expected %.2fmm (off by %.2fmm)", actual[i], expected[i], diff)
		}
		findings = append(findings, f)
	}
	return findings
}
