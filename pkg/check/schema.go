package check

import (
	"fmt"
	"math"
	"sync"

	"github.com/chazu/fission/pkg/enclosure"
	"github.com/chazu/fission/pkg/schema"
)

// Practical manufacturing limits. These are policy thresholds, looser
// than the hard invariants the schema enforces at construction.
const (
	boardMinMM            = 1.0
	boardMaxMM            = 5000.0
	fdmMinWall            = 1.5
	preferredMinWall      = 2.0
	clearanceMinPractical = 0.5
	postWallWarnMargin    = 0.5
	// edgeTolerance is how far a connector footprint may stop short
	// of its declared edge before the declaration is rejected.
	edgeTolerance = 3.0
)

// schemaLevel runs every structural and cross-field check. Per-entity
// checks are independent and evaluated concurrently; nothing mutates
// shared state, each entity writes its own result slot.
func schemaLevel(s *schema.Schema) []Finding {
	var findings []Finding

	// Re-validate the construction invariants first: a schema value
	// built by hand may never have seen Validate.
	if err := s.Validate(); err != nil {
		return []Finding{{
			Level:    LevelSchema,
			Severity: SeverityFatal,
			Name:     "structural invariants",
			Message:  err.Error(),
		}}
	}

	findings = append(findings, boardDimensionChecks(s)...)
	findings = append(findings, enclosurePolicyChecks(s)...)

	// Per-hole and per-connector checks, one worker each.
	holes := s.PCB.MountHoles
	conns := s.PCB.Connectors
	slots := make([][]Finding, len(holes)+len(conns))
	var wg sync.WaitGroup
	for i := range holes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slots[i] = mountHoleChecks(s, i)
		}(i)
	}
	for i := range conns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slots[len(holes)+i] = connectorChecks(s, i)
		}(i)
	}
	wg.Wait()
	for _, fs := range slots {
		findings = append(findings, fs...)
	}

	findings = append(findings, holeOverlapChecks(s)...)

	if len(holes) == 0 {
		findings = append(findings, Finding{
			Level:    LevelSchema,
			Severity: SeverityWarning,
			Name:     "mount holes",
			Message:  "no mount holes defined; the board will sit loose in the case",
		})
	}
	return findings
}

func boardDimensionChecks(s *schema.Schema) []Finding {
	var findings []Finding
	o := s.PCB.Outline
	for _, dim := range []struct {
		name  string
		value float64
	}{{"width", o.Width}, {"length", o.Length}} {
		name := "board " + dim.name
		switch {
		case dim.value < boardMinMM:
			findings = append(findings, Finding{
				Level: LevelSchema, Severity: SeverityFatal, Name: name,
				Message: fmt.Sprintf("%.2fmm is implausibly small; check that units are millimeters", dim.value),
			})
		case dim.value > boardMaxMM:
			findings = append(findings, Finding{
				Level: LevelSchema, Severity: SeverityFatal, Name: name,
				Message: fmt.Sprintf("%.2fmm exceeds the %.0fmm practical maximum", dim.value, boardMaxMM),
			})
		default:
			findings = append(findings, Finding{
				Level: LevelSchema, Severity: SeverityPass, Name: name,
				Message: fmt.Sprintf("%.1fmm", dim.value),
			})
		}
	}
	return findings
}

func enclosurePolicyChecks(s *schema.Schema) []Finding {
	var findings []Finding
	cfg := s.EnclosureOrDefault()

	wall := Finding{Level: LevelSchema, Name: "wall thickness"}
	switch {
	case cfg.WallThickness < fdmMinWall:
		wall.Severity = SeverityFatal
		wall.Message = fmt.Sprintf("%.1fmm is under the %.1fmm FDM minimum", cfg.WallThickness, fdmMinWall)
	case cfg.WallThickness < preferredMinWall:
		wall.Severity = SeverityWarning
		wall.Message = fmt.Sprintf("%.1fmm prints but %.1fmm or more is sturdier", cfg.WallThickness, preferredMinWall)
	default:
		wall.Severity = SeverityPass
		wall.Message = fmt.Sprintf("%.1fmm", cfg.WallThickness)
	}
	findings = append(findings, wall)

	clr := Finding{Level: LevelSchema, Name: "clearance"}
	if cfg.Clearance < clearanceMinPractical {
		clr.Severity = SeverityWarning
		clr.Message = fmt.Sprintf("%.2fmm leaves no room for FDM print error", cfg.Clearance)
	} else {
		clr.Severity = SeverityPass
		clr.Message = fmt.Sprintf("%.2fmm", cfg.Clearance)
	}
	findings = append(findings, clr)
	return findings
}

// mountHoleChecks validates one hole: bounds, edge crossing, post
// clearance against the inner wall.
func mountHoleChecks(s *schema.Schema, i int) []Finding {
	var findings []Finding
	o := s.PCB.Outline
	cfg := s.EnclosureOrDefault()
	h := s.PCB.MountHoles[i]
	ref := fmt.Sprintf("hole(%.1f, %.1f)", h.X, h.Y)
	r := h.Diameter / 2

	bounds := Finding{Level: LevelSchema, Name: "mount hole bounds", Ref: ref}
	switch {
	case h.X < 0 || h.X > o.Width || h.Y < 0 || h.Y > o.Length:
		bounds.Severity = SeverityFatal
		bounds.Message = fmt.Sprintf("center lies outside the %gx%gmm outline", o.Width, o.Length)
	case h.X-r < 0 || h.X+r > o.Width || h.Y-r < 0 || h.Y+r > o.Length:
		// Distinct, non-fatal: the hole is real but its circle
		// crosses the board edge.
		bounds.Severity = SeverityWarning
		bounds.Message = "hole circle crosses the board edge"
	default:
		bounds.Severity = SeverityPass
	}
	findings = append(findings, bounds)

	if bounds.Severity == SeverityFatal {
		return findings
	}

	// Post interference with the inner cavity wall, in case coords.
	postR := (h.Diameter + enclosure.PostDiameterMargin) / 2
	innerHalfW := (o.Width + 2*cfg.Clearance) / 2
	innerHalfL := (o.Length + 2*cfg.Clearance) / 2
	cx := h.X - o.Width/2
	cy := h.Y - o.Length/2
	distX := innerHalfW - math.Abs(cx) - postR
	distY := innerHalfL - math.Abs(cy) - postR

	post := Finding{Level: LevelSchema, Name: "mount post wall clearance", Ref: ref}
	minDist := math.Min(distX, distY)
	switch {
	case minDist < 0:
		post.Severity = SeverityFatal
		post.Message = fmt.Sprintf("post would cut into the cavity wall (margin %.2fmm)", minDist)
	case minDist < postWallWarnMargin:
		post.Severity = SeverityWarning
		post.Message = fmt.Sprintf("only %.2fmm between post and cavity wall", minDist)
	default:
		post.Severity = SeverityPass
	}
	findings = append(findings, post)
	return findings
}

func holeOverlapChecks(s *schema.Schema) []Finding {
	var findings []Finding
	holes := s.PCB.MountHoles
	for i := 0; i < len(holes); i++ {
		for j := i + 1; j < len(holes); j++ {
			a, b := holes[i], holes[j]
			dist := math.Hypot(a.X-b.X, a.Y-b.Y)
			if dist < (a.Diameter+b.Diameter)/2 {
				findings = append(findings, Finding{
					Level:    LevelSchema,
					Severity: SeverityFatal,
					Name:     "mount hole overlap",
					Ref:      fmt.Sprintf("hole(%.1f, %.1f)", b.X, b.Y),
					Message: fmt.Sprintf("overlaps hole(%.1f, %.1f): centers %.2fmm apart, diameters %g and %g",
						a.X, a.Y, dist, a.Diameter, b.Diameter),
				})
			}
		}
	}
	return findings
}

// connectorChecks validates one connector's edge declaration.
func connectorChecks(s *schema.Schema, i int) []Finding {
	var findings []Finding
	c := s.PCB.Connectors[i]
	o := s.PCB.Outline
	ref := c.Reference
	if ref == "" {
		ref = c.Type
	}

	if c.Edge == schema.EdgeNone {
		return []Finding{{
			Level:    LevelSchema,
			Severity: SeverityWarning,
			Name:     "connector edge",
			Ref:      ref,
			Message:  "no edge assignment; no case opening will be synthesized",
		}}
	}

	dist := map[schema.Edge]float64{
		schema.EdgeTop:    o.Length - c.Position.Y,
		schema.EdgeBottom: c.Position.Y,
		schema.EdgeLeft:   c.Position.X,
		schema.EdgeRight:  o.Width - c.Position.X,
	}

	// How far the connector body reaches toward its declared edge.
	reach := c.Dimensions.Depth / 2
	if reach == 0 {
		reach = c.Dimensions.Width / 2
	}
	gap := dist[c.Edge] - reach

	pos := Finding{Level: LevelSchema, Name: "connector edge consistency", Ref: ref}
	if gap > edgeTolerance {
		pos.Severity = SeverityFatal
		pos.Message = fmt.Sprintf("declared edge %q but the footprint stops %.1fmm short of it", c.Edge, gap)
	} else {
		closest := c.Edge
		for e, d := range dist {
			if d < dist[closest] {
				closest = e
			}
		}
		if closest != c.Edge {
			pos.Severity = SeverityWarning
			pos.Message = fmt.Sprintf("declared edge %q but %q is closer", c.Edge, closest)
		} else {
			pos.Severity = SeverityPass
		}
	}
	findings = append(findings, pos)
	return findings
}
