package check

import (
	"context"
	"fmt"
	"math"

	"github.com/chazu/fission/pkg/enclosure"
	"github.com/chazu/fission/pkg/kernel"
	"github.com/chazu/fission/pkg/schema"
)

// meshTolerance is looser than the geometry tolerance because
// marching cubes quantizes surfaces to its sampling grid.
const meshTolerance = 1.0

// meshLevel tessellates every part and verifies the meshes are
// printable: closed, consistently wound, positive volume, and sized
// like the design says.
func meshLevel(ctx context.Context, k kernel.Kernel, s *schema.Schema, gen *enclosure.Generator) []Finding {
	meshes, err := gen.Meshes(ctx, k)
	if err != nil {
		return []Finding{{
			Level:    LevelMesh,
			Severity: SeverityFatal,
			Name:     "tessellation",
			Message:  err.Error(),
		}}
	}

	var findings []Finding
	for _, m := range meshes {
		findings = append(findings, meshTopologyChecks(m)...)
	}
	findings = append(findings, meshDimensionChecks(meshes, s, gen)...)
	return findings
}

func meshTopologyChecks(m *kernel.Mesh) []Finding {
	topo := m.Analyze()
	var findings []Finding

	f := Finding{Level: LevelMesh, Name: "watertight", Ref: m.PartName}
	if topo.Watertight() {
		f.Severity = SeverityPass
		f.Message = fmt.Sprintf("%d triangles, %d welded vertices", m.TriangleCount(), topo.WeldedVertexCount)
	} else {
		f.Severity = SeverityFatal
		f.Message = fmt.Sprintf("%d boundary edges, %d non-manifold edges", topo.BoundaryEdges, topo.NonManifoldEdges)
	}
	findings = append(findings, f)

	f = Finding{Level: LevelMesh, Name: "winding", Ref: m.PartName}
	if topo.WindingConsistent() {
		f.Severity = SeverityPass
	} else {
		f.Severity = SeverityFatal
		f.Message = fmt.Sprintf("%d edges shared by same-direction triangles", topo.InconsistentEdges)
	}
	findings = append(findings, f)

	f = Finding{Level: LevelMesh, Name: "volume", Ref: m.PartName}
	vol := m.Volume()
	if vol > 0 {
		f.Severity = SeverityPass
		f.Message = fmt.Sprintf("%.0f mm^3", vol)
	} else {
		f.Severity = SeverityFatal
		f.Message = fmt.Sprintf("signed volume %.0f mm^3 is not positive (inverted or degenerate mesh)", vol)
	}
	findings = append(findings, f)

	return findings
}

// meshDimensionChecks compares mesh extents against the computed
// case dimensions. Split parts share the full extent on the unsplit
// axes; on the split axis their extents must sum to the total.
func meshDimensionChecks(meshes []*kernel.Mesh, s *schema.Schema, gen *enclosure.Generator) []Finding {
	axes := [3]string{"W", "L", "H"}
	expected := [3]float64{gen.OuterW, gen.OuterL, gen.OuterH}
	split := s.EnclosureOrDefault().Split

	splitAxis := -1
	switch split {
	case schema.SplitHorizontal:
		splitAxis = 2
	case schema.SplitVertical:
		splitAxis = 0
	}

	var findings []Finding
	var splitSum float64
	for _, m := range meshes {
		min, max := m.BoundingBox()
		for i := 0; i < 3; i++ {
			extent := max[i] - min[i]
			if i == splitAxis && len(meshes) > 1 {
				splitSum += extent
				continue
			}
			f := Finding{Level: LevelMesh, Name: "extent " + axes[i], Ref: m.PartName}
			diff := math.Abs(extent - expected[i])
			if diff <= meshTolerance {
				f.Severity = SeverityPass
				f.Message = fmt.Sprintf("%.2fmm (expected %.2fmm)", extent, expected[i])
			} else {
				f.Severity = SeverityWarning
				f.Message = fmt.Sprintf("%.2fmm, expected %.2fmm (off by %.2fmm)", extent, expected[i], diff)
			}
			findings = append(findings, f)
		}
	}

	if splitAxis >= 0 && len(meshes) > 1 {
		f := Finding{Level: LevelMesh, Name: "split extent " + axes[splitAxis]}
		diff := math.Abs(splitSum - expected[splitAxis])
		if diff <= meshTolerance {
			f.Severity = SeverityPass
			f.Message = fmt.Sprintf("parts sum to %.2fmm (expected %.2fmm)", splitSum, expected[splitAxis])
		} else {
			f.Severity = SeverityWarning
			f.Message = fmt.Sprintf("parts sum to %.2fmm, expected %.2fmm", splitSum, expected[splitAxis])
		}
		findings = append(findings, f)
	}
	return findings
}
