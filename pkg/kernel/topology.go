package kernel

import "math"

// Mesh topology analysis for the mesh-level consistency checks.
// Tessellators emit triangle soup (three fresh vertices per triangle),
// so positions are welded on a fine grid before edge accounting.

// weldScale quantizes vertex positions to 1e-4 mm for welding.
const weldScale = 1e4

type gridKey [3]int64

// Topology summarizes the edge structure of a mesh.
type Topology struct {
	WeldedVertexCount int
	EdgeCount         int
	BoundaryEdges     int // edges used by exactly one triangle (holes)
	NonManifoldEdges  int // edges used by three or more triangles
	InconsistentEdges int // edges traversed twice in the same direction
}

// Watertight reports whether the mesh encloses a volume with no holes
// and no non-manifold edges.
func (t Topology) Watertight() bool {
	return t.EdgeCount > 0 && t.BoundaryEdges == 0 && t.NonManifoldEdges == 0
}

// WindingConsistent reports whether adjacent triangles agree on
// orientation everywhere.
func (t Topology) WindingConsistent() bool {
	return t.InconsistentEdges == 0
}

type edgeUse struct {
	count   int
	forward int // traversals in lo->hi vertex order
}

// Analyze welds coincident vertices and accounts every triangle edge.
func (m *Mesh) Analyze() Topology {
	remap := make([]int, m.VertexCount())
	seen := make(map[gridKey]int, m.VertexCount())
	for v := 0; v < m.VertexCount(); v++ {
		k := gridKey{
			quantize(float64(m.Vertices[v*3+0])),
			quantize(float64(m.Vertices[v*3+1])),
			quantize(float64(m.Vertices[v*3+2])),
		}
		id, ok := seen[k]
		if !ok {
			id = len(seen)
			seen[k] = id
		}
		remap[v] = id
	}

	edges := make(map[[2]int]*edgeUse)
	addEdge := func(a, b int) {
		if a == b {
			return // degenerate edge from welding; ignored
		}
		key := [2]int{a, b}
		forward := true
		if a > b {
			key = [2]int{b, a}
			forward = false
		}
		e := edges[key]
		if e == nil {
			e = &edgeUse{}
			edges[key] = e
		}
		e.count++
		if forward {
			e.forward++
		}
	}

	for t := 0; t < m.TriangleCount(); t++ {
		a := remap[m.Indices[t*3+0]]
		b := remap[m.Indices[t*3+1]]
		c := remap[m.Indices[t*3+2]]
		addEdge(a, b)
		addEdge(b, c)
		addEdge(c, a)
	}

	topo := Topology{WeldedVertexCount: len(seen), EdgeCount: len(edges)}
	for _, e := range edges {
		switch {
		case e.count == 1:
			topo.BoundaryEdges++
		case e.count > 2:
			topo.NonManifoldEdges++
		case e.forward != 1:
			// Two traversals in the same direction: neighboring
			// triangles disagree on orientation.
			topo.InconsistentEdges++
		}
	}
	return topo
}

func quantize(v float64) int64 {
	return int64(math.Round(v * weldScale))
}

// Volume returns the signed enclosed volume via the divergence
// theorem. The sign is positive when triangle windings point outward;
// the result is only meaningful for a watertight mesh.
func (m *Mesh) Volume() float64 {
	var vol float64
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Indices[t*3+0], m.Indices[t*3+1], m.Indices[t*3+2]
		ax, ay, az := m.vertex(i0)
		bx, by, bz := m.vertex(i1)
		cx, cy, cz := m.vertex(i2)
		// Signed volume of the tetrahedron (origin, a, b, c).
		vol += (ax*(by*cz-bz*cy) + ay*(bz*cx-bx*cz) + az*(bx*cy-by*cx)) / 6.0
	}
	return vol
}

func (m *Mesh) vertex(i uint32) (x, y, z float64) {
	return float64(m.Vertices[i*3+0]), float64(m.Vertices[i*3+1]), float64(m.Vertices[i*3+2])
}
