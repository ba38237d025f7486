// Package export turns a verified design into fabrication outputs:
// STL meshes for the enclosure, and gerber/drill/placement/STEP
// artifacts for the board via the kicad-cli tool.
package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/chazu/fission/pkg/kernel"
)

// stlHeaderSize is fixed by the binary STL format.
const stlHeaderSize = 80

// WriteSTL writes a mesh as binary STL. Binary is preferred over
// ASCII: slicers parse it faster and files are a fifth of the size.
func WriteSTL(path string, m *kernel.Mesh) error {
	if m.IsEmpty() {
		return fmt.Errorf("export: refusing to write empty mesh to %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := encodeSTL(w, m); err != nil {
		return fmt.Errorf("export: writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("export: writing %s: %w", path, err)
	}
	return f.Close()
}

func encodeSTL(w *bufio.Writer, m *kernel.Mesh) error {
	var header [stlHeaderSize]byte
	copy(header[:], "fission "+m.PartName)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.TriangleCount())); err != nil {
		return err
	}

	// 12 floats per triangle: facet normal then three vertices,
	// followed by a zero attribute byte count.
	var rec [12]float32
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Indices[3*t], m.Indices[3*t+1], m.Indices[3*t+2]
		copy(rec[0:3], facetNormal(m, i0, i1, i2))
		copy(rec[3:6], m.Vertices[3*i0:3*i0+3])
		copy(rec[6:9], m.Vertices[3*i1:3*i1+3])
		copy(rec[9:12], m.Vertices[3*i2:3*i2+3])
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return err
		}
	}
	return nil
}

// facetNormal averages the per-vertex normals when present, and
// otherwise leaves the facet normal zero, which slicers recompute
// from the winding anyway.
func facetNormal(m *kernel.Mesh, i0, i1, i2 uint32) []float32 {
	if len(m.Normals) < len(m.Vertices) {
		return []float32{0, 0, 0}
	}
	n := make([]float32, 3)
	for _, i := range []uint32{i0, i1, i2} {
		n[0] += m.Normals[3*i] / 3
		n[1] += m.Normals[3*i+1] / 3
		n[2] += m.Normals[3*i+2] / 3
	}
	return n
}
