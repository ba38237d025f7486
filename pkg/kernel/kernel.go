// Package kernel defines the abstract geometry kernel interface.
// The enclosure synthesizer and consistency checker consume solid
// modeling and boolean operations through this interface only, so the
// backend can be swapped without touching the rest of the system.
// Implementations hold no per-call mutable state; one kernel instance
// may serve concurrent invocations.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centered at the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations.
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms.
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output.
	ToMesh(s Solid) (*Mesh, error)
}
