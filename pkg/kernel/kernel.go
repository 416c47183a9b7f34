// Package kernel defines the abstract geometry kernel interface.
// Generators build solids through this interface and never touch a
// backend directly, so the sdfx backend and the bounds-only backend are
// interchangeable.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Box has its minimum corner at the origin; Cylinder
	// (axis along Z) and Sphere are centered on it; Prism extrudes an XY
	// outline upward from z=0.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64) Solid
	Prism(outline [][2]float64, height float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Describer is implemented by solids that can name how they were built.
type Describer interface {
	Describe() string
}

// Describe returns the construction description of s, or "solid" when the
// backend does not record one.
func Describe(s Solid) string {
	if d, ok := s.(Describer); ok {
		return d.Describe()
	}
	return "solid"
}
