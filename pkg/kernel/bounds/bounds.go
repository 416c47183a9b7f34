// Package bounds implements kernel.Kernel by tracking axis-aligned bounding
// boxes only. It builds no surfaces, which makes it suited to dry runs that
// only need the build tree layout, and its extents are exact.
package bounds

import (
	"fmt"

	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/space"
)

var _ kernel.Kernel = (*Kernel)(nil)

// Solid is a bounding box with a construction description.
type Solid struct {
	Box  space.BoundBox
	Desc string
}

// BoundingBox returns the axis-aligned bounding box.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	return s.Box.Min.Array(), s.Box.Max.Array()
}

// Describe returns the construction expression of the solid.
func (s *Solid) Describe() string {
	return s.Desc
}

// Kernel is the bounds-only kernel. The zero value is ready to use.
type Kernel struct{}

// New returns a bounds-only kernel.
func New() *Kernel {
	return &Kernel{}
}

func get(s kernel.Solid) *Solid {
	if b, ok := s.(*Solid); ok {
		return b
	}
	min, max := s.BoundingBox()
	return &Solid{Box: space.FromArrays(min, max), Desc: kernel.Describe(s)}
}

func solid(b space.BoundBox, format string, args ...any) *Solid {
	return &Solid{Box: b, Desc: fmt.Sprintf(format, args...)}
}

// Box spans (0,0,0) to (x,y,z).
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return solid(space.NewBoundBox(space.V(0, 0, 0), space.V(x, y, z)), "box(%g, %g, %g)", x, y, z)
}

// Cylinder is centered on the origin with its axis along Z.
func (k *Kernel) Cylinder(height, radius float64, _ int) kernel.Solid {
	return solid(space.NewBoundBox(space.V(-radius, -radius, -height/2), space.V(radius, radius, height/2)),
		"cylinder(%g, %g)", height, radius)
}

// Sphere is centered on the origin.
func (k *Kernel) Sphere(radius float64) kernel.Solid {
	return solid(space.NewBoundBox(space.V(-radius, -radius, -radius), space.V(radius, radius, radius)),
		"sphere(%g)", radius)
}

// Prism covers the outline's XY extent from z=0 to height.
func (k *Kernel) Prism(outline [][2]float64, height float64) (kernel.Solid, error) {
	if len(outline) < 3 {
		return nil, fmt.Errorf("bounds: prism outline needs at least 3 points, got %d", len(outline))
	}
	if height <= 0 {
		return nil, fmt.Errorf("bounds: prism height must be positive, got %g", height)
	}
	b := space.PointBox(space.V(outline[0][0], outline[0][1], 0))
	for _, p := range outline[1:] {
		b = b.Merge(space.PointBox(space.V(p[0], p[1], 0)))
	}
	b.Max.Z = height
	return solid(b, "prism(%d points, %g)", len(outline), height), nil
}

// Union covers both operands.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	sa, sb := get(a), get(b)
	return solid(sa.Box.Merge(sb.Box), "union(%s, %s)", sa.Desc, sb.Desc)
}

// Difference keeps the extent of a, as a cut can never grow a solid.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	sa, sb := get(a), get(b)
	return solid(sa.Box, "difference(%s, %s)", sa.Desc, sb.Desc)
}

// Intersection covers the overlap of both extents. Disjoint operands give
// a zero-volume box at the midpoint between them.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	sa, sb := get(a), get(b)
	lo := space.V(max(sa.Box.Min.X, sb.Box.Min.X), max(sa.Box.Min.Y, sb.Box.Min.Y), max(sa.Box.Min.Z, sb.Box.Min.Z))
	hi := space.V(min(sa.Box.Max.X, sb.Box.Max.X), min(sa.Box.Max.Y, sb.Box.Max.Y), min(sa.Box.Max.Z, sb.Box.Max.Z))
	var out space.BoundBox
	if sa.Box.Intersects(sb.Box) {
		out = space.NewBoundBox(lo, hi)
	} else {
		out = space.PointBox(lo.Add(hi).Scale(0.5))
	}
	return solid(out, "intersection(%s, %s)", sa.Desc, sb.Desc)
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss := get(s)
	return solid(space.At(x, y, z).TransformBox(ss.Box), "translate(%s, %g, %g, %g)", ss.Desc, x, y, z)
}

// Rotate rotates a solid by Euler angles (degrees) and re-fits the box.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss := get(s)
	return solid(space.Rotation(x, y, z).TransformBox(ss.Box), "rotate(%s, %g, %g, %g)", ss.Desc, x, y, z)
}

// ToMesh returns the 12-triangle mesh of the solid's bounding box.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	b := get(s).Box
	c := func(i int) [3]float64 {
		v := b.Min
		if i&1 != 0 {
			v.X = b.Max.X
		}
		if i&2 != 0 {
			v.Y = b.Max.Y
		}
		if i&4 != 0 {
			v.Z = b.Max.Z
		}
		return v.Array()
	}
	faces := []struct {
		quad   [4]int
		normal [3]float64
	}{
		{[4]int{0, 2, 3, 1}, [3]float64{0, 0, -1}},
		{[4]int{4, 5, 7, 6}, [3]float64{0, 0, 1}},
		{[4]int{0, 1, 5, 4}, [3]float64{0, -1, 0}},
		{[4]int{2, 6, 7, 3}, [3]float64{0, 1, 0}},
		{[4]int{0, 4, 6, 2}, [3]float64{-1, 0, 0}},
		{[4]int{1, 3, 7, 5}, [3]float64{1, 0, 0}},
	}
	m := &kernel.Mesh{}
	for _, f := range faces {
		q := f.quad
		m.AddTriangle(c(q[0]), c(q[1]), c(q[2]), f.normal)
		m.AddTriangle(c(q[0]), c(q[2]), c(q[3]), f.normal)
	}
	return m, nil
}
