// Package space implements the Build Space: the shared spatial index that
// records every piece of produced geometry and every generator node of one
// generation request, together with their axis-aligned bounding volumes.
// Generators discover each other through this index instead of holding
// references to one another.
package space

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used by containment and overlap tests.
const Epsilon = 1e-9

// Vec3 is a point or displacement in world units.
type Vec3 struct {
	X float64 `json:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" yaml:"y" msgpack:"y"`
	Z float64 `json:"z" yaml:"z" msgpack:"z"`
}

// V is shorthand for Vec3{x, y, z}.
func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns a + b.
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Scale returns a * k.
func (a Vec3) Scale(k float64) Vec3 {
	return Vec3{a.X * k, a.Y * k, a.Z * k}
}

// Array returns the components as an array.
func (a Vec3) Array() [3]float64 {
	return [3]float64{a.X, a.Y, a.Z}
}

func (a Vec3) finite() bool {
	for _, c := range a.Array() {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// BoundBox is a closed axis-aligned bounding volume.
type BoundBox struct {
	Min Vec3 `json:"min" yaml:"min" msgpack:"min"`
	Max Vec3 `json:"max" yaml:"max" msgpack:"max"`
}

// NewBoundBox returns the box spanning the two corners in any order.
func NewBoundBox(a, b Vec3) BoundBox {
	return BoundBox{
		Min: Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)},
		Max: Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)},
	}
}

// PointBox returns a zero-volume box at v.
func PointBox(v Vec3) BoundBox {
	return BoundBox{Min: v, Max: v}
}

// FromArrays builds a box from the (min, max) pair returned by kernel solids.
func FromArrays(min, max [3]float64) BoundBox {
	return BoundBox{
		Min: Vec3{min[0], min[1], min[2]},
		Max: Vec3{max[0], max[1], max[2]},
	}
}

// Validate returns a *QueryError if the box has non-finite coordinates or
// a minimum corner greater than its maximum corner.
func (b BoundBox) Validate() error {
	if !b.Min.finite() || !b.Max.finite() {
		return &QueryError{Box: b, Reason: "non-finite coordinate"}
	}
	if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z {
		return &QueryError{Box: b, Reason: "minimum corner exceeds maximum corner"}
	}
	return nil
}

// Merge returns the smallest box containing both b and o.
func (b BoundBox) Merge(o BoundBox) BoundBox {
	return BoundBox{
		Min: Vec3{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Vec3{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Contains reports whether o lies entirely inside b.
func (b BoundBox) Contains(o BoundBox) bool {
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// ContainsPoint reports whether v lies inside b.
func (b BoundBox) ContainsPoint(v Vec3) bool {
	return v.X >= b.Min.X-Epsilon && v.X <= b.Max.X+Epsilon &&
		v.Y >= b.Min.Y-Epsilon && v.Y <= b.Max.Y+Epsilon &&
		v.Z >= b.Min.Z-Epsilon && v.Z <= b.Max.Z+Epsilon
}

// Intersects reports whether b and o share at least one point.
func (b BoundBox) Intersects(o BoundBox) bool {
	return b.Min.X <= o.Max.X+Epsilon && o.Min.X <= b.Max.X+Epsilon &&
		b.Min.Y <= o.Max.Y+Epsilon && o.Min.Y <= b.Max.Y+Epsilon &&
		b.Min.Z <= o.Max.Z+Epsilon && o.Min.Z <= b.Max.Z+Epsilon
}

// Size returns the extent along each axis.
func (b BoundBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b BoundBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Volume returns the box volume.
func (b BoundBox) Volume() float64 {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Array returns xmin, ymin, zmin, xmax, ymax, zmax.
func (b BoundBox) Array() [6]float64 {
	return [6]float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z}
}

func (b BoundBox) String() string {
	return fmt.Sprintf("<BoundBox (%.4g, %.4g, %.4g)-(%.4g, %.4g, %.4g)>",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
