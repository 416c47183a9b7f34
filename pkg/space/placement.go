package space

import (
	"fmt"
	"math"
)

type mat3 [3][3]float64

var identity3 = mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func (a mat3) mul(b mat3) mat3 {
	var m mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
		}
	}
	return m
}

func (a mat3) apply(v Vec3) Vec3 {
	return Vec3{
		a[0][0]*v.X + a[0][1]*v.Y + a[0][2]*v.Z,
		a[1][0]*v.X + a[1][1]*v.Y + a[1][2]*v.Z,
		a[2][0]*v.X + a[2][1]*v.Y + a[2][2]*v.Z,
	}
}

func (a mat3) transpose() mat3 {
	var m mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = a[j][i]
		}
	}
	return m
}

// Placement is a rigid transform (rotation followed by translation) that
// maps node-local coordinates into the parent frame. Placements compose
// down the generator tree. The zero value is the identity.
type Placement struct {
	rot   *mat3
	trans Vec3
}

// Identity returns the identity placement.
func Identity() Placement {
	return Placement{}
}

// At returns a pure translation.
func At(x, y, z float64) Placement {
	return Placement{trans: Vec3{x, y, z}}
}

// AtVec returns a pure translation by v.
func AtVec(v Vec3) Placement {
	return Placement{trans: v}
}

// Rotation returns a pure rotation by Euler angles in degrees, applied
// about X, then Y, then Z (the same convention as the geometry kernel).
func Rotation(x, y, z float64) Placement {
	r := rotZ(z).mul(rotY(y)).mul(rotX(x))
	return Placement{rot: &r}
}

func (p Placement) rotation() mat3 {
	if p.rot == nil {
		return identity3
	}
	return *p.rot
}

// Compose returns the placement that first applies local and then p.
// A child's global placement is parent.Compose(childLocal).
func (p Placement) Compose(local Placement) Placement {
	pr := p.rotation()
	out := Placement{trans: pr.apply(local.trans).Add(p.trans)}
	if p.rot != nil || local.rot != nil {
		r := pr.mul(local.rotation())
		out.rot = &r
	}
	return out
}

// Translate returns p followed by a local translation.
func (p Placement) Translate(x, y, z float64) Placement {
	return p.Compose(At(x, y, z))
}

// Rotate returns p followed by a local rotation (degrees).
func (p Placement) Rotate(x, y, z float64) Placement {
	return p.Compose(Rotation(x, y, z))
}

// Apply maps a local point into the parent frame.
func (p Placement) Apply(v Vec3) Vec3 {
	return p.rotation().apply(v).Add(p.trans)
}

// Inverse returns the placement undoing p.
func (p Placement) Inverse() Placement {
	rt := p.rotation().transpose()
	out := Placement{trans: rt.apply(p.trans).Scale(-1)}
	if p.rot != nil {
		out.rot = &rt
	}
	return out
}

// Origin returns the translation component.
func (p Placement) Origin() Vec3 {
	return p.trans
}

// IsIdentity reports whether p leaves every point unchanged.
func (p Placement) IsIdentity() bool {
	return p.trans == (Vec3{}) && !p.HasRotation()
}

// HasRotation reports whether p carries a non-identity rotation.
func (p Placement) HasRotation() bool {
	return p.rot != nil && *p.rot != identity3
}

// Euler decomposes the rotation into X, Y, Z angles in degrees such that
// Rotation(Euler()) reproduces it.
func (p Placement) Euler() Vec3 {
	r := p.rotation()
	sy := math.Max(-1, math.Min(1, -r[2][0]))
	y := math.Asin(sy)
	var x, z float64
	if math.Abs(math.Cos(y)) > 1e-9 {
		x = math.Atan2(r[2][1], r[2][2])
		z = math.Atan2(r[1][0], r[0][0])
	} else {
		z = math.Atan2(-r[0][1], r[1][1])
	}
	return Vec3{degrees(x), degrees(y), degrees(z)}
}

// Matrix returns the 3x4 row-major affine matrix [R | t].
func (p Placement) Matrix() [12]float64 {
	r := p.rotation()
	return [12]float64{
		r[0][0], r[0][1], r[0][2], p.trans.X,
		r[1][0], r[1][1], r[1][2], p.trans.Y,
		r[2][0], r[2][1], r[2][2], p.trans.Z,
	}
}

// Equal reports whether both placements map points identically.
func (p Placement) Equal(o Placement) bool {
	return p.Matrix() == o.Matrix()
}

// TransformBox returns the axis-aligned box enclosing b after placement.
func (p Placement) TransformBox(b BoundBox) BoundBox {
	out := PointBox(p.Apply(b.Min))
	for i := 0; i < 8; i++ {
		c := Vec3{b.Min.X, b.Min.Y, b.Min.Z}
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out = out.Merge(PointBox(p.Apply(c)))
	}
	return out
}

func (p Placement) String() string {
	e := p.Euler()
	return fmt.Sprintf("at(%g, %g, %g) rot(%g, %g, %g)", p.trans.X, p.trans.Y, p.trans.Z, e.X, e.Y, e.Z)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func rotX(deg float64) mat3 {
	s, c := math.Sincos(radians(deg))
	return mat3{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

func rotY(deg float64) mat3 {
	s, c := math.Sincos(radians(deg))
	return mat3{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

func rotZ(deg float64) mat3 {
	s, c := math.Sincos(radians(deg))
	return mat3{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}
