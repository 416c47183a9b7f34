package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertVec(t *testing.T, want, got Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.Z, got.Z, 1e-9)
}

func TestZeroPlacementIsIdentity(t *testing.T) {
	var p Placement
	assert.True(t, p.IsIdentity())
	assert.Equal(t, V(1, 2, 3), p.Apply(V(1, 2, 3)))
	assert.True(t, Identity().Equal(p))
}

func TestPlacementCompose(t *testing.T) {
	parent := At(10, 0, 0).Rotate(0, 0, 90)
	child := At(1, 0, 0)
	global := parent.Compose(child)

	assertVec(t, V(10, 1, 0), global.Origin())
	assertVec(t, V(10, 2, 0), global.Apply(V(1, 0, 0)))
	assertVec(t, parent.Apply(child.Apply(V(0.5, 0.5, 0.5))), global.Apply(V(0.5, 0.5, 0.5)))
}

func TestPlacementInverse(t *testing.T) {
	p := At(1, 2, 3).Rotate(30, 45, 60)
	v := V(0.3, -4, 7)
	assertVec(t, v, p.Inverse().Apply(p.Apply(v)))
	assertVec(t, v, p.Compose(p.Inverse()).Apply(v))
}

func TestPlacementEulerRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
	}{
		{"none", 0, 0, 0},
		{"yaw", 0, 0, 90},
		{"mixed", 10, 20, 30},
		{"negative", -45, 15, -120},
		{"gimbal", 0, 90, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Rotation(tt.x, tt.y, tt.z)
			e := p.Euler()
			q := Rotation(e.X, e.Y, e.Z)
			probe := V(1, 2, 3)
			assertVec(t, p.Apply(probe), q.Apply(probe))
		})
	}
}

func TestTransformBox(t *testing.T) {
	b := box(0, 0, 0, 2, 1, 1)
	got := At(5, 0, 0).Rotate(0, 0, 90).TransformBox(b)
	assertVec(t, V(4, 0, 0), got.Min)
	assertVec(t, V(5, 2, 1), got.Max)

	assert.Equal(t, box(1, 1, 1, 3, 2, 2), At(1, 1, 1).TransformBox(b))
}
