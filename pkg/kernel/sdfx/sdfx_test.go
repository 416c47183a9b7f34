package sdfx

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/burl/pkg/kernel"
)

const tol = 0.5

func checkBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], wantMax[i])
		}
	}
}

func TestBox(t *testing.T) {
	k := New(WithMeshCells(40))
	box := k.Box(100, 50, 25)
	checkBounds(t, box, [3]float64{0, 0, 0}, [3]float64{100, 50, 25})

	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
}

func TestCylinder(t *testing.T) {
	k := New()
	cyl := k.Cylinder(50, 10, 32)
	checkBounds(t, cyl, [3]float64{-10, -10, -25}, [3]float64{10, 10, 25})
}

func TestSphere(t *testing.T) {
	k := New()
	checkBounds(t, k.Sphere(4), [3]float64{-4, -4, -4}, [3]float64{4, 4, 4})
}

func TestPrism(t *testing.T) {
	k := New()
	tri, err := k.Prism([][2]float64{{0, 0}, {10, 0}, {0, 5}}, 3)
	if err != nil {
		t.Fatalf("Prism failed: %v", err)
	}
	checkBounds(t, tri, [3]float64{0, 0, 0}, [3]float64{10, 5, 3})

	if _, err := k.Prism([][2]float64{{0, 0}, {1, 1}}, 3); err == nil {
		t.Error("expected error for a two point outline")
	}
	if _, err := k.Prism([][2]float64{{0, 0}, {1, 0}, {0, 1}}, 0); err == nil {
		t.Error("expected error for zero height")
	}
}

func TestDifference(t *testing.T) {
	k := New(WithMeshCells(40))

	box := k.Box(100, 100, 100)
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}

	cyl := k.Translate(k.Cylinder(120, 20, 32), 50, 50, 50)
	diff := k.Difference(box, cyl)
	diffMesh, err := k.ToMesh(diff)
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	if diffMesh.IsEmpty() {
		t.Fatal("difference mesh is empty")
	}
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
}

func TestUnion(t *testing.T) {
	k := New()
	box1 := k.Box(50, 50, 50)
	box2 := k.Translate(k.Box(50, 50, 50), 30, 0, 0)
	checkBounds(t, k.Union(box1, box2), [3]float64{0, 0, 0}, [3]float64{80, 50, 50})
}

func TestTranslate(t *testing.T) {
	k := New()
	box := k.Box(10, 10, 10)
	translated := k.Translate(box, 100, 200, 300)

	// Box has its min corner at the origin, so the translated box spans
	// (100,200,300) to (110,210,310).
	checkBounds(t, translated, [3]float64{100, 200, 300}, [3]float64{110, 210, 310})
}

func TestRotate(t *testing.T) {
	k := New()
	box := k.Box(100, 10, 10)

	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	rotated := k.Rotate(box, 0, 0, 90)
	min, max := rotated.BoundingBox()

	xExtent := max[0] - min[0]
	yExtent := max[1] - min[1]

	const rtol = 1.0
	if math.Abs(xExtent-10) > rtol {
		t.Errorf("rotated X extent = %f, expected ~10", xExtent)
	}
	if math.Abs(yExtent-100) > rtol {
		t.Errorf("rotated Y extent = %f, expected ~100", yExtent)
	}
}

func TestDescribe(t *testing.T) {
	k := New()
	s := k.Difference(k.Box(1, 2, 3), k.Translate(k.Sphere(1), 1, 0, 0))
	got := kernel.Describe(s)
	for _, want := range []string{"difference(", "box(1, 2, 3)", "sphere(1)", "translate("} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() = %q, missing %q", got, want)
		}
	}
}
