//go:build manifold

// Package manifold is a kernel.Kernel backed by the Manifold C library
// (https://github.com/elalish/manifold), which keeps every boolean result a
// closed manifold mesh.
//
// It needs manifoldc installed and is only compiled with -tags=manifold.
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/burl/pkg/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)

// defaultSegments is used for spheres, which the interface does not give
// a resolution.
const defaultSegments = 32

type solid struct {
	ptr  *C.ManifoldManifold
	desc string
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	bbox := C.manifold_bounding_box(C.manifold_alloc_box(), s.ptr)
	defer C.manifold_delete_box(bbox)

	min = [3]float64{float64(C.manifold_box_min_x(bbox)), float64(C.manifold_box_min_y(bbox)), float64(C.manifold_box_min_z(bbox))}
	max = [3]float64{float64(C.manifold_box_max_x(bbox)), float64(C.manifold_box_max_y(bbox)), float64(C.manifold_box_max_z(bbox))}
	return min, max
}

func (s *solid) Describe() string { return s.desc }

// wrap takes ownership of ptr; the C object is freed when the solid is
// collected.
func wrap(ptr *C.ManifoldManifold, format string, args ...any) *solid {
	s := &solid{ptr: ptr, desc: fmt.Sprintf(format, args...)}
	runtime.SetFinalizer(s, func(s *solid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func unwrap(s kernel.Solid) *solid {
	return s.(*solid)
}

// Kernel implements kernel.Kernel with Manifold.
type Kernel struct{}

// New returns a Manifold kernel.
func New() (kernel.Kernel, error) {
	return &Kernel{}, nil
}

// Box has its minimum corner at the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	ptr := C.manifold_cube(C.manifold_alloc_manifold(), C.double(x), C.double(y), C.double(z), C.int(0))
	return wrap(ptr, "box(%g, %g, %g)", x, y, z)
}

// Cylinder is centered on the origin with its axis along Z.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	ptr := C.manifold_cylinder(C.manifold_alloc_manifold(),
		C.double(height), C.double(radius), C.double(radius), C.int(segments), C.int(1))
	return wrap(ptr, "cylinder(%g, %g)", height, radius)
}

func (k *Kernel) Sphere(radius float64) kernel.Solid {
	ptr := C.manifold_sphere(C.manifold_alloc_manifold(), C.double(radius), C.int(defaultSegments))
	return wrap(ptr, "sphere(%g)", radius)
}

// Prism extrudes a closed XY outline upward from z=0.
func (k *Kernel) Prism(outline [][2]float64, height float64) (kernel.Solid, error) {
	if len(outline) < 3 {
		return nil, fmt.Errorf("manifold: prism outline needs at least 3 points, got %d", len(outline))
	}
	if height <= 0 {
		return nil, fmt.Errorf("manifold: prism height must be positive, got %g", height)
	}

	pts := C.malloc(C.size_t(len(outline)) * C.size_t(unsafe.Sizeof(C.ManifoldVec2{})))
	defer C.free(pts)
	vecs := unsafe.Slice((*C.ManifoldVec2)(pts), len(outline))
	for i, p := range outline {
		vecs[i] = C.ManifoldVec2{x: C.double(p[0]), y: C.double(p[1])}
	}
	simple := C.manifold_simple_polygon(C.manifold_alloc_simple_polygon(), (*C.ManifoldVec2)(pts), C.size_t(len(outline)))
	defer C.manifold_delete_simple_polygon(simple)

	list := (**C.ManifoldSimplePolygon)(C.malloc(C.size_t(unsafe.Sizeof(simple))))
	defer C.free(unsafe.Pointer(list))
	*list = simple
	polys := C.manifold_polygons(C.manifold_alloc_polygons(), list, 1)
	defer C.manifold_delete_polygons(polys)

	ptr := C.manifold_extrude(C.manifold_alloc_manifold(), polys, C.double(height), C.int(0), C.double(0), C.double(1), C.double(1))
	return wrap(ptr, "prism(%d points, %g)", len(outline), height), nil
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	return wrap(C.manifold_union(C.manifold_alloc_manifold(), sa.ptr, sb.ptr), "union(%s, %s)", sa.desc, sb.desc)
}

// Difference returns a minus b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	return wrap(C.manifold_difference(C.manifold_alloc_manifold(), sa.ptr, sb.ptr), "difference(%s, %s)", sa.desc, sb.desc)
}

func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	return wrap(C.manifold_intersection(C.manifold_alloc_manifold(), sa.ptr, sb.ptr), "intersection(%s, %s)", sa.desc, sb.desc)
}

func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss := unwrap(s)
	ptr := C.manifold_translate(C.manifold_alloc_manifold(), ss.ptr, C.double(x), C.double(y), C.double(z))
	return wrap(ptr, "translate(%s, %g, %g, %g)", ss.desc, x, y, z)
}

// Rotate applies Euler angles in degrees, X then Y then Z.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss := unwrap(s)
	ptr := C.manifold_rotate(C.manifold_alloc_manifold(), ss.ptr, C.double(x), C.double(y), C.double(z))
	return wrap(ptr, "rotate(%s, %g, %g, %g)", ss.desc, x, y, z)
}

// ToMesh reads the solid's MeshGL. Positions are the first three vertex
// properties; normals follow when Manifold carries them and are averaged
// from the faces otherwise.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	gl := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), unwrap(s).ptr)
	defer C.manifold_delete_meshgl(gl)

	nv := int(C.manifold_meshgl_num_vert(gl))
	nt := int(C.manifold_meshgl_num_tri(gl))
	if nv == 0 || nt == 0 {
		return &kernel.Mesh{}, nil
	}
	np := int(C.manifold_meshgl_num_prop(gl))
	if np < 3 {
		return nil, fmt.Errorf("manifold: mesh has %d vertex properties, need at least 3", np)
	}

	props := make([]float32, nv*np)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), gl)
	m := &kernel.Mesh{Vertices: make([]float32, nv*3), Indices: make([]uint32, nt*3)}
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&m.Indices[0])), gl)

	withNormals := np >= 6
	if withNormals {
		m.Normals = make([]float32, nv*3)
	}
	for v := range nv {
		p := props[v*np:]
		copy(m.Vertices[v*3:v*3+3], p[:3])
		if withNormals {
			copy(m.Normals[v*3:v*3+3], p[3:6])
		}
	}
	if !withNormals {
		m.Normals = vertexNormals(m.Vertices, m.Indices)
	}
	return m, nil
}

// vertexNormals averages the face normals around each vertex.
func vertexNormals(verts []float32, indices []uint32) []float32 {
	acc := make([]float64, len(verts))
	at := func(i uint32) (float64, float64, float64) {
		return float64(verts[i*3]), float64(verts[i*3+1]), float64(verts[i*3+2])
	}
	for t := 0; t+2 < len(indices); t += 3 {
		tri := indices[t : t+3]
		ax, ay, az := at(tri[0])
		bx, by, bz := at(tri[1])
		cx, cy, cz := at(tri[2])
		ux, uy, uz := bx-ax, by-ay, bz-az
		wx, wy, wz := cx-ax, cy-ay, cz-az
		n := [3]float64{uy*wz - uz*wy, uz*wx - ux*wz, ux*wy - uy*wx}
		for _, i := range tri {
			acc[i*3] += n[0]
			acc[i*3+1] += n[1]
			acc[i*3+2] += n[2]
		}
	}
	out := make([]float32, len(verts))
	for i := 0; i+2 < len(acc); i += 3 {
		l := math.Sqrt(acc[i]*acc[i] + acc[i+1]*acc[i+1] + acc[i+2]*acc[i+2])
		if l < 1e-12 {
			continue
		}
		for j := range 3 {
			out[i+j] = float32(acc[i+j] / l)
		}
	}
	return out
}
