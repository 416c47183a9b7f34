package kernel

// Mesh is a triangle mesh suitable for rendering or export.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices" yaml:"vertices" msgpack:"vertices"`
	Normals  []float32 `json:"normals" yaml:"normals" msgpack:"normals"`
	Indices  []uint32  `json:"indices" yaml:"indices" msgpack:"indices"`
	// Source is the geometry record the mesh was built from.
	Source string `json:"source,omitempty" yaml:"source,omitempty" msgpack:"source,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// AddTriangle appends one flat-shaded triangle.
func (m *Mesh) AddTriangle(a, b, c, normal [3]float64) {
	base := uint32(m.VertexCount())
	for _, v := range [3][3]float64{a, b, c} {
		m.Vertices = append(m.Vertices, float32(v[0]), float32(v[1]), float32(v[2]))
		m.Normals = append(m.Normals, float32(normal[0]), float32(normal[1]), float32(normal[2]))
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
}
