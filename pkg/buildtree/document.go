// Package buildtree exports a completed generator tree as a plain document:
// the node hierarchy with resolved configs, placements and extents, and
// each node's geometry records. Documents can be validated and encoded as
// JSON, YAML or msgpack.
package buildtree

import (
	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/space"
)

// FormatVersion identifies the document layout.
const FormatVersion = 1

// Document is the exported form of one generation request.
type Document struct {
	Version   int            `json:"version" yaml:"version" msgpack:"version"`
	Generator string         `json:"generator" yaml:"generator" msgpack:"generator"`
	Seed      int64          `json:"seed" yaml:"seed" msgpack:"seed"`
	Config    map[string]any `json:"config,omitempty" yaml:"config,omitempty" msgpack:"config,omitempty"`
	Materials []string       `json:"materials,omitempty" yaml:"materials,omitempty" msgpack:"materials,omitempty"`
	Stats     Stats          `json:"stats" yaml:"stats" msgpack:"stats"`
	Root      *NodeDoc       `json:"root" yaml:"root" msgpack:"root"`
}

// Stats summarizes a document.
type Stats struct {
	Nodes    int     `json:"nodes" yaml:"nodes" msgpack:"nodes"`
	Geometry int     `json:"geometry" yaml:"geometry" msgpack:"geometry"`
	Hidden   int     `json:"hidden" yaml:"hidden" msgpack:"hidden"`
	MaxDepth int     `json:"max_depth" yaml:"max_depth" msgpack:"max_depth"`
	Volume   float64 `json:"volume" yaml:"volume" msgpack:"volume"`
}

// NodeDoc is one generator node.
type NodeDoc struct {
	ID        string         `json:"id" yaml:"id" msgpack:"id"`
	Path      string         `json:"path" yaml:"path" msgpack:"path"`
	Name      string         `json:"name" yaml:"name" msgpack:"name"`
	Type      string         `json:"type" yaml:"type" msgpack:"type"`
	Seed      int64          `json:"seed" yaml:"seed" msgpack:"seed"`
	Ordinal   int            `json:"ordinal" yaml:"ordinal" msgpack:"ordinal"`
	Depth     int            `json:"depth" yaml:"depth" msgpack:"depth"`
	Placement PlacementDoc   `json:"placement" yaml:"placement" msgpack:"placement"`
	BBox      BoxDoc         `json:"bbox" yaml:"bbox" msgpack:"bbox"`
	Config    map[string]any `json:"config,omitempty" yaml:"config,omitempty" msgpack:"config,omitempty"`
	Geometry  []GeomDoc      `json:"geometry,omitempty" yaml:"geometry,omitempty" msgpack:"geometry,omitempty"`
	Children  []*NodeDoc     `json:"children,omitempty" yaml:"children,omitempty" msgpack:"children,omitempty"`
}

// GeomDoc is one geometry record.
type GeomDoc struct {
	ID       string       `json:"id" yaml:"id" msgpack:"id"`
	Owner    string       `json:"owner" yaml:"owner" msgpack:"owner"`
	Shape    string       `json:"shape" yaml:"shape" msgpack:"shape"`
	BBox     BoxDoc       `json:"bbox" yaml:"bbox" msgpack:"bbox"`
	Volume   float64      `json:"volume" yaml:"volume" msgpack:"volume"`
	Visible  bool         `json:"visible" yaml:"visible" msgpack:"visible"`
	Tags     []string     `json:"tags,omitempty" yaml:"tags,omitempty" msgpack:"tags,omitempty"`
	Material string       `json:"material,omitempty" yaml:"material,omitempty" msgpack:"material,omitempty"`
	Replaces string       `json:"replaces,omitempty" yaml:"replaces,omitempty" msgpack:"replaces,omitempty"`
	Mesh     *kernel.Mesh `json:"mesh,omitempty" yaml:"mesh,omitempty" msgpack:"mesh,omitempty"`
}

// BoxDoc is an axis-aligned box.
type BoxDoc struct {
	Min [3]float64 `json:"min" yaml:"min,flow" msgpack:"min"`
	Max [3]float64 `json:"max" yaml:"max,flow" msgpack:"max"`
}

// PlacementDoc is a rigid placement: translation plus rotation in degrees
// about X, Y and Z, applied X first, then Y, then Z.
type PlacementDoc struct {
	Translation [3]float64 `json:"translation" yaml:"translation,flow" msgpack:"translation"`
	Rotation    [3]float64 `json:"rotation,omitempty" yaml:"rotation,flow,omitempty" msgpack:"rotation,omitempty"`
}

func boxDoc(b space.BoundBox) BoxDoc {
	return BoxDoc{Min: b.Min.Array(), Max: b.Max.Array()}
}

// Box converts back to a space box.
func (b BoxDoc) Box() space.BoundBox {
	return space.FromArrays(b.Min, b.Max)
}

func placementDoc(p space.Placement) PlacementDoc {
	d := PlacementDoc{Translation: p.Origin().Array()}
	if p.HasRotation() {
		d.Rotation = p.Euler().Array()
	}
	return d
}

// Placement converts back to a space placement.
func (p PlacementDoc) Placement() space.Placement {
	r := p.Rotation
	return space.At(p.Translation[0], p.Translation[1], p.Translation[2]).Rotate(r[0], r[1], r[2])
}

// Walk calls fn for every node in the document, depth first.
func (d *Document) Walk(fn func(*NodeDoc) error) error {
	if d.Root == nil {
		return nil
	}
	return d.Root.walk(fn)
}

func (n *NodeDoc) walk(fn func(*NodeDoc) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the node at path, or nil.
func (d *Document) Find(path string) *NodeDoc {
	var found *NodeDoc
	_ = d.Walk(func(n *NodeDoc) error {
		if n.Path == path {
			found = n
		}
		return nil
	})
	return found
}
