package generator

import (
	"fmt"

	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/space"
)

type geometryOptions struct {
	tags     []string
	hidden   bool
	material string
}

// GeometryOption decorates geometry added by AddGeometry.
type GeometryOption func(*geometryOptions)

// WithTags attaches tags to the record.
func WithTags(tags ...string) GeometryOption {
	return func(o *geometryOptions) { o.tags = append(o.tags, tags...) }
}

// Hidden registers the record as invisible. Hidden geometry still takes
// part in spatial queries; it is typically a cutting tool.
func Hidden() GeometryOption {
	return func(o *geometryOptions) { o.hidden = true }
}

// WithMaterial assigns a material name and registers it with the space.
func WithMaterial(name string) GeometryOption {
	return func(o *geometryOptions) { o.material = name }
}

func (n *Node) mintID(kind string) string {
	n.minted++
	return space.StableID(fmt.Sprintf("%s/%s/%d", n.id, kind, n.minted))
}

// place moves a node-local solid into world coordinates.
func (n *Node) place(s kernel.Solid) kernel.Solid {
	k := n.req.kernel
	if n.global.HasRotation() {
		e := n.global.Euler()
		s = k.Rotate(s, e.X, e.Y, e.Z)
	}
	if o := n.global.Origin(); o != (space.Vec3{}) {
		s = k.Translate(s, o.X, o.Y, o.Z)
	}
	return s
}

// Place returns s moved from node-local into world coordinates, the
// frame in which Build Space records are stored. Use it to build tools
// that combine with other nodes' records.
func (n *Node) Place(s kernel.Solid) kernel.Solid {
	return n.place(s)
}

// AddGeometry places a node-local solid into the world and registers it in
// the Build Space under this node.
func (n *Node) AddGeometry(s kernel.Solid, opts ...GeometryOption) (space.GeometryRecord, error) {
	if err := n.checkGenerating(); err != nil {
		return space.GeometryRecord{}, err
	}
	var o geometryOptions
	for _, opt := range opts {
		opt(&o)
	}

	placed := n.place(s)
	rec := space.GeometryRecord{
		ID:        n.mintID("geom"),
		Owner:     n.id,
		Solid:     placed,
		BBox:      space.FromArrays(placed.BoundingBox()),
		Tags:      o.tags,
		Visible:   !o.hidden,
		Placement: n.global,
		Shape:     kernel.Describe(s),
		Material:  o.material,
	}
	if o.material != "" {
		n.req.space.RegisterMaterial(o.material)
	}
	return n.req.space.AddGeometry(rec)
}

// AddGeometries adds several solids with the same options.
func (n *Node) AddGeometries(solids []kernel.Solid, opts ...GeometryOption) ([]space.GeometryRecord, error) {
	recs := make([]space.GeometryRecord, 0, len(solids))
	for _, s := range solids {
		rec, err := n.AddGeometry(s, opts...)
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReplaceGeometry swaps old for the world-space solid s in one step. The new
// record keeps the owner, tags, visibility, placement and material of old.
// Any node may replace any record, which is how a door cuts a wall it
// does not own. A record that has already been replaced or removed fails
// with space.ErrStaleRecord.
func (n *Node) ReplaceGeometry(old space.GeometryRecord, s kernel.Solid) (space.GeometryRecord, error) {
	if err := n.checkGenerating(); err != nil {
		return space.GeometryRecord{}, err
	}
	rec := space.GeometryRecord{
		ID:        n.mintID("replace"),
		Solid:     s,
		BBox:      space.FromArrays(s.BoundingBox()),
		Tags:      old.Tags,
		Visible:   old.Visible,
		Placement: old.Placement,
		Shape:     kernel.Describe(s),
		Material:  old.Material,
	}
	return n.req.space.ReplaceGeometry(old.ID, rec)
}

// Cut subtracts tool (world-space) from target and replaces target with
// the result.
func (n *Node) Cut(target space.GeometryRecord, tool kernel.Solid) (space.GeometryRecord, error) {
	return n.ReplaceGeometry(target, n.req.kernel.Difference(target.Solid, tool))
}

// RemoveGeometry deletes one of this node's own records.
func (n *Node) RemoveGeometry(rec space.GeometryRecord) error {
	if err := n.checkGenerating(); err != nil {
		return err
	}
	if rec.Owner != n.id {
		return fmt.Errorf("generator: %s cannot remove record %s owned by %s", n.path, rec.ID, rec.Owner)
	}
	_, err := n.req.space.RemoveGeometry(rec.ID)
	return err
}
