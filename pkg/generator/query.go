package generator

import (
	"github.com/chazu/burl/pkg/space"
)

// Query selects geometry for Node.Geoms. Region is in node-local
// coordinates; a nil Region matches everywhere.
type Query struct {
	Tag    string
	Region *space.BoundBox
}

// Region returns a pointer to a local box, for Query and the region
// arguments of the node query methods.
func Region(min, max space.Vec3) *space.BoundBox {
	b := space.NewBoundBox(min, max)
	return &b
}

// world converts a node-local region to world coordinates. A nil region
// stands for the node's current extent.
func (n *Node) world(region *space.BoundBox) (space.BoundBox, error) {
	if region == nil {
		return n.Extent(), nil
	}
	if err := region.Validate(); err != nil {
		return space.BoundBox{}, err
	}
	return n.global.TransformBox(*region), nil
}

// Geoms returns the geometry registered so far that matches q, in
// insertion order. Only geometry produced earlier in traversal order can
// exist, so later siblings are never visible.
func (n *Node) Geoms(q Query) ([]space.GeometryRecord, error) {
	if err := n.checkGenerating(); err != nil {
		return nil, err
	}
	if q.Region == nil {
		if q.Tag != "" {
			return n.req.space.Tagged(q.Tag), nil
		}
		return n.req.space.Geometry(), nil
	}
	region, err := n.world(q.Region)
	if err != nil {
		return nil, err
	}
	res, err := n.req.space.Overlapping(region)
	if err != nil {
		return nil, err
	}
	if q.Tag != "" {
		return res.Geoms(space.WithTag(q.Tag)), nil
	}
	return res.Geoms(), nil
}

func (n *Node) query(region *space.BoundBox, pred space.Predicate) (*space.Results, error) {
	if err := n.checkGenerating(); err != nil {
		return nil, err
	}
	b, err := n.world(region)
	if err != nil {
		return nil, err
	}
	res, err := n.req.space.Query(b, pred)
	if err != nil {
		return nil, err
	}
	return res.WithoutNode(n.id), nil
}

// Enclosing returns geometry and nodes whose extent contains region.
func (n *Node) Enclosing(region *space.BoundBox) (*space.Results, error) {
	return n.query(region, space.Enclose)
}

// Intersecting returns geometry and nodes overlapping region.
func (n *Node) Intersecting(region *space.BoundBox) (*space.Results, error) {
	return n.query(region, space.Overlap)
}

// Within returns geometry and nodes lying inside region.
func (n *Node) Within(region *space.BoundBox) (*space.Results, error) {
	return n.query(region, space.Within)
}

// Surrounding returns geometry and nodes overlapping region without lying
// inside it.
func (n *Node) Surrounding(region *space.BoundBox) (*space.Results, error) {
	return n.query(region, space.Surround)
}

// EnclosingNode returns the deepest ancestor-level node whose extent
// contains this node's origin. It is found through the Build Space, so the
// result may be a node that is not a direct ancestor in the tree.
func (n *Node) EnclosingNode() (space.NodeEntry, bool) {
	if n.checkGenerating() != nil {
		return space.NodeEntry{}, false
	}
	res, err := n.req.space.ContainingPoint(n.global.Origin())
	if err != nil {
		return space.NodeEntry{}, false
	}
	var (
		best  space.NodeEntry
		found bool
	)
	for _, e := range res.Nodes() {
		if e.ID == n.id || e.Depth >= n.depth {
			continue
		}
		if !found || e.Depth >= best.Depth {
			best, found = e, true
		}
	}
	return best, found
}
