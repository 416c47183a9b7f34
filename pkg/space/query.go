package space

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Predicate decides whether an indexed extent matches a query region.
type Predicate func(region, extent BoundBox) bool

// Built-in spatial predicates.
var (
	// Overlap matches extents sharing at least one point with the region.
	Overlap Predicate = func(region, extent BoundBox) bool { return true }
	// Within matches extents lying entirely inside the region.
	Within Predicate = func(region, extent BoundBox) bool { return region.Contains(extent) }
	// Surround matches extents that overlap the region without lying
	// inside it.
	Surround Predicate = func(region, extent BoundBox) bool { return !region.Contains(extent) }
	// Enclose matches extents that contain the whole region.
	Enclose Predicate = func(region, extent BoundBox) bool { return extent.Contains(region) }
)

// Query returns the geometry records and node entries whose extents
// overlap region and satisfy pred, in insertion order. Boundary contact
// counts as overlap. A region with non-finite coordinates or an inverted
// corner fails with a *QueryError.
func (s *BuildSpace) Query(region BoundBox, pred Predicate) (*Results, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*item
	for _, sp := range s.tree.SearchIntersect(rect(region)) {
		it := sp.(*item)
		if !region.Intersects(it.box) || !pred(region, it.box) {
			continue
		}
		items = append(items, it)
	}
	return &Results{geoms: collectGeoms(items), nodes: collectNodes(items)}, nil
}

// Overlapping returns everything sharing at least one point with region.
func (s *BuildSpace) Overlapping(region BoundBox) (*Results, error) {
	return s.Query(region, Overlap)
}

// ContainedIn returns everything lying entirely inside region.
func (s *BuildSpace) ContainedIn(region BoundBox) (*Results, error) {
	return s.Query(region, Within)
}

// Surrounding returns everything overlapping region without lying inside it.
func (s *BuildSpace) Surrounding(region BoundBox) (*Results, error) {
	return s.Query(region, Surround)
}

// Containing returns everything whose extent contains region.
func (s *BuildSpace) Containing(region BoundBox) (*Results, error) {
	return s.Query(region, Enclose)
}

// ContainingPoint returns everything whose extent contains v.
func (s *BuildSpace) ContainingPoint(v Vec3) (*Results, error) {
	return s.Query(PointBox(v), Enclose)
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// Results is a snapshot of a spatial query. Later changes to the space do
// not alter it.
type Results struct {
	geoms []GeometryRecord
	nodes []NodeEntry
}

// GeomFilter selects geometry records from Results.
type GeomFilter func(GeometryRecord) bool

// NodeFilter selects node entries from Results.
type NodeFilter func(NodeEntry) bool

// Geoms returns the records matching every filter, in insertion order.
func (r *Results) Geoms(filters ...GeomFilter) []GeometryRecord {
	if r == nil {
		return nil
	}
	return lo.Filter(r.geoms, func(g GeometryRecord, _ int) bool {
		return lo.EveryBy(filters, func(f GeomFilter) bool { return f(g) })
	})
}

// Nodes returns the node entries matching every filter, in registration
// order.
func (r *Results) Nodes(filters ...NodeFilter) []NodeEntry {
	if r == nil {
		return nil
	}
	return lo.Filter(r.nodes, func(n NodeEntry, _ int) bool {
		return lo.EveryBy(filters, func(f NodeFilter) bool { return f(n) })
	})
}

// WithoutNode returns a copy of r that drops the node entry id. Geometry
// owned by that node is kept.
func (r *Results) WithoutNode(id string) *Results {
	if r == nil {
		return nil
	}
	return &Results{
		geoms: r.geoms,
		nodes: lo.Reject(r.nodes, func(n NodeEntry, _ int) bool { return n.ID == id }),
	}
}

// Len returns the total number of records and entries.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.geoms) + len(r.nodes)
}

// Empty reports whether the query matched nothing.
func (r *Results) Empty() bool {
	return r.Len() == 0
}

// WithTag matches records carrying any of the tags.
func WithTag(tags ...string) GeomFilter {
	return func(g GeometryRecord) bool {
		return lo.SomeBy(tags, g.HasTag)
	}
}

// OwnedBy matches records owned by any of the node IDs.
func OwnedBy(ids ...string) GeomFilter {
	return func(g GeometryRecord) bool {
		return slices.Contains(ids, g.Owner)
	}
}

// Visible matches records whose visibility equals v.
func Visible(v bool) GeomFilter {
	return func(g GeometryRecord) bool {
		return g.Visible == v
	}
}

// OfType matches node entries of any of the generator types.
func OfType(types ...string) NodeFilter {
	return func(n NodeEntry) bool {
		return slices.Contains(types, n.Type)
	}
}

// Named matches node entries spawned under any of the sub-generator names.
func Named(names ...string) NodeFilter {
	return func(n NodeEntry) bool {
		return slices.Contains(names, n.Name)
	}
}

// ChildOf matches node entries whose parent is any of the IDs.
func ChildOf(ids ...string) NodeFilter {
	return func(n NodeEntry) bool {
		return slices.Contains(ids, n.Parent)
	}
}

// DescendantOf matches node entries below any of the given paths.
func DescendantOf(paths ...string) NodeFilter {
	return func(n NodeEntry) bool {
		return lo.SomeBy(paths, func(p string) bool {
			return strings.HasPrefix(n.Path, p+"/")
		})
	}
}
