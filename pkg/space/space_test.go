package space

import (
	"math"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x0, y0, z0, x1, y1, z1 float64) BoundBox {
	return BoundBox{Min: V(x0, y0, z0), Max: V(x1, y1, z1)}
}

func newSpaceWithRoot(t *testing.T) (*BuildSpace, NodeEntry) {
	t.Helper()
	s := New()
	root, err := s.AddNode(NodeEntry{Path: "Root", Name: "Root", Type: "Root", BBox: PointBox(V(0, 0, 0))})
	require.NoError(t, err)
	return s, root
}

func ids(recs []GeometryRecord) []string {
	return lo.Map(recs, func(r GeometryRecord, _ int) string { return r.ID })
}

// ---------------------------------------------------------------------------
// BoundBox
// ---------------------------------------------------------------------------

func TestBoundBoxPredicates(t *testing.T) {
	outer := box(0, 0, 0, 2, 2, 2)
	inner := box(0.5, 0.5, 0.5, 1, 1, 1)
	touching := box(2, 0, 0, 3, 1, 1)
	apart := box(3, 3, 3, 4, 4, 4)

	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
	assert.True(t, outer.Contains(outer))
	assert.True(t, outer.Intersects(touching), "boundary contact overlaps")
	assert.False(t, outer.Intersects(apart))
	assert.Equal(t, box(0, 0, 0, 4, 4, 4), outer.Merge(apart))
	assert.InDelta(t, 8.0, outer.Volume(), 1e-12)
	assert.Equal(t, V(1, 1, 1), outer.Center())
}

func TestBoundBoxValidate(t *testing.T) {
	assert.NoError(t, box(0, 0, 0, 0, 0, 0).Validate())
	assert.ErrorIs(t, box(1, 0, 0, 0, 1, 1).Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, box(math.NaN(), 0, 0, 1, 1, 1).Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, box(0, 0, 0, math.Inf(1), 1, 1).Validate(), ErrInvalidQuery)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func TestQueryPredicates(t *testing.T) {
	s, root := newSpaceWithRoot(t)
	big, err := s.AddGeometry(GeometryRecord{Owner: root.ID, BBox: box(0, 0, 0, 10, 10, 10), Tags: []string{"room"}, Visible: true})
	require.NoError(t, err)
	small, err := s.AddGeometry(GeometryRecord{Owner: root.ID, BBox: box(1, 1, 1, 2, 2, 2), Tags: []string{"chair"}, Visible: true})
	require.NoError(t, err)
	edge, err := s.AddGeometry(GeometryRecord{Owner: root.ID, BBox: box(2, 2, 2, 3, 3, 3), Visible: false})
	require.NoError(t, err)

	region := box(0.5, 0.5, 0.5, 2, 2, 2)

	res, err := s.Overlapping(region)
	require.NoError(t, err)
	assert.Equal(t, []string{big.ID, small.ID, edge.ID}, ids(res.Geoms()))

	res, err = s.ContainedIn(region)
	require.NoError(t, err)
	assert.Equal(t, []string{small.ID}, ids(res.Geoms()))

	res, err = s.Surrounding(region)
	require.NoError(t, err)
	assert.Equal(t, []string{big.ID, edge.ID}, ids(res.Geoms()))

	res, err = s.Containing(region)
	require.NoError(t, err)
	assert.Equal(t, []string{big.ID}, ids(res.Geoms()))
	assert.Len(t, res.Nodes(), 1, "root grew to cover its geometry")

	res, err = s.ContainingPoint(V(5, 5, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{big.ID}, ids(res.Geoms()))
}

func TestQueryRejectsMalformedRegion(t *testing.T) {
	s, _ := newSpaceWithRoot(t)
	_, err := s.Overlapping(box(1, 1, 1, 0, 0, 0))
	require.Error(t, err)
	var qe *QueryError
	assert.ErrorAs(t, err, &qe)

	_, err = s.Containing(box(math.NaN(), 0, 0, 1, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestResultFilters(t *testing.T) {
	s, root := newSpaceWithRoot(t)
	child, err := s.AddNode(NodeEntry{Path: "Root/rack.0", Name: "rack", Type: "Rack", Parent: root.ID, Depth: 1, BBox: PointBox(V(1, 1, 1))})
	require.NoError(t, err)
	grand, err := s.AddNode(NodeEntry{Path: "Root/rack.0/shelf.0", Name: "shelf", Type: "Shelf", Parent: child.ID, Depth: 2, BBox: PointBox(V(1, 1, 1))})
	require.NoError(t, err)

	a, _ := s.AddGeometry(GeometryRecord{Owner: root.ID, BBox: box(0, 0, 0, 2, 2, 2), Tags: []string{"shelf", "wood"}, Visible: true})
	b, _ := s.AddGeometry(GeometryRecord{Owner: child.ID, BBox: box(0, 0, 0, 1, 1, 1), Tags: []string{"cut"}, Visible: false})

	res, err := s.Overlapping(box(0, 0, 0, 2, 2, 2))
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID}, ids(res.Geoms(WithTag("wood"))))
	assert.Equal(t, []string{a.ID, b.ID}, ids(res.Geoms(WithTag("wood", "cut"))))
	assert.Equal(t, []string{b.ID}, ids(res.Geoms(OwnedBy(child.ID))))
	assert.Equal(t, []string{a.ID}, ids(res.Geoms(Visible(true))))
	assert.Empty(t, res.Geoms(Visible(true), OwnedBy(child.ID)))

	assert.Len(t, res.Nodes(), 3)
	assert.Equal(t, []NodeEntry{grand}, res.Nodes(ChildOf(child.ID)))
	assert.Len(t, res.Nodes(DescendantOf("Root")), 2)
	assert.Len(t, res.Nodes(OfType("Shelf")), 1)
	assert.Len(t, res.Nodes(Named("rack")), 1)

	without := res.WithoutNode(child.ID)
	assert.Len(t, without.Nodes(), 2)
	assert.Equal(t, []string{a.ID, b.ID}, ids(without.Geoms()))
}

func TestResultsAreSnapshots(t *testing.T) {
	s, root := newSpaceWithRoot(t)
	rec, _ := s.AddGeometry(GeometryRecord{Owner: root.ID, BBox: box(0, 0, 0, 1, 1, 1)})
	res, err := s.Overlapping(box(0, 0, 0, 1, 1, 1))
	require.NoError(t, err)

	_, err = s.RemoveGeometry(rec.ID)
	require.NoError(t, err)
	assert.Len(t, res.Geoms(), 1)
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

func TestAddGeometryRequiresOwner(t *testing.T) {
	s := New()
	_, err := s.AddGeometry(GeometryRecord{Owner: "nobody", BBox: box(0, 0, 0, 1, 1, 1)})
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestAddNodeRejectsDuplicates(t *testing.T) {
	s, root := newSpaceWithRoot(t)
	_, err := s.AddNode(NodeEntry{ID: root.ID, Path: "Root"})
	assert.Error(t, err)
}

func TestReplaceGeometryIsAtomic(t *testing.T) {
	s, root := newSpaceWithRoot(t)
	old, err := s.AddGeometry(GeometryRecord{Owner: root.ID, BBox: box(0, 0, 0, 1, 1, 1), Tags: []string{"shelf"}})
	require.NoError(t, err)

	var seen []int
	s.OnEvent(func(ev Event) {
		if ev.Kind == EventGeometryReplaced {
			res, _ := s.Overlapping(box(0, 0, 0, 1, 1, 1))
			seen = append(seen, len(res.Geoms()))
		}
	})

	neu, err := s.ReplaceGeometry(old.ID, GeometryRecord{Owner: "ignored", BBox: box(0, 0, 0, 1, 1, 0.5), Tags: []string{"shelf"}})
	require.NoError(t, err)

	assert.NotEqual(t, old.ID, neu.ID)
	assert.Equal(t, old.ID, neu.Replaces)
	assert.Equal(t, root.ID, neu.Owner)
	assert.Equal(t, []int{1}, seen)

	_, ok := s.Record(old.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{neu.ID}, ids(s.Tagged("shelf")))

	_, err = s.ReplaceGeometry(old.ID, GeometryRecord{BBox: box(0, 0, 0, 1, 1, 1)})
	assert.ErrorIs(t, err, ErrStaleRecord)
	assert.Len(t, s.Geometry(), 1)
}

func TestNodeExtentGrows(t *testing.T) {
	s, root := newSpaceWithRoot(t)
	_, err := s.AddGeometry(GeometryRecord{Owner: root.ID, BBox: box(1, 1, 1, 2, 2, 2)})
	require.NoError(t, err)
	n, ok := s.Node(root.ID)
	require.True(t, ok)
	assert.Equal(t, box(0, 0, 0, 2, 2, 2), n.BBox)

	require.NoError(t, s.ExtendNode(root.ID, box(-1, 0, 0, 0, 0, 0)))
	n, _ = s.Node(root.ID)
	assert.Equal(t, box(-1, 0, 0, 2, 2, 2), n.BBox)
	assert.Equal(t, root.Seq, n.Seq)

	assert.ErrorIs(t, s.ExtendNode("missing", box(0, 0, 0, 1, 1, 1)), ErrUnknownNode)
}

func TestRollbackRestoresExactState(t *testing.T) {
	s, root := newSpaceWithRoot(t)
	keep, _ := s.AddGeometry(GeometryRecord{Owner: root.ID, BBox: box(0, 0, 0, 1, 1, 1), Tags: []string{"keep"}})
	before := s.Geometry()
	rootBefore, _ := s.Node(root.ID)

	mark := s.Mark()
	child, err := s.AddNode(NodeEntry{Path: "Root/x.0", Parent: root.ID, BBox: PointBox(V(5, 5, 5))})
	require.NoError(t, err)
	_, _ = s.AddGeometry(GeometryRecord{Owner: child.ID, BBox: box(5, 5, 5, 6, 6, 6), Tags: []string{"temp"}})
	_, err = s.ReplaceGeometry(keep.ID, GeometryRecord{BBox: box(0, 0, 0, 3, 3, 3)})
	require.NoError(t, err)
	require.NoError(t, s.ExtendNode(root.ID, box(0, 0, 0, 9, 9, 9)))

	s.Rollback(mark)

	assert.Equal(t, before, s.Geometry())
	_, ok := s.Node(child.ID)
	assert.False(t, ok)
	rootAfter, _ := s.Node(root.ID)
	assert.Equal(t, rootBefore, rootAfter)
	assert.Equal(t, []string{"keep"}, s.Tags())

	res, err := s.Overlapping(box(4, 4, 4, 7, 7, 7))
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestMaterialsAndEvents(t *testing.T) {
	s := New()
	var kinds []EventKind
	s.OnEvent(func(ev Event) { kinds = append(kinds, ev.Kind) })

	assert.True(t, s.RegisterMaterial("oak"))
	assert.False(t, s.RegisterMaterial("oak"))
	assert.False(t, s.RegisterMaterial(""))
	assert.True(t, s.RegisterMaterial("brass"))
	assert.Equal(t, []string{"oak", "brass"}, s.Materials())

	n, err := s.AddNode(NodeEntry{Path: "Root"})
	require.NoError(t, err)
	assert.True(t, s.RemoveNode(n.ID))
	assert.False(t, s.RemoveNode(n.ID))

	assert.Equal(t, []EventKind{EventMaterialAdded, EventMaterialAdded, EventNodeAdded, EventNodeRemoved}, kinds)
}

func TestStableID(t *testing.T) {
	assert.Equal(t, StableID("Root/rack.0"), StableID("Root/rack.0"))
	assert.NotEqual(t, StableID("Root/rack.0"), StableID("Root/rack.1"))
}
