package space

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/samber/lo"
)

const (
	treeDims     = 3
	treeMinFill  = 25
	treeMaxFill  = 50
	boundPadding = 1e-7
)

// item is what the R-tree stores. Exactly one of geom and node is set.
type item struct {
	rect rtreego.Rect
	box  BoundBox
	seq  uint64
	geom *GeometryRecord
	node *NodeEntry
}

func (it *item) Bounds() rtreego.Rect {
	return it.rect
}

// change is one journal step; rollback reverses it.
type change struct {
	added   *item
	removed *item
}

// BuildSpace indexes the geometry and generator nodes of one generation
// request. It is safe for concurrent use, although a single request
// mutates it from one goroutine at a time.
type BuildSpace struct {
	mu sync.RWMutex

	tree  *rtreego.Rtree
	geoms map[string]*item
	nodes map[string]*item
	tags  map[string]map[string]struct{}

	seq     uint64
	journal []change

	materials []string
	handlers  []EventHandler
}

// New returns an empty Build Space.
func New() *BuildSpace {
	return &BuildSpace{
		tree:  rtreego.NewTree(treeDims, treeMinFill, treeMaxFill),
		geoms: make(map[string]*item),
		nodes: make(map[string]*item),
		tags:  make(map[string]map[string]struct{}),
	}
}

// rect pads the box so zero-extent entries still have a valid R-tree
// rectangle. Exact predicates are re-checked against the unpadded box.
func rect(b BoundBox) rtreego.Rect {
	p := rtreego.Point{b.Min.X - boundPadding, b.Min.Y - boundPadding, b.Min.Z - boundPadding}
	s := b.Size()
	lengths := []float64{s.X + 2*boundPadding, s.Y + 2*boundPadding, s.Z + 2*boundPadding}
	r, err := rtreego.NewRect(p, lengths)
	if err != nil {
		panic(fmt.Sprintf("space: rect for validated box %s: %v", b, err))
	}
	return r
}

// ---------------------------------------------------------------------------
// Nodes
// ---------------------------------------------------------------------------

// AddNode registers a generator node. When the entry has no ID one is
// derived from its path. The returned entry carries the assigned sequence.
func (s *BuildSpace) AddNode(e NodeEntry) (NodeEntry, error) {
	if err := e.BBox.Validate(); err != nil {
		return NodeEntry{}, err
	}
	if e.ID == "" {
		e.ID = StableID(e.Path)
	}

	s.mu.Lock()
	if _, ok := s.nodes[e.ID]; ok {
		s.mu.Unlock()
		return NodeEntry{}, fmt.Errorf("space: node %s (%s) already registered", e.ID, e.Path)
	}
	s.seq++
	e.Seq = s.seq
	s.insertLocked(&item{box: e.BBox, seq: e.Seq, node: &e})
	s.mu.Unlock()

	s.emit(Event{Kind: EventNodeAdded, Node: e.ID})
	return e, nil
}

// ExtendNode grows the node's extent to include b.
func (s *BuildSpace) ExtendNode(id string, b BoundBox) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extendLocked(id, b)
}

func (s *BuildSpace) extendLocked(id string, b BoundBox) error {
	old, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	merged := old.box.Merge(b)
	if merged == old.box {
		return nil
	}
	e := *old.node
	e.BBox = merged
	s.removeLocked(old)
	s.insertLocked(&item{box: merged, seq: e.Seq, node: &e})
	return nil
}

// RemoveNode drops a node entry and reports whether it was present.
// Geometry owned by the node is left in place.
func (s *BuildSpace) RemoveNode(id string) bool {
	s.mu.Lock()
	it, ok := s.nodes[id]
	if ok {
		s.removeLocked(it)
	}
	s.mu.Unlock()
	if ok {
		s.emit(Event{Kind: EventNodeRemoved, Node: id})
	}
	return ok
}

// Node returns the node entry with the given ID.
func (s *BuildSpace) Node(id string) (NodeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.nodes[id]
	if !ok {
		return NodeEntry{}, false
	}
	return *it.node, true
}

// Nodes returns every node entry in registration order.
func (s *BuildSpace) Nodes() []NodeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectNodes(lo.Values(s.nodes))
}

// ---------------------------------------------------------------------------
// Geometry
// ---------------------------------------------------------------------------

// AddGeometry registers a geometry record owned by an existing node and
// grows the owner's extent. When the record has no ID one is derived from
// the owner and the assigned sequence.
func (s *BuildSpace) AddGeometry(rec GeometryRecord) (GeometryRecord, error) {
	if err := rec.BBox.Validate(); err != nil {
		return GeometryRecord{}, err
	}

	s.mu.Lock()
	if _, ok := s.nodes[rec.Owner]; !ok {
		s.mu.Unlock()
		return GeometryRecord{}, fmt.Errorf("%w: %s", ErrUnknownNode, rec.Owner)
	}
	rec = s.addLocked(rec)
	s.mu.Unlock()

	s.emit(Event{Kind: EventGeometryAdded, Node: rec.Owner, Record: rec.ID})
	return rec, nil
}

func (s *BuildSpace) addLocked(rec GeometryRecord) GeometryRecord {
	s.seq++
	rec.Seq = s.seq
	if rec.ID == "" {
		rec.ID = StableID(fmt.Sprintf("%s/geom/%d", rec.Owner, rec.Seq))
	}
	rec.Tags = lo.Uniq(rec.Tags)
	s.insertLocked(&item{box: rec.BBox, seq: rec.Seq, geom: &rec})
	_ = s.extendLocked(rec.Owner, rec.BBox)
	return rec
}

// ReplaceGeometry swaps the record oldID for rec in one step: no query
// observes both or neither. rec keeps the old record's owner and takes a
// fresh sequence. Replacing a record that is no longer present fails with
// ErrStaleRecord and leaves the space unchanged.
func (s *BuildSpace) ReplaceGeometry(oldID string, rec GeometryRecord) (GeometryRecord, error) {
	if err := rec.BBox.Validate(); err != nil {
		return GeometryRecord{}, err
	}

	s.mu.Lock()
	old, ok := s.geoms[oldID]
	if !ok {
		s.mu.Unlock()
		return GeometryRecord{}, &StaleRecordError{ID: oldID}
	}
	s.removeLocked(old)
	rec.Owner = old.geom.Owner
	rec.Replaces = oldID
	rec = s.addLocked(rec)
	s.mu.Unlock()

	s.emit(Event{Kind: EventGeometryReplaced, Node: rec.Owner, Record: rec.ID, Previous: oldID})
	return rec, nil
}

// RemoveGeometry drops a record and returns it.
func (s *BuildSpace) RemoveGeometry(id string) (GeometryRecord, error) {
	s.mu.Lock()
	it, ok := s.geoms[id]
	if !ok {
		s.mu.Unlock()
		return GeometryRecord{}, &StaleRecordError{ID: id}
	}
	s.removeLocked(it)
	s.mu.Unlock()

	s.emit(Event{Kind: EventGeometryRemoved, Node: it.geom.Owner, Record: id})
	return *it.geom, nil
}

// Record returns the geometry record with the given ID.
func (s *BuildSpace) Record(id string) (GeometryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.geoms[id]
	if !ok {
		return GeometryRecord{}, false
	}
	return *it.geom, true
}

// Geometry returns every record in insertion order.
func (s *BuildSpace) Geometry() []GeometryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectGeoms(lo.Values(s.geoms))
}

// Owned returns the records owned by the given node in insertion order.
func (s *BuildSpace) Owned(owner string) []GeometryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectGeoms(lo.Filter(lo.Values(s.geoms), func(it *item, _ int) bool {
		return it.geom.Owner == owner
	}))
}

// Tagged returns the records carrying tag in insertion order.
func (s *BuildSpace) Tagged(tag string) []GeometryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := lo.Keys(s.tags[tag])
	return collectGeoms(lo.Map(ids, func(id string, _ int) *item { return s.geoms[id] }))
}

// Tags returns every tag in use, sorted.
func (s *BuildSpace) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := lo.Keys(s.tags)
	slices.Sort(tags)
	return tags
}

// Len returns the number of geometry records and node entries.
func (s *BuildSpace) Len() (geoms, nodes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.geoms), len(s.nodes)
}

// ---------------------------------------------------------------------------
// Journal
// ---------------------------------------------------------------------------

// Mark returns a journal position for a later Rollback.
func (s *BuildSpace) Mark() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.journal)
}

// Rollback undoes every change made after mark, restoring the exact set of
// records and node entries present at that point.
func (s *BuildSpace) Rollback(mark int) {
	s.mu.Lock()
	if mark < 0 || mark >= len(s.journal) {
		s.mu.Unlock()
		return
	}
	s.rollbackLocked(mark)
	s.mu.Unlock()
	s.emit(Event{Kind: EventRolledBack})
}

func (s *BuildSpace) rollbackLocked(mark int) {
	for i := len(s.journal) - 1; i >= mark; i-- {
		c := s.journal[i]
		if c.added != nil {
			s.unindexLocked(c.added)
		}
		if c.removed != nil {
			s.indexLocked(c.removed)
		}
	}
	s.journal = s.journal[:mark]
}

// ---------------------------------------------------------------------------
// Index maintenance
// ---------------------------------------------------------------------------

func (s *BuildSpace) insertLocked(it *item) {
	s.indexLocked(it)
	s.journal = append(s.journal, change{added: it})
}

func (s *BuildSpace) removeLocked(it *item) {
	s.unindexLocked(it)
	s.journal = append(s.journal, change{removed: it})
}

func (s *BuildSpace) indexLocked(it *item) {
	it.rect = rect(it.box)
	s.tree.Insert(it)
	switch {
	case it.geom != nil:
		s.geoms[it.geom.ID] = it
		for _, tag := range it.geom.Tags {
			if s.tags[tag] == nil {
				s.tags[tag] = make(map[string]struct{})
			}
			s.tags[tag][it.geom.ID] = struct{}{}
		}
	case it.node != nil:
		s.nodes[it.node.ID] = it
	}
}

func (s *BuildSpace) unindexLocked(it *item) {
	s.tree.Delete(it)
	switch {
	case it.geom != nil:
		delete(s.geoms, it.geom.ID)
		for _, tag := range it.geom.Tags {
			delete(s.tags[tag], it.geom.ID)
			if len(s.tags[tag]) == 0 {
				delete(s.tags, tag)
			}
		}
	case it.node != nil:
		delete(s.nodes, it.node.ID)
	}
}

func bySeq(items []*item) []*item {
	slices.SortFunc(items, func(a, b *item) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return items
}

func collectGeoms(items []*item) []GeometryRecord {
	items = bySeq(lo.Filter(items, func(it *item, _ int) bool { return it != nil && it.geom != nil }))
	return lo.Map(items, func(it *item, _ int) GeometryRecord { return *it.geom })
}

func collectNodes(items []*item) []NodeEntry {
	items = bySeq(lo.Filter(items, func(it *item, _ int) bool { return it != nil && it.node != nil }))
	return lo.Map(items, func(it *item, _ int) NodeEntry { return *it.node })
}
