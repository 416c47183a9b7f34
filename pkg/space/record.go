package space

import (
	"slices"

	"github.com/google/uuid"

	"github.com/chazu/burl/pkg/kernel"
)

// idNamespace scopes every deterministic identifier minted by the space.
var idNamespace = uuid.MustParse("5b0e1c2a-7d7c-4a7e-9b61-6f1d3c0f2e11")

// StableID returns a deterministic identifier for key. Equal keys produce
// equal identifiers across runs.
func StableID(key string) string {
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// GeometryRecord is one piece of geometry registered in the Build Space.
// Records are values: replacing geometry produces a new record and never
// mutates an existing one.
type GeometryRecord struct {
	ID        string
	Owner     string
	Seq       uint64
	Solid     kernel.Solid
	BBox      BoundBox
	Tags      []string
	Visible   bool
	Placement Placement
	Shape     string
	Material  string
	// Replaces is the ID of the record this one superseded, if any.
	Replaces string
}

// HasTag reports whether the record carries tag.
func (r GeometryRecord) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// NodeEntry is the Build Space view of a generator node. The bounding box
// starts as the node origin and grows as the node produces geometry and its
// children complete.
type NodeEntry struct {
	ID        string
	Path      string
	Name      string
	Type      string
	Parent    string
	Depth     int
	Seed      int64
	Placement Placement
	BBox      BoundBox
	Seq       uint64
}

// IsRoot reports whether the entry has no parent.
func (n NodeEntry) IsRoot() bool {
	return n.Parent == ""
}
