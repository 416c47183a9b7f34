// Package generator implements the generator tree: parameter schemas and
// their resolution, the registry of generator types, and the node
// lifecycle that expands a generator into geometry and sub-generators
// inside a shared Build Space.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/pick"
	"github.com/chazu/burl/pkg/space"
)

// State is the lifecycle state of a node.
type State int

const (
	Pending State = iota
	Generating
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Generating:
		return "generating"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// request is shared by every node of one generation request.
type request struct {
	ctx      context.Context
	space    *space.BuildSpace
	registry *Registry
	kernel   kernel.Kernel
	logger   *slog.Logger
	seed     int64
	patches  map[string]Values
}

// Node is one generator instance in the tree. A node owns its children
// exclusively and refers to nothing else directly: its parent and every
// other node are reachable only through Build Space queries.
type Node struct {
	req    *request
	desc   *Descriptor
	logger *slog.Logger

	id       string
	path     string
	name     string
	parentID string
	seed     int64
	ordinal  int
	depth    int

	local  space.Placement
	global space.Placement

	positional []any
	overrides  Values
	cfg        Config
	picker     *pick.Picker

	children []*Node
	spawned  map[string]int
	minted   int

	state State
	err   error
}

func newNode(req *request, desc *Descriptor, parent *Node, name string, ordinal int, seed int64,
	at space.Placement, positional []any, overrides Values) *Node {
	n := &Node{
		req:        req,
		desc:       desc,
		name:       name,
		seed:       seed,
		ordinal:    ordinal,
		local:      at,
		global:     at,
		positional: positional,
		overrides:  overrides,
		picker:     pick.New(seed),
		spawned:    make(map[string]int),
	}
	if parent == nil {
		n.path = name
	} else {
		n.path = fmt.Sprintf("%s/%s.%d", parent.path, name, ordinal)
		n.parentID = parent.id
		n.depth = parent.depth + 1
		n.global = parent.global.Compose(at)
	}
	n.id = space.StableID(fmt.Sprintf("%d:%s", req.seed, n.path))
	n.logger = req.logger.With("path", n.path, "type", desc.Name, "seed", seed)
	return n
}

// generate runs the node body exactly once. On failure every Build Space
// change made by this node and its descendants is rolled back.
func (n *Node) generate() error {
	if n.state != Pending {
		return fmt.Errorf("generator: %s cannot generate while %s", n.path, n.state)
	}
	mark := n.req.space.Mark()
	n.state = Generating
	n.logger.Debug("generating")

	if err := n.run(); err != nil {
		n.req.space.Rollback(mark)
		n.state = Failed
		n.err = &GenerationError{NodeID: n.id, Path: n.path, Type: n.desc.Name, Seed: n.seed, Err: err}
		n.logger.Warn("generation failed", "error", err)
		return n.err
	}

	n.state = Complete
	n.logger.Debug("generated", "children", len(n.children))
	return nil
}

func (n *Node) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := n.req.ctx.Err(); err != nil {
		return err
	}

	_, err = n.req.space.AddNode(space.NodeEntry{
		ID:        n.id,
		Path:      n.path,
		Name:      n.name,
		Type:      n.desc.Ref(),
		Parent:    n.parentID,
		Depth:     n.depth,
		Seed:      n.seed,
		Placement: n.global,
		BBox:      space.PointBox(n.global.Origin()),
	})
	if err != nil {
		return err
	}

	overrides := n.overrides
	if patch, ok := n.req.patches[n.path]; ok {
		overrides = maps.Clone(overrides)
		if overrides == nil {
			overrides = Values{}
		}
		maps.Copy(overrides, patch)
	}
	n.cfg, err = n.desc.Params.Resolve(n.picker, n.positional, overrides)
	if err != nil {
		var me *MissingParameterError
		if errors.As(err, &me) && me.Generator == "" {
			me.Generator = n.desc.Name
		}
		return err
	}

	return n.desc.Body.Generate(n, n.cfg)
}

func (n *Node) checkGenerating() error {
	if n.state != Generating {
		return fmt.Errorf("%w: %s is %s", ErrNotGenerating, n.path, n.state)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (n *Node) ID() string                     { return n.id }
func (n *Node) Path() string                   { return n.path }
func (n *Node) Name() string                   { return n.name }
func (n *Node) ParentID() string               { return n.parentID }
func (n *Node) Seed() int64                    { return n.seed }
func (n *Node) Ordinal() int                   { return n.ordinal }
func (n *Node) Depth() int                     { return n.depth }
func (n *Node) Config() Config                 { return n.cfg }
func (n *Node) Picker() *pick.Picker           { return n.picker }
func (n *Node) Kernel() kernel.Kernel          { return n.req.kernel }
func (n *Node) Logger() *slog.Logger           { return n.logger }
func (n *Node) Context() context.Context       { return n.req.ctx }
func (n *Node) Descriptor() *Descriptor        { return n.desc }
func (n *Node) Placement() space.Placement     { return n.global }
func (n *Node) Local() space.Placement         { return n.local }
func (n *Node) State() State                   { return n.state }
func (n *Node) Err() error                     { return n.err }

// Type returns the registry reference of the node's generator.
func (n *Node) Type() string {
	return n.desc.Ref()
}

// Children returns the completed children in spawn order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Geometry returns the records this node currently owns, in insertion
// order. Records replaced by other nodes appear in their new form.
func (n *Node) Geometry() []space.GeometryRecord {
	return n.req.space.Owned(n.id)
}

// Extent returns the node's current bounding volume in world coordinates.
func (n *Node) Extent() space.BoundBox {
	if e, ok := n.req.space.Node(n.id); ok {
		return e.BBox
	}
	return space.PointBox(n.global.Origin())
}

// Walk calls fn for n and every descendant, depth first in spawn order.
// Returning an error from fn stops the walk.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) String() string {
	return fmt.Sprintf("<%s %s seed=%d %s>", n.desc.Name, n.path, n.seed, n.state)
}
