package generator

import (
	"github.com/chazu/burl/pkg/pick"
	"github.com/chazu/burl/pkg/space"
)

// Spawn instantiates the sub-generator declared as sub, placed at the
// node-local placement at, with args bound positionally to its schema as
// fixed values. The child generates synchronously; when it completes it is
// attached to n and returned. A failed child is not attached, its Build
// Space changes are rolled back, and its *GenerationError is returned for
// n to propagate or, for optional elements, to ignore.
//
// The child's seed depends only on n's seed, sub and the number of earlier
// Spawn calls for sub on n.
func (n *Node) Spawn(sub string, at space.Placement, args ...any) (*Node, error) {
	return n.spawn(sub, at, args, nil)
}

// SpawnWith is Spawn with keyword overrides, which win over args.
func (n *Node) SpawnWith(sub string, at space.Placement, overrides Values, args ...any) (*Node, error) {
	return n.spawn(sub, at, args, overrides)
}

func (n *Node) spawn(sub string, at space.Placement, positional []any, overrides Values) (*Node, error) {
	if err := n.checkGenerating(); err != nil {
		return nil, err
	}
	ordinal := n.spawned[sub]
	n.spawned[sub]++

	ref, err := n.desc.resolveSub(sub, n.cfg)
	if err != nil {
		return nil, err
	}
	desc, err := n.req.registry.Lookup(ref)
	if err != nil {
		return nil, err
	}

	seed := pick.ChildSeed(n.seed, sub, ordinal)
	child := newNode(n.req, desc, n, sub, ordinal, seed, at, positional, overrides)
	if err := child.generate(); err != nil {
		return nil, err
	}

	n.children = append(n.children, child)
	if err := n.req.space.ExtendNode(n.id, child.Extent()); err != nil {
		return nil, err
	}
	return child, nil
}
