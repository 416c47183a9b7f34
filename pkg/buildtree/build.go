package buildtree

import (
	"context"
	"fmt"
	"runtime"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/space"
)

type buildOptions struct {
	meshes      bool
	hidden      bool
	config      bool
	meshWorkers int
}

// Option configures Build.
type Option func(*buildOptions)

// WithMeshes attaches a triangle mesh to every exported geometry record.
func WithMeshes() Option {
	return func(o *buildOptions) { o.meshes = true }
}

// WithoutHidden leaves invisible records, such as cutting tools, out of
// the document.
func WithoutHidden() Option {
	return func(o *buildOptions) { o.hidden = false }
}

// WithoutConfig omits the resolved per-node configs.
func WithoutConfig() Option {
	return func(o *buildOptions) { o.config = false }
}

// WithMeshWorkers bounds the number of concurrent mesh conversions.
func WithMeshWorkers(n int) Option {
	return func(o *buildOptions) { o.meshWorkers = n }
}

// Build exports res. Only fully completed trees can be exported; anything
// else fails with generator.ErrIncomplete. Build never mutates res.
func Build(ctx context.Context, res *generator.Result, opts ...Option) (*Document, error) {
	o := buildOptions{hidden: true, config: true, meshWorkers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if res == nil || !res.Complete() {
		return nil, fmt.Errorf("buildtree: %w", generator.ErrIncomplete)
	}

	doc := &Document{
		Version:   FormatVersion,
		Generator: res.Generator,
		Seed:      res.Seed,
		Config:    map[string]any(res.Config),
		Materials: res.Space.Materials(),
	}

	type meshJob struct {
		geom  *GeomDoc
		solid kernel.Solid
	}
	var jobs []meshJob

	var walk func(n *generator.Node) *NodeDoc
	walk = func(n *generator.Node) *NodeDoc {
		nd := &NodeDoc{
			ID:        n.ID(),
			Path:      n.Path(),
			Name:      n.Name(),
			Type:      n.Type(),
			Seed:      n.Seed(),
			Ordinal:   n.Ordinal(),
			Depth:     n.Depth(),
			Placement: placementDoc(n.Placement()),
			BBox:      boxDoc(n.Extent()),
		}
		if o.config {
			nd.Config = n.Config().Map()
		}
		recs := n.Geometry()
		if !o.hidden {
			recs = lo.Filter(recs, func(r space.GeometryRecord, _ int) bool { return r.Visible })
		}
		nd.Geometry = make([]GeomDoc, len(recs))
		for i, r := range recs {
			nd.Geometry[i] = geomDoc(r)
			if o.meshes {
				jobs = append(jobs, meshJob{geom: &nd.Geometry[i], solid: r.Solid})
			}
		}
		for _, c := range n.Children() {
			nd.Children = append(nd.Children, walk(c))
		}
		return nd
	}
	doc.Root = walk(res.Root)

	if len(jobs) > 0 {
		g, ctx := errgroup.WithContext(ctx)
		if o.meshWorkers > 0 {
			g.SetLimit(o.meshWorkers)
		}
		for _, j := range jobs {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				m, err := res.Kernel.ToMesh(j.solid)
				if err != nil {
					return fmt.Errorf("buildtree: mesh for %s: %w", j.geom.ID, err)
				}
				m.Source = j.geom.ID
				j.geom.Mesh = m
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	doc.Stats = computeStats(doc)
	return doc, nil
}

func geomDoc(r space.GeometryRecord) GeomDoc {
	return GeomDoc{
		ID:       r.ID,
		Owner:    r.Owner,
		Shape:    r.Shape,
		BBox:     boxDoc(r.BBox),
		Volume:   r.BBox.Volume(),
		Visible:  r.Visible,
		Tags:     r.Tags,
		Material: r.Material,
		Replaces: r.Replaces,
	}
}

func computeStats(doc *Document) Stats {
	var s Stats
	_ = doc.Walk(func(n *NodeDoc) error {
		s.Nodes++
		s.MaxDepth = max(s.MaxDepth, n.Depth)
		for _, g := range n.Geometry {
			s.Geometry++
			if !g.Visible {
				s.Hidden++
				continue
			}
			s.Volume += g.Volume
		}
		return nil
	})
	return s
}

// Meshes returns every attached mesh in document order.
func (d *Document) Meshes() []*kernel.Mesh {
	var out []*kernel.Mesh
	_ = d.Walk(func(n *NodeDoc) error {
		for _, g := range n.Geometry {
			if g.Mesh != nil {
				out = append(out, g.Mesh)
			}
		}
		return nil
	})
	return out
}
