package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/space"
)

// DefaultTimeout is the hard limit for a single generation request.
const DefaultTimeout = 30 * time.Second

// Runner executes top-level generation requests against a registry and a
// geometry kernel. It is safe for concurrent use; every request gets its
// own Build Space.
type Runner struct {
	registry *Registry
	kernel   kernel.Kernel
	logger   *slog.Logger
	timeout  time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for request and node lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTimeout bounds each request. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// NewRunner returns a Runner.
func NewRunner(reg *Registry, k kernel.Kernel, opts ...Option) *Runner {
	r := &Runner{
		registry: reg,
		kernel:   k,
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Registry returns the runner's registry.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Kernel returns the runner's geometry kernel.
func (r *Runner) Kernel() kernel.Kernel {
	return r.kernel
}

// Result is the outcome of one request: the generator tree and the Build
// Space it populated.
type Result struct {
	Generator string
	Seed      int64
	Config    Values
	Root      *Node
	Space     *space.BuildSpace
	Kernel    kernel.Kernel

	patches map[string]Values
}

// Complete reports whether every node of the tree completed.
func (res *Result) Complete() bool {
	if res == nil || res.Root == nil {
		return false
	}
	err := res.Root.Walk(func(n *Node) error {
		if n.state != Complete {
			return ErrIncomplete
		}
		return nil
	})
	return err == nil
}

// Find returns the nodes for which match returns true, depth first.
func (res *Result) Find(match func(*Node) bool) []*Node {
	var out []*Node
	if res == nil || res.Root == nil {
		return nil
	}
	_ = res.Root.Walk(func(n *Node) error {
		if match(n) {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// Node returns the node at path.
func (res *Result) Node(path string) (*Node, bool) {
	found := res.Find(func(n *Node) bool { return n.path == path })
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

// Count returns the number of nodes in the tree.
func (res *Result) Count() int {
	return len(res.Find(func(*Node) bool { return true }))
}

// Run generates the named generator with seed and the explicit config as
// fixed overrides. Equal (name, seed, explicit) always produce equal
// trees.
//
// When generation itself fails the returned error is a *GenerationError
// and the Result is still returned, with a Failed root, for inspection.
// Such a tree is not valid output. For any other failure, including
// timeout, the Result is nil.
func (r *Runner) Run(ctx context.Context, name string, seed int64, explicit Values) (*Result, error) {
	return r.run(ctx, name, seed, explicit, nil)
}

// Rerun repeats the request behind res with overrides applied to the node
// at path, and returns the new Result; res is left untouched. Everything
// generated before that node is reproduced identically, and everything
// after it sees the changed subtree through the Build Space.
func (r *Runner) Rerun(ctx context.Context, res *Result, path string, overrides Values) (*Result, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: no result to rerun", ErrNodeNotFound)
	}
	if _, ok := res.Node(path); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, path)
	}
	patches := make(map[string]Values, len(res.patches)+1)
	for p, v := range res.patches {
		patches[p] = maps.Clone(v)
	}
	if patches[path] == nil {
		patches[path] = Values{}
	}
	maps.Copy(patches[path], overrides)
	return r.run(ctx, res.Generator, res.Seed, res.Config, patches)
}

type runOutcome struct {
	err error
}

func (r *Runner) run(ctx context.Context, name string, seed int64, explicit Values, patches map[string]Values) (*Result, error) {
	desc, err := r.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req := &request{
		ctx:      ctx,
		space:    space.New(),
		registry: r.registry,
		kernel:   r.kernel,
		logger:   r.logger,
		seed:     seed,
		patches:  patches,
	}
	root := newNode(req, desc, nil, desc.Name, 0, seed, space.Identity(), nil, maps.Clone(explicit))
	res := &Result{
		Generator: name,
		Seed:      seed,
		Config:    maps.Clone(explicit),
		Root:      root,
		Space:     req.space,
		Kernel:    r.kernel,
		patches:   patches,
	}

	start := time.Now()
	ch := make(chan runOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- runOutcome{err: fmt.Errorf("panic during generation: %v", rec)}
			}
		}()
		ch <- runOutcome{err: root.generate()}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			r.logger.Warn("request failed", "generator", name, "seed", seed, "error", out.err)
			var ge *GenerationError
			if errors.As(out.err, &ge) {
				return res, out.err
			}
			return nil, out.err
		}
		geoms, nodes := req.space.Len()
		r.logger.Info("request complete", "generator", name, "seed", seed,
			"nodes", nodes, "geometry", geoms, "elapsed", time.Since(start))
		return res, nil

	case <-ctx.Done():
		// The traversal stops at the next node boundary; its result is discarded.
		r.logger.Warn("request abandoned", "generator", name, "seed", seed, "error", ctx.Err())
		return nil, fmt.Errorf("generator: %s seed %d: %w", name, seed, ctx.Err())
	}
}

// Request names one top-level generation for RunBatch.
type Request struct {
	Generator string
	Seed      int64
	Config    Values
}

// RunBatch runs independent requests concurrently, at most limit at a time
// (limit <= 0 means no limit). Results are in request order. The first
// failure cancels the remaining requests and is returned.
func (r *Runner) RunBatch(ctx context.Context, reqs []Request, limit int) ([]*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	results := make([]*Result, len(reqs))
	for i, rq := range reqs {
		g.Go(func() error {
			res, err := r.Run(ctx, rq.Generator, rq.Seed, rq.Config)
			if err != nil {
				return fmt.Errorf("request %d (%s seed %d): %w", i, rq.Generator, rq.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
