package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"

	"github.com/chazu/burl/internal/config"
	"github.com/chazu/burl/pkg/buildtree"
	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/kernel/bounds"
	"github.com/chazu/burl/pkg/kernel/manifold"
	"github.com/chazu/burl/pkg/kernel/sdfx"
	"github.com/chazu/burl/pkg/samples"
	"github.com/chazu/burl/pkg/script"
)

// App wires settings, the generator registry and a kernel into the
// operations the command exposes.
type App struct {
	settings config.Settings
	logger   *slog.Logger
	kernel   kernel.Kernel
	registry *generator.Registry
	runner   *generator.Runner
}

// NewApp builds the registry from the samples plus any scripts in
// settings.Scripts, and a runner over the chosen kernel.
func NewApp(s config.Settings, logger *slog.Logger) (*App, error) {
	k, err := newKernel(s.Kernel)
	if err != nil {
		return nil, err
	}
	opts := []script.Option{script.WithTimeout(s.ScriptTimeout)}
	reg, err := samples.NewRegistry(opts...)
	if err != nil {
		return nil, err
	}
	if s.Scripts != "" {
		loaded, err := script.Register(reg, os.DirFS(s.Scripts), "*.zy", opts...)
		if err != nil {
			return nil, fmt.Errorf("load scripts from %s: %w", s.Scripts, err)
		}
		logger.Debug("loaded scripts", "dir", s.Scripts, "count", len(loaded))
	}
	return &App{
		settings: s,
		logger:   logger,
		kernel:   k,
		registry: reg,
		runner:   generator.NewRunner(reg, k, generator.WithLogger(logger), generator.WithTimeout(s.Timeout)),
	}, nil
}

func newKernel(name string) (kernel.Kernel, error) {
	switch name {
	case "sdfx":
		return sdfx.New(), nil
	case "bounds":
		return bounds.New(), nil
	case "manifold":
		return manifold.New()
	}
	return nil, fmt.Errorf("unknown kernel %q", name)
}

func (a *App) buildOptions() []buildtree.Option {
	if a.settings.Meshes {
		return []buildtree.Option{buildtree.WithMeshes()}
	}
	return nil
}

// Generate runs one request and exports its build tree.
func (a *App) Generate(ctx context.Context, name string, seed int64, explicit generator.Values) (*buildtree.Document, error) {
	res, err := a.runner.Run(ctx, name, seed, explicit)
	if err != nil {
		a.logFailure(err)
		return nil, err
	}
	return buildtree.Build(ctx, res, a.buildOptions()...)
}

// GenerateSeeds runs the same generator once per seed, concurrently, and
// exports each tree in seed order.
func (a *App) GenerateSeeds(ctx context.Context, name string, seeds []int64, explicit generator.Values) ([]*buildtree.Document, error) {
	reqs := lo.Map(seeds, func(seed int64, _ int) generator.Request {
		return generator.Request{Generator: name, Seed: seed, Config: explicit}
	})
	results, err := a.runner.RunBatch(ctx, reqs, a.settings.BatchLimit)
	if err != nil {
		a.logFailure(err)
		return nil, err
	}
	docs := make([]*buildtree.Document, len(results))
	for i, res := range results {
		if docs[i], err = buildtree.Build(ctx, res, a.buildOptions()...); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// logFailure reports the node where a generation failure started, with
// what is needed to reproduce it.
func (a *App) logFailure(err error) {
	var ge *generator.GenerationError
	if errors.As(err, &ge) {
		root := ge.Root()
		a.logger.Error("generation failed", "path", root.Path, "type", root.Type, "seed", root.Seed, "error", root.Err)
		var se *script.Error
		if errors.As(err, &se) {
			for _, e := range se.Errors {
				a.logger.Error("script error", "script", se.Script, "line", e.Line, "message", e.Message)
			}
		}
	}
}

// Write encodes doc to w in the configured format.
func (a *App) Write(w io.Writer, doc *buildtree.Document) error {
	f, err := buildtree.ParseFormat(a.settings.Format)
	if err != nil {
		return err
	}
	return buildtree.Encode(w, doc, f)
}

// WriteFile encodes doc to path. The format follows the extension when it
// names one and the configured format otherwise.
func (a *App) WriteFile(path string, doc *buildtree.Document) error {
	f, err := buildtree.FormatFor(path)
	if err != nil {
		if f, err = buildtree.ParseFormat(a.settings.Format); err != nil {
			return err
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := buildtree.Encode(out, doc, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// OutputName is the file written for one seed of a batch into dir.
func (a *App) OutputName(dir string, doc *buildtree.Document) string {
	ext := a.settings.Format
	if f, err := buildtree.ParseFormat(ext); err == nil {
		ext = string(f)
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%d.%s", doc.Generator, doc.Seed, ext))
}

// List prints the registered generators with their parameters.
func (a *App) List(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATOR\tVERSION\tPARAMETERS\tSUB-GENERATORS")
	for _, d := range a.registry.Descriptors() {
		params := lo.Map(d.Params, func(p generator.Param, _ int) string {
			return p.Name + "=" + p.Spec.String()
		})
		subs := lo.Map(d.SubNames(), func(s string, _ int) string { return s + "->" + d.Subs[s] })
		if d.ResolveSub != nil {
			subs = append(subs, "(resolved at spawn)")
		}
		version := d.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, version, strings.Join(params, " "), strings.Join(subs, " "))
	}
	return tw.Flush()
}
