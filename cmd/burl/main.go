// Command burl runs procedural generators and writes their build trees.
//
//	burl -gen BookRack -seed 42
//	burl -gen Room -config room.yaml -format yaml -o room.yaml
//	burl -gen Tree -seed 1 -seeds 8 -o out/
//	burl -gen Crate -scripts ./gens -watch -o crate.json
//	burl -list
//	burl -check room.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/chazu/burl/internal/config"
	"github.com/chazu/burl/pkg/buildtree"
	"github.com/chazu/burl/pkg/generator"
)

// options are the per-invocation flags; config.Settings holds the rest.
type options struct {
	gen   string
	seed  int64
	seeds int
	cfg   string
	out   string
	list  bool
	check string
	watch bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("burl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.gen, "gen", "", "generator to run, as Name or Name@constraint")
	fs.Int64Var(&o.seed, "seed", 0, "request seed")
	fs.IntVar(&o.seeds, "seeds", 1, "run this many consecutive seeds starting at -seed")
	fs.StringVar(&o.cfg, "config", "", "explicit config file (.yaml, .toml or .json)")
	fs.StringVar(&o.out, "o", "", "output file, or directory when running several seeds (default stdout)")
	fs.BoolVar(&o.list, "list", false, "list the registered generators")
	fs.StringVar(&o.check, "check", "", "validate an exported build tree file and exit")
	fs.BoolVar(&o.watch, "watch", false, "rerun when the config file or scripts change")

	settings, err := config.ParseFromArgs(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger, err := config.NewLogger(stderr, settings.LogLevel, settings.LogFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if err := execute(ctx, o, settings, logger, stdout); err != nil {
		logger.Error("burl failed", "error", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, o options, s config.Settings, logger *slog.Logger, stdout io.Writer) error {
	if o.check != "" {
		return check(o.check, s, logger, stdout)
	}

	app, err := NewApp(s, logger)
	if err != nil {
		return err
	}
	if o.list {
		return app.List(stdout)
	}
	if o.gen == "" {
		return errors.New("no generator given (use -gen, or -list to see them)")
	}
	if o.seeds < 1 {
		return fmt.Errorf("-seeds must be at least 1, got %d", o.seeds)
	}

	if !o.watch {
		return generate(ctx, app, o, stdout)
	}

	var paths []string
	if o.cfg != "" {
		paths = append(paths, o.cfg)
	}
	if s.Scripts != "" {
		paths = append(paths, s.Scripts)
	}
	if len(paths) == 0 {
		return errors.New("-watch needs -config or -scripts to watch")
	}
	return watch(ctx, logger, paths, func(ctx context.Context) {
		// Scripts may have changed, so the registry is rebuilt each time.
		app, err := NewApp(s, logger)
		if err == nil {
			err = generate(ctx, app, o, stdout)
		}
		if err != nil {
			logger.Error("rerun failed", "error", err)
			return
		}
		logger.Info("rerun complete", "generator", o.gen)
	})
}

func generate(ctx context.Context, app *App, o options, stdout io.Writer) error {
	var explicit generator.Values
	if o.cfg != "" {
		var err error
		if explicit, err = config.LoadValues(o.cfg); err != nil {
			return err
		}
	}

	if o.seeds == 1 {
		doc, err := app.Generate(ctx, o.gen, o.seed, explicit)
		if err != nil {
			return err
		}
		if o.out == "" {
			return app.Write(stdout, doc)
		}
		return app.WriteFile(o.out, doc)
	}

	seeds := make([]int64, o.seeds)
	for i := range seeds {
		seeds[i] = o.seed + int64(i)
	}
	docs, err := app.GenerateSeeds(ctx, o.gen, seeds, explicit)
	if err != nil {
		return err
	}
	if o.out != "" {
		if err := os.MkdirAll(o.out, 0o755); err != nil {
			return err
		}
	}
	for _, doc := range docs {
		if o.out == "" {
			if err := app.Write(stdout, doc); err != nil {
				return err
			}
			continue
		}
		if err := app.WriteFile(app.OutputName(o.out, doc), doc); err != nil {
			return err
		}
	}
	return nil
}

func check(path string, s config.Settings, logger *slog.Logger, stdout io.Writer) error {
	f, err := buildtree.FormatFor(path)
	if err != nil {
		if f, err = buildtree.ParseFormat(s.Format); err != nil {
			return err
		}
	}
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	doc, err := buildtree.Decode(in, f)
	if err != nil {
		return err
	}
	report := buildtree.Validate(doc)
	for _, w := range report.Warnings {
		fmt.Fprintln(stdout, "warning:", w.Error())
	}
	for _, e := range report.Errors {
		fmt.Fprintln(stdout, "error:", e.Error())
	}
	if !report.OK() {
		return fmt.Errorf("%s: %d problems", path, len(report.Errors))
	}
	logger.Info("build tree is valid", "path", path, "nodes", doc.Stats.Nodes, "warnings", len(report.Warnings))
	return nil
}
