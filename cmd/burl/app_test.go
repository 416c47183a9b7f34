package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chazu/burl/pkg/buildtree"
)

// burl runs the command with the bounds kernel and returns its exit code
// and output.
func burl(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"-kernel", "bounds"}, args...)
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func decode(t *testing.T, data string, f buildtree.Format) *buildtree.Document {
	t.Helper()
	doc, err := buildtree.Decode(strings.NewReader(data), f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func TestE2EBookRack(t *testing.T) {
	code, out, errOut := burl(t, "-gen", "BookRack", "-seed", "42")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	doc := decode(t, out, buildtree.JSON)
	if doc.Generator != "BookRack" || doc.Seed != 42 {
		t.Errorf("document is for %s seed %d", doc.Generator, doc.Seed)
	}
	if doc.Stats.Nodes != 2 || doc.Stats.Geometry != 2 || doc.Stats.Hidden != 1 {
		t.Errorf("stats = %+v", doc.Stats)
	}
	if doc.Find("BookRack/rack.0") == nil {
		t.Error("rack node missing")
	}
	if report := buildtree.Validate(doc); !report.OK() {
		t.Errorf("invalid document: %v", report.Errors)
	}
}

func TestE2EDeterministicOutput(t *testing.T) {
	_, a, _ := burl(t, "-gen", "Room", "-seed", "5")
	_, b, _ := burl(t, "-gen", "Room", "-seed", "5")
	if a != b {
		t.Error("same seed produced different output")
	}
	_, c, _ := burl(t, "-gen", "Room", "-seed", "6")
	if a == c {
		t.Error("different seeds produced identical output")
	}
}

func TestE2EMeshes(t *testing.T) {
	code, out, errOut := burl(t, "-gen", "Chair", "-meshes")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	doc := decode(t, out, buildtree.JSON)
	meshes := doc.Meshes()
	if len(meshes) != doc.Stats.Geometry {
		t.Fatalf("meshes = %d, want one per record (%d)", len(meshes), doc.Stats.Geometry)
	}
	for _, m := range meshes {
		if m.TriangleCount() != 12 {
			t.Errorf("mesh %s has %d triangles", m.Source, m.TriangleCount())
		}
	}
}

func TestE2EConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "shelf.toml")
	if err := os.WriteFile(cfg, []byte("length = 1.5\nwidth = 0.4\nheight = 1.8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, errOut := burl(t, "-gen", "BookRack", "-config", cfg, "-format", "yaml")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	doc := decode(t, out, buildtree.YAML)
	if doc.Config["length"] != 1.5 {
		t.Errorf("config = %v", doc.Config)
	}
	if got := doc.Root.Config["length"]; got != 1.5 {
		t.Errorf("root length = %v", got)
	}
}

func TestE2EOutputFormatFromExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.msgpack")
	code, _, errOut := burl(t, "-gen", "Tree", "-o", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := buildtree.Decode(bytes.NewReader(data), buildtree.Msgpack)
	if err != nil {
		t.Fatalf("decode msgpack: %v", err)
	}
	if doc.Generator != "Tree" {
		t.Errorf("generator = %q", doc.Generator)
	}
}

func TestE2ESeedsToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	code, _, errOut := burl(t, "-gen", "Garden", "-seed", "10", "-seeds", "3", "-o", dir)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, name := range []string{"Garden-10.json", "Garden-11.json", "Garden-12.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		doc := decode(t, string(data), buildtree.JSON)
		if !strings.HasSuffix(name, "-"+strconv.FormatInt(doc.Seed, 10)+".json") {
			t.Errorf("%s holds seed %d", name, doc.Seed)
		}
	}
}

func TestE2ECheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "room.json")
	if code, _, errOut := burl(t, "-gen", "Room", "-o", good); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if code, _, errOut := burl(t, "-check", good); code != 0 {
		t.Fatalf("valid document rejected: %s", errOut)
	}

	data, err := os.ReadFile(good)
	if err != nil {
		t.Fatal(err)
	}
	doc := decode(t, string(data), buildtree.JSON)
	doc.Root.Children[0].ID = doc.Root.ID
	bad := filepath.Join(dir, "bad.json")
	f, err := os.Create(bad)
	if err != nil {
		t.Fatal(err)
	}
	if err := buildtree.Encode(f, doc, buildtree.JSON); err != nil {
		t.Fatal(err)
	}
	f.Close()

	code, out, _ := burl(t, "-check", bad)
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if !strings.Contains(out, "error:") {
		t.Errorf("expected findings on stdout, got %q", out)
	}
}

func TestE2EList(t *testing.T) {
	code, out, _ := burl(t, "-list")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"GENERATOR", "BookRack", "Crate", "Garden", "(resolved at spawn)", "rack->Rack"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q", want)
		}
	}
}

func TestE2EScriptsDirectory(t *testing.T) {
	dir := t.TempDir()
	src := `
(generator "Stool")
(param "legs" (between 3 4))
(defn generate []
  (box 0.4 0.4 0.03 :at (vec3 0 0 0.45) :tags "seat"))
`
	if err := os.WriteFile(filepath.Join(dir, "stool.zy"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, errOut := burl(t, "-scripts", dir, "-gen", "Stool")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	doc := decode(t, out, buildtree.JSON)
	seat := doc.Root.Geometry
	if len(seat) != 1 || seat[0].BBox.Min[2] != 0.45 {
		t.Errorf("seat = %+v", seat)
	}
}

func TestE2EScriptFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	src := `
(generator "Broken")
(defn generate [] (fail "out of wood"))
`
	if err := os.WriteFile(filepath.Join(dir, "broken.zy"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, errOut := burl(t, "-scripts", dir, "-gen", "Broken")
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if out != "" {
		t.Errorf("failed run wrote output: %q", out)
	}
	for _, want := range []string{"generation failed", "out of wood", "path=Broken"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
}

func TestE2EErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"no generator", nil, 1, "no generator"},
		{"unknown generator", []string{"-gen", "Spaceship"}, 1, "unknown generator"},
		{"bad format", []string{"-gen", "Tree", "-format", "csv"}, 2, "unknown format"},
		{"bad seeds", []string{"-gen", "Tree", "-seeds", "0"}, 1, "-seeds"},
		{"watch without paths", []string{"-gen", "Tree", "-watch"}, 1, "-watch needs"},
		{"missing config", []string{"-gen", "Tree", "-config", "nope.yaml"}, 1, "nope.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := burl(t, tt.args...)
			if code != tt.code {
				t.Errorf("exit = %d, want %d", code, tt.code)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr missing %q:\n%s", tt.want, errOut)
			}
		})
	}
}

func TestWatchRerunsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("length: 1.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	ran := make(chan struct{}, 8)
	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- watch(ctx, logger, []string{path}, func(context.Context) {
			runs.Add(1)
			ran <- struct{}{}
		})
	}()

	waitRun := func() {
		t.Helper()
		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatal("no run")
		}
	}
	waitRun()
	if err := os.WriteFile(path, []byte("length: 1.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitRun()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watch: %v", err)
	}
	if runs.Load() < 2 {
		t.Errorf("runs = %d, want at least 2", runs.Load())
	}
}

func TestWatchSurvivesRenameSaves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("length: 1.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 8)
	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- watch(ctx, logger, []string{path}, func(context.Context) {
			ran <- struct{}{}
		})
	}()

	waitRun := func(what string) {
		t.Helper()
		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatalf("no run after %s", what)
		}
	}
	// save writes a temp file and renames it over path.
	save := func(body string) {
		t.Helper()
		tmp := filepath.Join(dir, ".cfg.yaml.swp")
		if err := os.WriteFile(tmp, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(tmp, path); err != nil {
			t.Fatal(err)
		}
	}

	waitRun("start")
	save("length: 1.4\n")
	waitRun("first save")
	save("length: 1.6\n")
	waitRun("second save")

	// Unrelated files in the same directory do not trigger runs.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ran:
		t.Error("unrelated file triggered a run")
	case <-time.After(4 * settle):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watch: %v", err)
	}
}
