// Package script runs generator bodies written in a small Lisp, evaluated
// by zygomys in a sandbox. A script declares its generator at top level and
// defines a generate function:
//
//	(generator "Crate" :version "1.0.0")
//	(param "size" (between 0.4 0.8))
//	(subgen "slat" "Slat")
//
//	(defn generate []
//	  (box (cfg "size") (cfg "size") 0.05 :tags "floor"))
//
// Every node gets a fresh sandbox, and all randomness comes from the node's
// Picker, so scripted generators are as deterministic as Go ones.
package script

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/burl/pkg/generator"
)

// EvalTimeout is the default limit for one scripted node.
const EvalTimeout = 5 * time.Second

// entryPoint is the function a script defines to generate a node.
const entryPoint = "generate"

// Script is a loaded generator script.
type Script struct {
	name    string
	source  string
	decl    declarations
	timeout time.Duration
}

// Option configures a Script.
type Option func(*Script)

// WithTimeout bounds each scripted node. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Script) { s.timeout = d }
}

// Parse loads source, running its top-level declarations once. name is
// used in errors and as the generator name when the script does not
// declare one.
func Parse(name, source string, opts ...Option) (*Script, error) {
	s := &Script{
		name:    name,
		source:  preprocessSource(source),
		decl:    declarations{subs: map[string]string{}},
		timeout: EvalTimeout,
	}
	for _, o := range opts {
		o(s)
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerDeclarations(env, &s.decl)

	if err := env.LoadString(s.source); err != nil {
		return nil, scriptError(name, err, nil)
	}
	if _, err := env.Run(); err != nil {
		return nil, scriptError(name, err, nil)
	}
	if s.decl.name == "" {
		s.decl.name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	return s, nil
}

// Name returns the declared generator name.
func (s *Script) Name() string {
	return s.decl.name
}

// Descriptor returns a generator descriptor whose body runs the script.
func (s *Script) Descriptor() *generator.Descriptor {
	return &generator.Descriptor{
		Name:        s.decl.name,
		Version:     s.decl.version,
		Title:       s.decl.title,
		Description: s.decl.description,
		Params:      s.decl.params,
		Subs:        s.decl.subs,
		Body:        s,
	}
}

type evalResult struct {
	err error
}

// Generate runs the script's generate function for n.
func (s *Script) Generate(n *generator.Node, cfg generator.Config) error {
	b := &binding{node: n, cfg: cfg}
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during script %s: %v", s.name, r)}
			}
		}()
		ch <- evalResult{err: s.evaluate(b)}
	}()

	return waitWithTimeout(n.Context(), ch, b, s.timeout)
}

func (s *Script) evaluate(b *binding) error {
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerInert(env)
	registerGeneration(env, b)

	// The call goes after the source so error line numbers still match it.
	if err := env.LoadString(s.source + "\n(" + entryPoint + ")\n"); err != nil {
		return scriptError(s.name, err, nil)
	}
	if _, err := env.Run(); err != nil {
		return scriptError(s.name, err, b.cause)
	}
	return nil
}

// LoadFS parses every file matching pattern in fsys, in lexical order.
func LoadFS(fsys fs.FS, pattern string, opts ...Option) ([]*Script, error) {
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	var scripts []*Script
	for _, m := range matches {
		src, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, err
		}
		s, err := Parse(m, string(src), opts...)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// Register parses the matching scripts in fsys and registers their
// descriptors.
func Register(reg *generator.Registry, fsys fs.FS, pattern string, opts ...Option) ([]*Script, error) {
	scripts, err := LoadFS(fsys, pattern, opts...)
	if err != nil {
		return nil, err
	}
	for _, s := range scripts {
		if err := reg.Register(s.Descriptor()); err != nil {
			return nil, fmt.Errorf("script %s: %w", s.name, err)
		}
	}
	return scripts, nil
}
