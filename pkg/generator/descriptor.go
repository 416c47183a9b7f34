package generator

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Body is the generation logic of one generator type. Generate runs once
// per node while the node is Generating.
type Body interface {
	Generate(n *Node, cfg Config) error
}

// BodyFunc adapts a function to Body.
type BodyFunc func(n *Node, cfg Config) error

// Generate calls f(n, cfg).
func (f BodyFunc) Generate(n *Node, cfg Config) error {
	return f(n, cfg)
}

// Typed adapts a function taking a typed configuration struct. The
// resolved Config is decoded into a fresh C before each call.
func Typed[C any](f func(n *Node, cfg C) error) Body {
	return BodyFunc(func(n *Node, cfg Config) error {
		var c C
		if err := cfg.Decode(&c); err != nil {
			return err
		}
		return f(n, c)
	})
}

// SubResolver picks the registry reference for a sub-generator name at
// spawn time. Returning ok=false means the name is not declared.
type SubResolver func(sub string, cfg Config) (ref string, ok bool, err error)

// Descriptor is the static definition of a generator type.
type Descriptor struct {
	Name        string
	Version     string
	Title       string
	Description string
	Params      Schema

	// Subs maps sub-generator names to registry references. A reference
	// may name the descriptor itself for recursive structures; it is
	// looked up when the child is spawned, not when the descriptor is
	// registered.
	Subs map[string]string

	// ResolveSub, when set, is consulted for names missing from Subs.
	ResolveSub SubResolver

	Body Body
}

// Ref returns "Name" or "Name@Version".
func (d *Descriptor) Ref() string {
	if d.Version == "" {
		return d.Name
	}
	return d.Name + "@" + d.Version
}

// SubNames returns the statically declared sub-generator names, sorted.
func (d *Descriptor) SubNames() []string {
	names := lo.Keys(d.Subs)
	slices.Sort(names)
	return names
}

func (d *Descriptor) resolveSub(sub string, cfg Config) (string, error) {
	if ref, ok := d.Subs[sub]; ok {
		return ref, nil
	}
	if d.ResolveSub != nil {
		ref, ok, err := d.ResolveSub(sub, cfg)
		if err != nil {
			return "", &UnknownSubGeneratorError{Parent: d.Name, Sub: sub, Err: err}
		}
		if ok {
			return ref, nil
		}
	}
	return "", &UnknownSubGeneratorError{Parent: d.Name, Sub: sub}
}

func (d *Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("generator: descriptor has no name")
	}
	if d.Body == nil {
		return fmt.Errorf("generator: descriptor %s has no body", d.Name)
	}
	seen := map[string]bool{}
	for _, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("generator: descriptor %s has an unnamed parameter", d.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("generator: descriptor %s declares parameter %q twice", d.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
