package generator

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/lo"
)

type entry struct {
	desc    *Descriptor
	version *semver.Version
}

// Registry maps generator names to descriptors, optionally keeping several
// versions of one name side by side.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string][]entry)}
}

var zeroVersion = semver.MustParse("0.0.0")

// Register adds d. A name may be registered once per version; an empty
// version counts as 0.0.0.
func (r *Registry) Register(d *Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}
	if strings.ContainsAny(d.Name, "@/") {
		return fmt.Errorf("generator: descriptor name %q may not contain '@' or '/'", d.Name)
	}
	v := zeroVersion
	if d.Version != "" {
		var err error
		v, err = semver.NewVersion(d.Version)
		if err != nil {
			return fmt.Errorf("generator: descriptor %s: version %q: %w", d.Name, d.Version, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries[d.Name] {
		if e.version.Equal(v) {
			return fmt.Errorf("generator: %s version %s already registered", d.Name, v)
		}
	}
	// Lookup reads lists outside the lock, so never sort one in place.
	list := append(slices.Clone(r.entries[d.Name]), entry{desc: d, version: v})
	slices.SortFunc(list, func(a, b entry) int { return b.version.Compare(a.version) })
	r.entries[d.Name] = list
	return nil
}

// MustRegister registers every descriptor and panics on the first error.
func (r *Registry) MustRegister(ds ...*Descriptor) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Lookup resolves "Name", "Name@1.2.0" or "Name@<constraint>" (for
// example "Name@^1"). Without a version the highest registered version
// wins.
func (r *Registry) Lookup(ref string) (*Descriptor, error) {
	name, constraint, hasVersion := strings.Cut(ref, "@")

	r.mu.RLock()
	list := r.entries[name]
	r.mu.RUnlock()

	if len(list) == 0 {
		return nil, &UnknownGeneratorError{Ref: ref}
	}
	if !hasVersion {
		return list[0].desc, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, &UnknownGeneratorError{Ref: ref, Reason: err.Error()}
	}
	for _, e := range list {
		if c.Check(e.version) {
			return e.desc, nil
		}
	}
	return nil, &UnknownGeneratorError{Ref: ref, Reason: "no registered version satisfies " + constraint}
}

// Names returns the registered generator names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.entries)
	slices.Sort(names)
	return names
}

// Descriptors returns every registered descriptor, by name and then by
// descending version.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.entries)
	slices.Sort(names)
	var out []*Descriptor
	for _, name := range names {
		out = append(out, lo.Map(r.entries[name], func(e entry, _ int) *Descriptor { return e.desc })...)
	}
	return out
}
