package script

import (
	"fmt"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"

	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/kernel"
	"github.com/chazu/burl/pkg/pick"
	"github.com/chazu/burl/pkg/space"
)

// builtinFunc is the zygomys builtin signature.
type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSpec wraps a parameter spec built by between, one-of, fixed or
// required.
type sexpSpec struct {
	spec generator.Spec
}

func (s *sexpSpec) SexpString(ps *zygo.PrintState) string { return "(spec " + s.spec.String() + ")" }
func (s *sexpSpec) Type() *zygo.RegisteredType           { return nil }

// sexpVec3 wraps a point or angle triple.
type sexpVec3 struct {
	vec space.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpGeom wraps a geometry record registered by the script or found by a
// query.
type sexpGeom struct {
	rec space.GeometryRecord
}

func (g *sexpGeom) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(geom %s %s)", g.rec.Shape, g.rec.ID[:8])
}
func (g *sexpGeom) Type() *zygo.RegisteredType { return nil }

func toVec3(s zygo.Sexp) (space.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	items, err := toSlice(s)
	if err != nil || len(items) != 3 {
		return space.Vec3{}, fmt.Errorf("expected vec3, got %s", describe(s))
	}
	var xyz [3]float64
	for i, it := range items {
		if xyz[i], err = toFloat64(it); err != nil {
			return space.Vec3{}, err
		}
	}
	return space.V(xyz[0], xyz[1], xyz[2]), nil
}

func toGeom(s zygo.Sexp) (space.GeometryRecord, error) {
	if g, ok := s.(*sexpGeom); ok {
		return g.rec, nil
	}
	return space.GeometryRecord{}, fmt.Errorf("expected geometry, got %s", describe(s))
}

func geomList(recs []space.GeometryRecord) zygo.Sexp {
	return zygo.MakeList(lo.Map(recs, func(r space.GeometryRecord, _ int) zygo.Sexp { return &sexpGeom{rec: r} }))
}

func vec3Builtin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var xyz [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		xyz[i] = f
	}
	return &sexpVec3{vec: space.V(xyz[0], xyz[1], xyz[2])}, nil
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// declarations collects what a script declares at load time.
type declarations struct {
	name, version, title, description string
	params                            generator.Schema
	subs                              map[string]string
}

// registerDeclarations installs the load-time builtins:
//
//	(generator "Name" :version "1.0.0" :title "..." :description "...")
//	(param "name" (between 1 5) :doc "...")
//	(subgen "leg" "Leg@^1")
//	(between a b) (one-of a b ...) (fixed v) (required)
func registerDeclarations(env *zygo.Zlisp, d *declarations) {
	env.AddFunction("generator", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("generator requires a name")
		}
		var err error
		if d.name, err = toString(pa.positional[0]); err != nil {
			return zygo.SexpNull, fmt.Errorf("generator: name: %w", err)
		}
		for kw, dst := range map[string]*string{"version": &d.version, "title": &d.title, "description": &d.description} {
			if v, ok := pa.kw[kw]; ok {
				if *dst, err = toString(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("generator: %s: %w", kw, err)
				}
			}
		}
		return zygo.SexpNull, nil
	})

	env.AddFunction("param", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("param requires a name and a spec")
		}
		pname, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param: name: %w", err)
		}
		p := generator.Param{Name: pname}
		if s, ok := pa.positional[1].(*sexpSpec); ok {
			p.Spec = s.spec
		} else {
			v, err := toGo(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("param %s: %w", pname, err)
			}
			p.Spec = generator.Value(v)
		}
		if v, ok := pa.kw["doc"]; ok {
			if p.Doc, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("param %s: doc: %w", pname, err)
			}
		}
		d.params = append(d.params, p)
		return zygo.SexpNull, nil
	})

	env.AddFunction("subgen", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("subgen requires a name and a generator reference")
		}
		sub, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("subgen: name: %w", err)
		}
		ref, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("subgen: reference: %w", err)
		}
		d.subs[sub] = ref
		return zygo.SexpNull, nil
	})

	env.AddFunction("between", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("between requires two bounds")
		}
		min, errMin := toInt(args[0])
		max, errMax := toInt(args[1])
		if errMin == nil && errMax == nil {
			return &sexpSpec{spec: generator.Range(min, max)}, nil
		}
		flo, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("between: %w", err)
		}
		fhi, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("between: %w", err)
		}
		return &sexpSpec{spec: generator.Range(flo, fhi)}, nil
	})

	env.AddFunction("one_of", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		values := make([]any, len(args))
		for i, a := range args {
			v, err := toGo(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("one-of: %w", err)
			}
			values[i] = v
		}
		return &sexpSpec{spec: generator.OneOf(values...)}, nil
	})

	env.AddFunction("fixed", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("fixed requires one value")
		}
		v, err := toGo(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fixed: %w", err)
		}
		return &sexpSpec{spec: generator.Value(v)}, nil
	})

	env.AddFunction("required", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &sexpSpec{spec: generator.Required()}, nil
	})

	env.AddFunction("vec3", vec3Builtin)
}

// ---------------------------------------------------------------------------
// Generation
// ---------------------------------------------------------------------------

// binding connects the generation builtins of one sandbox to one node.
// Once closed, builtins refuse to touch the node, so an abandoned script
// cannot race with the traversal that continues without it.
type binding struct {
	mu     sync.Mutex
	closed bool
	node   *generator.Node
	cfg    generator.Config
	cause  error
}

func (b *binding) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// guard runs fn with exclusive access to the node and remembers the first
// Go error, which becomes the Cause of the script error.
func (b *binding) guard(fn builtinFunc) builtinFunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed {
			return zygo.SexpNull, fmt.Errorf("%s: script was abandoned", name)
		}
		out, err := fn(env, name, args)
		if err != nil && b.cause == nil {
			b.cause = err
		}
		return out, err
	}
}

// registerGeneration installs the builtins available while a node
// generates:
//
//	(cfg "name") (cfg "frame.depth")
//	(rand-float a b) (rand-int a b) (coin) (choose a b c)
//	(box x y z :at v :rot v :tags t :hidden true :material m)
//	(cylinder h r :segments n ...) (sphere r ...)
//	(spawn "sub" :at v :rot v :args (list ...))
//	(geoms "tag") (enclosing "tag") (cut target tool) (remove g)
//	(note "msg" ...) (fail "msg")
func registerGeneration(env *zygo.Zlisp, b *binding) {
	add := func(name string, fn builtinFunc) {
		env.AddFunction(name, b.guard(fn))
	}
	n := b.node
	k := n.Kernel()

	add("cfg", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("cfg requires a parameter name")
		}
		key, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cfg: %w", err)
		}
		c := b.cfg
		parts := strings.Split(key, ".")
		for _, p := range parts[:len(parts)-1] {
			v, ok := c.Get(p)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("cfg: no parameter %q", key)
			}
			sub, ok := v.(generator.Config)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("cfg: %q is not nested", p)
			}
			c = sub
		}
		v, ok := c.Get(parts[len(parts)-1])
		if !ok {
			return zygo.SexpNull, fmt.Errorf("cfg: no parameter %q", key)
		}
		return fromGo(v)
	})

	add("rand_float", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		min, max, err := bounds2(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rand-float: %w", err)
		}
		f, err := n.Picker().Float(min, max)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpFloat{Val: f}, nil
	})

	add("rand_int", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("rand-int requires two bounds")
		}
		min, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rand-int: %w", err)
		}
		max, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rand-int: %w", err)
		}
		i, err := n.Picker().Int(min, max)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpInt{Val: int64(i)}, nil
	})

	add("coin", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpBool{Val: n.Picker().Bool()}, nil
	})

	add("choose", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		items := args
		if len(args) == 1 {
			var err error
			if items, err = toSlice(args[0]); err != nil {
				return zygo.SexpNull, fmt.Errorf("choose: %w", err)
			}
		}
		return pick.Choice(n.Picker(), items)
	})

	solid := func(verb string, build func(pa kwArgs) (kernel.Solid, error)) builtinFunc {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			s, err := build(pa)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", verb, err)
			}
			if s, err = localPlace(k, s, pa); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", verb, err)
			}
			opts, err := geometryOptions(pa)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", verb, err)
			}
			rec, err := n.AddGeometry(s, opts...)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpGeom{rec: rec}, nil
		}
	}

	add("box", solid("box", func(pa kwArgs) (kernel.Solid, error) {
		xyz, err := floats(pa.positional, 3)
		if err != nil {
			return nil, err
		}
		return k.Box(xyz[0], xyz[1], xyz[2]), nil
	}))

	add("cylinder", solid("cylinder", func(pa kwArgs) (kernel.Solid, error) {
		hr, err := floats(pa.positional, 2)
		if err != nil {
			return nil, err
		}
		segments := 32
		if v, ok := pa.kw["segments"]; ok {
			if segments, err = toInt(v); err != nil {
				return nil, fmt.Errorf("segments: %w", err)
			}
		}
		return k.Cylinder(hr[0], hr[1], segments), nil
	}))

	add("sphere", solid("sphere", func(pa kwArgs) (kernel.Solid, error) {
		r, err := floats(pa.positional, 1)
		if err != nil {
			return nil, err
		}
		return k.Sphere(r[0]), nil
	}))

	add("spawn", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("spawn requires a sub-generator name")
		}
		sub, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("spawn: %w", err)
		}
		at, err := placement(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("spawn: %w", err)
		}
		var positional []any
		if v, ok := pa.kw["args"]; ok {
			items, err := toSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("spawn: args: %w", err)
			}
			for _, it := range items {
				gv, err := toGo(it)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("spawn: args: %w", err)
				}
				positional = append(positional, gv)
			}
		}
		child, err := n.Spawn(sub, at, positional...)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpStr{S: child.Path()}, nil
	})

	add("geoms", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var q generator.Query
		if len(args) > 0 {
			tag, err := toString(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("geoms: %w", err)
			}
			q.Tag = tag
		}
		recs, err := n.Geoms(q)
		if err != nil {
			return zygo.SexpNull, err
		}
		return geomList(recs), nil
	})

	add("enclosing", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		res, err := n.Enclosing(nil)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(args) == 0 {
			return geomList(res.Geoms()), nil
		}
		tags, err := toStrings(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("enclosing: %w", err)
		}
		return geomList(res.Geoms(space.WithTag(tags...))), nil
	})

	add("cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("cut requires a target and a tool")
		}
		target, err := toGeom(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cut: target: %w", err)
		}
		tool, err := toGeom(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cut: tool: %w", err)
		}
		rec, err := n.Cut(target, tool.Solid)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpGeom{rec: rec}, nil
	})

	add("remove", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("remove requires a geometry")
		}
		rec, err := toGeom(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("remove: %w", err)
		}
		return zygo.SexpNull, n.RemoveGeometry(rec)
	})

	add("note", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		parts := lo.Map(args, func(a zygo.Sexp, _ int) string {
			if s, err := toString(a); err == nil {
				return s
			}
			return a.SexpString(nil)
		})
		n.Logger().Info(strings.Join(parts, " "))
		return zygo.SexpNull, nil
	})

	add("fail", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		msg := "failed"
		if len(args) > 0 {
			if s, err := toString(args[0]); err == nil {
				msg = s
			}
		}
		return zygo.SexpNull, fmt.Errorf("%s", msg)
	})

	env.AddFunction("vec3", vec3Builtin)
}

// registerInert installs the declaration builtins as no-ops so a script's
// top level can be re-run while generating.
func registerInert(env *zygo.Zlisp) {
	d := &declarations{subs: map[string]string{}}
	registerDeclarations(env, d)
}

func bounds2(args []zygo.Sexp) (float64, float64, error) {
	f, err := floats(args, 2)
	if err != nil {
		return 0, 0, err
	}
	return f[0], f[1], nil
}

func floats(args []zygo.Sexp, want int) ([]float64, error) {
	if len(args) != want {
		return nil, fmt.Errorf("expected %d numbers, got %d arguments", want, len(args))
	}
	out := make([]float64, want)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// placement reads :at and :rot into a node-local placement.
func placement(pa kwArgs) (space.Placement, error) {
	p := space.Identity()
	if v, ok := pa.kw["at"]; ok {
		at, err := toVec3(v)
		if err != nil {
			return p, fmt.Errorf("at: %w", err)
		}
		p = space.AtVec(at)
	}
	if v, ok := pa.kw["rot"]; ok {
		rot, err := toVec3(v)
		if err != nil {
			return p, fmt.Errorf("rot: %w", err)
		}
		p = p.Rotate(rot.X, rot.Y, rot.Z)
	}
	return p, nil
}

// localPlace applies :rot then :at to a solid in node-local coordinates.
func localPlace(k kernel.Kernel, s kernel.Solid, pa kwArgs) (kernel.Solid, error) {
	if v, ok := pa.kw["rot"]; ok {
		rot, err := toVec3(v)
		if err != nil {
			return nil, fmt.Errorf("rot: %w", err)
		}
		s = k.Rotate(s, rot.X, rot.Y, rot.Z)
	}
	if v, ok := pa.kw["at"]; ok {
		at, err := toVec3(v)
		if err != nil {
			return nil, fmt.Errorf("at: %w", err)
		}
		s = k.Translate(s, at.X, at.Y, at.Z)
	}
	return s, nil
}

func geometryOptions(pa kwArgs) ([]generator.GeometryOption, error) {
	var opts []generator.GeometryOption
	if v, ok := pa.kw["tags"]; ok {
		tags, err := toStrings(v)
		if err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
		opts = append(opts, generator.WithTags(tags...))
	}
	if v, ok := pa.kw["hidden"]; ok && toBool(v) {
		opts = append(opts, generator.Hidden())
	}
	if v, ok := pa.kw["material"]; ok {
		m, err := toString(v)
		if err != nil {
			return nil, fmt.Errorf("material: %w", err)
		}
		opts = append(opts, generator.WithMaterial(m))
	}
	return opts, nil
}
