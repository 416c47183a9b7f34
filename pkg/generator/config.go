package generator

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/chazu/burl/pkg/pick"
)

// Param declares one named parameter of a generator.
type Param struct {
	Name string
	Spec Spec
	Doc  string
}

// P is shorthand for Param{Name: name, Spec: spec}.
func P(name string, spec Spec) Param {
	return Param{Name: name, Spec: spec}
}

// Schema is the ordered parameter list of a generator. Resolution follows
// the declared order, which fixes the Picker draw sequence.
type Schema []Param

// Values maps parameter names to caller-supplied values.
type Values map[string]any

// Names returns the declared parameter names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name
	}
	return names
}

func (s Schema) index(name string) int {
	return slices.IndexFunc(s, func(p Param) bool { return p.Name == name })
}

// Resolve produces a Config. Positional values bind to parameters by
// declaration index (a nil entry leaves that parameter unbound); overrides
// bind by name and win over positional values. A bound parameter takes
// its value verbatim and consumes no draws, except that a Values or
// map[string]any bound to a Nested parameter overrides inside the nested
// schema. Every other parameter resolves through p in declaration order.
func (s Schema) Resolve(p *pick.Picker, positional []any, overrides Values) (Config, error) {
	if len(positional) > len(s) {
		return Config{}, fmt.Errorf("%w: %d positional values for %d parameters",
			ErrUnknownParameter, len(positional), len(s))
	}
	for name := range overrides {
		if s.index(name) < 0 {
			return Config{}, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
		}
	}

	cfg := Config{names: s.Names(), values: make(map[string]any, len(s))}
	for i, param := range s {
		v, bound := overrides[param.Name]
		if !bound && i < len(positional) && positional[i] != nil {
			v, bound = positional[i], true
		}

		if nested, ok := param.Spec.(Nested); ok && bound {
			if sub, ok := asValues(v); ok {
				c, err := nested.Schema.Resolve(p, nil, sub)
				if err != nil {
					return Config{}, fmt.Errorf("%s: %w", param.Name, err)
				}
				v = c
			}
		}

		if !bound {
			if param.Spec == nil {
				return Config{}, &MissingParameterError{Param: param.Name}
			}
			if _, ok := param.Spec.(Unset); ok {
				return Config{}, &MissingParameterError{Param: param.Name}
			}
			var err error
			v, err = param.Spec.Pick(p)
			if err != nil {
				return Config{}, fmt.Errorf("resolve %s (%s): %w", param.Name, param.Spec, err)
			}
		}
		cfg.values[param.Name] = v
	}
	return cfg, nil
}

func asValues(v any) (Values, bool) {
	switch m := v.(type) {
	case Values:
		return m, true
	case map[string]any:
		return Values(m), true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config is a fully resolved configuration. It is immutable; accessors
// return copies of nested structures.
type Config struct {
	names  []string
	values map[string]any
}

// NewConfig builds a Config from values, ordering names alphabetically.
func NewConfig(values Values) Config {
	names := slices.Sorted(maps.Keys(values))
	return Config{names: names, values: maps.Clone(values)}
}

// Names returns the parameter names in resolution order.
func (c Config) Names() []string {
	return slices.Clone(c.names)
}

// Len returns the number of parameters.
func (c Config) Len() int {
	return len(c.names)
}

// Get returns the raw value of name.
func (c Config) Get(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

func (c Config) must(name string) any {
	v, ok := c.values[name]
	if !ok {
		panic(&MissingParameterError{Param: name})
	}
	return v
}

// Float returns name as a float64. Missing parameters and non-numeric
// values panic; a panic inside a generator body fails that node.
func (c Config) Float(name string) float64 {
	f, ok := toFloat(c.must(name))
	if !ok {
		panic(fmt.Sprintf("generator: parameter %q is %T, not a number", name, c.values[name]))
	}
	return f
}

// Int returns name as an int. Floats with an integral value convert.
func (c Config) Int(name string) int {
	v := c.must(name)
	if i, ok := toInt(v); ok {
		return i
	}
	if f, ok := toFloat(v); ok && f == math.Trunc(f) {
		return int(f)
	}
	panic(fmt.Sprintf("generator: parameter %q is %T, not an integer", name, v))
}

// String returns name formatted as a string.
func (c Config) String(name string) string {
	v := c.must(name)
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Bool returns name as a bool.
func (c Config) Bool(name string) bool {
	v := c.must(name)
	b, ok := v.(bool)
	if !ok {
		panic(fmt.Sprintf("generator: parameter %q is %T, not a bool", name, v))
	}
	return b
}

// Sub returns the nested Config stored under name.
func (c Config) Sub(name string) Config {
	switch v := c.must(name).(type) {
	case Config:
		return v
	case Values:
		return NewConfig(v)
	case map[string]any:
		return NewConfig(v)
	default:
		panic(fmt.Sprintf("generator: parameter %q is %T, not a nested config", name, v))
	}
}

// Map returns a deep copy of the configuration with nested configs
// converted to maps.
func (c Config) Map() map[string]any {
	out := make(map[string]any, len(c.names))
	for _, name := range c.names {
		v := c.values[name]
		if sub, ok := v.(Config); ok {
			v = sub.Map()
		}
		out[name] = v
	}
	return out
}

// Values returns the configuration as caller overrides, suitable for
// reproducing it exactly.
func (c Config) Values() Values {
	return Values(c.Map())
}

// Equal reports whether both configs hold the same names and values.
func (c Config) Equal(o Config) bool {
	return slices.Equal(c.names, o.names) && reflect.DeepEqual(c.Map(), o.Map())
}

func (c Config) GoString() string {
	parts := make([]string, len(c.names))
	for i, name := range c.names {
		parts[i] = fmt.Sprintf("%s=%v", name, c.values[name])
	}
	return "Config{" + strings.Join(parts, ", ") + "}"
}

// Decode copies the configuration into the struct pointed to by dst.
// Fields bind by their `param` tag, or by field name compared without
// case. Numeric values convert between integer and float kinds and nested
// configs decode into nested structs. Fields without a matching parameter
// are left untouched.
func (c Config) Decode(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("generator: decode target must be a non-nil struct pointer, got %T", dst)
	}
	return c.decodeStruct(rv.Elem())
}

func (c Config) decodeStruct(rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("param")
		if name == "-" {
			continue
		}
		v, ok := c.lookup(name, field.Name)
		if !ok {
			continue
		}
		if err := assign(rv.Field(i), v); err != nil {
			return fmt.Errorf("generator: decode %s: %w", field.Name, err)
		}
	}
	return nil
}

func (c Config) lookup(tag, field string) (any, bool) {
	if tag != "" {
		return c.Get(tag)
	}
	for _, name := range c.names {
		if strings.EqualFold(name, field) {
			return c.values[name], true
		}
	}
	return nil, false
}

func assign(dst reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	switch dst.Kind() {
	case reflect.Float32, reflect.Float64:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("cannot use %T as %s", v, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, ok := toInt(v); ok {
			dst.SetInt(int64(i))
			return nil
		}
		if f, ok := toFloat(v); ok && f == math.Trunc(f) {
			dst.SetInt(int64(f))
			return nil
		}
		return fmt.Errorf("cannot use %T as %s", v, dst.Type())
	case reflect.Struct:
		if sub, ok := v.(Config); ok {
			return sub.decodeStruct(dst)
		}
		if m, ok := asValues(v); ok {
			return NewConfig(m).decodeStruct(dst)
		}
	}
	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()) && src.Kind() != reflect.String && dst.Kind() != reflect.String:
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot use %T as %s", v, dst.Type())
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}
