package generator

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/chazu/burl/pkg/pick"
)

// Spec describes how one parameter obtains its value when the caller does
// not supply it. Every variant resolves through the node's Picker.
type Spec interface {
	pick.Pickable
	fmt.Stringer
}

// Fixed always resolves to Value and draws nothing.
type Fixed struct {
	Value any
}

func (s Fixed) Pick(*pick.Picker) (any, error) { return s.Value, nil }
func (s Fixed) String() string                 { return fmt.Sprintf("%v", s.Value) }

// IntRange draws an integer uniformly from [Min, Max].
type IntRange struct {
	Min, Max int
}

func (s IntRange) Pick(p *pick.Picker) (any, error) { return p.Int(s.Min, s.Max) }
func (s IntRange) String() string                   { return fmt.Sprintf("int[%d, %d]", s.Min, s.Max) }

// FloatRange draws a float uniformly from [Min, Max].
type FloatRange struct {
	Min, Max float64
}

func (s FloatRange) Pick(p *pick.Picker) (any, error) { return p.Float(s.Min, s.Max) }
func (s FloatRange) String() string                   { return fmt.Sprintf("float[%g, %g]", s.Min, s.Max) }

// Choice draws one of Values uniformly.
type Choice struct {
	Values []any
}

func (s Choice) Pick(p *pick.Picker) (any, error) { return pick.Choice(p, s.Values) }

func (s Choice) String() string {
	parts := make([]string, len(s.Values))
	for i, v := range s.Values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return "one of [" + strings.Join(parts, ", ") + "]"
}

// Nested resolves a sub-schema into a nested Config.
type Nested struct {
	Schema Schema
}

func (s Nested) Pick(p *pick.Picker) (any, error) { return s.Schema.Resolve(p, nil, nil) }
func (s Nested) String() string                   { return fmt.Sprintf("nested(%d params)", len(s.Schema)) }

// Unset must be supplied by the caller; it never resolves on its own.
type Unset struct{}

func (Unset) Pick(*pick.Picker) (any, error) {
	return nil, &MissingParameterError{}
}

func (Unset) String() string { return "required" }

// Range returns an IntRange for integer bounds and a FloatRange otherwise.
func Range[T constraints.Integer | constraints.Float](min, max T) Spec {
	switch any(min).(type) {
	case float32, float64:
		return FloatRange{Min: float64(min), Max: float64(max)}
	}
	return IntRange{Min: int(min), Max: int(max)}
}

// OneOf returns a Choice over values.
func OneOf(values ...any) Spec {
	return Choice{Values: values}
}

// Value returns a Fixed spec.
func Value(v any) Spec {
	return Fixed{Value: v}
}

// Nest returns a Nested spec over params.
func Nest(params ...Param) Spec {
	return Nested{Schema: params}
}

// Required returns the Unset spec.
func Required() Spec {
	return Unset{}
}
