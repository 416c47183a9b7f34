// Package pick provides the deterministic random source used by generators.
// Every generator node owns one Picker seeded from its derived seed, so two
// nodes with equal seeds and equal call sequences draw identical values.
package pick

import (
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"
	"sort"

	"golang.org/x/exp/constraints"
)

// pcgStream is the fixed PCG stream selector. Changing it changes every
// generated tree, so it is part of the reproducibility contract.
const pcgStream = 0x9e3779b97f4a7c15

// Pickable is implemented by values that know how to draw themselves.
// Parameter specs implement it so a Picker can resolve them directly.
type Pickable interface {
	Pick(p *Picker) (any, error)
}

// Picker is a seeded pseudo-random source with helpers for drawing from
// ranges, discrete choices and nested configuration maps.
// A Picker is not safe for concurrent use; it belongs to a single node.
type Picker struct {
	seed  int64
	rng   *rand.Rand
	draws int
}

// New returns a Picker seeded with seed.
func New(seed int64) *Picker {
	return &Picker{
		seed: seed,
		rng:  rand.New(rand.NewPCG(uint64(seed), pcgStream)),
	}
}

// Seed returns the seed the Picker was created with.
func (p *Picker) Seed() int64 {
	return p.seed
}

// Draws returns how many primitive draws have been consumed so far.
func (p *Picker) Draws() int {
	return p.draws
}

// Random returns a float in [0, 1).
func (p *Picker) Random() float64 {
	p.draws++
	return p.rng.Float64()
}

// Bool returns true or false with equal probability.
func (p *Picker) Bool() bool {
	p.draws++
	return p.rng.IntN(2) == 1
}

// Int draws uniformly from the inclusive range [min, max].
func (p *Picker) Int(min, max int) (int, error) {
	if min > max {
		return 0, invalidRange(min, max)
	}
	p.draws++
	if min == max {
		p.rng.Uint64()
		return min, nil
	}
	span := uint64(max) - uint64(min) + 1
	if span == 0 {
		// [min, max] covers every int.
		return int(p.rng.Uint64()), nil
	}
	return min + int(p.rng.Uint64N(span)), nil
}

// Float draws uniformly from [min, max].
func (p *Picker) Float(min, max float64) (float64, error) {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return 0, &InvalidDomainError{Domain: fmt.Sprintf("[%v, %v]", min, max), Reason: "non-finite bound"}
	}
	if min > max {
		return 0, invalidRange(min, max)
	}
	p.draws++
	f := p.rng.Float64()
	if min == max {
		return min, nil
	}
	return min + (max-min)*f, nil
}

// Between draws from the inclusive range [min, max]. Integer types draw
// integers, floating types draw uniformly.
func Between[T constraints.Integer | constraints.Float](p *Picker, min, max T) (T, error) {
	switch any(min).(type) {
	case float32, float64:
		v, err := p.Float(float64(min), float64(max))
		return T(v), err
	}
	v, err := p.Int(int(min), int(max))
	return T(v), err
}

// Choice returns one element of items chosen uniformly.
func Choice[T any](p *Picker, items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, &InvalidDomainError{Domain: "[]", Reason: "empty sequence"}
	}
	p.draws++
	return items[p.rng.IntN(len(items))], nil
}

// Shuffle permutes items in place.
func Shuffle[T any](p *Picker, items []T) {
	p.draws++
	p.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// Pick draws a value according to the shape of its arguments:
//
//   - no arguments: a boolean
//   - one Pickable: delegated to the value
//   - one slice: a uniform choice from it
//   - one map[string]any: every entry resolved recursively, in key order
//   - one other value: returned unchanged
//   - two numbers: an inclusive range (integer if both are integers)
//   - more than two: a uniform choice among the arguments
func (p *Picker) Pick(args ...any) (any, error) {
	switch len(args) {
	case 0:
		return p.Bool(), nil
	case 1:
		return p.pickOne(args[0])
	case 2:
		return p.pickRange(args[0], args[1])
	default:
		return Choice(p, args)
	}
}

func (p *Picker) pickOne(v any) (any, error) {
	switch data := v.(type) {
	case Pickable:
		return data.Pick(p)
	case []any:
		return Choice(p, data)
	case []string:
		return Choice(p, data)
	case []int:
		return Choice(p, data)
	case []float64:
		return Choice(p, data)
	case map[string]any:
		return p.Configure(data)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil, &InvalidDomainError{Domain: fmt.Sprintf("%T", v), Reason: "empty sequence"}
		}
		p.draws++
		return rv.Index(p.rng.IntN(rv.Len())).Interface(), nil
	}
	return v, nil
}

func (p *Picker) pickRange(a, b any) (any, error) {
	ai, aInt := asInt(a)
	bi, bInt := asInt(b)
	if aInt && bInt {
		return p.Int(ai, bi)
	}
	af, aOK := asFloat(a)
	bf, bOK := asFloat(b)
	if !aOK || !bOK {
		return nil, &InvalidDomainError{
			Domain: fmt.Sprintf("(%v, %v)", a, b),
			Reason: "range bounds must be numeric",
		}
	}
	return p.Float(af, bf)
}

// Configure resolves every entry of config through Pick and returns the
// resolved copy. Keys are visited in sorted order so draw sequences do not
// depend on map iteration order.
func (p *Picker) Configure(config map[string]any) (map[string]any, error) {
	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(config))
	for _, k := range keys {
		v, err := p.pickOne(config[k])
		if err != nil {
			return nil, fmt.Errorf("configure %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// IntRange is an inclusive integer range.
type IntRange struct {
	Min, Max int
}

// Pick implements Pickable.
func (r IntRange) Pick(p *Picker) (any, error) {
	return p.Int(r.Min, r.Max)
}

func (r IntRange) String() string {
	return fmt.Sprintf("Range(%d, %d)", r.Min, r.Max)
}

// FloatRange is a closed floating point range.
type FloatRange struct {
	Min, Max float64
}

// Pick implements Pickable.
func (r FloatRange) Pick(p *Picker) (any, error) {
	return p.Float(r.Min, r.Max)
}

func (r FloatRange) String() string {
	return fmt.Sprintf("Range(%g, %g)", r.Min, r.Max)
}

func asInt(v any) (int, bool) {
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
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint:
		return int(n), n <= math.MaxInt
	case uint64:
		return int(n), n <= math.MaxInt
	case uintptr:
		return int(n), uint64(n) <= math.MaxInt
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uintptr:
		return float64(n), true
	}
	return 0, false
}
