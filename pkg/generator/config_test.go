package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/burl/pkg/pick"
)

var colors = []any{"red", "green", "blue"}

func sampleSchema() Schema {
	return Schema{
		P("count", Range(0, 10)),
		P("scale", Range(0.5, 1.5)),
		P("color", OneOf(colors...)),
	}
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

func TestResolveDrawsInDeclaredOrder(t *testing.T) {
	cfg, err := sampleSchema().Resolve(pick.New(9), nil, nil)
	require.NoError(t, err)

	p := pick.New(9)
	count, _ := p.Int(0, 10)
	scale, _ := p.Float(0.5, 1.5)
	color, _ := pick.Choice(p, colors)

	assert.Equal(t, []string{"count", "scale", "color"}, cfg.Names())
	assert.Equal(t, count, cfg.Int("count"))
	assert.Equal(t, scale, cfg.Float("scale"))
	assert.Equal(t, color, cfg.String("color"))
}

func TestOverridesConsumeNoDraws(t *testing.T) {
	p := pick.New(9)
	cfg, err := sampleSchema().Resolve(p, nil, Values{"scale": 99.0})
	require.NoError(t, err)

	assert.Equal(t, 99.0, cfg.Float("scale"), "override is used verbatim")
	assert.Equal(t, 2, p.Draws())

	ref := pick.New(9)
	count, _ := ref.Int(0, 10)
	color, _ := pick.Choice(ref, colors)
	assert.Equal(t, count, cfg.Int("count"))
	assert.Equal(t, color, cfg.String("color"))
}

func TestOverrideIgnoresSpecDomain(t *testing.T) {
	cfg, err := sampleSchema().Resolve(pick.New(1), nil, Values{"color": "purple", "count": -4})
	require.NoError(t, err)
	assert.Equal(t, "purple", cfg.String("color"))
	assert.Equal(t, -4, cfg.Int("count"))
}

func TestPositionalAndKeywordBinding(t *testing.T) {
	schema := sampleSchema()

	cfg, err := schema.Resolve(pick.New(1), []any{3, nil, "green"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Int("count"))
	assert.Equal(t, "green", cfg.String("color"))

	cfg, err = schema.Resolve(pick.New(1), []any{3}, Values{"count": 7})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Int("count"), "keyword wins over positional")

	_, err = schema.Resolve(pick.New(1), []any{1, 2, 3, 4}, nil)
	assert.ErrorIs(t, err, ErrUnknownParameter)

	_, err = schema.Resolve(pick.New(1), nil, Values{"colour": "red"})
	assert.ErrorIs(t, err, ErrUnknownParameter)
}

func TestRequiredParameter(t *testing.T) {
	schema := Schema{P("size", Required()), P("name", Value("crate"))}

	_, err := schema.Resolve(pick.New(1), nil, nil)
	require.Error(t, err)
	var me *MissingParameterError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "size", me.Param)
	assert.ErrorIs(t, err, ErrMissingParameter)

	cfg, err := schema.Resolve(pick.New(1), []any{2.5}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Float("size"))
	assert.Equal(t, "crate", cfg.String("name"))
}

func TestInvalidDomainSurfaces(t *testing.T) {
	schema := Schema{P("pick", OneOf())}
	_, err := schema.Resolve(pick.New(1), nil, nil)
	assert.ErrorIs(t, err, pick.ErrInvalidDomain)
}

func TestNestedSchema(t *testing.T) {
	schema := Schema{
		P("frame", Nest(P("depth", Range(1, 3)), P("material", OneOf("oak", "pine")))),
		P("legs", Value(4)),
	}

	cfg, err := schema.Resolve(pick.New(5), nil, nil)
	require.NoError(t, err)
	frame := cfg.Sub("frame")
	assert.Contains(t, []int{1, 2, 3}, frame.Int("depth"))
	assert.Contains(t, []string{"oak", "pine"}, frame.String("material"))

	cfg, err = schema.Resolve(pick.New(5), nil, Values{"frame": map[string]any{"material": "steel"}})
	require.NoError(t, err)
	assert.Equal(t, "steel", cfg.Sub("frame").String("material"))
	assert.Contains(t, []int{1, 2, 3}, cfg.Sub("frame").Int("depth"))

	assert.Equal(t, map[string]any{
		"frame": map[string]any{"depth": cfg.Sub("frame").Int("depth"), "material": "steel"},
		"legs":  4,
	}, cfg.Map())
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

func TestConfigAccessors(t *testing.T) {
	cfg := NewConfig(Values{"n": 3, "f": 2.0, "ok": true, "s": "x"})
	assert.Equal(t, []string{"f", "n", "ok", "s"}, cfg.Names())
	assert.Equal(t, 3.0, cfg.Float("n"))
	assert.Equal(t, 2, cfg.Int("f"))
	assert.True(t, cfg.Bool("ok"))
	assert.Equal(t, "3", cfg.String("n"))

	assert.Panics(t, func() { cfg.Float("missing") })
	assert.Panics(t, func() { cfg.Float("s") })
	assert.Panics(t, func() { NewConfig(Values{"f": 2.5}).Int("f") })

	assert.True(t, cfg.Equal(NewConfig(cfg.Values())))
}

func TestConfigDecode(t *testing.T) {
	type frame struct {
		Depth int
	}
	type shelf struct {
		Length float64 `param:"length"`
		Count  int     `param:"count"`
		Color  string
		Frame  frame `param:"frame"`
		Skip   string `param:"-"`
	}
	cfg := NewConfig(Values{
		"length": 2,
		"count":  4.0,
		"color":  "red",
		"frame":  NewConfig(Values{"depth": 3}),
	})

	var s shelf
	require.NoError(t, cfg.Decode(&s))
	assert.Equal(t, shelf{Length: 2, Count: 4, Color: "red", Frame: frame{Depth: 3}}, s)

	assert.Error(t, cfg.Decode(s), "non-pointer target")

	var bad struct {
		Color int `param:"color"`
	}
	assert.Error(t, cfg.Decode(&bad))
}
