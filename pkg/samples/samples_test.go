package samples

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/burl/pkg/buildtree"
	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/kernel/bounds"
	"github.com/chazu/burl/pkg/space"
)

func newRunner(t *testing.T) *generator.Runner {
	t.Helper()
	reg, err := NewRegistry()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return generator.NewRunner(reg, bounds.New(), generator.WithLogger(logger))
}

func run(t *testing.T, name string, seed int64, cfg generator.Values) *generator.Result {
	t.Helper()
	res, err := newRunner(t).Run(context.Background(), name, seed, cfg)
	require.NoError(t, err)
	require.True(t, res.Complete())
	return res
}

func assertBox(t *testing.T, want, got space.BoundBox) {
	t.Helper()
	for i, w := range want.Array() {
		assert.InDelta(t, w, got.Array()[i], 1e-9, "box component %d of %s", i, got)
	}
}

func TestRegisterAll(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	for _, name := range []string{
		"BookRack", "Rack", "Room", "Wall", "Door", "Tree",
		"Chair", "ChairLeg", "ChairBack", "Garden", "Crate", "Slat",
	} {
		_, err := reg.Lookup(name)
		assert.NoError(t, err, name)
	}

	require.Error(t, Register(reg), "registering twice should clash")
}

func TestBookRack(t *testing.T) {
	res := run(t, "BookRack", 42, generator.Values{"length": 1.5, "width": 0.4, "height": 1.8})

	shelves := res.Space.Tagged("shelf")
	require.Len(t, shelves, 1)
	assert.NotEmpty(t, shelves[0].Replaces)
	assert.Equal(t, "wood", shelves[0].Material)

	racks := res.Root.Children()
	require.Len(t, racks, 1)
	tool := racks[0].Geometry()
	require.Len(t, tool, 1)
	assert.False(t, tool[0].Visible)
	assertBox(t, space.NewBoundBox(space.V(0.75, 0, 0.9), space.V(1.125, 0.2, 1.8)), tool[0].BBox)
}

func TestBookRackManySlots(t *testing.T) {
	res := run(t, "BookRack", 1, generator.Values{"length": 2.0, "racks": 3})

	racks := res.Root.Children()
	require.Len(t, racks, 3)
	for i, r := range racks {
		assert.InDelta(t, 0.25, r.Config().Float("length"), 1e-9)
		assert.InDelta(t, 0.5*float64(i+1), r.Placement().Origin().X, 1e-9)
	}
	shelves := res.Space.Tagged("shelf")
	require.Len(t, shelves, 1, "every cut replaces the one shelf")
	assert.Contains(t, shelves[0].Shape, "difference(difference(difference(")
}

func TestRoomDoorsCutWalls(t *testing.T) {
	res := run(t, "Room", 9, generator.Values{"width": 4.0, "depth": 5.0, "doors": 2})

	walls := res.Space.Tagged("wall")
	require.Len(t, walls, 4)
	cut := lo.Filter(walls, func(r space.GeometryRecord, _ int) bool { return r.Replaces != "" })
	assert.Len(t, cut, 2, "each door cuts exactly one wall")

	doors := res.Find(func(n *generator.Node) bool { return n.Name() == "door" })
	require.Len(t, doors, 2)
	for _, d := range doors {
		tool := d.Geometry()
		require.Len(t, tool, 1)
		assert.False(t, tool[0].Visible)
	}

	west := res.Find(func(n *generator.Node) bool { return n.Path() == "Room/wall.2" })
	require.Len(t, west, 1)
	assertBox(t, space.NewBoundBox(space.V(0, 0, 0), space.V(0.15, 5, res.Root.Config().Float("height"))),
		west[0].Geometry()[0].BBox)
}

func TestTreeRecursion(t *testing.T) {
	res := run(t, "Tree", 4, generator.Values{"depth": 2})

	maxDepth := 0
	err := res.Root.Walk(func(n *generator.Node) error {
		maxDepth = max(maxDepth, n.Depth())
		leaves := lo.Filter(n.Geometry(), func(r space.GeometryRecord, _ int) bool { return r.HasTag("leaves") })
		if n.Depth() == 2 {
			assert.Len(t, leaves, 1, n.Path())
			assert.Empty(t, n.Children(), n.Path())
		} else {
			assert.Empty(t, leaves, n.Path())
			assert.GreaterOrEqual(t, len(n.Children()), 2, n.Path())
			assert.LessOrEqual(t, len(n.Children()), 3, n.Path())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, maxDepth)

	branch := res.Root.Children()[0]
	assert.Equal(t, "Tree@1.0.0", branch.Type(), "branches are trees")
	assert.InDelta(t, res.Root.Config().Float("radius")*0.6, branch.Config().Float("radius"), 1e-12)
}

func TestChairLegTypes(t *testing.T) {
	for _, legType := range []string{"square", "round", "triangular"} {
		t.Run(legType, func(t *testing.T) {
			res := run(t, "Chair", 3, generator.Values{"leg_type": legType})

			legs := res.Find(func(n *generator.Node) bool { return n.Name() == "leg" })
			require.Len(t, legs, 4)
			for _, leg := range legs {
				assert.Equal(t, "ChairLeg@1.1.0", leg.Type())
				assert.Equal(t, legType, leg.Config().String("type"))
			}

			cfg := res.Root.Config()
			back := res.Space.Tagged("back")
			require.Len(t, back, 1)
			assert.InDelta(t, cfg.Float("seat_height")+cfg.Float("seat_thickness"), back[0].BBox.Min.Z, 1e-9)
			assert.InDelta(t, cfg.Sub("back").Float("height"), back[0].BBox.Size().Z, 1e-9)
		})
	}
}

func TestTriangularLegIsPrism(t *testing.T) {
	res := run(t, "ChairLeg", 1, generator.Values{"type": "triangular", "height": 0.5, "thickness": 0.04})
	geoms := res.Root.Geometry()
	require.Len(t, geoms, 1)
	assert.True(t, strings.HasPrefix(geoms[0].Shape, "prism"), geoms[0].Shape)
	assertBox(t, space.NewBoundBox(space.V(0, 0, 0), space.V(0.04, 0.04, 0.5)), geoms[0].BBox)
}

func TestGardenResolvesFeatureByStyle(t *testing.T) {
	for style, want := range features {
		t.Run(style, func(t *testing.T) {
			r := newRunner(t)
			var found *generator.Node
			for seed := int64(0); seed < 20 && found == nil; seed++ {
				res, err := r.Run(context.Background(), "Garden", seed, generator.Values{"style": style, "plots": 4})
				require.NoError(t, err)
				if kids := res.Root.Children(); len(kids) > 0 {
					found = kids[0]
				}
			}
			require.NotNil(t, found, "some seed should place a feature")
			assert.True(t, strings.HasPrefix(found.Type(), want), found.Type())
		})
	}
}

func TestScriptedCrate(t *testing.T) {
	res := run(t, "Crate", 5, nil)
	cfg := res.Root.Config()

	slats := res.Root.Children()
	require.Len(t, slats, 2*cfg.Int("slats"))
	for _, s := range slats {
		assert.Equal(t, "Slat@1.0.0", s.Type())
		geoms := s.Geometry()
		require.Len(t, geoms, 1)
		assert.True(t, geoms[0].HasTag("crate"))
		assert.Equal(t, cfg.String("finish"), geoms[0].Material)
		assert.InDelta(t, cfg.Float("size"), geoms[0].BBox.Size().X, 1e-9)
	}
	assert.ElementsMatch(t, []string{cfg.String("finish")}, res.Space.Materials())
}

func TestSamplesExportDeterministically(t *testing.T) {
	r := newRunner(t)
	for _, name := range []string{"BookRack", "Room", "Tree", "Chair", "Garden", "Crate"} {
		t.Run(name, func(t *testing.T) {
			encode := func() []byte {
				res, err := r.Run(context.Background(), name, 11, nil)
				require.NoError(t, err)
				doc, err := buildtree.Build(context.Background(), res)
				require.NoError(t, err)
				report := buildtree.Validate(doc)
				require.True(t, report.OK(), "%v", report.Errors)

				var buf bytes.Buffer
				require.NoError(t, buildtree.Encode(&buf, doc, buildtree.JSON))
				return buf.Bytes()
			}
			assert.Equal(t, string(encode()), string(encode()))
		})
	}
}
