package samples

import (
	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/space"
)

// Room is a floor, four walls, and up to two doors. Doors are spawned
// after the walls so they can find them in the Build Space.
func Room() *generator.Descriptor {
	return &generator.Descriptor{
		Name:    "Room",
		Version: "1.0.0",
		Title:   "Room",
		Params: generator.Schema{
			{Name: "width", Spec: generator.Range(3.0, 6.0), Doc: "inner x extent"},
			{Name: "depth", Spec: generator.Range(3.0, 6.0), Doc: "inner y extent"},
			{Name: "height", Spec: generator.Range(2.4, 3.0)},
			{Name: "thickness", Spec: generator.Value(0.15), Doc: "wall thickness"},
			{Name: "doors", Spec: generator.Range(1, 2)},
		},
		Subs: map[string]string{"wall": "Wall", "door": "Door"},
		Body: generator.BodyFunc(roomBody),
	}
}

func roomBody(n *generator.Node, cfg generator.Config) error {
	w, d, h := cfg.Float("width"), cfg.Float("depth"), cfg.Float("height")
	t := cfg.Float("thickness")
	k := n.Kernel()

	floor := k.Translate(k.Box(w, d, 0.1), 0, 0, -0.1)
	if _, err := n.AddGeometry(floor, generator.WithTags("floor"), generator.WithMaterial("oak")); err != nil {
		return err
	}

	// South and north run along x, west and east are turned a quarter.
	walls := []struct {
		at     space.Placement
		length float64
	}{
		{space.At(0, 0, 0), w},
		{space.At(0, d-t, 0), w},
		{space.At(t, 0, 0).Rotate(0, 0, 90), d},
		{space.At(w, 0, 0).Rotate(0, 0, 90), d},
	}
	for _, wall := range walls {
		if _, err := n.Spawn("wall", wall.at, wall.length, t, h); err != nil {
			return err
		}
	}

	// Door i sits on the south wall for i == 0 and the north wall for
	// i == 1, straddling it so its tool passes clean through.
	for i := range cfg.Int("doors") {
		x, err := n.Picker().Float(t+0.2, w-t-1.2)
		if err != nil {
			return err
		}
		y := -t / 2
		if i == 1 {
			y = d - 1.5*t
		}
		if _, err := n.Spawn("door", space.At(x, y, 0), t); err != nil {
			return err
		}
	}
	return nil
}

// Wall is a plain slab along x.
func Wall() *generator.Descriptor {
	type wall struct {
		Length    float64 `param:"length"`
		Thickness float64 `param:"thickness"`
		Height    float64 `param:"height"`
	}
	return &generator.Descriptor{
		Name: "Wall",
		Params: generator.Schema{
			generator.P("length", generator.Required()),
			generator.P("thickness", generator.Value(0.15)),
			generator.P("height", generator.Value(2.5)),
		},
		Body: generator.Typed(func(n *generator.Node, c wall) error {
			_, err := n.AddGeometry(n.Kernel().Box(c.Length, c.Thickness, c.Height),
				generator.WithTags("wall"), generator.WithMaterial("plaster"))
			return err
		}),
	}
}

// Door cuts an opening through every wall its hidden tool intersects.
func Door() *generator.Descriptor {
	return &generator.Descriptor{
		Name: "Door",
		Params: generator.Schema{
			generator.P("thickness", generator.Required()),
			generator.P("width", generator.Range(0.8, 1.0)),
			generator.P("height", generator.Range(2.0, 2.2)),
		},
		Body: generator.BodyFunc(func(n *generator.Node, cfg generator.Config) error {
			tool, err := n.AddGeometry(
				n.Kernel().Box(cfg.Float("width"), cfg.Float("thickness")*2, cfg.Float("height")),
				generator.Hidden(), generator.WithTags("door"),
			)
			if err != nil {
				return err
			}
			res, err := n.Intersecting(nil)
			if err != nil {
				return err
			}
			for _, wall := range res.Geoms(space.WithTag("wall")) {
				if _, err := n.Cut(wall, tool.Solid); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}
