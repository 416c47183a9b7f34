package samples

import (
	"fmt"

	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/space"
)

type chairConfig struct {
	Width        float64 `param:"width"`
	Depth        float64 `param:"depth"`
	SeatHeight   float64 `param:"seat_height"`
	SeatThick    float64 `param:"seat_thickness"`
	LegThickness float64 `param:"leg_thickness"`
	LegType      string  `param:"leg_type"`
	Back         struct {
		Height    float64 `param:"height"`
		Thickness float64 `param:"thickness"`
	} `param:"back"`
}

// Chair is a seat on four legs with a back rest. Legs and back are child
// generators; the seat belongs to the chair itself.
func Chair() *generator.Descriptor {
	return &generator.Descriptor{
		Name:    "Chair",
		Version: "1.0.0",
		Title:   "Chair",
		Params: generator.Schema{
			generator.P("width", generator.Range(0.4, 0.6)),
			generator.P("depth", generator.Range(0.4, 0.6)),
			generator.P("seat_height", generator.Range(0.4, 0.5)),
			generator.P("seat_thickness", generator.Range(0.02, 0.05)),
			generator.P("leg_thickness", generator.Range(0.03, 0.06)),
			generator.P("leg_type", generator.OneOf("square", "round", "triangular")),
			generator.P("back", generator.Nest(
				generator.P("height", generator.Range(0.3, 0.6)),
				generator.P("thickness", generator.Range(0.02, 0.04)),
			)),
		},
		Subs: map[string]string{"leg": "ChairLeg@^1", "back": "ChairBack"},
		Body: generator.Typed(chairBody),
	}
}

func chairBody(n *generator.Node, c chairConfig) error {
	k := n.Kernel()
	seat := k.Translate(k.Box(c.Width, c.Depth, c.SeatThick), 0, 0, c.SeatHeight)
	if _, err := n.AddGeometry(seat, generator.WithTags("seat"), generator.WithMaterial("beech")); err != nil {
		return err
	}

	x, y := c.Width-c.LegThickness, c.Depth-c.LegThickness
	for _, at := range []space.Placement{
		space.At(0, 0, 0), space.At(x, 0, 0), space.At(0, y, 0), space.At(x, y, 0),
	} {
		if _, err := n.Spawn("leg", at, c.SeatHeight, c.LegThickness, c.LegType); err != nil {
			return err
		}
	}

	_, err := n.Spawn("back", space.At(0, c.Depth-c.Back.Thickness, c.SeatHeight+c.SeatThick),
		c.Width, c.Back.Height, c.Back.Thickness)
	return err
}

// ChairLeg is one leg, with its foot at the node origin.
func ChairLeg() *generator.Descriptor {
	type leg struct {
		Height    float64 `param:"height"`
		Thickness float64 `param:"thickness"`
		Type      string  `param:"type"`
	}
	return &generator.Descriptor{
		Name:    "ChairLeg",
		Version: "1.1.0",
		Params: generator.Schema{
			generator.P("height", generator.Range(0.1, 1.0)),
			generator.P("thickness", generator.Range(0.01, 0.1)),
			generator.P("type", generator.OneOf("square", "round", "triangular")),
		},
		Body: generator.Typed(func(n *generator.Node, c leg) error {
			k := n.Kernel()
			t := c.Thickness
			switch c.Type {
			case "square":
				_, err := n.AddGeometry(k.Box(t, t, c.Height), generator.WithTags("leg"))
				return err
			case "round":
				s := k.Translate(k.Cylinder(c.Height, t/2, 16), t/2, t/2, c.Height/2)
				_, err := n.AddGeometry(s, generator.WithTags("leg"))
				return err
			case "triangular":
				s, err := k.Prism([][2]float64{{0, 0}, {t, 0}, {0, t}}, c.Height)
				if err != nil {
					return err
				}
				_, err = n.AddGeometry(s, generator.WithTags("leg"))
				return err
			}
			return fmt.Errorf("unknown leg type %q", c.Type)
		}),
	}
}

// ChairBack is the back rest slab.
func ChairBack() *generator.Descriptor {
	return &generator.Descriptor{
		Name: "ChairBack",
		Params: generator.Schema{
			generator.P("width", generator.Range(0.3, 1.0)),
			generator.P("height", generator.Range(0.0, 1.0)),
			generator.P("thickness", generator.Range(0.02, 0.1)),
		},
		Body: generator.BodyFunc(func(n *generator.Node, cfg generator.Config) error {
			_, err := n.AddGeometry(n.Kernel().Box(cfg.Float("width"), cfg.Float("thickness"), cfg.Float("height")),
				generator.WithTags("back"), generator.WithMaterial("beech"))
			return err
		}),
	}
}
