package samples

import (
	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/space"
)

// BookRack is a solid shelf block with evenly spaced slots cut into its
// upper half. Each slot is carved by a Rack child, which finds the shelf
// through the Build Space rather than being handed it.
func BookRack() *generator.Descriptor {
	return &generator.Descriptor{
		Name:        "BookRack",
		Version:     "1.0.0",
		Title:       "Book rack",
		Description: "Shelf block with slots cut by its racks.",
		Params: generator.Schema{
			{Name: "length", Spec: generator.Range(1.0, 2.0), Doc: "shelf length (x)"},
			{Name: "width", Spec: generator.Range(0.3, 0.5), Doc: "shelf depth (y)"},
			{Name: "height", Spec: generator.Range(1.0, 2.0), Doc: "shelf height (z)"},
			{Name: "racks", Spec: generator.Value(1), Doc: "number of slots"},
		},
		Subs: map[string]string{"rack": "Rack"},
		Body: generator.BodyFunc(func(n *generator.Node, cfg generator.Config) error {
			l, w, h := cfg.Float("length"), cfg.Float("width"), cfg.Float("height")
			racks := cfg.Int("racks")
			if _, err := n.AddGeometry(n.Kernel().Box(l, w, h), generator.WithTags("shelf"), generator.WithMaterial("wood")); err != nil {
				return err
			}
			slot := l / float64(2*(racks+1))
			for i := range racks {
				x := l * float64(i+1) / float64(racks+1)
				if _, err := n.Spawn("rack", space.At(x, 0, h/2), slot, w/2, h/2); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

// Rack is a hidden cutting box. It subtracts itself from every shelf that
// encloses it.
func Rack() *generator.Descriptor {
	return &generator.Descriptor{
		Name: "Rack",
		Params: generator.Schema{
			generator.P("length", generator.Range(1.0, 2.0)),
			generator.P("width", generator.Range(0.3, 0.5)),
			generator.P("height", generator.Range(1.0, 2.0)),
		},
		Body: generator.BodyFunc(func(n *generator.Node, cfg generator.Config) error {
			tool, err := n.AddGeometry(
				n.Kernel().Box(cfg.Float("length"), cfg.Float("width"), cfg.Float("height")),
				generator.Hidden(), generator.WithTags("rack"),
			)
			if err != nil {
				return err
			}
			res, err := n.Enclosing(nil)
			if err != nil {
				return err
			}
			for _, shelf := range res.Geoms(space.WithTag("shelf")) {
				if _, err := n.Cut(shelf, tool.Solid); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}
