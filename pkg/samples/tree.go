package samples

import (
	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/space"
)

// Tree is a trunk that recursively grows smaller trees as branches until
// depth runs out.
func Tree() *generator.Descriptor {
	return &generator.Descriptor{
		Name:        "Tree",
		Version:     "1.0.0",
		Title:       "Recursive tree",
		Description: "A trunk with branches that are themselves trees.",
		Params: generator.Schema{
			{Name: "height", Spec: generator.Range(1.0, 3.0)},
			{Name: "radius", Spec: generator.Range(0.05, 0.2)},
			{Name: "branches", Spec: generator.Range(2, 3)},
			{Name: "depth", Spec: generator.Value(2), Doc: "remaining branch levels"},
		},
		Subs: map[string]string{"branch": "Tree"},
		Body: generator.BodyFunc(treeBody),
	}
}

func treeBody(n *generator.Node, cfg generator.Config) error {
	h, r := cfg.Float("height"), cfg.Float("radius")
	k := n.Kernel()

	trunk := k.Translate(k.Cylinder(h, r, 12), 0, 0, h/2)
	if _, err := n.AddGeometry(trunk, generator.WithTags("trunk"), generator.WithMaterial("bark")); err != nil {
		return err
	}

	depth := cfg.Int("depth")
	if depth <= 0 {
		_, err := n.AddGeometry(k.Translate(k.Sphere(r*3), 0, 0, h), generator.WithTags("leaves"), generator.WithMaterial("leaf"))
		return err
	}
	p := n.Picker()
	for i := range cfg.Int("branches") {
		at := h
		if i > 0 {
			f, err := p.Float(0.5, 0.9)
			if err != nil {
				return err
			}
			at = h * f
		}
		tilt, err := p.Float(-60, 60)
		if err != nil {
			return err
		}
		turn, err := p.Float(0, 360)
		if err != nil {
			return err
		}
		scale, err := p.Float(0.4, 0.7)
		if err != nil {
			return err
		}
		_, err = n.SpawnWith("branch", space.At(0, 0, at).Rotate(0, tilt, turn), generator.Values{
			"height": h * scale,
			"radius": r * 0.6,
			"depth":  depth - 1,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
