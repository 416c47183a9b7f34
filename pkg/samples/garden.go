package samples

import (
	"fmt"

	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/space"
)

// features maps a garden style to the generator placed on its plots.
var features = map[string]string{
	"wild":    "Tree",
	"patio":   "Chair",
	"storage": "Crate",
}

// Garden is a lawn split into plots along x. Each plot may get a feature,
// and which generator the feature is depends on the garden's style, so
// the sub-generator is resolved when it is spawned.
func Garden() *generator.Descriptor {
	return &generator.Descriptor{
		Name:    "Garden",
		Version: "1.0.0",
		Title:   "Garden",
		Params: generator.Schema{
			generator.P("plots", generator.Range(2, 4)),
			generator.P("plot_size", generator.Range(1.5, 2.5)),
			generator.P("style", generator.OneOf("wild", "patio", "storage")),
		},
		ResolveSub: func(sub string, cfg generator.Config) (string, bool, error) {
			if sub != "feature" {
				return "", false, nil
			}
			ref, ok := features[cfg.String("style")]
			if !ok {
				return "", false, fmt.Errorf("no feature for style %q", cfg.String("style"))
			}
			return ref, true, nil
		},
		Body: generator.BodyFunc(func(n *generator.Node, cfg generator.Config) error {
			plots, size := cfg.Int("plots"), cfg.Float("plot_size")
			k := n.Kernel()
			lawn := k.Translate(k.Box(size*float64(plots), size, 0.05), 0, 0, -0.05)
			if _, err := n.AddGeometry(lawn, generator.WithTags("lawn"), generator.WithMaterial("grass")); err != nil {
				return err
			}
			for i := range plots {
				if !n.Picker().Bool() {
					continue
				}
				at := space.At(size*(float64(i)+0.5), size/2, 0)
				if _, err := n.Spawn("feature", at); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}
