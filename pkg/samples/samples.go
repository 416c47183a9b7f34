// Package samples provides a library of ready-made generators: furniture,
// rooms, trees and gardens written in Go, plus a crate written as a
// script. They double as worked examples of the generator API.
package samples

import (
	"embed"
	"fmt"

	"github.com/chazu/burl/pkg/generator"
	"github.com/chazu/burl/pkg/script"
)

//go:embed scripts/*.zy
var scripts embed.FS

// Descriptors returns the Go sample generators.
func Descriptors() []*generator.Descriptor {
	return []*generator.Descriptor{
		BookRack(), Rack(),
		Room(), Wall(), Door(),
		Tree(),
		Chair(), ChairLeg(), ChairBack(),
		Garden(),
	}
}

// Register adds every sample generator, Go and scripted, to reg.
func Register(reg *generator.Registry, opts ...script.Option) error {
	for _, d := range Descriptors() {
		if err := reg.Register(d); err != nil {
			return fmt.Errorf("samples: %w", err)
		}
	}
	if _, err := script.Register(reg, scripts, "scripts/*.zy", opts...); err != nil {
		return fmt.Errorf("samples: %w", err)
	}
	return nil
}

// NewRegistry returns a registry holding the samples.
func NewRegistry(opts ...script.Option) (*generator.Registry, error) {
	reg := generator.NewRegistry()
	if err := Register(reg, opts...); err != nil {
		return nil, err
	}
	return reg, nil
}
