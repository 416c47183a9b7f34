//go:build !manifold

// Package manifold is a kernel.Kernel backed by the Manifold C library.
// Without the manifold build tag only this stub is compiled.
package manifold

import (
	"errors"

	"github.com/chazu/burl/pkg/kernel"
)

// ErrUnavailable is returned by New when the package was built without
// the manifold tag.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// New reports ErrUnavailable.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
