package generator

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match their sentinel through Is, so
// callers can test with errors.Is without unwrapping by hand.
var (
	ErrMissingParameter    = errors.New("generator: missing parameter")
	ErrUnknownParameter    = errors.New("generator: unknown parameter")
	ErrUnknownSubGenerator = errors.New("generator: unknown sub-generator")
	ErrUnknownGenerator    = errors.New("generator: unknown generator")
	ErrGeneration          = errors.New("generator: generation failed")
	ErrNotGenerating       = errors.New("generator: node is not generating")
	ErrIncomplete          = errors.New("generator: build tree is incomplete")
	ErrNodeNotFound        = errors.New("generator: node not found")
)

// MissingParameterError reports a required parameter that was neither
// supplied by the caller nor resolvable from its spec.
type MissingParameterError struct {
	Generator string
	Param     string
}

func (e *MissingParameterError) Error() string {
	if e.Generator == "" {
		return fmt.Sprintf("generator: parameter %q is required", e.Param)
	}
	return fmt.Sprintf("generator: %s: parameter %q is required", e.Generator, e.Param)
}

// Is reports whether target is ErrMissingParameter.
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// UnknownSubGeneratorError reports a spawn of a sub-generator name the
// parent's descriptor does not declare.
type UnknownSubGeneratorError struct {
	Parent string
	Sub    string
	Err    error
}

func (e *UnknownSubGeneratorError) Error() string {
	msg := fmt.Sprintf("generator: %s declares no sub-generator %q", e.Parent, e.Sub)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrUnknownSubGenerator.
func (e *UnknownSubGeneratorError) Is(target error) bool {
	return target == ErrUnknownSubGenerator
}

func (e *UnknownSubGeneratorError) Unwrap() error {
	return e.Err
}

// UnknownGeneratorError reports a registry reference that matches no
// registered descriptor.
type UnknownGeneratorError struct {
	Ref    string
	Reason string
}

func (e *UnknownGeneratorError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("generator: unknown generator %q: %s", e.Ref, e.Reason)
	}
	return fmt.Sprintf("generator: unknown generator %q", e.Ref)
}

// Is reports whether target is ErrUnknownGenerator.
func (e *UnknownGeneratorError) Is(target error) bool {
	return target == ErrUnknownGenerator
}

// GenerationError wraps the failure of one node together with what is
// needed to reproduce it.
type GenerationError struct {
	NodeID string
	Path   string
	Type   string
	Seed   int64
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generator: %s (%s, seed %d) failed: %v", e.Path, e.Type, e.Seed, e.Err)
}

// Is reports whether target is ErrGeneration.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Root returns the innermost GenerationError in the chain: the node where
// the failure originated.
func (e *GenerationError) Root() *GenerationError {
	cur := e
	for {
		var next *GenerationError
		if !errors.As(cur.Err, &next) {
			return cur
		}
		cur = next
	}
}
