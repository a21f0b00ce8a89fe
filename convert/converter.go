// Package convert routes raw scanner reports to the converter that can
// normalize them. Converters themselves are registered collaborators; this
// package owns the registry they plug into and the two-phase dispatcher
// that picks one for a given piece of text.
package convert

import (
	"context"

	"github.com/nulltoken/heimdall2/hdf"
)

// Converter normalizes one scanner's report format. Convert receives the
// raw report text and returns the executions it describes; formats that
// bundle several logical runs into one file return them in source order.
// A converter must not mutate shared state and may be called concurrently.
type Converter interface {
	// Metadata returns information about this converter
	Metadata() Metadata

	// Convert normalizes raw report text into zero or more executions.
	// Internal failures surface as errors the dispatcher propagates
	// unchanged.
	Convert(ctx context.Context, text string) ([]*hdf.Execution, error)
}

// Metadata describes a converter.
type Metadata struct {
	// Name is the format identifier the converter handles (e.g. "sarif").
	// It doubles as the registry key the dispatcher looks up.
	Name string `json:"name"`

	// Version is the converter version (semver)
	Version string `json:"version"`

	// APIVersion is the required build version (semver constraint).
	// Empty means no constraint.
	APIVersion string `json:"api_version,omitempty"`

	// Description is a human-readable description
	Description string `json:"description,omitempty"`
}
