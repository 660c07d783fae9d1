package analyzer

import (
	"math"

	"go-cane-vision/pkg/validation"
)

// DefaultModelVersion tags reports produced by the mock engine
const DefaultModelVersion = "placeholder-v0.1"

// EngineOptions configures the mock analysis engine
type EngineOptions struct {
	ModelVersion string

	// Detection gates, each in [0, 1]
	PestProbability    float64
	DiseaseProbability float64

	Constraints validation.ImageConstraints
	Catalog     *Catalog
}

// DefaultOptions returns the production engine settings
func DefaultOptions() EngineOptions {
	return EngineOptions{
		ModelVersion:       DefaultModelVersion,
		PestProbability:    0.10,
		DiseaseProbability: 0.05,
		Constraints:        validation.DefaultImageConstraints(),
		Catalog:            DefaultCatalog(),
	}
}

// WithModelVersion overrides the version tag
func (opts EngineOptions) WithModelVersion(version string) EngineOptions {
	if version != "" {
		opts.ModelVersion = version
	}
	return opts
}

// WithDetectionProbabilities overrides the pest and disease gates.
// Values are clamped to [0, 1].
func (opts EngineOptions) WithDetectionProbabilities(pest, disease float64) EngineOptions {
	opts.PestProbability = clamp01(pest)
	opts.DiseaseProbability = clamp01(disease)
	return opts
}

// WithConstraints overrides the image constraints
func (opts EngineOptions) WithConstraints(c validation.ImageConstraints) EngineOptions {
	opts.Constraints = c
	return opts
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
