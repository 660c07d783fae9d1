package analyzer

import (
	"math"
	"testing"

	"go-cane-vision/pkg/validation"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.ModelVersion != "placeholder-v0.1" {
		t.Errorf("Expected default model version, got %s", opts.ModelVersion)
	}
	if opts.PestProbability != 0.10 {
		t.Errorf("Expected PestProbability 0.10, got %f", opts.PestProbability)
	}
	if opts.DiseaseProbability != 0.05 {
		t.Errorf("Expected DiseaseProbability 0.05, got %f", opts.DiseaseProbability)
	}
	if opts.Constraints.MinDimension != 224 || opts.Constraints.MaxDimension != 4096 {
		t.Errorf("Unexpected constraints: %+v", opts.Constraints)
	}
	if opts.Catalog == nil {
		t.Error("Expected default catalog")
	}
}

func TestOptionBuilders(t *testing.T) {
	opts := DefaultOptions().
		WithModelVersion("field-v2").
		WithDetectionProbabilities(1.5, -0.2).
		WithConstraints(validation.ImageConstraints{SupportedFormats: []string{"PNG"}, MinDimension: 1, MaxDimension: 10})

	if opts.ModelVersion != "field-v2" {
		t.Errorf("Expected model version override, got %s", opts.ModelVersion)
	}
	if opts.PestProbability != 1 || opts.DiseaseProbability != 0 {
		t.Errorf("Expected probabilities clamped to [0,1], got %f / %f", opts.PestProbability, opts.DiseaseProbability)
	}
	if opts.Constraints.MaxDimension != 10 {
		t.Errorf("Expected constraints override, got %+v", opts.Constraints)
	}

	if DefaultOptions().WithModelVersion("").ModelVersion != DefaultModelVersion {
		t.Error("Expected empty version to keep the default")
	}
	if DefaultOptions().WithDetectionProbabilities(math.NaN(), 0.5).PestProbability != 0 {
		t.Error("Expected NaN probability to clamp to 0")
	}
}
