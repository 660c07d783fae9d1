package analyzer

import (
	"context"
	"math/rand/v2"
	"time"

	apperrors "go-cane-vision/internal/errors"
	"go-cane-vision/pkg/models"
	"go-cane-vision/pkg/validation"
)

// mockEngine stands in for a trained model. It never looks at pixels: every
// value is drawn from a generator seeded by the image size and location, so
// identical inputs always produce identical reports.
type mockEngine struct {
	opts      EngineOptions
	validator *validation.ImageValidator
	catalog   *Catalog
}

// NewMockEngine creates the seeded mock engine
func NewMockEngine(opts EngineOptions) Engine {
	if opts.ModelVersion == "" {
		opts.ModelVersion = DefaultModelVersion
	}
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	} else if len(opts.Catalog.Maturity) == 0 {
		// every report needs a maturity draw
		catalog := *opts.Catalog
		catalog.Maturity = DefaultCatalog().Maturity
		opts.Catalog = &catalog
	}
	if opts.Constraints.MaxDimension == 0 {
		opts.Constraints = validation.DefaultImageConstraints()
	}
	return &mockEngine{
		opts:      opts,
		validator: validation.NewImageValidatorWithConstraints(opts.Constraints),
		catalog:   opts.Catalog,
	}
}

// Analyze validates the image, then runs the maturity, pest and disease
// draws in that order on one request-local generator.
func (e *mockEngine) Analyze(ctx context.Context, img validation.ImageInfo, imageID string, gps models.GPSCoordinates, timestamp time.Time) (*models.AnalysisReport, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("analysis cancelled", err)
	}
	if err := e.validator.Validate(img); err != nil {
		return nil, err
	}

	rng := NewGenerator(Seed(img.Width, img.Height, gps))
	maturity := e.drawMaturity(rng)
	pests := e.drawPests(rng)
	diseases := e.drawDiseases(rng)

	return &models.AnalysisReport{
		ImageID:          imageID,
		GPS:              gps,
		Timestamp:        timestamp,
		Maturity:         maturity,
		Pests:            pests,
		Diseases:         diseases,
		ProcessingTimeMs: float64(time.Since(start).Nanoseconds()) / 1e6,
		ModelVersion:     e.opts.ModelVersion,
	}, nil
}

func (e *mockEngine) drawMaturity(rng *rand.Rand) models.MaturityAnalysis {
	weights := make([]float64, len(e.catalog.Maturity))
	for i, p := range e.catalog.Maturity {
		weights[i] = p.Weight
	}
	profile := e.catalog.Maturity[weightedIndex(rng, weights)]

	atr := profile.ATR + uniform(rng, -0.5, 0.5)
	pol := round(profile.POL+uniform(rng, -0.5, 0.5), 1)
	brix := round(profile.Brix+uniform(rng, -0.5, 0.5), 1)
	confidence := uniform(rng, 0.75, 0.95)

	return models.MaturityAnalysis{
		Level:         profile.Level,
		Confidence:    round(confidence, 3),
		EstimatedATR:  round(atr, 1),
		EstimatedPOL:  &pol,
		EstimatedBrix: &brix,
	}
}

// drawPests emits at most one detection. The box anchor lies in [0.1, 0.5]
// and the extent in [0.1, 0.3], so x1 < x2 <= 0.8 and y1 < y2 <= 0.8.
func (e *mockEngine) drawPests(rng *rand.Rand) []models.PestDetection {
	if len(e.catalog.Pests) == 0 || rng.Float64() <= 1-e.opts.PestProbability {
		return []models.PestDetection{}
	}

	class := e.catalog.Pests[rng.IntN(len(e.catalog.Pests))]
	x1 := uniform(rng, 0.1, 0.5)
	y1 := uniform(rng, 0.1, 0.5)
	x2 := x1 + uniform(rng, 0.1, 0.3)
	y2 := y1 + uniform(rng, 0.1, 0.3)

	return []models.PestDetection{{
		PestType:    class.Name,
		Confidence:  round(uniform(rng, 0.70, 0.90), 3),
		Severity:    class.Severity,
		BoundingBox: []float64{x1, y1, x2, y2},
	}}
}

func (e *mockEngine) drawDiseases(rng *rand.Rand) []models.DiseaseDetection {
	if len(e.catalog.Diseases) == 0 || rng.Float64() <= 1-e.opts.DiseaseProbability {
		return []models.DiseaseDetection{}
	}

	class := e.catalog.Diseases[rng.IntN(len(e.catalog.Diseases))]
	confidence := round(uniform(rng, 0.65, 0.85), 3)
	area := round(uniform(rng, 5.0, 25.0), 1)

	return []models.DiseaseDetection{{
		DiseaseType:     class.Name,
		Confidence:      confidence,
		Severity:        class.Severity,
		AffectedAreaPct: &area,
	}}
}

// ModelInfo describes the mock model and its input constraints
func (e *mockEngine) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		ModelVersion: e.opts.ModelVersion,
		ModelType:    "placeholder",
		Capabilities: []string{
			"maturity_analysis",
			"pest_detection",
			"disease_detection",
		},
		SupportedFormats: append([]string(nil), e.opts.Constraints.SupportedFormats...),
		MinResolution:    e.opts.Constraints.MinResolution(),
		MaxResolution:    e.opts.Constraints.MaxResolution(),
		Status:           "initialized",
	}
}

// Catalog returns the classes the engine draws from
func (e *mockEngine) Catalog() *Catalog {
	return e.catalog
}
