package analyzer

import (
	"context"
	"time"

	"go-cane-vision/pkg/models"
	"go-cane-vision/pkg/validation"
)

// Engine produces an analysis report for a validated field image
type Engine interface {
	// Analyze validates the image and returns the report. It fails only on
	// validation errors or a cancelled context.
	Analyze(ctx context.Context, img validation.ImageInfo, imageID string, gps models.GPSCoordinates, timestamp time.Time) (*models.AnalysisReport, error)

	// ModelInfo describes the loaded model
	ModelInfo() models.ModelInfo

	// Catalog exposes the classes the model can emit
	Catalog() *Catalog
}
