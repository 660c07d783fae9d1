package analyzer

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "go-cane-vision/internal/errors"
	"go-cane-vision/pkg/models"
	"go-cane-vision/pkg/validation"
)

var (
	referenceGPS  = models.GPSCoordinates{Lat: -21.1234, Lon: -47.5678}
	referenceTime = time.Date(2026, 2, 20, 10, 30, 0, 0, time.UTC)
)

// stripTiming clears the only field allowed to differ between identical inputs
func stripTiming(r *models.AnalysisReport) models.AnalysisReport {
	out := *r
	out.ProcessingTimeMs = 0
	return out
}

func TestSeed(t *testing.T) {
	// (-21.1234 + -47.5678) * 1000 = -68691.2, truncated toward zero
	if got := Seed(640, 480, referenceGPS); got != -67571 {
		t.Errorf("Expected seed -67571, got %d", got)
	}
	if Seed(640, 480, referenceGPS) != Seed(480, 640, referenceGPS) {
		t.Error("Expected seed to depend only on width+height")
	}
}

func TestWeightedIndex(t *testing.T) {
	rng := NewGenerator(42)
	for i := 0; i < 100; i++ {
		if idx := weightedIndex(rng, []float64{0, 1, 0}); idx != 1 {
			t.Fatalf("Expected index 1 for single non-zero weight, got %d", idx)
		}
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int32
		want   float64
	}{
		{14.25, 1, 14.3},
		{16.04999, 1, 16.0},
		{0.84751, 3, 0.848},
		{-0.05, 1, -0.1},
	}
	for _, tt := range tests {
		if got := round(tt.in, tt.places); got != tt.want {
			t.Errorf("round(%v, %d) = %v, want %v", tt.in, tt.places, got, tt.want)
		}
	}
}

func TestMockEngine_Deterministic(t *testing.T) {
	engine := NewMockEngine(DefaultOptions())
	info := validation.ImageInfo{Format: "JPEG", Width: 640, Height: 480}

	first, err := engine.Analyze(context.Background(), info, "img-1", referenceGPS, referenceTime)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := engine.Analyze(context.Background(), info, "img-1", referenceGPS, referenceTime)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	a, b := stripTiming(first), stripTiming(second)
	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)
	if string(aJSON) != string(bJSON) {
		t.Errorf("Expected identical reports for identical inputs:\n%s\n%s", aJSON, bJSON)
	}
}

func TestMockEngine_PixelContentIgnored(t *testing.T) {
	engine := NewMockEngine(DefaultOptions())

	jpegInfo, err := ProbeImage(encodeJPEG(t, 640, 480))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	pngInfo, err := ProbeImage(encodePNG(t, 640, 480))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	a, _ := engine.Analyze(context.Background(), jpegInfo, "a", referenceGPS, referenceTime)
	b, _ := engine.Analyze(context.Background(), pngInfo, "a", referenceGPS, referenceTime)
	if a.Maturity.Level != b.Maturity.Level || a.Maturity.Confidence != b.Maturity.Confidence || a.Maturity.EstimatedATR != b.Maturity.EstimatedATR {
		t.Errorf("Expected same draws for same size and location, got %+v vs %+v", a.Maturity, b.Maturity)
	}
}

func TestMockEngine_ReferenceImage(t *testing.T) {
	engine := NewMockEngine(DefaultOptions())

	info, err := ProbeImage(encodeJPEG(t, 640, 480))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	report, err := engine.Analyze(context.Background(), info, "img_20260220_103000.jpg", referenceGPS, referenceTime)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !report.Maturity.Level.IsValid() {
		t.Errorf("Unexpected maturity level %q", report.Maturity.Level)
	}
	if report.Maturity.EstimatedATR < 0 || report.Maturity.EstimatedATR > 25 {
		t.Errorf("ATR out of range: %f", report.Maturity.EstimatedATR)
	}
	if err := report.Validate(); err != nil {
		t.Errorf("Report failed validation: %v", err)
	}
	if report.ModelVersion != DefaultModelVersion {
		t.Errorf("Expected model version %s, got %s", DefaultModelVersion, report.ModelVersion)
	}
	if !report.Timestamp.Equal(referenceTime) {
		t.Errorf("Expected echoed timestamp, got %s", report.Timestamp)
	}

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"image_id", "gps", "timestamp", "maturity", "pests", "diseases", "processing_time_ms", "model_version"} {
		if _, ok := shape[key]; !ok {
			t.Errorf("Expected key %q in JSON", key)
		}
	}
	for _, key := range []string{"pests", "diseases"} {
		if !strings.HasPrefix(string(shape[key]), "[") {
			t.Errorf("Expected %s to be a JSON list, got %s", key, shape[key])
		}
	}
	if !strings.Contains(string(shape["timestamp"]), "2026-02-20T10:30:00Z") {
		t.Errorf("Unexpected timestamp encoding %s", shape["timestamp"])
	}
}

func TestMockEngine_RangesAcrossSeeds(t *testing.T) {
	engine := NewMockEngine(DefaultOptions().WithDetectionProbabilities(1, 1))

	for w := 224; w < 424; w++ {
		info := validation.ImageInfo{Format: "PNG", Width: w, Height: 300}
		report, err := engine.Analyze(context.Background(), info, "x", referenceGPS, referenceTime)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := report.Validate(); err != nil {
			t.Fatalf("Width %d: %v", w, err)
		}

		m := report.Maturity
		if m.Confidence < 0.75 || m.Confidence > 0.95 {
			t.Errorf("Maturity confidence %f outside [0.75, 0.95]", m.Confidence)
		}

		if len(report.Pests) != 1 {
			t.Fatalf("Expected one pest with probability 1, got %d", len(report.Pests))
		}
		p := report.Pests[0]
		if p.Confidence < 0.70 || p.Confidence > 0.90 {
			t.Errorf("Pest confidence %f outside [0.70, 0.90]", p.Confidence)
		}
		box := p.BoundingBox
		if len(box) != 4 {
			t.Fatalf("Expected 4 bbox coordinates, got %v", box)
		}
		for _, c := range box {
			if c < 0 || c > 1 {
				t.Errorf("Bounding box coordinate %f outside [0,1]", c)
			}
		}
		// the generator always anchors top-left, so boxes are never inverted
		if box[2] <= box[0] || box[3] <= box[1] {
			t.Errorf("Inverted bounding box %v", box)
		}

		if len(report.Diseases) != 1 {
			t.Fatalf("Expected one disease with probability 1, got %d", len(report.Diseases))
		}
		d := report.Diseases[0]
		if d.Confidence < 0.65 || d.Confidence > 0.85 {
			t.Errorf("Disease confidence %f outside [0.65, 0.85]", d.Confidence)
		}
		if d.AffectedAreaPct == nil || *d.AffectedAreaPct < 5 || *d.AffectedAreaPct > 25 {
			t.Errorf("Affected area %v outside [5, 25]", d.AffectedAreaPct)
		}
	}
}

func TestMockEngine_DetectionsDisabled(t *testing.T) {
	engine := NewMockEngine(DefaultOptions().WithDetectionProbabilities(0, 0))

	for w := 224; w < 324; w++ {
		report, err := engine.Analyze(context.Background(), validation.ImageInfo{Format: "JPEG", Width: w, Height: 224}, "x", referenceGPS, referenceTime)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if report.Pests == nil || report.Diseases == nil {
			t.Fatal("Expected empty, non-nil detection lists")
		}
		if len(report.Pests) != 0 || len(report.Diseases) != 0 {
			t.Fatalf("Expected no detections, got %+v %+v", report.Pests, report.Diseases)
		}
	}
}

func TestMockEngine_DefaultRates(t *testing.T) {
	engine := NewMockEngine(DefaultOptions())

	const samples = 3800
	var pests, diseases, ready int
	for i := 0; i < samples; i++ {
		info := validation.ImageInfo{Format: "JPEG", Width: 224 + i, Height: 480}
		report, err := engine.Analyze(context.Background(), info, "x", referenceGPS, referenceTime)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		pests += len(report.Pests)
		diseases += len(report.Diseases)
		if report.Maturity.Level == models.MaturityReadyToHarvest {
			ready++
		}
	}

	if rate := float64(pests) / samples; rate < 0.05 || rate > 0.15 {
		t.Errorf("Pest rate %.3f far from 0.10", rate)
	}
	if rate := float64(diseases) / samples; rate < 0.02 || rate > 0.09 {
		t.Errorf("Disease rate %.3f far from 0.05", rate)
	}
	if rate := float64(ready) / samples; rate < 0.40 || rate > 0.60 {
		t.Errorf("ready_to_harvest rate %.3f far from 0.50", rate)
	}
}

func TestMockEngine_ValidationErrors(t *testing.T) {
	engine := NewMockEngine(DefaultOptions())

	tests := []struct {
		name string
		info validation.ImageInfo
		want string
	}{
		{"too small", validation.ImageInfo{Format: "JPEG", Width: 100, Height: 100}, "too small"},
		{"too large", validation.ImageInfo{Format: "PNG", Width: 5000, Height: 5000}, "too large"},
		{"bitmap", validation.ImageInfo{Format: "BMP", Width: 640, Height: 480}, "Unsupported image format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := engine.Analyze(context.Background(), tt.info, "x", referenceGPS, referenceTime)
			if report != nil {
				t.Error("Expected no partial report on validation failure")
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected validation error mentioning %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestMockEngine_CancelledContext(t *testing.T) {
	engine := NewMockEngine(DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Analyze(ctx, validation.ImageInfo{Format: "JPEG", Width: 640, Height: 480}, "x", referenceGPS, referenceTime)
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Errorf("Expected timeout error, got: %v", err)
	}
}

func TestMockEngine_ConcurrentDeterminism(t *testing.T) {
	engine := NewMockEngine(DefaultOptions().WithDetectionProbabilities(0.5, 0.5))
	info := validation.ImageInfo{Format: "JPEG", Width: 1024, Height: 768}

	want, err := engine.Analyze(context.Background(), info, "x", referenceGPS, referenceTime)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	wantJSON, _ := json.Marshal(stripTiming(want))

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// interleave other inputs to exercise concurrent generators
			other := models.GPSCoordinates{Lat: -5 - float64(i)*0.1, Lon: -40}
			_, _ = engine.Analyze(context.Background(), info, "y", other, referenceTime)

			got, err := engine.Analyze(context.Background(), info, "x", referenceGPS, referenceTime)
			if err != nil {
				errs <- err.Error()
				return
			}
			gotJSON, _ := json.Marshal(stripTiming(got))
			if string(gotJSON) != string(wantJSON) {
				errs <- string(gotJSON)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Errorf("Concurrent analysis diverged: %s", e)
	}
}

func TestMockEngine_ModelInfo(t *testing.T) {
	info := NewMockEngine(DefaultOptions().WithModelVersion("field-v2")).ModelInfo()

	if info.ModelVersion != "field-v2" || info.ModelType != "placeholder" || info.Status != "initialized" {
		t.Errorf("Unexpected model info: %+v", info)
	}
	if len(info.Capabilities) != 3 {
		t.Errorf("Expected 3 capabilities, got %v", info.Capabilities)
	}
	if info.MinResolution != "224x224" || info.MaxResolution != "4096x4096" {
		t.Errorf("Unexpected resolution bounds: %s / %s", info.MinResolution, info.MaxResolution)
	}
	if strings.Join(info.SupportedFormats, ",") != "JPEG,PNG" {
		t.Errorf("Unexpected formats: %v", info.SupportedFormats)
	}
}

func TestMockEngine_EmptyMaturityCatalog(t *testing.T) {
	opts := DefaultOptions()
	opts.Catalog = &Catalog{}
	engine := NewMockEngine(opts)

	report, err := engine.Analyze(context.Background(), validation.ImageInfo{Format: "JPEG", Width: 640, Height: 480}, "x", referenceGPS, referenceTime)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.Maturity.Level == "" {
		t.Error("Expected a maturity level from the default profiles")
	}
	if len(report.Pests) != 0 || len(report.Diseases) != 0 {
		t.Errorf("Expected no detections from an empty catalog, got %+v %+v", report.Pests, report.Diseases)
	}
	if got := len(engine.Catalog().Maturity); got != len(DefaultCatalog().Maturity) {
		t.Errorf("Expected %d maturity profiles, got %d", len(DefaultCatalog().Maturity), got)
	}
}
