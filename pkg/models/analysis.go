package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MaturityLevel is the harvest-readiness class assigned to a field image
type MaturityLevel string

const (
	MaturityImmature       MaturityLevel = "immature"
	MaturityEarly          MaturityLevel = "early_maturity"
	MaturityReadyToHarvest MaturityLevel = "ready_to_harvest"
	MaturityLateHarvest    MaturityLevel = "late_harvest"
	MaturityOverripe       MaturityLevel = "overripe"
)

// MaturityLevels lists every level in classification order
var MaturityLevels = []MaturityLevel{
	MaturityImmature,
	MaturityEarly,
	MaturityReadyToHarvest,
	MaturityLateHarvest,
	MaturityOverripe,
}

// IsValid reports whether the level is one of the declared levels
func (l MaturityLevel) IsValid() bool {
	for _, known := range MaturityLevels {
		if l == known {
			return true
		}
	}
	return false
}

// Severity grades a pest infestation or disease
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid reports whether the severity is one of the declared grades
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// GPSCoordinates locates where the photograph was taken
type GPSCoordinates struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Altitude *float64 `json:"altitude"`
}

// MaturityAnalysis holds the maturity classification and sugar-content estimates.
// ATR is kg/ton, POL and Brix are percentages.
type MaturityAnalysis struct {
	Level         MaturityLevel `json:"level"`
	Confidence    float64       `json:"confidence"`
	EstimatedATR  float64       `json:"estimated_atr"`
	EstimatedPOL  *float64      `json:"estimated_pol"`
	EstimatedBrix *float64      `json:"estimated_brix"`
}

// Validate checks the declared ranges
func (m MaturityAnalysis) Validate() error {
	if !m.Level.IsValid() {
		return fmt.Errorf("unknown maturity level %q", m.Level)
	}
	if err := checkConfidence(m.Confidence); err != nil {
		return err
	}
	if !inRange(m.EstimatedATR, 0, 25) {
		return fmt.Errorf("estimated_atr %.1f out of range [0, 25]", m.EstimatedATR)
	}
	if m.EstimatedPOL != nil && !inRange(*m.EstimatedPOL, 0, 25) {
		return fmt.Errorf("estimated_pol %.1f out of range [0, 25]", *m.EstimatedPOL)
	}
	if m.EstimatedBrix != nil && !inRange(*m.EstimatedBrix, 0, 30) {
		return fmt.Errorf("estimated_brix %.1f out of range [0, 30]", *m.EstimatedBrix)
	}
	return nil
}

// PestDetection is a single pest finding. BoundingBox is [x1, y1, x2, y2]
// in normalized image coordinates.
type PestDetection struct {
	PestType    string    `json:"pest_type"`
	Confidence  float64   `json:"confidence"`
	Severity    Severity  `json:"severity"`
	BoundingBox []float64 `json:"bounding_box"`
}

// Validate checks the declared ranges
func (p PestDetection) Validate() error {
	if err := checkConfidence(p.Confidence); err != nil {
		return err
	}
	if !p.Severity.IsValid() {
		return fmt.Errorf("unknown severity %q", p.Severity)
	}
	if p.BoundingBox == nil {
		return nil
	}
	if len(p.BoundingBox) != 4 {
		return errors.New("Bounding box must have 4 coordinates [x1, y1, x2, y2]")
	}
	for _, coord := range p.BoundingBox {
		if !inRange(coord, 0, 1) {
			return errors.New("Bounding box coordinates must be normalized (0-1)")
		}
	}
	return nil
}

// DiseaseDetection is a single disease finding
type DiseaseDetection struct {
	DiseaseType     string   `json:"disease_type"`
	Confidence      float64  `json:"confidence"`
	Severity        Severity `json:"severity"`
	AffectedAreaPct *float64 `json:"affected_area_pct"`
}

// Validate checks the declared ranges
func (d DiseaseDetection) Validate() error {
	if err := checkConfidence(d.Confidence); err != nil {
		return err
	}
	if !d.Severity.IsValid() {
		return fmt.Errorf("unknown severity %q", d.Severity)
	}
	if d.AffectedAreaPct != nil && !inRange(*d.AffectedAreaPct, 0, 100) {
		return fmt.Errorf("affected_area_pct %.1f out of range [0, 100]", *d.AffectedAreaPct)
	}
	return nil
}

// AnalysisReport is the response of a field image analysis
type AnalysisReport struct {
	ImageID          string             `json:"image_id"`
	GPS              GPSCoordinates     `json:"gps"`
	Timestamp        time.Time          `json:"timestamp"`
	Maturity         MaturityAnalysis   `json:"maturity"`
	Pests            []PestDetection    `json:"pests"`
	Diseases         []DiseaseDetection `json:"diseases"`
	ProcessingTimeMs float64            `json:"processing_time_ms"`
	ModelVersion     string             `json:"model_version"`
}

// Validate checks every nested entity and the report-level invariants
func (r *AnalysisReport) Validate() error {
	if err := r.Maturity.Validate(); err != nil {
		return fmt.Errorf("maturity: %w", err)
	}
	for i, p := range r.Pests {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pests[%d]: %w", i, err)
		}
	}
	for i, d := range r.Diseases {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("diseases[%d]: %w", i, err)
		}
	}
	if r.ProcessingTimeMs < 0 {
		return errors.New("processing_time_ms must be >= 0")
	}
	return nil
}

func checkConfidence(v float64) error {
	if !inRange(v, 0, 1) {
		return fmt.Errorf("confidence %.3f out of range [0, 1]", v)
	}
	return nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
