package storage

import (
	"fmt"
	"strings"

	"github.com/golang/geo/s2"

	"go-cane-vision/pkg/models"
)

const (
	DefaultCellLevel = 10
	maxBlobIDLength  = 128
)

// CellToken returns the S2 cell token covering the coordinates at the given level.
// Levels outside [0, 30] are clamped.
func CellToken(gps models.GPSCoordinates, level int) string {
	if level < 0 {
		level = 0
	}
	if level > s2.MaxLevel {
		level = s2.MaxLevel
	}
	cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(gps.Lat, gps.Lon))
	return cell.Parent(level).ToToken()
}

// BlobName builds reports/<cell>/<yyyy>/<mm>/<dd>/<image_id>.json
func BlobName(report *models.AnalysisReport, level int) string {
	ts := report.Timestamp.UTC()
	return fmt.Sprintf("reports/%s/%04d/%02d/%02d/%s.json",
		CellToken(report.GPS, level), ts.Year(), int(ts.Month()), ts.Day(), sanitizeID(report.ImageID))
}

func sanitizeID(id string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		}
		return '_'
	}, id)
	cleaned = strings.Trim(cleaned, ".")
	if len(cleaned) > maxBlobIDLength {
		cleaned = cleaned[:maxBlobIDLength]
	}
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}
