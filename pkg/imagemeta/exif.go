// Package imagemeta reads capture metadata embedded by cameras and phones.
package imagemeta

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoMetadata is returned when the image carries no readable EXIF block
var ErrNoMetadata = errors.New("no EXIF metadata")

// DefaultGPSTolerance is the per-axis difference, in degrees, accepted between
// EXIF GPS and the coordinates submitted with the upload.
const DefaultGPSTolerance = 0.05

// DefaultTimeTolerance bounds the gap between the EXIF capture time and the
// submitted timestamp. Camera clocks carry no zone, so a day of slack is allowed.
const DefaultTimeTolerance = 24 * time.Hour

// CaptureMetadata holds the EXIF fields relevant to a field photograph.
// Missing fields are left nil or empty.
type CaptureMetadata struct {
	Taken       *time.Time
	Lat         *float64
	Lon         *float64
	Camera      string
	Orientation int
}

// HasGPS reports whether both coordinates were present
func (m CaptureMetadata) HasGPS() bool {
	return m.Lat != nil && m.Lon != nil
}

// GPSDrift reports whether the EXIF position differs from lat/lon by more than
// tolerance degrees on either axis. Metadata without GPS never drifts.
func (m CaptureMetadata) GPSDrift(lat, lon, tolerance float64) bool {
	if !m.HasGPS() {
		return false
	}
	return math.Abs(*m.Lat-lat) > tolerance || math.Abs(*m.Lon-lon) > tolerance
}

// TimeDrift reports whether the EXIF capture time is more than tolerance away
// from ts. Metadata without a capture time never drifts.
func (m CaptureMetadata) TimeDrift(ts time.Time, tolerance time.Duration) bool {
	if m.Taken == nil {
		return false
	}
	diff := m.Taken.Sub(ts)
	if diff < 0 {
		diff = -diff
	}
	return diff > tolerance
}

// Rotated reports whether the camera recorded a non-default orientation
func (m CaptureMetadata) Rotated() bool {
	return m.Orientation > 1
}

// ReadCapture decodes EXIF from JPEG (or TIFF) bytes. Individual tags that are
// absent or malformed are skipped.
func ReadCapture(data []byte) (CaptureMetadata, error) {
	var meta CaptureMetadata

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta, fmt.Errorf("%w: %v", ErrNoMetadata, err)
	}

	if taken, err := x.DateTime(); err == nil {
		meta.Taken = &taken
	}
	if lat, lon, err := x.LatLong(); err == nil && !math.IsNaN(lat) && !math.IsNaN(lon) {
		meta.Lat = &lat
		meta.Lon = &lon
	}
	meta.Camera = cameraName(x)

	meta.Orientation = 1
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			meta.Orientation = v
		}
	}

	return meta, nil
}

func cameraName(x *exif.Exif) string {
	var parts []string
	for _, field := range []exif.FieldName{exif.Make, exif.Model} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		if v, err := tag.StringVal(); err == nil {
			if v = strings.TrimSpace(strings.Trim(v, "\x00")); v != "" {
				parts = append(parts, v)
			}
		}
	}
	return strings.Join(parts, " ")
}
