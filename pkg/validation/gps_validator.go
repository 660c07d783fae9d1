package validation

import (
	"math"

	apperrors "go-cane-vision/internal/errors"
)

// Bounds of the Brazilian agricultural regions the model was built for
const (
	MinLatitude  = -34.0
	MaxLatitude  = -1.0
	MinLongitude = -74.0
	MaxLongitude = -32.0
	MinAltitude  = 0.0
	MaxAltitude  = 3000.0
)

// ValidateGPS checks latitude, longitude and the optional altitude
func ValidateGPS(lat, lon float64, altitude *float64) error {
	if !finite(lat) || lat < MinLatitude || lat > MaxLatitude {
		return apperrors.NewValidationError("Latitude must be between -34 and -1 (Brazil)", nil)
	}
	if !finite(lon) || lon < MinLongitude || lon > MaxLongitude {
		return apperrors.NewValidationError("Longitude must be between -74 and -32 (Brazil)", nil)
	}
	if altitude != nil {
		if !finite(*altitude) || *altitude < MinAltitude || *altitude > MaxAltitude {
			return apperrors.NewValidationError("Altitude must be between 0 and 3000 meters", nil)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
