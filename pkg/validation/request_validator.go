package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "go-cane-vision/internal/errors"
)

const maxImageIDLength = 255

// ValidateImageID checks the client supplied identifier length
func ValidateImageID(imageID string) error {
	n := utf8.RuneCountInString(imageID)
	if n < 1 || n > maxImageIDLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("image_id must be between 1 and %d characters", maxImageIDLength),
			nil,
		)
	}
	return nil
}

// Layouts accepted besides RFC 3339. Values without an offset are taken as UTC.
var naiveTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO 8601 capture time. An empty value yields now() in UTC.
func ParseTimestamp(raw string, now func() time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now().UTC(), nil
	}

	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, nil
	}
	for _, layout := range naiveTimestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, apperrors.NewValidationError(
		fmt.Sprintf("Invalid timestamp format: %q. Use ISO 8601 format.", raw),
		nil,
	)
}
