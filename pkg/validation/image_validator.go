package validation

import (
	"fmt"
	"strings"

	apperrors "go-cane-vision/internal/errors"
)

// ImageInfo is what the validator needs to know about a decoded image
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// ImageConstraints defines the accepted formats and pixel bounds
type ImageConstraints struct {
	SupportedFormats []string
	MinDimension     int
	MaxDimension     int
}

// DefaultImageConstraints returns the constraints the analysis model accepts
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		SupportedFormats: []string{"JPEG", "PNG"},
		MinDimension:     224,
		MaxDimension:     4096,
	}
}

// MinResolution renders the lower bound as WxH
func (c ImageConstraints) MinResolution() string {
	return fmt.Sprintf("%dx%d", c.MinDimension, c.MinDimension)
}

// MaxResolution renders the upper bound as WxH
func (c ImageConstraints) MaxResolution() string {
	return fmt.Sprintf("%dx%d", c.MaxDimension, c.MaxDimension)
}

// ImageValidator checks format and dimension constraints before analysis
type ImageValidator struct {
	constraints ImageConstraints
}

// NewImageValidator creates a validator with the default constraints
func NewImageValidator() *ImageValidator {
	return &ImageValidator{
		constraints: DefaultImageConstraints(),
	}
}

// NewImageValidatorWithConstraints creates a validator with custom constraints
func NewImageValidatorWithConstraints(constraints ImageConstraints) *ImageValidator {
	return &ImageValidator{
		constraints: constraints,
	}
}

// Constraints returns the active constraints
func (v *ImageValidator) Constraints() ImageConstraints {
	return v.constraints
}

// Validate returns a validation error when the image cannot be analyzed.
// Format is checked first, then the lower bound, then the upper bound.
func (v *ImageValidator) Validate(info ImageInfo) error {
	format := strings.ToUpper(info.Format)
	if !v.isFormatSupported(format) {
		return apperrors.NewValidationError(
			fmt.Sprintf("Unsupported image format: %s. Use %s.", displayFormat(format), strings.Join(v.constraints.SupportedFormats, " or ")),
			nil,
		)
	}

	if info.Width < v.constraints.MinDimension || info.Height < v.constraints.MinDimension {
		return apperrors.NewValidationError(
			fmt.Sprintf("Image too small: %dx%d. Minimum %s pixels.", info.Width, info.Height, v.constraints.MinResolution()),
			nil,
		)
	}

	if info.Width > v.constraints.MaxDimension || info.Height > v.constraints.MaxDimension {
		return apperrors.NewValidationError(
			fmt.Sprintf("Image too large: %dx%d. Maximum %s pixels.", info.Width, info.Height, v.constraints.MaxResolution()),
			nil,
		)
	}

	return nil
}

func (v *ImageValidator) isFormatSupported(format string) bool {
	for _, supported := range v.constraints.SupportedFormats {
		if format == supported {
			return true
		}
	}
	return false
}

func displayFormat(format string) string {
	if format == "" {
		return "None"
	}
	return format
}
