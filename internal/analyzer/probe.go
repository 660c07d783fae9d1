package analyzer

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "go-cane-vision/internal/errors"
	"go-cane-vision/pkg/validation"
)

// ProbeImage reads the format and dimensions from the image header without
// decoding pixel data. Formats other than JPEG and PNG are still identified
// so the validator can name them.
func ProbeImage(data []byte) (validation.ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return validation.ImageInfo{}, apperrors.NewValidationError("Invalid image data: cannot identify image file", err)
	}
	return validation.ImageInfo{
		Format: strings.ToUpper(format),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
