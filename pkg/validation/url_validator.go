package validation

import (
	"net/url"
	"strings"

	apperrors "go-cane-vision/internal/errors"
)

// URLValidator checks outbound endpoints such as the report webhook
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator allows http and https to any host
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
	}
}

// NewURLValidatorWithOptions restricts schemes and, when hosts is non-empty, hosts
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateEndpointURL returns a validation error for unusable endpoints
func (v *URLValidator) ValidateEndpointURL(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return apperrors.NewValidationError("endpoint URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return apperrors.NewValidationError("invalid endpoint URL format", err)
	}

	if !contains(v.allowedSchemes, strings.ToLower(parsedURL.Scheme)) {
		return apperrors.NewValidationError("endpoint URL scheme not allowed", nil)
	}

	if parsedURL.Hostname() == "" {
		return apperrors.NewValidationError("endpoint URL must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !contains(v.allowedHosts, parsedURL.Hostname()) {
		return apperrors.NewValidationError("endpoint URL host not allowed", nil)
	}

	return nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
