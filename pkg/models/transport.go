package models

import "time"

// ErrorEnvelope is the body of every failed response
type ErrorEnvelope struct {
	Error      string    `json:"error"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// ServiceInfo is returned by the root endpoint
type ServiceInfo struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthStatus is returned by the health probe
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Analyzer  ModelInfo `json:"analyzer"`
}

// ModelInfo describes the analysis model and its input constraints
type ModelInfo struct {
	ModelVersion     string   `json:"model_version"`
	ModelType        string   `json:"model_type"`
	Capabilities     []string `json:"capabilities"`
	SupportedFormats []string `json:"supported_formats"`
	MinResolution    string   `json:"min_resolution"`
	MaxResolution    string   `json:"max_resolution"`
	Status           string   `json:"status"`
}

// CatalogKind distinguishes catalog entries
type CatalogKind string

const (
	CatalogPest     CatalogKind = "pest"
	CatalogDisease  CatalogKind = "disease"
	CatalogMaturity CatalogKind = "maturity"
)

// CatalogEntry is one class the model can emit
type CatalogEntry struct {
	Kind     CatalogKind `json:"kind"`
	Name     string      `json:"name"`
	Severity Severity    `json:"severity,omitempty"`
}

// CatalogMatch is a catalog lookup result, Distance is 0 for exact matches
type CatalogMatch struct {
	Entry    CatalogEntry `json:"entry"`
	Distance int          `json:"distance"`
}

// CatalogLookupResponse wraps the matches for a queried name
type CatalogLookupResponse struct {
	Query   string         `json:"query"`
	Exact   bool           `json:"exact"`
	Matches []CatalogMatch `json:"matches"`
}
