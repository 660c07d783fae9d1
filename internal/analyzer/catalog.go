package analyzer

import (
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"

	"go-cane-vision/pkg/models"
)

// MaturityProfile is the prior of one maturity level and its base sugar indices
type MaturityProfile struct {
	Level  models.MaturityLevel
	Weight float64
	ATR    float64
	POL    float64
	Brix   float64
}

// DetectionClass is a pest or disease the model can report, with its fixed severity
type DetectionClass struct {
	Name     string
	Severity models.Severity
}

// Catalog holds everything the engine can emit
type Catalog struct {
	Maturity []MaturityProfile
	Pests    []DetectionClass
	Diseases []DetectionClass
}

// DefaultCatalog returns the sugarcane classes. Weights favor ready_to_harvest.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Maturity: []MaturityProfile{
			{Level: models.MaturityImmature, Weight: 0.10, ATR: 10.5, POL: 12.0, Brix: 14.0},
			{Level: models.MaturityEarly, Weight: 0.15, ATR: 12.5, POL: 14.5, Brix: 16.0},
			{Level: models.MaturityReadyToHarvest, Weight: 0.50, ATR: 14.0, POL: 16.5, Brix: 18.5},
			{Level: models.MaturityLateHarvest, Weight: 0.15, ATR: 13.5, POL: 15.8, Brix: 17.8},
			{Level: models.MaturityOverripe, Weight: 0.10, ATR: 12.0, POL: 14.0, Brix: 16.5},
		},
		Pests: []DetectionClass{
			{Name: "sugarcane_borer", Severity: models.SeverityModerate},
			{Name: "spittlebug", Severity: models.SeverityLow},
			{Name: "white_grub", Severity: models.SeverityModerate},
			{Name: "aphid", Severity: models.SeverityLow},
		},
		Diseases: []DetectionClass{
			{Name: "red_rot", Severity: models.SeverityHigh},
			{Name: "smut", Severity: models.SeverityModerate},
			{Name: "rust", Severity: models.SeverityLow},
			{Name: "mosaic_virus", Severity: models.SeverityModerate},
		},
	}
}

// Entries flattens the catalog for listing
func (c *Catalog) Entries() []models.CatalogEntry {
	entries := make([]models.CatalogEntry, 0, len(c.Maturity)+len(c.Pests)+len(c.Diseases))
	for _, m := range c.Maturity {
		entries = append(entries, models.CatalogEntry{Kind: models.CatalogMaturity, Name: string(m.Level)})
	}
	for _, p := range c.Pests {
		entries = append(entries, models.CatalogEntry{Kind: models.CatalogPest, Name: p.Name, Severity: p.Severity})
	}
	for _, d := range c.Diseases {
		entries = append(entries, models.CatalogEntry{Kind: models.CatalogDisease, Name: d.Name, Severity: d.Severity})
	}
	return entries
}

// DefaultLookupDistance is the largest edit distance reported as a suggestion
const DefaultLookupDistance = 3

// Lookup resolves a class name. "Red Rot", "red-rot" and "red_rot" are the
// same name. Without an exact match, entries within maxDistance edits are
// returned closest first.
func (c *Catalog) Lookup(name string, maxDistance int) models.CatalogLookupResponse {
	query := normalizeName(name)
	resp := models.CatalogLookupResponse{Query: query, Matches: []models.CatalogMatch{}}
	if query == "" {
		return resp
	}

	for _, entry := range c.Entries() {
		if entry.Name == query {
			resp.Exact = true
			resp.Matches = append(resp.Matches, models.CatalogMatch{Entry: entry})
		}
	}
	if resp.Exact {
		return resp
	}

	for _, entry := range c.Entries() {
		if d := levenshtein.Distance(query, entry.Name); d <= maxDistance {
			resp.Matches = append(resp.Matches, models.CatalogMatch{Entry: entry, Distance: d})
		}
	}
	sort.SliceStable(resp.Matches, func(i, j int) bool {
		return resp.Matches[i].Distance < resp.Matches[j].Distance
	})
	return resp
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}
