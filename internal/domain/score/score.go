// Package score assigns completeness/provenance quality scores to records.
// The higher-scored record of a duplicate pair becomes the overlay base and,
// in batch dedup, the group survivor.
package score

import "github.com/mapfold/poidex/internal/domain"

// Weights is the operator-tunable policy table: one weight per field that
// contributes to a record's completeness score.
type Weights struct {
	ExternalRef  float64 `yaml:"external_ref"`
	ImageURL     float64 `yaml:"image_url"`
	MapURL       float64 `yaml:"map_url"`
	Description  float64 `yaml:"description"`
	City         float64 `yaml:"city"`
	Country      float64 `yaml:"country"`
	LocationText float64 `yaml:"location_text"`
}

// Default returns the tuned production weights.
func Default() Weights {
	return Weights{
		ExternalRef:  10,
		ImageURL:     5,
		MapURL:       2,
		Description:  1,
		City:         0.5,
		Country:      0.5,
		LocationText: 0.5,
	}
}

// Score sums the weights of the record's populated fields. Monotonically
// increasing in completeness: filling any field never lowers the score.
func (w Weights) Score(r *domain.Record) float64 {
	var s float64
	if r.ExternalRef != "" {
		s += w.ExternalRef
	}
	if r.ImageURL != "" {
		s += w.ImageURL
	}
	if r.MapURL != "" {
		s += w.MapURL
	}
	if r.Description != "" {
		s += w.Description
	}
	if r.City != "" {
		s += w.City
	}
	if r.Country != "" {
		s += w.Country
	}
	if r.LocationText != "" {
		s += w.LocationText
	}
	return s
}
