package dedup

import "github.com/mapfold/poidex/internal/domain"

// overlay resolves a duplicate pair field by field. Precedence:
//
//	Name, LocationText, City, Country, Category, Description,
//	AttributionName, ExternalRef, ImageURL, MapURL, Provenance:
//	    base wins when populated, donor fills gaps, populated base
//	    fields are never overwritten.
//	Coordinates: base wins when valid, otherwise the donor's valid pair.
//	Prioritized: sticky; true on either side survives.
//	ID: set by the caller (the winning slot's identifier).
func overlay(base, donor *domain.Record) domain.Record {
	out := *base

	fill(&out.Name, donor.Name)
	fill(&out.LocationText, donor.LocationText)
	fill(&out.City, donor.City)
	fill(&out.Country, donor.Country)
	fill(&out.Category, donor.Category)
	fill(&out.Description, donor.Description)
	fill(&out.AttributionName, donor.AttributionName)
	fill(&out.ExternalRef, donor.ExternalRef)
	fill(&out.ImageURL, donor.ImageURL)
	fill(&out.MapURL, donor.MapURL)

	if out.Provenance == "" {
		out.Provenance = donor.Provenance
	}
	if !out.Coordinates.Valid() && donor.Coordinates.Valid() {
		out.Coordinates = donor.Coordinates
	}
	out.Prioritized = base.Prioritized || donor.Prioritized

	return out
}

func fill(dst *string, donor string) {
	if *dst == "" {
		*dst = donor
	}
}
