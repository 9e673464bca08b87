package record

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/mapfold/poidex/internal/domain"
	"github.com/mapfold/poidex/internal/domain/geo"
	"github.com/mapfold/poidex/internal/domain/match"
)

// Hash field names for a stored record.
const (
	fieldName        = "name"
	fieldNameNorm    = "name_norm"
	fieldLat         = "lat"
	fieldLng         = "lng"
	fieldLocation    = "location"
	fieldCity        = "city"
	fieldCountry     = "country"
	fieldCategory    = "category"
	fieldDescription = "description"
	fieldAttribution = "attribution"
	fieldExternalRef = "external_ref"
	fieldImageURL    = "image_url"
	fieldMapURL      = "map_url"
	fieldProvenance  = "provenance"
	fieldPrioritized = "prioritized"
	fieldVector      = "__vector"
)

// buildHashFields converts a domain Record into a flat map[string]string for
// HSET. Records without valid coordinates get no vector field and therefore
// stay out of the KNN index.
func buildHashFields(r *domain.Record) map[string]string {
	m := map[string]string{
		fieldName:     r.Name,
		fieldNameNorm: match.Normalize(r.Name),
		fieldLat:      strconv.FormatFloat(r.Coordinates.Lat, 'f', -1, 64),
		fieldLng:      strconv.FormatFloat(r.Coordinates.Lng, 'f', -1, 64),
	}

	setIfPresent := func(field, val string) {
		if val != "" {
			m[field] = val
		}
	}
	setIfPresent(fieldLocation, r.LocationText)
	setIfPresent(fieldCity, r.City)
	setIfPresent(fieldCountry, r.Country)
	setIfPresent(fieldCategory, r.Category)
	setIfPresent(fieldDescription, r.Description)
	setIfPresent(fieldAttribution, r.AttributionName)
	setIfPresent(fieldExternalRef, r.ExternalRef)
	setIfPresent(fieldImageURL, r.ImageURL)
	setIfPresent(fieldMapURL, r.MapURL)

	prov := r.Provenance
	if prov == "" {
		prov = domain.ProvenanceStore
	}
	m[fieldProvenance] = string(prov)

	if r.Prioritized {
		m[fieldPrioritized] = "1"
	} else {
		m[fieldPrioritized] = "0"
	}

	if r.Coordinates.Valid() {
		m[fieldVector] = vectorToBytes(geo.ToVector(r.Coordinates))
	}

	return m
}

// parseHashFields converts a flat hash map back into a domain Record.
func parseHashFields(id string, m map[string]string) domain.Record {
	lat, _ := strconv.ParseFloat(m[fieldLat], 64)
	lng, _ := strconv.ParseFloat(m[fieldLng], 64)

	prov := domain.Provenance(m[fieldProvenance])
	switch prov {
	case domain.ProvenanceStore, domain.ProvenanceScout, domain.ProvenanceManual:
	default:
		prov = domain.ProvenanceStore
	}

	return domain.Record{
		ID:              id,
		Name:            m[fieldName],
		Coordinates:     domain.Coordinates{Lat: lat, Lng: lng},
		LocationText:    m[fieldLocation],
		City:            m[fieldCity],
		Country:         m[fieldCountry],
		Category:        m[fieldCategory],
		Description:     m[fieldDescription],
		AttributionName: m[fieldAttribution],
		ExternalRef:     m[fieldExternalRef],
		ImageURL:        m[fieldImageURL],
		MapURL:          m[fieldMapURL],
		Provenance:      prov,
		Prioritized:     m[fieldPrioritized] == "1",
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float,
// little-endian) matching the FT.SEARCH BLOB layout.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
