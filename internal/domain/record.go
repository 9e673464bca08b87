package domain

import (
	"math"
	"strconv"
	"strings"
)

// Provenance identifies the source a record originated from.
type Provenance string

const (
	// ProvenanceStore marks records loaded from the persistent registry.
	ProvenanceStore Provenance = "store"
	// ProvenanceScout marks records proposed by the generative lookup.
	ProvenanceScout Provenance = "scout"
	// ProvenanceManual marks records entered by hand.
	ProvenanceManual Provenance = "manual"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Valid reports whether the pair can be treated as a real location.
// (0,0) is the "no location" sentinel used throughout the registry and is
// rejected alongside non-finite and out-of-range values.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	if c.Lat == 0 && c.Lng == 0 {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Record is a point of interest as seen by the resolution pipeline.
// Fields are exported: records are plain data carriers and the merge overlay
// operates field by field.
type Record struct {
	ID              string
	Name            string
	Coordinates     Coordinates
	LocationText    string
	City            string
	Country         string
	Category        string
	Description     string
	AttributionName string
	ExternalRef     string
	ImageURL        string
	MapURL          string
	Provenance      Provenance
	Prioritized     bool
}

// StoreIDPrefix prefixes the registry's numeric row identifiers inside
// Record.ID so provenance stays visible in merged collections.
const StoreIDPrefix = "store-"

// StoreID builds a record ID from a registry row identifier.
func StoreID(row int64) string {
	return StoreIDPrefix + strconv.FormatInt(row, 10)
}

// RowID extracts the registry row identifier from a record ID.
// The second return value is false for non-registry IDs.
func RowID(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, StoreIDPrefix)
	if !ok {
		return 0, false
	}
	row, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return row, true
}

// FromStore reports whether the record is backed by a registry row.
func (r *Record) FromStore() bool {
	_, ok := RowID(r.ID)
	return ok
}
