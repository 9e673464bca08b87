package poidex

import "github.com/mapfold/poidex/internal/domain"

// Place is the SDK view of one point of interest.
type Place struct {
	ID           string
	Name         string
	Lat          float64
	Lng          float64
	LocationText string
	City         string
	Country      string
	Category     string
	Description  string
	Attribution  string
	ExternalRef  string
	ImageURL     string
	MapURL       string
	// Source is "store", "scout", or "manual".
	Source      string
	Prioritized bool
}

// SearchResult is one narrated search outcome.
type SearchResult struct {
	Places    []Place
	Narrative string
	// StoreCount is how many places came from the registry.
	StoreCount int
	// NewCount is how many net-new places the scout contributed.
	NewCount int
	// Expanded reports whether the generative scout was consulted.
	Expanded bool
	// RateLimited reports scout quota exhaustion for this search.
	RateLimited bool
}

// ReconcileOutcome summarizes one batch deduplication run.
type ReconcileOutcome struct {
	Kept       int
	Groups     int
	DeletedIDs []string
	ErrCount   int
	DryRun     bool
}

func toPlace(r domain.Record) Place {
	return Place{
		ID:           r.ID,
		Name:         r.Name,
		Lat:          r.Coordinates.Lat,
		Lng:          r.Coordinates.Lng,
		LocationText: r.LocationText,
		City:         r.City,
		Country:      r.Country,
		Category:     r.Category,
		Description:  r.Description,
		Attribution:  r.AttributionName,
		ExternalRef:  r.ExternalRef,
		ImageURL:     r.ImageURL,
		MapURL:       r.MapURL,
		Source:       string(r.Provenance),
		Prioritized:  r.Prioritized,
	}
}

func fromPlace(p Place) domain.Record {
	return domain.Record{
		ID:              p.ID,
		Name:            p.Name,
		Coordinates:     domain.Coordinates{Lat: p.Lat, Lng: p.Lng},
		LocationText:    p.LocationText,
		City:            p.City,
		Country:         p.Country,
		Category:        p.Category,
		Description:     p.Description,
		AttributionName: p.Attribution,
		ExternalRef:     p.ExternalRef,
		ImageURL:        p.ImageURL,
		MapURL:          p.MapURL,
		Provenance:      domain.Provenance(p.Source),
		Prioritized:     p.Prioritized,
	}
}

func toPlaces(records []domain.Record) []Place {
	places := make([]Place, len(records))
	for i, r := range records {
		places[i] = toPlace(r)
	}
	return places
}
