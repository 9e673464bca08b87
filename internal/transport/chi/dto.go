package chi

import (
	"github.com/mapfold/poidex/internal/domain"
	dedupuc "github.com/mapfold/poidex/internal/usecase/dedup"
	searchuc "github.com/mapfold/poidex/internal/usecase/search"
)

// recordJSON is the wire shape of a record.
type recordJSON struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	LocationText string  `json:"location_text,omitempty"`
	City         string  `json:"city,omitempty"`
	Country      string  `json:"country,omitempty"`
	Category     string  `json:"category,omitempty"`
	Description  string  `json:"description,omitempty"`
	Attribution  string  `json:"attribution,omitempty"`
	ExternalRef  string  `json:"external_ref,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	MapURL       string  `json:"map_url,omitempty"`
	Provenance   string  `json:"provenance,omitempty"`
	Prioritized  bool    `json:"prioritized,omitempty"`
}

func (r *recordJSON) toDomain() domain.Record {
	return domain.Record{
		ID:              r.ID,
		Name:            r.Name,
		Coordinates:     domain.Coordinates{Lat: r.Lat, Lng: r.Lng},
		LocationText:    r.LocationText,
		City:            r.City,
		Country:         r.Country,
		Category:        r.Category,
		Description:     r.Description,
		AttributionName: r.Attribution,
		ExternalRef:     r.ExternalRef,
		ImageURL:        r.ImageURL,
		MapURL:          r.MapURL,
		Provenance:      domain.Provenance(r.Provenance),
		Prioritized:     r.Prioritized,
	}
}

func recordToJSON(rec *domain.Record) recordJSON {
	return recordJSON{
		ID:           rec.ID,
		Name:         rec.Name,
		Lat:          rec.Coordinates.Lat,
		Lng:          rec.Coordinates.Lng,
		LocationText: rec.LocationText,
		City:         rec.City,
		Country:      rec.Country,
		Category:     rec.Category,
		Description:  rec.Description,
		Attribution:  rec.AttributionName,
		ExternalRef:  rec.ExternalRef,
		ImageURL:     rec.ImageURL,
		MapURL:       rec.MapURL,
		Provenance:   string(rec.Provenance),
		Prioritized:  rec.Prioritized,
	}
}

// searchResultJSON is the wire shape of a narrated search outcome.
type searchResultJSON struct {
	Records     []recordJSON `json:"records"`
	Narrative   string       `json:"narrative"`
	StoreCount  int          `json:"store_count"`
	Expanded    bool         `json:"expanded"`
	NewCount    int          `json:"new_count"`
	RateLimited bool         `json:"rate_limited"`
}

func searchResultToJSON(res *searchuc.Result) searchResultJSON {
	records := make([]recordJSON, len(res.Records))
	for i := range res.Records {
		records[i] = recordToJSON(&res.Records[i])
	}
	return searchResultJSON{
		Records:     records,
		Narrative:   res.Narrative,
		StoreCount:  res.StoreCount,
		Expanded:    res.Expanded,
		NewCount:    res.NewCount,
		RateLimited: res.RateLimited,
	}
}

// outcomeJSON is the wire shape of a reconciliation summary.
type outcomeJSON struct {
	Kept       int      `json:"kept"`
	Groups     int      `json:"groups"`
	DeletedIDs []string `json:"deleted_ids"`
	ErrorCount int      `json:"error_count"`
	DryRun     bool     `json:"dry_run"`
}

func outcomeToJSON(out *dedupuc.Outcome) outcomeJSON {
	deleted := out.DeletedIDs
	if deleted == nil {
		deleted = []string{}
	}
	return outcomeJSON{
		Kept:       out.Kept,
		Groups:     out.Groups,
		DeletedIDs: deleted,
		ErrorCount: out.ErrCount,
		DryRun:     out.DryRun,
	}
}
