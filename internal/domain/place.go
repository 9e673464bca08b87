package domain

// PlaceDetails is the enrichment payload returned by the place directory for
// one external reference.
type PlaceDetails struct {
	ImageURL string
	MapURL   string
}
