package poidex

import (
	"context"
	"errors"
	"fmt"
)

// SearchBuilder is a fluent builder for search queries. Anchor the search
// with Near or with a free-text Query; the query form geocodes first.
type SearchBuilder struct {
	client *Client

	lat, lng  float64
	hasAnchor bool
	query     string
	radiusM   float64
}

// Near sets the anchor coordinate.
func (b *SearchBuilder) Near(lat, lng float64) *SearchBuilder {
	b.lat = lat
	b.lng = lng
	b.hasAnchor = true
	return b
}

// Query sets a free-text place query resolved to an anchor by geocoding.
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	b.query = q
	return b
}

// RadiusMeters sets the search radius. Zero uses the configured default.
func (b *SearchBuilder) RadiusMeters(m float64) *SearchBuilder {
	b.radiusM = m
	return b
}

// Km sets the search radius in kilometers.
func (b *SearchBuilder) Km(r float64) *SearchBuilder {
	b.radiusM = r * 1000
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (SearchResult, error) {
	switch {
	case b.hasAnchor:
		res, err := b.client.orchestrator.Search(ctx, anchor(b.lat, b.lng), b.radiusM)
		if err != nil {
			return SearchResult{}, fmt.Errorf("search: %w", err)
		}
		return searchResult(res), nil
	case b.query != "":
		res, err := b.client.orchestrator.SearchByQuery(ctx, b.query, b.radiusM)
		if err != nil {
			return SearchResult{}, fmt.Errorf("search %q: %w", b.query, err)
		}
		return searchResult(res), nil
	default:
		return SearchResult{}, errors.New("poidex: search needs Near or Query")
	}
}
