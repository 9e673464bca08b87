// Package places is the HTTP client for the place directory: detail lookups
// by external reference and free-text geocoding. The wire format follows the
// Nominatim-style JSON API the directory exposes.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
)

// Config holds the place directory client settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Client talks to the place directory.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	logger    *zap.Logger
}

// NewClient creates a place directory client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger,
	}
}

// detailsResponse is the directory's detail payload for one place.
type detailsResponse struct {
	PlaceID  json.Number `json:"place_id"`
	Image    string      `json:"image"`
	URL      string      `json:"url"`
	Licence  string      `json:"licence"`
	Category string      `json:"category"`
}

// DetailsFor returns the image and canonical map URL for an external
// reference. A miss surfaces as domain.ErrNotFound.
func (c *Client) DetailsFor(ctx context.Context, externalRef string) (domain.PlaceDetails, error) {
	if externalRef == "" {
		return domain.PlaceDetails{}, domain.ErrNotFound
	}

	q := url.Values{}
	q.Set("place_id", externalRef)
	q.Set("format", "json")

	var resp detailsResponse
	if err := c.getJSON(ctx, "/details", q, &resp); err != nil {
		return domain.PlaceDetails{}, err
	}

	return domain.PlaceDetails{ImageURL: resp.Image, MapURL: resp.URL}, nil
}

// geocodeHit is one geocoding result; the directory serializes coordinates
// as strings.
type geocodeHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve geocodes free text to coordinates, taking the directory's top hit.
// A miss surfaces as domain.ErrNotFound.
func (c *Client) Resolve(ctx context.Context, freeText string) (domain.Coordinates, error) {
	if freeText == "" {
		return domain.Coordinates{}, domain.ErrNotFound
	}

	q := url.Values{}
	q.Set("q", freeText)
	q.Set("format", "json")
	q.Set("limit", "1")

	var hits []geocodeHit
	if err := c.getJSON(ctx, "/search", q, &hits); err != nil {
		return domain.Coordinates{}, err
	}
	if len(hits) == 0 {
		return domain.Coordinates{}, domain.ErrNotFound
	}

	lat, errLat := strconv.ParseFloat(hits[0].Lat, 64)
	lng, errLon := strconv.ParseFloat(hits[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode result for %q: malformed coordinates", freeText)
	}

	coords := domain.Coordinates{Lat: lat, Lng: lng}
	if !coords.Valid() {
		return domain.Coordinates{}, domain.ErrInvalidCoordinates
	}
	return coords, nil
}

// getJSON issues one GET and decodes the body. 404 maps to
// domain.ErrNotFound, 429 to domain.ErrRateLimited.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("place directory %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("place directory %s: %w", path, domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("place directory %s: status %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
