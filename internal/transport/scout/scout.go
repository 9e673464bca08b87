// Package scout is the generative lookup: it asks an OpenAI-compatible chat
// model to propose candidate points of interest near an anchor coordinate.
// Proposals are hints, not facts; the orchestrator filters and merges them.
package scout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
	"github.com/mapfold/poidex/internal/metrics"
)

// Client proposes candidate records via chat completion.
type Client struct {
	client        *openai.Client
	model         string
	maxCandidates int
	logger        *zap.Logger
}

// Config holds the generative lookup settings.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxCandidates int
	Logger        *zap.Logger
}

// NewClient creates a generative lookup client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	maxCandidates := cfg.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 10
	}

	return &Client{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         cfg.Model,
		maxCandidates: maxCandidates,
		logger:        cfg.Logger,
	}
}

const systemPrompt = `You suggest real, named physical points of interest ` +
	`(buildings, monuments, landmarks, notable structures) near a given ` +
	`coordinate. Respond with JSON only, an object of the form ` +
	`{"places":[{"name":"","lat":0,"lng":0,"location":"","city":"",` +
	`"country":"","category":"","description":"","attribution":""}]}. ` +
	`"attribution" is the designer or author when known. Use precise WGS84 ` +
	`coordinates. Never invent places; omit anything you are unsure of.`

// Propose asks the model for up to maxCandidates places matching the query
// near the anchor. Quota and rate-limit responses surface as
// domain.ErrRateLimited.
func (c *Client) Propose(ctx context.Context, query string, anchor domain.Coordinates) ([]domain.Record, error) {
	user := fmt.Sprintf(
		"Suggest up to %d places matching %q within a few kilometres of latitude %.5f, longitude %.5f.",
		c.maxCandidates, query, anchor.Lat, anchor.Lng,
	)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ScoutRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.ScoutRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, fmt.Errorf("empty scout response")
	}

	metrics.ScoutRequestsTotal.WithLabelValues(c.model, "success").Inc()
	metrics.ScoutRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	records, err := c.parseProposals(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parse scout response: %w", err)
	}
	return records, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// proposal is the wire shape of one suggested place.
type proposal struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Location    string  `json:"location"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Attribution string  `json:"attribution"`
}

// parseProposals extracts records from the model output. Unnamed proposals
// drop; invalid coordinates are kept as the no-location sentinel and left to
// the orchestrator's filters.
func (c *Client) parseProposals(content string) ([]domain.Record, error) {
	var parsed struct {
		Places []proposal `json:"places"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	records := make([]domain.Record, 0, len(parsed.Places))
	for _, p := range parsed.Places {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		if len(records) == c.maxCandidates {
			break
		}
		records = append(records, domain.Record{
			ID:              "scout-" + uuid.NewString(),
			Name:            strings.TrimSpace(p.Name),
			Coordinates:     domain.Coordinates{Lat: p.Lat, Lng: p.Lng},
			LocationText:    p.Location,
			City:            p.City,
			Country:         p.Country,
			Category:        p.Category,
			Description:     p.Description,
			AttributionName: p.Attribution,
			Provenance:      domain.ProvenanceScout,
		})
	}
	return records, nil
}

// stripFences removes markdown code fences some models wrap JSON in despite
// JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseAPIError maps provider errors; 429 and quota exhaustion become
// domain.ErrRateLimited so the orchestrator can degrade gracefully.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || isQuotaCode(apiErr.Code) {
			return fmt.Errorf("scout quota: %w", domain.ErrRateLimited)
		}
		return fmt.Errorf("scout API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 429 {
			return fmt.Errorf("scout quota: %w", domain.ErrRateLimited)
		}
		return fmt.Errorf("scout API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	return fmt.Errorf("scout request failed: %w", err)
}

// isQuotaCode matches the provider's string/enumerated quota error codes.
func isQuotaCode(code any) bool {
	s, ok := code.(string)
	return ok && (s == "insufficient_quota" || s == "rate_limit_exceeded")
}
