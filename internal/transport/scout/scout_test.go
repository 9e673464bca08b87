package scout

import (
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mapfold/poidex/internal/domain"
)

func testClient(maxCandidates int) *Client {
	return NewClient(&Config{
		APIKey:        "test",
		Model:         "test-model",
		MaxCandidates: maxCandidates,
		Logger:        zap.NewNop(),
	})
}

func TestParseProposals(t *testing.T) {
	c := testClient(10)
	content := `{"places":[
		{"name":"City Hall","lat":48.8566,"lng":2.3522,"city":"Paris","country":"France","category":"civic","attribution":"T. Ballu"},
		{"name":"  ","lat":1,"lng":1},
		{"name":"Unlocated Place"}
	]}`

	records, err := c.parseProposals(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("want 2 records (unnamed dropped), got %d", len(records))
	}

	first := records[0]
	if first.Name != "City Hall" || first.City != "Paris" || first.AttributionName != "T. Ballu" {
		t.Errorf("fields not mapped: %+v", first)
	}
	if first.Provenance != domain.ProvenanceScout {
		t.Errorf("provenance %q", first.Provenance)
	}
	if len(first.ID) < len("scout-")+1 || first.ID[:6] != "scout-" {
		t.Errorf("id %q lacks scout prefix", first.ID)
	}

	// The unlocated place keeps the sentinel for the orchestrator to filter.
	if records[1].Coordinates.Valid() {
		t.Error("missing coordinates should stay at the sentinel")
	}
}

func TestParseProposals_CapsAtMaxCandidates(t *testing.T) {
	c := testClient(2)
	content := `{"places":[
		{"name":"A","lat":1,"lng":1},
		{"name":"B","lat":1,"lng":1},
		{"name":"C","lat":1,"lng":1}
	]}`

	records, err := c.parseProposals(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d", len(records))
	}
}

func TestParseProposals_Malformed(t *testing.T) {
	c := testClient(10)
	if _, err := c.parseProposals(`not json at all`); err == nil {
		t.Fatal("expected error")
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"places":[]}`, `{"places":[]}`},
		{"```json\n{\"places\":[]}\n```", `{"places":[]}`},
		{"```\n{\"places\":[]}\n```", `{"places":[]}`},
		{"  {\"places\":[]}  ", `{"places":[]}`},
	}
	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Errorf("stripFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseAPIError_RateLimit(t *testing.T) {
	err := parseAPIError(&openai.APIError{HTTPStatusCode: 429, Message: "slow down"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("429 should map to ErrRateLimited, got %v", err)
	}
}

func TestParseAPIError_InsufficientQuota(t *testing.T) {
	err := parseAPIError(&openai.APIError{HTTPStatusCode: 400, Code: "insufficient_quota"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("insufficient_quota should map to ErrRateLimited, got %v", err)
	}
}

func TestParseAPIError_RequestError429(t *testing.T) {
	err := parseAPIError(&openai.RequestError{HTTPStatusCode: 429})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("request-level 429 should map to ErrRateLimited, got %v", err)
	}
}

func TestParseAPIError_Other(t *testing.T) {
	err := parseAPIError(&openai.APIError{HTTPStatusCode: 500, Message: "boom"})
	if errors.Is(err, domain.ErrRateLimited) {
		t.Error("500 must not map to ErrRateLimited")
	}
	if err == nil {
		t.Fatal("expected error")
	}
}
