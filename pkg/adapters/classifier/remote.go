package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/bartender/pkg/domain"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/mitchellh/mapstructure"
)

// Remote queries an NLU prediction endpoint answering in the shape
//
//	{"topScoringIntent": {"intent": "OrderBeer", "score": 0.93},
//	 "entities": [{"entity": "guiness", "type": "beername",
//	               "resolution": {"values": ["Guinness Draught"]}}]}
//
// Entity values prefer the first resolution value over the raw text.
type Remote struct {
	endpoint string
	apiKey   string
	minScore float64
	http     *retryablehttp.Client
}

// RemoteOption configures a Remote classifier.
type RemoteOption func(*Remote)

// WithAPIKey sends key in the Ocp-Apim-Subscription-Key header.
func WithAPIKey(key string) RemoteOption {
	return func(r *Remote) { r.apiKey = key }
}

// WithMinScore makes predictions scoring below threshold Unidentified.
func WithMinScore(threshold float64) RemoteOption {
	return func(r *Remote) { r.minScore = threshold }
}

// WithHTTPTimeout bounds each request attempt.
func WithHTTPTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) { r.http.HTTPClient.Timeout = d }
}

// NewRemote creates a Remote classifier for endpoint.
func NewRemote(endpoint string, opts ...RemoteOption) *Remote {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 1
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = 200 * time.Millisecond
	rc.HTTPClient.Timeout = 3 * time.Second
	rc.Logger = nil

	r := &Remote{endpoint: endpoint, http: rc}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type prediction struct {
	TopScoringIntent struct {
		Intent string  `json:"intent"`
		Score  float64 `json:"score"`
	} `json:"topScoringIntent"`
	Entities []struct {
		Entity     string `json:"entity"`
		Type       string `json:"type"`
		Resolution struct {
			Values []any `json:"values"`
		} `json:"resolution"`
	} `json:"entities"`
}

// Classify implements ports.Classifier.
func (r *Remote) Classify(ctx context.Context, text string) (domain.Classification, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classifier: bad endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", text)
	u.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classifier: build request: %w", err)
	}
	if r.apiKey != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", r.apiKey)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classifier: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Classification{}, fmt.Errorf("classifier: unexpected status %s", resp.Status)
	}

	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return domain.Classification{}, fmt.Errorf("classifier: decode prediction: %w", err)
	}
	return r.toClassification(p)
}

func (r *Remote) toClassification(p prediction) (domain.Classification, error) {
	out := domain.Classification{
		Intent: domain.ParseIntent(p.TopScoringIntent.Intent),
		Score:  p.TopScoringIntent.Score,
	}
	if out.Score < r.minScore {
		out.Intent = domain.IntentUnidentified
	}

	// First entity of each type wins.
	raw := map[string]any{}
	for _, e := range p.Entities {
		key := strings.ToLower(e.Type)
		if _, seen := raw[key]; seen {
			continue
		}
		value := e.Entity
		if len(e.Resolution.Values) > 0 {
			value = fmt.Sprint(e.Resolution.Values[0])
		}
		raw[key] = value
	}
	if err := mapstructure.Decode(raw, &out.Entities); err != nil {
		return domain.Classification{}, fmt.Errorf("classifier: decode entities: %w", err)
	}
	return out, nil
}
