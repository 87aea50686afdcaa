// Package images looks up pictures for beer cards.
package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultBingEndpoint is the Bing image search API.
const DefaultBingEndpoint = "https://api.bing.microsoft.com/v7.0/images/search"

// ErrNoImage is returned when the search succeeded but found nothing.
var ErrNoImage = errors.New("no image found")

// BingSearcher implements ports.ImageSearcher with the Bing image search API.
type BingSearcher struct {
	endpoint string
	apiKey   string
	http     *retryablehttp.Client
}

// NewBingSearcher creates a searcher. An empty endpoint selects DefaultBingEndpoint.
func NewBingSearcher(endpoint, apiKey string) *BingSearcher {
	if endpoint == "" {
		endpoint = DefaultBingEndpoint
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 1
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = 200 * time.Millisecond
	rc.HTTPClient.Timeout = 3 * time.Second
	rc.Logger = nil

	return &BingSearcher{endpoint: endpoint, apiKey: apiKey, http: rc}
}

// SearchImage returns the content URL of the first result for query.
func (s *BingSearcher) SearchImage(ctx context.Context, query string) (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("images: bad endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("images: build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("images: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("images: unexpected status %s", resp.Status)
	}

	var result struct {
		Value []struct {
			ContentURL string `json:"contentUrl"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("images: decode response: %w", err)
	}
	if len(result.Value) == 0 || result.Value[0].ContentURL == "" {
		return "", ErrNoImage
	}
	return result.Value[0].ContentURL, nil
}
