package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/bartender/pkg/domain"
	"github.com/hashicorp/go-retryablehttp"
)

// Client implements ports.Catalog against the HTTP API served by NewHandler.
// Network failures and 5xx answers surviving the retries are reported as
// domain.ErrCatalogUnavailable.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) ClientOption {
	return func(c *Client) {
		c.http.RetryMax = n
	}
}

// WithTimeout bounds each individual attempt.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.HTTPClient.Timeout = d
	}
}

// WithClientLogger routes retry diagnostics to logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.http.Logger = logger
	}
}

// NewClient creates a Client for the API rooted at baseURL (e.g. http://localhost:8081).
func NewClient(baseURL string, opts ...ClientOption) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = 500 * time.Millisecond
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: GET %s: %s", domain.ErrCatalogUnavailable, path, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: GET %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) beers(ctx context.Context, params url.Values) ([]domain.Beer, error) {
	var out []domain.Beer
	if err := c.get(ctx, "/api/beers", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Categories implements ports.Catalog.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.get(ctx, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StylesByCategory implements ports.Catalog.
func (c *Client) StylesByCategory(ctx context.Context, categoryID int) ([]domain.Style, error) {
	var out []domain.Style
	params := url.Values{"categoryId": {strconv.Itoa(categoryID)}}
	if err := c.get(ctx, "/api/styles", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BeersByStyle implements ports.Catalog.
func (c *Client) BeersByStyle(ctx context.Context, styleID int) ([]domain.Beer, error) {
	return c.beers(ctx, url.Values{"styleId": {strconv.Itoa(styleID)}})
}

// Countries implements ports.Catalog.
func (c *Client) Countries(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, "/api/breweries/countries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BreweriesByCountry implements ports.Catalog.
func (c *Client) BreweriesByCountry(ctx context.Context, country string) ([]domain.Brewery, error) {
	var out []domain.Brewery
	if err := c.get(ctx, "/api/breweries", url.Values{"country": {country}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BeersByBrewery implements ports.Catalog.
func (c *Client) BeersByBrewery(ctx context.Context, breweryID int) ([]domain.Beer, error) {
	return c.beers(ctx, url.Values{"breweryId": {strconv.Itoa(breweryID)}})
}

// BeersBySearchTerm implements ports.Catalog.
func (c *Client) BeersBySearchTerm(ctx context.Context, term string) ([]domain.Beer, error) {
	return c.beers(ctx, url.Values{"searchTerm": {term}})
}

// BeersByFilter implements ports.Catalog.
func (c *Client) BeersByFilter(ctx context.Context, f domain.BeerFilter) ([]domain.Beer, error) {
	params := url.Values{}
	if s := strings.TrimSpace(f.Name); s != "" {
		params.Set("searchTerm", s)
	}
	if s := strings.TrimSpace(f.Brewery); s != "" {
		params.Set("breweryName", s)
	}
	if s := strings.TrimSpace(f.Category); s != "" {
		params.Set("categoryName", s)
	}
	if s := strings.TrimSpace(f.Country); s != "" {
		params.Set("country", s)
	}
	if f.MinABV != nil {
		params.Set("minAbv", strconv.FormatFloat(*f.MinABV, 'f', -1, 64))
	}
	if f.MaxABV != nil {
		params.Set("maxAbv", strconv.FormatFloat(*f.MaxABV, 'f', -1, 64))
	}
	return c.beers(ctx, params)
}
