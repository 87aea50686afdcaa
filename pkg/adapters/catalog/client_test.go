package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/bartender/pkg/adapters/catalog"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(catalog.NewHandler(sample(t), nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RoundTrip(t *testing.T) {
	srv := newAPI(t)
	client := catalog.NewClient(srv.URL)
	ctx := context.Background()

	categories, err := client.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 5)

	styles, err := client.StylesByCategory(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, styles, 3)

	beers, err := client.BeersByStyle(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hoegaarden Witbier"}, names(beers))

	countries, err := client.Countries(ctx)
	require.NoError(t, err)
	assert.Contains(t, countries, "Belgium")

	breweries, err := client.BreweriesByCountry(ctx, "Belgium")
	require.NoError(t, err)
	assert.Len(t, breweries, 3)

	beers, err = client.BeersByBrewery(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, beers, 3)

	beers, err = client.BeersBySearchTerm(ctx, "guinness")
	require.NoError(t, err)
	assert.Len(t, beers, 2)

	minABV := 9.0
	beers, err = client.BeersByFilter(ctx, domain.BeerFilter{Country: "Belgium", MinABV: &minABV})
	require.NoError(t, err)
	assert.Equal(t, []string{"Westmalle Tripel"}, names(beers))
}

func TestHandler_Errors(t *testing.T) {
	srv := newAPI(t)

	resp, err := http.Get(srv.URL + "/api/beers/999")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/beers?minAbv=strong")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/beers/6")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := catalog.NewClient(srv.URL, catalog.WithRetryMax(0))
	_, err := client.Categories(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	down := catalog.NewClient("http://127.0.0.1:1", catalog.WithRetryMax(0))
	_, err = down.Countries(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}
