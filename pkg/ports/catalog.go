package ports

import (
	"context"

	"github.com/aretw0/bartender/pkg/domain"
)

// Catalog defines the read-only beer catalog consumed by the dialogs.
// Every lookup returns a finite, possibly empty, ordered collection.
// Transient failures are returned wrapped around domain.ErrCatalogUnavailable.
type Catalog interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	StylesByCategory(ctx context.Context, categoryID int) ([]domain.Style, error)
	BeersByStyle(ctx context.Context, styleID int) ([]domain.Beer, error)
	Countries(ctx context.Context) ([]string, error)
	BreweriesByCountry(ctx context.Context, country string) ([]domain.Brewery, error)
	BeersByBrewery(ctx context.Context, breweryID int) ([]domain.Beer, error)
	BeersBySearchTerm(ctx context.Context, term string) ([]domain.Beer, error)
	BeersByFilter(ctx context.Context, filter domain.BeerFilter) ([]domain.Beer, error)
}
