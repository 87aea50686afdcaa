package catalog

import (
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/bartender/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

//go:embed data/*.csv
var sampleData embed.FS

// Query mirrors the filters of GET /api/beers. Within a field values are OR-ed;
// across fields they are AND-ed. Empty fields do not constrain the result.
type Query struct {
	SearchTerms   []string
	BreweryIDs    []int
	BreweryNames  []string
	Countries     []string
	CategoryIDs   []int
	CategoryNames []string
	StyleIDs      []int
	StyleNames    []string
	MinABV        *float64
	MaxABV        *float64
}

// FilterQuery translates a domain filter into a Query.
func FilterQuery(f domain.BeerFilter) Query {
	var q Query
	if s := strings.TrimSpace(f.Name); s != "" {
		q.SearchTerms = []string{s}
	}
	if s := strings.TrimSpace(f.Brewery); s != "" {
		q.BreweryNames = []string{s}
	}
	if s := strings.TrimSpace(f.Category); s != "" {
		q.CategoryNames = []string{s}
	}
	if s := strings.TrimSpace(f.Country); s != "" {
		q.Countries = []string{s}
	}
	q.MinABV, q.MaxABV = f.MinABV, f.MaxABV
	return q
}

// Repository is an immutable in-memory catalog, ordered by ID.
type Repository struct {
	beers      []domain.Beer
	breweries  []domain.Brewery
	categories []domain.Category
	styles     []domain.Style

	beerByID map[int]domain.Beer
}

// NewRepository builds a Repository from records.
func NewRepository(beers []domain.Beer, breweries []domain.Brewery, categories []domain.Category, styles []domain.Style) *Repository {
	r := &Repository{
		beers:      append([]domain.Beer(nil), beers...),
		breweries:  append([]domain.Brewery(nil), breweries...),
		categories: append([]domain.Category(nil), categories...),
		styles:     append([]domain.Style(nil), styles...),
		beerByID:   make(map[int]domain.Beer, len(beers)),
	}
	sort.Slice(r.beers, func(i, j int) bool { return r.beers[i].ID < r.beers[j].ID })
	sort.Slice(r.breweries, func(i, j int) bool { return r.breweries[i].ID < r.breweries[j].ID })
	sort.Slice(r.categories, func(i, j int) bool { return r.categories[i].ID < r.categories[j].ID })
	sort.Slice(r.styles, func(i, j int) bool { return r.styles[i].ID < r.styles[j].ID })
	for _, b := range r.beers {
		r.beerByID[b.ID] = b
	}
	return r
}

// LoadSample returns the Repository built from the embedded sample data.
func LoadSample() (*Repository, error) {
	sub, err := fs.Sub(sampleData, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadFS reads beers.csv, breweries.csv, categories.csv and styles.csv from fsys.
// Column headers are matched against the records' field tags.
func LoadFS(fsys fs.FS) (*Repository, error) {
	var (
		beers      []domain.Beer
		breweries  []domain.Brewery
		categories []domain.Category
		styles     []domain.Style
	)
	if err := loadCSV(fsys, "beers.csv", &beers); err != nil {
		return nil, err
	}
	if err := loadCSV(fsys, "breweries.csv", &breweries); err != nil {
		return nil, err
	}
	if err := loadCSV(fsys, "categories.csv", &categories); err != nil {
		return nil, err
	}
	if err := loadCSV(fsys, "styles.csv", &styles); err != nil {
		return nil, err
	}
	return NewRepository(beers, breweries, categories, styles), nil
}

func loadCSV(fsys fs.FS, name string, out any) error {
	f, err := fsys.Open(path.Clean(name))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read %s header: %w", name, err)
	}

	var rows []map[string]any
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(rec) && rec[i] != "" {
				row[strings.TrimSpace(col)] = rec[i]
			}
		}
		rows = append(rows, row)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(rows); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func anyFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

func anyContains(terms []string, s string) bool {
	for _, t := range terms {
		if containsFold(s, strings.TrimSpace(t)) {
			return true
		}
	}
	return false
}

func idSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Beers evaluates q. A name-based filter (brewery, country, category or style
// name) that matches nothing yields no beers.
func (r *Repository) Beers(q Query) []domain.Beer {
	breweryIDs := append([]int(nil), q.BreweryIDs...)
	breweryConstrained := len(q.BreweryIDs) > 0
	if len(q.BreweryNames) > 0 || len(q.Countries) > 0 {
		breweryConstrained = true
		for _, b := range r.breweries {
			if len(q.BreweryNames) > 0 && !anyContains(q.BreweryNames, b.Name) {
				continue
			}
			if len(q.Countries) > 0 && !anyFold(q.Countries, b.Country) {
				continue
			}
			breweryIDs = append(breweryIDs, b.ID)
		}
	}

	categoryIDs := append([]int(nil), q.CategoryIDs...)
	categoryConstrained := len(q.CategoryIDs) > 0
	if len(q.CategoryNames) > 0 {
		categoryConstrained = true
		for _, c := range r.categories {
			if anyFold(q.CategoryNames, c.Name) {
				categoryIDs = append(categoryIDs, c.ID)
			}
		}
	}

	styleIDs := append([]int(nil), q.StyleIDs...)
	styleConstrained := len(q.StyleIDs) > 0
	if len(q.StyleNames) > 0 {
		styleConstrained = true
		for _, s := range r.styles {
			if anyFold(q.StyleNames, s.Name) {
				styleIDs = append(styleIDs, s.ID)
			}
		}
	}

	breweries, categories, styles := idSet(breweryIDs), idSet(categoryIDs), idSet(styleIDs)

	out := []domain.Beer{}
	for _, b := range r.beers {
		if len(q.SearchTerms) > 0 && !anyContains(q.SearchTerms, b.Name) {
			continue
		}
		if breweryConstrained && !breweries[b.BreweryID] {
			continue
		}
		if categoryConstrained && !categories[b.CategoryID] {
			continue
		}
		if styleConstrained && !styles[b.StyleID] {
			continue
		}
		if q.MinABV != nil && b.ABV < *q.MinABV {
			continue
		}
		if q.MaxABV != nil && b.ABV > *q.MaxABV {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Beer returns the beer with the given ID.
func (r *Repository) Beer(id int) (domain.Beer, bool) {
	b, ok := r.beerByID[id]
	return b, ok
}

// Breweries returns the breweries located in any of countries (all when empty).
func (r *Repository) Breweries(countries []string) []domain.Brewery {
	out := []domain.Brewery{}
	for _, b := range r.breweries {
		if len(countries) == 0 || anyFold(countries, b.Country) {
			out = append(out, b)
		}
	}
	return out
}

// Styles returns the styles of any of categoryIDs (all when empty).
func (r *Repository) Styles(categoryIDs []int) []domain.Style {
	set := idSet(categoryIDs)
	out := []domain.Style{}
	for _, s := range r.styles {
		if len(categoryIDs) == 0 || set[s.CategoryID] {
			out = append(out, s)
		}
	}
	return out
}

// CountryNames returns the distinct brewery countries, sorted.
func (r *Repository) CountryNames() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, b := range r.breweries {
		if b.Country != "" && !seen[b.Country] {
			seen[b.Country] = true
			out = append(out, b.Country)
		}
	}
	sort.Strings(out)
	return out
}

// Categories implements ports.Catalog.
func (r *Repository) Categories(ctx context.Context) ([]domain.Category, error) {
	return append([]domain.Category{}, r.categories...), nil
}

// StylesByCategory implements ports.Catalog.
func (r *Repository) StylesByCategory(ctx context.Context, categoryID int) ([]domain.Style, error) {
	return r.Styles([]int{categoryID}), nil
}

// BeersByStyle implements ports.Catalog.
func (r *Repository) BeersByStyle(ctx context.Context, styleID int) ([]domain.Beer, error) {
	return r.Beers(Query{StyleIDs: []int{styleID}}), nil
}

// Countries implements ports.Catalog.
func (r *Repository) Countries(ctx context.Context) ([]string, error) {
	return r.CountryNames(), nil
}

// BreweriesByCountry implements ports.Catalog.
func (r *Repository) BreweriesByCountry(ctx context.Context, country string) ([]domain.Brewery, error) {
	return r.Breweries([]string{country}), nil
}

// BeersByBrewery implements ports.Catalog.
func (r *Repository) BeersByBrewery(ctx context.Context, breweryID int) ([]domain.Beer, error) {
	return r.Beers(Query{BreweryIDs: []int{breweryID}}), nil
}

// BeersBySearchTerm implements ports.Catalog.
func (r *Repository) BeersBySearchTerm(ctx context.Context, term string) ([]domain.Beer, error) {
	return r.Beers(Query{SearchTerms: []string{term}}), nil
}

// BeersByFilter implements ports.Catalog.
func (r *Repository) BeersByFilter(ctx context.Context, filter domain.BeerFilter) ([]domain.Beer, error) {
	return r.Beers(FilterQuery(filter)), nil
}
