package domain

import "strings"

// Beer is a catalog entry.
type Beer struct {
	ID          int     `json:"id" mapstructure:"id"`
	Name        string  `json:"name" mapstructure:"name"`
	Description string  `json:"description,omitempty" mapstructure:"description"`
	ABV         float64 `json:"abv,omitempty" mapstructure:"abv"`
	BreweryID   int     `json:"brewery_id,omitempty" mapstructure:"brewery_id"`
	CategoryID  int     `json:"category_id,omitempty" mapstructure:"category_id"`
	StyleID     int     `json:"style_id,omitempty" mapstructure:"style_id"`
}

// Brewery is a beer producer.
type Brewery struct {
	ID      int    `json:"id" mapstructure:"id"`
	Name    string `json:"name" mapstructure:"name"`
	City    string `json:"city,omitempty" mapstructure:"city"`
	Country string `json:"country" mapstructure:"country"`
}

// Category is the top level of the beer taxonomy (e.g. "North American Ale").
type Category struct {
	ID   int    `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
}

// Style is the second level of the taxonomy, always under a Category.
type Style struct {
	ID         int    `json:"id" mapstructure:"id"`
	CategoryID int    `json:"category_id" mapstructure:"category_id"`
	Name       string `json:"name" mapstructure:"name"`
}

// BeerFilter is a multi-field catalog query. Empty fields do not constrain the result.
type BeerFilter struct {
	Name     string   `json:"name,omitempty"`
	Brewery  string   `json:"brewery,omitempty"`
	Category string   `json:"category,omitempty"`
	Country  string   `json:"country,omitempty"`
	MinABV   *float64 `json:"min_abv,omitempty"`
	MaxABV   *float64 `json:"max_abv,omitempty"`
}

// IsEmpty reports whether no field of the filter is set.
func (f BeerFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Name) == "" &&
		strings.TrimSpace(f.Brewery) == "" &&
		strings.TrimSpace(f.Category) == "" &&
		strings.TrimSpace(f.Country) == "" &&
		f.MinABV == nil && f.MaxABV == nil
}

// Strategy is the narrowing path of a recommendation.
type Strategy string

const (
	StrategyCategory Strategy = "category" // category -> style -> beer
	StrategyOrigin   Strategy = "origin"   // country -> brewery -> beer
	StrategyName     Strategy = "name"     // free text -> beer
	StrategyDirect   Strategy = "direct"   // pre-extracted entities, no interaction
)

// Narrowing is the dialog-local state of a recommendation frame.
type Narrowing struct {
	Strategy Strategy    `json:"strategy,omitempty"`
	Filter   *BeerFilter `json:"filter,omitempty"`

	// Retries counts the empty results that restarted the current path.
	Retries int `json:"retries,omitempty"`

	// Candidates holds the sampled beers offered in the pending choice prompt.
	Candidates []Beer `json:"candidates,omitempty"`
}

// Clone returns a deep copy of the narrowing state.
func (n Narrowing) Clone() Narrowing {
	next := n
	if n.Filter != nil {
		f := *n.Filter
		next.Filter = &f
	}
	if n.Candidates != nil {
		next.Candidates = append([]Beer(nil), n.Candidates...)
	}
	return next
}
