package domain

import "strings"

// Intent is the purpose recognized in an inbound message.
type Intent string

const (
	IntentGreet         Intent = "Greet"
	IntentBye           Intent = "Bye"
	IntentGetHelp       Intent = "GetHelp"
	IntentRecommendBeer Intent = "RecommendBeer"
	IntentOrderBeer     Intent = "OrderBeer"
	IntentUnidentified  Intent = "Unidentified"
)

// ParseIntent maps a classifier label to an Intent. Unknown labels
// (including the "None" label of NLU services) become IntentUnidentified.
func ParseIntent(label string) Intent {
	label = strings.TrimSpace(label)
	for _, i := range []Intent{IntentGreet, IntentBye, IntentGetHelp, IntentRecommendBeer, IntentOrderBeer} {
		if strings.EqualFold(label, string(i)) {
			return i
		}
	}
	return IntentUnidentified
}

// Entities are the named values extracted alongside an intent.
// The mapstructure tags match the entity names emitted by the NLU model.
type Entities struct {
	BeerName string `json:"beername,omitempty" mapstructure:"beername"`
	Brewery  string `json:"brewery,omitempty" mapstructure:"brewery"`
	Category string `json:"category,omitempty" mapstructure:"category"`
	Country  string `json:"country,omitempty" mapstructure:"country"`
	Chaser   string `json:"chaser,omitempty" mapstructure:"chaser"`
	SideDish string `json:"sidedish,omitempty" mapstructure:"sidedish"`
}

// RecommendationFilter returns the direct catalog filter carried by the entities,
// and false when none of beer name, brewery, category or country is present.
func (e Entities) RecommendationFilter() (BeerFilter, bool) {
	f := BeerFilter{
		Name:     strings.TrimSpace(e.BeerName),
		Brewery:  strings.TrimSpace(e.Brewery),
		Category: strings.TrimSpace(e.Category),
		Country:  strings.TrimSpace(e.Country),
	}
	return f, !f.IsEmpty()
}

// Classification is the output of an intent classifier.
type Classification struct {
	Intent   Intent   `json:"intent"`
	Entities Entities `json:"entities"`
	Score    float64  `json:"score,omitempty"`
}
