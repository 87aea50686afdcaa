package domain

import "strings"

// Phrasebook holds every text the bot says. Placeholders in braces
// ({beer}, {chaser}, {side}, {name}) are filled by Format.
type Phrasebook struct {
	Greeting      string `json:"greeting" mapstructure:"greeting"`
	Farewell      string `json:"farewell" mapstructure:"farewell"`
	Help          string `json:"help" mapstructure:"help"`
	Unidentified  string `json:"unidentified" mapstructure:"unidentified"`
	Welcome       string `json:"welcome" mapstructure:"welcome"`
	Reorder       string `json:"reorder" mapstructure:"reorder"`
	ReorderRetry  string `json:"reorder_retry" mapstructure:"reorder_retry"`
	ReorderDenied string `json:"reorder_denied" mapstructure:"reorder_denied"`
	OrderPlaced   string `json:"order_placed" mapstructure:"order_placed"`
	WhatNext      string `json:"what_next" mapstructure:"what_next"`
	OfferOrder    string `json:"offer_order" mapstructure:"offer_order"`
	OfferRetry    string `json:"offer_retry" mapstructure:"offer_retry"`
	StartOver     string `json:"start_over" mapstructure:"start_over"`
	Unavailable   string `json:"unavailable" mapstructure:"unavailable"`
	TryLater      string `json:"try_later" mapstructure:"try_later"`

	Strategy      string `json:"strategy" mapstructure:"strategy"`
	StrategyRetry string `json:"strategy_retry" mapstructure:"strategy_retry"`
	ByCategory    string `json:"by_category" mapstructure:"by_category"`
	ByOrigin      string `json:"by_origin" mapstructure:"by_origin"`
	ByName        string `json:"by_name" mapstructure:"by_name"`
	Category      string `json:"category" mapstructure:"category"`
	CategoryRetry string `json:"category_retry" mapstructure:"category_retry"`
	Style         string `json:"style" mapstructure:"style"`
	StyleRetry    string `json:"style_retry" mapstructure:"style_retry"`
	Country       string `json:"country" mapstructure:"country"`
	CountryRetry  string `json:"country_retry" mapstructure:"country_retry"`
	Brewery       string `json:"brewery" mapstructure:"brewery"`
	BreweryRetry  string `json:"brewery_retry" mapstructure:"brewery_retry"`
	OnlyBrewery   string `json:"only_brewery" mapstructure:"only_brewery"`
	SearchName    string `json:"search_name" mapstructure:"search_name"`
	SearchRetry   string `json:"search_retry" mapstructure:"search_retry"`
	NoBeer        string `json:"no_beer" mapstructure:"no_beer"`
	FoundBeer     string `json:"found_beer" mapstructure:"found_beer"`
	PickBeer      string `json:"pick_beer" mapstructure:"pick_beer"`
	PickRetry     string `json:"pick_retry" mapstructure:"pick_retry"`
	CardTitle     string `json:"card_title" mapstructure:"card_title"`

	AskBeer       string `json:"ask_beer" mapstructure:"ask_beer"`
	UnknownBeer   string `json:"unknown_beer" mapstructure:"unknown_beer"`
	AmbiguousBeer string `json:"ambiguous_beer" mapstructure:"ambiguous_beer"`
	AskChaser     string `json:"ask_chaser" mapstructure:"ask_chaser"`
	ChaserRetry   string `json:"chaser_retry" mapstructure:"chaser_retry"`
	AskSide       string `json:"ask_side" mapstructure:"ask_side"`
	SideRetry     string `json:"side_retry" mapstructure:"side_retry"`
}

// DefaultPhrasebook returns the stock texts.
func DefaultPhrasebook() Phrasebook {
	return Phrasebook{
		Greeting:      "Howdy! How can I help you?",
		Farewell:      "Bye bye. See you soon!",
		Help:          "I can recommend a beer for you, or you can go ahead and make an order.",
		Unidentified:  "I'm sorry, I didn't get that. How can I help you?",
		Welcome:       "Hi there {name}! Welcome to your friendly neighborhood bot-tender :)",
		Reorder:       "Would you like to order your usual {beer}?",
		ReorderRetry:  "Sorry, was that a yes or a no? Would you like to order your usual {beer}?",
		ReorderDenied: "No problem. So how can I help you?",
		OrderPlaced:   "Your order of {beer} and {chaser} with {side} is coming right up!",
		WhatNext:      "So what would you like to do next?",
		OfferOrder:    "Would you like to order '{beer}'?",
		OfferRetry:    "Sorry, was that a yes or a no? Would you like to order '{beer}'?",
		StartOver:     "I'm afraid I'm lost. Let's start over. How can I help you?",
		Unavailable:   "I can't reach the beer catalog right now. Please try again later.",
		TryLater:      "I'm a bit busy right now. Please say that again in a moment.",

		Strategy:      "How would you like me to recommend your beer?",
		StrategyRetry: "Not sure I got it. Could you try again?",
		ByCategory:    "By Beer Category",
		ByOrigin:      "By Beer Origin",
		ByName:        "By Beer Name",
		Category:      "Which kind of beer do you like?",
		CategoryRetry: "I probably drank too much. Which beer type was it?",
		Style:         "Which style?",
		StyleRetry:    "I probably drank too much. Which style was it?",
		Country:       "Where would you like your beer from?",
		CountryRetry:  "I probably drank too much. Where would you like your beer from?",
		Brewery:       "Which brewery?",
		BreweryRetry:  "I probably drank too much. Which brewery was it?",
		OnlyBrewery:   "Then you need a beer made by {name}",
		SearchName:    "Do you remember the name? Give me what you remember",
		SearchRetry:   "I probably drank too much. What was the name?",
		NoBeer:        "Oops! I haven't found any beer!",
		FoundBeer:     "Eureka! I've got a beer for you",
		PickBeer:      "Which one of these works?",
		PickRetry:     "I probably drank too much. Which one of these work?",
		CardTitle:     "Your beer!",

		AskBeer:       "What beer would you like?",
		UnknownBeer:   "Don't know such beer... Try again.",
		AmbiguousBeer: "I'm not sure which one",
		AskChaser:     "Which chaser would you like next to your beer?",
		ChaserRetry:   "Sorry, which chaser would you like next to your beer?",
		AskSide:       "How about something to eat?",
		SideRetry:     "Sorry, what would you like to eat?",
	}
}

// Merge returns p with every empty field taken from base.
func (p Phrasebook) Merge(base Phrasebook) Phrasebook {
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	out := p
	fill(&out.Greeting, base.Greeting)
	fill(&out.Farewell, base.Farewell)
	fill(&out.Help, base.Help)
	fill(&out.Unidentified, base.Unidentified)
	fill(&out.Welcome, base.Welcome)
	fill(&out.Reorder, base.Reorder)
	fill(&out.ReorderRetry, base.ReorderRetry)
	fill(&out.ReorderDenied, base.ReorderDenied)
	fill(&out.OrderPlaced, base.OrderPlaced)
	fill(&out.WhatNext, base.WhatNext)
	fill(&out.OfferOrder, base.OfferOrder)
	fill(&out.OfferRetry, base.OfferRetry)
	fill(&out.StartOver, base.StartOver)
	fill(&out.Unavailable, base.Unavailable)
	fill(&out.TryLater, base.TryLater)
	fill(&out.Strategy, base.Strategy)
	fill(&out.StrategyRetry, base.StrategyRetry)
	fill(&out.ByCategory, base.ByCategory)
	fill(&out.ByOrigin, base.ByOrigin)
	fill(&out.ByName, base.ByName)
	fill(&out.Category, base.Category)
	fill(&out.CategoryRetry, base.CategoryRetry)
	fill(&out.Style, base.Style)
	fill(&out.StyleRetry, base.StyleRetry)
	fill(&out.Country, base.Country)
	fill(&out.CountryRetry, base.CountryRetry)
	fill(&out.Brewery, base.Brewery)
	fill(&out.BreweryRetry, base.BreweryRetry)
	fill(&out.OnlyBrewery, base.OnlyBrewery)
	fill(&out.SearchName, base.SearchName)
	fill(&out.SearchRetry, base.SearchRetry)
	fill(&out.NoBeer, base.NoBeer)
	fill(&out.FoundBeer, base.FoundBeer)
	fill(&out.PickBeer, base.PickBeer)
	fill(&out.PickRetry, base.PickRetry)
	fill(&out.CardTitle, base.CardTitle)
	fill(&out.AskBeer, base.AskBeer)
	fill(&out.UnknownBeer, base.UnknownBeer)
	fill(&out.AmbiguousBeer, base.AmbiguousBeer)
	fill(&out.AskChaser, base.AskChaser)
	fill(&out.ChaserRetry, base.ChaserRetry)
	fill(&out.AskSide, base.AskSide)
	fill(&out.SideRetry, base.SideRetry)
	return out
}

// Format replaces {key} placeholders in tmpl with the given key/value pairs.
func Format(tmpl string, kv ...string) string {
	if len(kv) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
