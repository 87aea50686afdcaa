// Package classifier provides ports.Classifier implementations: a keyword
// matcher that needs no external service, and a client for a remote NLU endpoint.
package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/bartender/pkg/domain"
)

// Rule maps a pattern to an intent.
type Rule struct {
	Intent  domain.Intent
	Pattern *regexp.Regexp
}

// DefaultRules are evaluated in order; the first match wins.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: domain.IntentGreet, Pattern: regexp.MustCompile(`(?i)^(hi|hello|hola)`)},
		{Intent: domain.IntentBye, Pattern: regexp.MustCompile(`(?i)^(bye|adios)`)},
		{Intent: domain.IntentOrderBeer, Pattern: regexp.MustCompile(`(?i)order`)},
		{Intent: domain.IntentRecommendBeer, Pattern: regexp.MustCompile(`(?i)recommend`)},
		{Intent: domain.IntentGetHelp, Pattern: regexp.MustCompile(`(?i)^help`)},
	}
}

// Regex classifies messages with an ordered list of patterns. It extracts no entities.
type Regex struct {
	rules []Rule
}

// NewRegex returns a Regex classifier. With no rules, DefaultRules is used.
func NewRegex(rules ...Rule) *Regex {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Regex{rules: rules}
}

// ParseRules compiles intent -> pattern pairs, e.g. from configuration.
// Patterns are case-insensitive. Keys are processed in the order given by order.
func ParseRules(order []string, patterns map[string]string) ([]Rule, error) {
	rules := make([]Rule, 0, len(order))
	for _, label := range order {
		p, ok := patterns[label]
		if !ok {
			continue
		}
		intent := domain.ParseIntent(label)
		if intent == domain.IntentUnidentified {
			return nil, fmt.Errorf("unknown intent %q", label)
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("intent %s: %w", label, err)
		}
		rules = append(rules, Rule{Intent: intent, Pattern: re})
	}
	return rules, nil
}

// Classify implements ports.Classifier.
func (c *Regex) Classify(ctx context.Context, text string) (domain.Classification, error) {
	text = strings.TrimSpace(text)
	for _, r := range c.rules {
		if r.Pattern.MatchString(text) {
			return domain.Classification{Intent: r.Intent, Score: 1}, nil
		}
	}
	return domain.Classification{Intent: domain.IntentUnidentified}, nil
}
