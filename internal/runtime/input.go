package runtime

import (
	"strconv"
	"strings"

	"github.com/aretw0/bartender/pkg/domain"
)

var (
	truthy = map[string]bool{"y": true, "yes": true, "true": true, "1": true, "yeah": true, "yep": true, "sure": true, "ok": true, "okay": true}
	falsy  = map[string]bool{"n": true, "no": true, "false": true, "0": true, "nope": true, "nah": true}
)

// parseConfirmation maps a yes/no answer. ok is false when the text is neither.
func parseConfirmation(text string) (yes bool, ok bool) {
	clean := strings.ToLower(strings.TrimSpace(text))
	clean = strings.TrimRight(clean, ".!")
	switch {
	case truthy[clean]:
		return true, true
	case falsy[clean]:
		return false, true
	}
	return false, false
}

// matchChoice resolves text against choices: exact label first
// (case-insensitive), then a 1-based index, then an exact non-numeric value,
// then a unique substring of a label. Numeric values are catalog IDs and never
// match free text, so a position is never read as an ID.
func matchChoice(text string, choices []domain.Choice) (domain.Choice, bool) {
	clean := strings.TrimSpace(text)
	if clean == "" || len(choices) == 0 {
		return domain.Choice{}, false
	}

	for _, c := range choices {
		if strings.EqualFold(clean, c.Label) {
			return c, true
		}
	}

	if n, err := strconv.Atoi(clean); err == nil {
		if n >= 1 && n <= len(choices) {
			return choices[n-1], true
		}
		return domain.Choice{}, false
	}

	for _, c := range choices {
		if strings.EqualFold(clean, c.Value) {
			return c, true
		}
	}

	lower := strings.ToLower(clean)
	var found []domain.Choice
	for _, c := range choices {
		if strings.Contains(strings.ToLower(c.Label), lower) {
			found = append(found, c)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return domain.Choice{}, false
}

func labels(choices []domain.Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Label
	}
	return out
}
