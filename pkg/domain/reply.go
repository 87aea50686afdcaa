package domain

// Reply is a message the engine asks the transport to deliver.
type Reply struct {
	Text string `json:"text"`

	// Options is set for choice and confirmation prompts; adapters may render
	// them as quick replies.
	Options []string `json:"options,omitempty"`

	// Card presents a resolved beer. Rendering is up to the adapter.
	Card *Card `json:"card,omitempty"`
}

// Card is a rich presentation of a single beer.
type Card struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Texts flattens replies into their text lines.
func Texts(replies []Reply) []string {
	out := make([]string, 0, len(replies))
	for _, r := range replies {
		out = append(out, r.Text)
	}
	return out
}
