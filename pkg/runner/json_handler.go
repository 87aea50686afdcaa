package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/bartender/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
//
// Every turn is answered with one line {"replies": [...]}; system messages
// are lines of the form {"system": "..."}.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

type jsonOutput struct {
	Replies []domain.Reply `json:"replies,omitempty"`
	System  string         `json:"system,omitempty"`
}

func (h *JSONHandler) Output(ctx context.Context, replies []domain.Reply) error {
	if replies == nil {
		replies = []domain.Reply{}
	}
	return h.Encoder.Encode(struct {
		Replies []domain.Reply `json:"replies"`
	}{replies})
}

// Input reads one line: a JSON string, an object with a "text" field, or
// plain text. Blank lines are skipped.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := h.Reader.ReadString('\n')
		if line = strings.TrimSpace(line); line == "" {
			if err != nil {
				return "", err
			}
			continue
		}

		text := line
		var s string
		var obj struct {
			Text string `json:"text"`
		}
		if json.Unmarshal([]byte(line), &s) == nil {
			text = s
		} else if json.Unmarshal([]byte(line), &obj) == nil {
			text = obj.Text
		}
		return SanitizeInput(text)
	}
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(jsonOutput{System: msg})
}
