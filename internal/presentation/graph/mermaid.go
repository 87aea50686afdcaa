// Package graph draws a conversation's frame stack as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/bartender/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the session stack, root at
// the top. Frame shapes follow what the frame waits for:
// - Message: [/Parallelogram/]
// - Confirmation: {Rhombus}
// - Choice: [[Subroutine]]
// - Suspended or completed: [Rectangle]
// The top frame is styled as current.
func GenerateMermaid(s *domain.Session) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, f := range s.Stack {
		id := fmt.Sprintf("f%d", i)

		opener, closer := "[", "]"
		switch f.Kind {
		case domain.FrameWaitingMessage:
			opener, closer = "[/", "/]"
		case domain.FrameWaitingConfirmation:
			opener, closer = "{", "}"
		case domain.FrameWaitingChoice:
			opener, closer = "[[", "]]"
		}

		label := string(f.Dialog)
		if f.Handler != "" {
			label += " <br/> " + string(f.Handler)
		}
		if f.Attempts > 0 {
			label += fmt.Sprintf(" <br/> attempts: %d", f.Attempts)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(label), closer)

		if i > 0 {
			fmt.Fprintf(&sb, "    f%d --> %s\n", i-1, id)
		}
	}

	if top := len(s.Stack) - 1; top >= 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef suspended fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for i := 0; i < top; i++ {
			fmt.Fprintf(&sb, "    class f%d suspended;\n", i)
		}
		fmt.Fprintf(&sb, "    class f%d current;\n", top)
	}

	return sb.String()
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
