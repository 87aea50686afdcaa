package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`  ___          _              _`,
	` | _ ) __ _ _ _| |_ ___ _ _  __| |___ _ _`,
	` | _ \/ _' | '_|  _/ -_) ' \/ _' / -_) '_|`,
	` |___/\__,_|_|  \__\___|_||_\__,_\___|_|`,
}

// Amber to foam, top to bottom.
var bannerColors = []string{"#f59e0b", "#fbbf24", "#fcd34d", "#fef3c7"}

// PrintBanner writes the chat banner and the version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
