package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{` ___           _                                       `, "#818cf8"},
	{`/ __|_ __  ___| |_____ ___ _ __  ___ _ _ ___ ___ _ _  `, "#a78bfa"},
	{`\__ \ '_ \/ _ \ / / -_|_-<| '_ \/ -_) '_(_-</ _ \ ' \ `, "#c084fc"},
	{`|___/ .__/\___/_\_\___/__/| .__/\___|_| /__/\___/_||_|`, "#e879f9"},
	{`    |_|                   |_|                         `, "#f472b6"},
}

// PrintBanner writes the Spokesperson banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
