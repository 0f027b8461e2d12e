package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`         _                          `,
	`    __ _| |__   __ _  ___ _   _ ___ `,
	`   / _' | '_ \ / _' |/ __| | | / __|`,
	`  | (_| | |_) | (_| | (__| |_| \__ \`,
	`   \__,_|_.__/ \__,_|\___|\__,_|___/`,
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa"}

// PrintBanner writes the abacus banner to w, colored when w is a capable terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
