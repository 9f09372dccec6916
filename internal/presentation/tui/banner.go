package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"                  _            _          ",
	"   ___ __ _ _ __| |___      _(_)___  ___ ",
	"  / __/ _` | '__| __\\ \\ /\\ / / / __|/ _ \\",
	" | (_| (_| | |  | |_ \\ V  V /| \\__ \\  __/",
	"  \\___\\__,_|_|   \\__| \\_/\\_/ |_|___/\\___|",
}

// Green to teal, one color per line.
var bannerColors = []string{"#4ade80", "#34d399", "#2dd4bf", "#22d3ee", "#38bdf8"}

// PrintBanner outputs the cartwise ASCII art banner followed by the version.
func PrintBanner(version string) {
	FprintBanner(os.Stdout, version)
}

// FprintBanner writes the banner to w using the color profile of w.
func FprintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
