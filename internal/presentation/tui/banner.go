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
	{"                 _   _ _           _      ", "#818cf8"},
	{" __   _____  ___| |_(_) |__  _   _| | ___ ", "#a78bfa"},
	{" \\ \\ / / _ \\/ __| __| | '_ \\| | | | |/ _ \\", "#c084fc"},
	{"  \\ V /  __/\\__ \\ |_| | |_) | |_| | |  __/", "#e879f9"},
	{"   \\_/ \\___||___/\\__|_|_.__/ \\__,_|_|\\___|", "#f472b6"},
}

// PrintBanner writes the ASCII art banner and the version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("   "+version).Faint())
	fmt.Fprintln(w)
}
