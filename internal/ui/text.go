package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter renders a kind of CLI text. With colour disabled the text is
// wrapped in prefix and suffix instead, so the meaning survives in logs
// and pipes.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f Formatter) render(text string) string {
	if NoColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Sprint formats a as fmt.Sprint does.
func (f Formatter) Sprint(a ...any) string {
	return f.render(fmt.Sprint(a...))
}

// Sprintf formats according to format as fmt.Sprintf does.
func (f Formatter) Sprintf(format string, a ...any) string {
	return f.render(fmt.Sprintf(format, a...))
}

// NoColor reports whether colour output is off, either through NO_COLOR
// (https://no-color.org/) or fatih/color's terminal detection.
func NoColor() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return true
	}
	return color.NoColor
}

var (
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

var (
	// Code marks a command to run: `credvault pin set`.
	Code = Formatter{yellow, "`", "`"}

	// Path and Flag are self-evident without decoration.
	Path = Formatter{yellow, "", ""}
	Flag = Formatter{yellow, "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{yellow, "", ""}
	Info    = Formatter{cyan, "", ""}

	// Highlight marks a service or username: 'mail'.
	Highlight = Formatter{cyan, "'", "'"}

	// Muted marks secondary detail: (software key).
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}

	// Level marks a security level: [L3_UserPresence].
	Level = Formatter{color.New(color.FgMagenta, color.Bold), "[", "]"}
)
