package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner of the stepper.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _                             ", "#818cf8"},
		{"  ___| |_ ___ _ __  _ __   ___ _ __ ", "#a78bfa"},
		{" / __| __/ _ \\ '_ \\| '_ \\ / _ \\ '__|", "#c084fc"},
		{" \\__ \\ ||  __/ |_) | |_) |  __/ |   ", "#e879f9"},
		{" |___/\\__\\___| .__/| .__/ \\___|_|   ", "#f472b6"},
		{"             |_|   |_|              ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status colours a step status for terminal output.
func Status(status string) termenv.Style {
	p := termenv.ColorProfile()
	s := termenv.String(status)
	switch status {
	case "complete":
		return s.Foreground(p.Color("#22c55e"))
	case "error":
		return s.Foreground(p.Color("#ef4444")).Bold()
	case "incomplete":
		return s.Foreground(p.Color("#f59e0b"))
	default:
		return s.Foreground(p.Color("#60a5fa"))
	}
}
