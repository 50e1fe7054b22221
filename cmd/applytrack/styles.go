package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/applytrack/applytrack/internal/tracker"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "244"})
	keyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("28"))
	idStyle     = lipgloss.NewStyle().Width(5).Align(lipgloss.Right).Foreground(lipgloss.Color("245"))
)

// statusBadge renders the status label in its chart colour
func statusBadge(s tracker.Status) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color())).Bold(true).Render(s.Label())
}

// confidenceBadge colours a classifier score red, amber or green
func confidenceBadge(score, threshold float64) string {
	style := errorStyle
	switch {
	case score >= threshold:
		style = okStyle
	case score >= threshold/2:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	}
	return style.Render(fmt.Sprintf("%3.0f%%", score*100))
}

// field prints a "Key: value" line, skipping empty values
func field(key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Printf("  %s %s\n", keyStyle.Render(key+":"), value)
}

// bar draws a proportional bar for stats output
func bar(n, max, width int, color string) string {
	if max == 0 || n == 0 {
		return ""
	}
	w := n * width / max
	if w == 0 {
		w = 1
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", w))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
