// Package render prints command results to the terminal.
package render

import "github.com/charmbracelet/lipgloss"

// StyleConfig holds the palette used for verdicts and build results.
type StyleConfig struct {
	Good    lipgloss.Color
	Mixed   lipgloss.Color
	Bad     lipgloss.Color
	Neutral lipgloss.Color
}

// DefaultStyles uses the basic ANSI palette so output follows the user's
// terminal theme.
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		Good:    lipgloss.Color("2"), // Green
		Mixed:   lipgloss.Color("3"), // Yellow
		Bad:     lipgloss.Color("1"), // Red
		Neutral: lipgloss.Color("7"), // White
	}
}
