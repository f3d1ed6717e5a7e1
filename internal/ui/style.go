package ui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

var Title = lipgloss.NewStyle().Inline(true).Bold(true).Foreground(lipgloss.Color("252")).Render
var Help = lipgloss.NewStyle().Inline(true).Foreground(lipgloss.Color("241")).Render
var Failure = lipgloss.NewStyle().Inline(true).Foreground(lipgloss.Color("203")).Render

var (
	offsetGood = lipgloss.NewStyle().Inline(true).Foreground(lipgloss.Color("78"))
	offsetWarn = lipgloss.NewStyle().Inline(true).Foreground(lipgloss.Color("214"))
	offsetBad  = lipgloss.NewStyle().Inline(true).Foreground(lipgloss.Color("203"))
)

// Offset colors s by how far the clock is off.
func Offset(offset time.Duration, s string) string {
	if offset < 0 {
		offset = -offset
	}
	switch {
	case offset < 10*time.Millisecond:
		return offsetGood.Render(s)
	case offset < 128*time.Millisecond:
		return offsetWarn.Render(s)
	default:
		return offsetBad.Render(s)
	}
}
