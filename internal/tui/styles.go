// Package tui implements the terminal client: a live product list and an
// add/edit form that talks to the tracker API.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"shelflife/internal/domain"
)

// Semantic colors for expiry severities.
var (
	colorExpired = lipgloss.Color("#e53935") // Red
	colorWarning = lipgloss.Color("#FFC107") // Yellow
	colorOK      = lipgloss.Color("#8BC34A") // Green
	colorNeutral = lipgloss.Color("#9E9E9E") // Grey
	colorAccent  = lipgloss.Color("#2196F3") // Blue
)

// Styles holds the rendered building blocks of both views.
type Styles struct {
	Title    lipgloss.Style
	Help     lipgloss.Style
	Cursor   lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Field    lipgloss.Style
	Focused  lipgloss.Style
	Severity map[domain.Severity]lipgloss.Style
}

func DefaultStyles() Styles {
	badge := lipgloss.NewStyle().Padding(0, 1).Bold(true)

	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1),
		Help:    lipgloss.NewStyle().Foreground(colorNeutral),
		Cursor:  lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(colorExpired),
		Success: lipgloss.NewStyle().Foreground(colorOK),
		Field:   lipgloss.NewStyle().Foreground(colorNeutral),
		Focused: lipgloss.NewStyle().Foreground(colorAccent),
		Severity: map[domain.Severity]lipgloss.Style{
			domain.SeverityExpired: badge.Foreground(colorExpired),
			domain.SeverityWarning: badge.Foreground(colorWarning),
			domain.SeverityOK:      badge.Foreground(colorOK),
			domain.SeverityNeutral: badge.Foreground(colorNeutral),
		},
	}
}
