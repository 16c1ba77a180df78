package errors

import "github.com/charmbracelet/lipgloss"

// Styles controls how diagnostics are colored
type Styles struct {
	Title    lipgloss.Style
	Error    lipgloss.Style
	Code     lipgloss.Style
	Location lipgloss.Style
	Gutter   lipgloss.Style
	Help     lipgloss.Style
}

// ColorStyles returns the default terminal styles
func ColorStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Code:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Location: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Gutter:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// PlainStyles returns styles that render text unchanged
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:    plain,
		Error:    plain,
		Code:     plain,
		Location: plain,
		Gutter:   plain,
		Help:     plain,
	}
}
