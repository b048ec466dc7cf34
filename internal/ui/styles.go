package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Faint    lipgloss.Style
	Box      lipgloss.Style
	Spinner  lipgloss.Style
	Ping     lipgloss.Style
	Download lipgloss.Style
	Upload   lipgloss.Style
}

// stylesFor returns the palette for "light" or "dark" (the default).
func stylesFor(theme string) Styles {
	if theme == "light" {
		return lightStyles()
	}
	return darkStyles()
}

func darkStyles() Styles {
	base := lipgloss.NewStyle()
	return Styles{
		Title:    base.Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Subtitle: base.Faint(true),
		Label:    base.Foreground(lipgloss.Color("#A3A3A3")).Width(10),
		Value:    base.Bold(true).Foreground(lipgloss.Color("#F3F4F6")),
		Success:  base.Foreground(lipgloss.Color("#22C55E")),
		Error:    base.Foreground(lipgloss.Color("#EF4444")),
		Warning:  base.Foreground(lipgloss.Color("#F59E0B")),
		Faint:    base.Faint(true),
		Box:      base.Padding(0, 1),
		Spinner:  base.Foreground(lipgloss.Color("#22D3EE")),
		Ping:     base.Foreground(lipgloss.Color("#60A5FA")),
		Download: base.Foreground(lipgloss.Color("#06B6D4")),
		Upload:   base.Foreground(lipgloss.Color("#D946EF")),
	}
}

func lightStyles() Styles {
	base := lipgloss.NewStyle()
	return Styles{
		Title:    base.Bold(true).Foreground(lipgloss.Color("#5B21B6")),
		Subtitle: base.Foreground(lipgloss.Color("#6B7280")),
		Label:    base.Foreground(lipgloss.Color("#4B5563")).Width(10),
		Value:    base.Bold(true).Foreground(lipgloss.Color("#111827")),
		Success:  base.Foreground(lipgloss.Color("#15803D")),
		Error:    base.Foreground(lipgloss.Color("#B91C1C")),
		Warning:  base.Foreground(lipgloss.Color("#B45309")),
		Faint:    base.Foreground(lipgloss.Color("#9CA3AF")),
		Box:      base.Padding(0, 1),
		Spinner:  base.Foreground(lipgloss.Color("#0E7490")),
		Ping:     base.Foreground(lipgloss.Color("#1D4ED8")),
		Download: base.Foreground(lipgloss.Color("#0E7490")),
		Upload:   base.Foreground(lipgloss.Color("#A21CAF")),
	}
}
