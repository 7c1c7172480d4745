package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/stratcomtech/stratadmin/pkg/domain"
)

// palette is the set of colors a theme provides. The active palette is held
// on the App and swapped when the theme setting changes; styles are built
// from it on demand.
type palette struct {
	accent      lipgloss.Color
	text        lipgloss.Color
	dim         lipgloss.Color
	meta        lipgloss.Color
	success     lipgloss.Color
	warning     lipgloss.Color
	danger      lipgloss.Color
	cardBorder  lipgloss.Color
	placeholder lipgloss.Color
}

var darkPalette = palette{
	accent:      lipgloss.Color("#38bdf8"),
	text:        lipgloss.Color("#e2e8f0"),
	dim:         lipgloss.Color("#64748b"),
	meta:        lipgloss.Color("#475569"),
	success:     lipgloss.Color("#10b981"),
	warning:     lipgloss.Color("#f59e0b"),
	danger:      lipgloss.Color("#ef4444"),
	cardBorder:  lipgloss.Color("#334155"),
	placeholder: lipgloss.Color("#475569"),
}

var lightPalette = palette{
	accent:      lipgloss.Color("#0284c7"),
	text:        lipgloss.Color("#1e293b"),
	dim:         lipgloss.Color("#64748b"),
	meta:        lipgloss.Color("#94a3b8"),
	success:     lipgloss.Color("#059669"),
	warning:     lipgloss.Color("#d97706"),
	danger:      lipgloss.Color("#dc2626"),
	cardBorder:  lipgloss.Color("#cbd5e1"),
	placeholder: lipgloss.Color("#94a3b8"),
}

// paletteFor maps the persisted theme name to a palette. "auto" follows the
// terminal's idea of dark, which lipgloss cannot query portably, so it
// defaults to dark like most terminal setups.
func paletteFor(theme string) palette {
	if theme == "light" {
		return lightPalette
	}
	return darkPalette
}

type styles struct {
	title       lipgloss.Style
	accent      lipgloss.Style
	normal      lipgloss.Style
	dim         lipgloss.Style
	meta        lipgloss.Style
	selected    lipgloss.Style
	success     lipgloss.Style
	warning     lipgloss.Style
	danger      lipgloss.Style
	card        lipgloss.Style
	placeholder lipgloss.Style
	help        lipgloss.Style
}

func newStyles(p palette) styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		accent:      lipgloss.NewStyle().Foreground(p.accent),
		normal:      lipgloss.NewStyle().Foreground(p.text),
		dim:         lipgloss.NewStyle().Foreground(p.dim),
		meta:        lipgloss.NewStyle().Foreground(p.meta),
		selected:    lipgloss.NewStyle().Foreground(p.text).Bold(true),
		success:     lipgloss.NewStyle().Foreground(p.success),
		warning:     lipgloss.NewStyle().Foreground(p.warning),
		danger:      lipgloss.NewStyle().Foreground(p.danger),
		card:        lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.cardBorder).Padding(0, 1),
		placeholder: lipgloss.NewStyle().Foreground(p.placeholder).Italic(true),
		help:        lipgloss.NewStyle().Foreground(p.meta),
	}
}

// statusStyle maps an application status to its badge color.
func (s styles) statusStyle(status string) lipgloss.Style {
	switch status {
	case domain.StatusApproved:
		return s.success
	case domain.StatusDeclined:
		return s.danger
	default:
		return s.warning
	}
}

// helpEntry renders a "key action" pair for the bottom help bar.
func (s styles) helpEntry(key, action string) string {
	return s.accent.Render(key) + " " + s.help.Render(action)
}
