package tui

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// formatTime renders a relative timestamp for notification rows.
func formatTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// formatDate renders a date string per the configured date format. Invalid
// input is returned untouched rather than hidden.
func formatDate(raw, format string) string {
	if raw == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse("2006-01-02", raw); err != nil {
			return raw
		}
	}
	switch format {
	case "MM/DD/YYYY":
		return t.Format("01/02/2006")
	case "YYYY-MM-DD":
		return t.Format("2006-01-02")
	default: // DD/MM/YYYY
		return t.Format("02/01/2006")
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads or truncates s to exactly width runes for table columns.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		return truncStr(s, width)
	}
	for i := n; i < width; i++ {
		s += " "
	}
	return s
}
