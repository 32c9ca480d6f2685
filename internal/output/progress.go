package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PercentBar renders a horizontal bar for a 0-100 share in the given style.
// Example: "████████░░ 80.0%"
func PercentBar(pct float64, width int, style lipgloss.Style) string {
	if width <= 0 {
		width = 20
	}
	filled := int(pct / 100.0 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", style.Render(bar), StyleMuted.Render(fmt.Sprintf("%5.1f%%", pct)))
}

// Delta returns a styled change indicator for a currency delta. Zero shows a
// dash.
func Delta(delta float64) string {
	switch {
	case delta > 0:
		return StyleSuccess.Render("▲ +" + Currency(delta))
	case delta < 0:
		return StyleError.Render("▼ -" + Currency(-delta))
	default:
		return StyleMuted.Render("─")
	}
}

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// MetricLine renders a label/value pair with an optional muted note.
func MetricLine(label, value, note string) string {
	line := " " + StyleLabel.Render(label) + StyleValue.Render(value)
	if note != "" {
		line += " " + StyleMuted.Render(note)
	}
	return line
}
