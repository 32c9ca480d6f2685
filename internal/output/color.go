// Package output provides styled terminal rendering helpers for clientdash.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
)

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorSuccess is used for active clients and revenue gains.
	ColorSuccess = lipgloss.Color("#66bb6a")

	// ColorError is used for failures and revenue drops.
	ColorError = lipgloss.Color("#ef5350")

	// ColorWarning is used for pending work.
	ColorWarning = lipgloss.Color("#fff59d")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")
)

// Styles provides reusable lipgloss styles. They are rebuilt by SetNoColor.
var (
	StyleHeader  lipgloss.Style
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleBold    lipgloss.Style

	// StyleLabel is used for metric labels.
	StyleLabel lipgloss.Style

	// StyleValue is used for metric values.
	StyleValue lipgloss.Style
)

func init() {
	applyStyles(true)
}

// noColor tracks whether color output is disabled.
var noColor bool

func applyStyles(color bool) {
	base := lipgloss.NewStyle()
	fg := func(c lipgloss.Color) lipgloss.Style {
		if !color {
			return base
		}
		return base.Foreground(c)
	}

	StyleHeader = fg(ColorPrimary)
	StyleSuccess = fg(ColorSuccess)
	StyleError = fg(ColorError)
	StyleWarning = fg(ColorWarning)
	StyleMuted = fg(ColorMuted)
	StyleBold = base
	if color {
		StyleHeader = StyleHeader.Bold(true)
		StyleBold = base.Bold(true)
	}
	StyleLabel = base.Width(22)
	StyleValue = StyleBold.Width(14)
}

// SetNoColor disables or enables color output globally.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(!disabled)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

// StdoutIsTerminal reports whether stdout is an interactive terminal.
func StdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// StatusStyle returns the style used for a status category.
func StatusStyle(c analyzer.Category) lipgloss.Style {
	switch c {
	case analyzer.CategoryActive:
		return StyleSuccess
	case analyzer.CategoryPending:
		return StyleWarning
	case analyzer.CategoryInactive:
		return StyleError
	default:
		return StyleMuted
	}
}
