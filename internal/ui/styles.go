package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/twchain/internal/config"
)

// StyleManager encapsulates all styles used by reports and the review TUI
type StyleManager struct {
	// Report and list styles
	Path     lipgloss.Style
	Line     lipgloss.Style
	Before   lipgloss.Style
	After    lipgloss.Style
	Selected lipgloss.Style
	Cursor   lipgloss.Style
	Check    lipgloss.Style
	Dim      lipgloss.Style

	// Chrome styles
	Divider lipgloss.Style

	// Colors for direct access
	SelectedBg lipgloss.Color
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	return &StyleManager{
		Path:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Line:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Before:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		After:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Selected:   lipgloss.NewStyle().Background(lipgloss.Color("236")),
		Cursor:     lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Check:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Divider:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		SelectedBg: lipgloss.Color("236"),
	}
}

// LoadFromConfig updates styles based on configuration
func (s *StyleManager) LoadFromConfig() {
	pathColor := parseANSIColor(config.GetColorPath())
	beforeColor := parseANSIColor(config.GetColorBefore())
	afterColor := parseANSIColor(config.GetColorAfter())
	dimColor := lipgloss.Color(config.GetColorDim())
	selectedBg := lipgloss.Color(config.GetColorSelected())

	s.Path = lipgloss.NewStyle().Bold(true).Foreground(pathColor)
	s.Before = lipgloss.NewStyle().Foreground(beforeColor)
	s.After = lipgloss.NewStyle().Foreground(afterColor)
	s.Check = lipgloss.NewStyle().Foreground(afterColor)
	s.Line = lipgloss.NewStyle().Foreground(dimColor)
	s.Dim = lipgloss.NewStyle().Foreground(dimColor)
	s.Selected = lipgloss.NewStyle().Background(selectedBg)
	s.SelectedBg = selectedBg
}

// WithSelection returns a copy of the given style with the selected background applied
func (s *StyleManager) WithSelection(style lipgloss.Style) lipgloss.Style {
	return style.Background(s.SelectedBg)
}

// parseANSIColor converts ANSI color codes to lipgloss colors
func parseANSIColor(code string) lipgloss.Color {
	ansiToLipgloss := map[string]string{
		"30": "0", "31": "1", "32": "2", "33": "3",
		"34": "4", "35": "5", "36": "6", "37": "7",
		"90": "8", "91": "9", "92": "10", "93": "11",
		"94": "12", "95": "13", "96": "14", "97": "15",
	}
	if mapped, ok := ansiToLipgloss[code]; ok {
		return lipgloss.Color(mapped)
	}
	return lipgloss.Color(code)
}

// Global style manager instance
var styles = DefaultStyles()

// RefreshStyles updates the global styles from config
func RefreshStyles() {
	styles.LoadFromConfig()
}
