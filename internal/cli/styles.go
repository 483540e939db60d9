// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for ddg commands.
//
// Colors are disabled for non-TTY output and when NO_COLOR is set;
// FORCE_COLOR overrides detection.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// init configures lipgloss color profile based on terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// PALETTE
// =============================================================================

var (
	// Purple - assistant label, welcome banner
	Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

	// Cyan - user label, prompt, headers
	Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

	// Emerald - commands, success
	Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

	// Rose - errors
	Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

	// Amber - warnings, scheduled queries
	Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

	// TextSecondary - labels, less prominent text
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

	// TextMuted - hints, separators
	TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true)

	// Info style
	infoStyle = lipgloss.NewStyle().
			Foreground(TextSecondary)

	// Command style
	commandStyle = lipgloss.NewStyle().
			Foreground(Emerald)

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(Amber)

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(Rose).
			Bold(true)

	// Section header style
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(Cyan).
				Bold(true)

	// Transcript labels
	userLabelStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(Purple).
				Bold(true)
	systemLabelStyle = lipgloss.NewStyle().
				Foreground(Amber).
				Italic(true)

	// Separator style
	separatorStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule of the given width (default 30).
func RenderSeparator(width ...int) string {
	w := 30
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return separatorStyle.Render(strings.Repeat("─", w))
}

// RenderConditional renders text with style if colors are enabled,
// otherwise returns the text unmodified.
func RenderConditional(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}
