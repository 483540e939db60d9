// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - What ddg may assume about the terminal it talks to.
//
// chat needs a terminal on stdin for line editing. Replies are styled and
// rendered as markdown only when stdout is a terminal, unless NO_COLOR or
// FORCE_COLOR says otherwise.

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY reports whether the user can type at ddg, i.e. stdin is a terminal.
// ask falls back to reading its message from a pipe when it is not.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY reports whether replies land on a terminal rather than a pipe
// or file.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// REPLY WIDTH
// =============================================================================

const (
	// DefaultTerminalWidth wraps replies when stdout has no size.
	DefaultTerminalWidth = 80

	// MinTerminalWidth keeps markdown tables readable in narrow panes.
	MinTerminalWidth = 40
)

// GetTerminalWidth is the column count replies are wrapped to.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	switch {
	case err != nil || width <= 0:
		return DefaultTerminalWidth
	case width < MinTerminalWidth:
		return MinTerminalWidth
	default:
		return width
	}
}

// =============================================================================
// COLORS AND THEME
// =============================================================================

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
)

// colorsFromEnv applies the no-color.org convention: NO_COLOR wins over
// FORCE_COLOR, and with neither set colors follow the stdout TTY.
func colorsFromEnv(getenv func(string) string, stdoutTTY bool) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	if getenv("FORCE_COLOR") != "" {
		return true
	}
	return stdoutTTY
}

// ColorsEnabled reports whether status lines and replies are styled. The
// answer is fixed on first use for the life of the process.
func ColorsEnabled() bool {
	colorsEnabledOnce.Do(func() {
		colorsEnabled = colorsFromEnv(os.Getenv, IsStdoutTTY())
	})
	return colorsEnabled
}

// ForceColorsEnabled pins the color decision. Tests only.
func ForceColorsEnabled(enabled bool) {
	colorsEnabledOnce = sync.Once{}
	colorsEnabledOnce.Do(func() {
		colorsEnabled = enabled
	})
}

// GetColorProfile is the termenv profile shared by lipgloss and glamour;
// Ascii when colors are off.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// HasDarkBackground asks the terminal for its background color.
func HasDarkBackground() bool {
	return termenv.HasDarkBackground()
}

// ResolveTheme maps the ui.theme setting to a glamour standard style. auto
// becomes dark or light from the terminal background, and any theme becomes
// notty once colors are off.
func ResolveTheme(theme string) string {
	if !ColorsEnabled() {
		return "notty"
	}
	switch theme {
	case "dark", "light", "notty":
		return theme
	}
	if HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// =============================================================================
// INTERACTIVE INPUT
// =============================================================================

// RequiresTTY fails with TTYRequiredError when operation needs a user at
// the keyboard and stdin is redirected.
func RequiresTTY(operation string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}

// TTYRequiredError means stdin was redirected for a command that reads
// lines interactively. main maps it to a usage exit.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	if e.Operation == "" {
		return "stdin is not a terminal; interactive input not available"
	}
	return "stdin is not a terminal; cannot " + e.Operation + " interactively"
}
