// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Transcript rendering for the terminal.

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/docdocgo-cli/internal/export"
	"github.com/jeranaias/docdocgo-cli/internal/model"
)

// ErrorHeading prefixes a failed turn's error block.
const ErrorHeading = "Error getting response:"

// Renderer formats transcript entries. With markdown disabled (piped output
// or a failed glamour setup) content is printed as-is.
type Renderer struct {
	md *glamour.TermRenderer
}

// NewRenderer creates a renderer. theme is one of auto, dark, light or
// notty; wordWrap of 0 uses the terminal width.
func NewRenderer(theme string, wordWrap int, markdown bool) *Renderer {
	if !markdown || theme == "notty" {
		return &Renderer{}
	}
	if wordWrap <= 0 {
		wordWrap = GetTerminalWidth()
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(ResolveTheme(theme)),
		glamour.WithWordWrap(wordWrap),
		glamour.WithColorProfile(GetColorProfile()),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		return &Renderer{}
	}
	return &Renderer{md: md}
}

// Markdown reports whether replies are rendered through glamour.
func (r *Renderer) Markdown() bool {
	return r.md != nil
}

// render renders markdown content, returning the original on failure.
func (r *Renderer) render(content string) string {
	if r.md == nil {
		return content
	}
	rendered, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// Entry renders one transcript entry under its role label. Assistant
// entries carry their source list.
func (r *Renderer) Entry(e model.HistoryEntry) string {
	var sb strings.Builder
	switch e.Role {
	case model.RoleUser:
		sb.WriteString(RenderConditional(userLabelStyle, e.Role.DisplayName()+":"))
	case model.RoleAssistant:
		sb.WriteString(RenderConditional(assistantLabelStyle, e.Role.DisplayName()+":"))
	default:
		sb.WriteString(RenderConditional(systemLabelStyle, fmt.Sprintf("[%s] %s", e.Role.DisplayName(), e.Content)))
		sb.WriteString("\n")
		return sb.String()
	}
	sb.WriteString("\n")

	body := EntryMarkdown(e)
	out := r.render(body)
	sb.WriteString(out)
	if !strings.HasSuffix(out, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

// Error renders a failed turn's message as a fenced block.
func (r *Renderer) Error(msg string) string {
	out := r.render(ErrorMarkdown(msg))
	if r.md == nil {
		out = RenderConditional(errorStyle, out)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// EntryMarkdown returns the markdown body of an entry: its content followed
// by a sources list when present.
func EntryMarkdown(e model.HistoryEntry) string {
	if !e.HasSources() {
		return e.Content
	}
	return e.Content + "\n\n" + export.FormatSources(e.Sources)
}

// ErrorMarkdown formats an error message the way the transcript shows it.
func ErrorMarkdown(msg string) string {
	return ErrorHeading + "\n```\n" + strings.TrimRight(msg, "\n") + "\n```"
}
