// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/docdocgo-cli/internal/model"
)

// SourcesHeading introduces the citation list under a reply.
const SourcesHeading = "#### Sources:"

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown format.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if len(t.Entries) == 0 {
		return nil, fmt.Errorf("transcript has no messages")
	}

	var sb strings.Builder
	title := t.Title()

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title))
		fmt.Fprintf(&sb, "session: %s\n", t.SessionID)
		fmt.Fprintf(&sb, "collection: %s\n", escapeYAML(t.Collection.UserFacingName))
		if t.Model != "" {
			fmt.Fprintf(&sb, "model: %s\n", escapeYAML(t.Model))
		}
		fmt.Fprintf(&sb, "date: %s\n", t.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "messages: %d\n", len(t.Entries))
		sb.WriteString("generator: ddg\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		fmt.Fprintf(&sb, "- **Collection**: %s\n", escapeMarkdown(t.Collection.UserFacingName))
		if t.Model != "" {
			fmt.Fprintf(&sb, "- **Model**: %s (temperature %.1f)\n", t.Model, t.Temperature)
		}
		fmt.Fprintf(&sb, "- **Exported**: %s\n", formatTimestamp(t.CreatedAt))
		fmt.Fprintf(&sb, "- **Messages**: %d\n", len(t.Entries))
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")

	for i, entry := range t.Entries {
		fmt.Fprintf(&sb, "### %s\n\n", entry.Role.DisplayName())

		content := strings.TrimSpace(entry.Content)
		if entry.Role == model.RoleSystem {
			content = quote(content)
		}
		if content != "" {
			sb.WriteString(content)
			sb.WriteString("\n\n")
		}

		if entry.HasSources() {
			sb.WriteString(FormatSources(entry.Sources))
			sb.WriteString("\n")
		}

		if i < len(t.Entries)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// FormatSources renders a citation list as Markdown. The terminal renderer
// uses the same layout.
func FormatSources(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(SourcesHeading)
	sb.WriteString("\n")
	for _, s := range sources {
		fmt.Fprintf(&sb, "- %s\n", s)
	}
	return sb.String()
}

func quote(s string) string {
	if s == "" {
		return ""
	}
	return "> " + strings.ReplaceAll(s, "\n", "\n> ")
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values containing YAML special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
