// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"

	"github.com/jeranaias/docdocgo-cli/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes a session as the same JSON document ask --json prints:
// session id, collection, bot settings and every history entry with its
// sources. IncludeMetadata=false keeps only the entries.
type JSONExporter struct {
	options *Options
}

// jsonSession adds the derived title next to the stored transcript fields.
type jsonSession struct {
	Title string `json:"title"`
	*Transcript
}

// jsonEntriesOnly is the document written without session metadata.
type jsonEntriesOnly struct {
	Entries []model.HistoryEntry `json:"entries"`
}

// NewJSONExporter uses DefaultOptions when opts is nil.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export encodes t with two-space indentation.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, errors.New("transcript is nil")
	}
	var doc any = jsonSession{Title: t.Title(), Transcript: t}
	if !e.options.IncludeMetadata {
		doc = jsonEntriesOnly{Entries: t.Entries}
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (e *JSONExporter) FileExtension() string { return ".json" }

func (e *JSONExporter) MimeType() string { return "application/json" }
