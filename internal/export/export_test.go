// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docdocgo-cli/internal/model"
)

func sampleTranscript() *Transcript {
	t := NewTranscript("sess-1", []model.HistoryEntry{
		model.NewUserEntry("What is in the report?"),
		model.NewAssistantEntry("It covers **Q3** results.", []string{"report.pdf", "https://example.com/q3"}),
		model.NewSystemEntry("run scheduled query"),
		model.NewAssistantEntry("Follow-up done.", nil),
	})
	t.Collection = model.CollectionInfo{Name: "c1", UserFacingName: "Q3 Reports"}
	t.Model = "gpt-3.5-turbo-0125"
	t.Temperature = 0.3
	t.CreatedAt = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return t
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdownExporter_Export(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: What is in the report?\n"))
	assert.Contains(t, md, "collection: Q3 Reports\n")
	assert.Contains(t, md, "# What is in the report?\n")
	assert.Contains(t, md, "### You\n\nWhat is in the report?")
	assert.Contains(t, md, "### DDG\n\nIt covers **Q3** results.")
	assert.Contains(t, md, "#### Sources:\n- report.pdf\n- https://example.com/q3\n")
	assert.Contains(t, md, "### System\n\n> run scheduled query")
	assert.Equal(t, 1, strings.Count(md, SourcesHeading))
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{}).Export(sampleTranscript())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# What is in the report?"))
	assert.NotContains(t, string(out), "Session Information")
}

func TestMarkdownExporter_Validation(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(nil)
	assert.Error(t, err)

	_, err = NewMarkdownExporter(nil).Export(NewTranscript("s", nil))
	assert.Error(t, err)
}

func TestMarkdownExporter_YAMLEscaping(t *testing.T) {
	tr := NewTranscript("s", []model.HistoryEntry{model.NewUserEntry("Title: with\\colon")})
	out, err := NewMarkdownExporter(nil).Export(tr)
	require.NoError(t, err)
	assert.Contains(t, string(out), `title: "Title: with\\colon"`)
}

func TestFormatSources(t *testing.T) {
	assert.Empty(t, FormatSources(nil))
	assert.Equal(t, "#### Sources:\n- a\n", FormatSources([]string{"a"}))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func TestTranscript_Title(t *testing.T) {
	tr := NewTranscript("s", []model.HistoryEntry{
		model.NewSystemEntry("directive"),
		model.NewUserEntry("  "),
		model.NewUserEntry("first line\nsecond line"),
	})
	assert.Equal(t, "first line", tr.Title())

	long := NewTranscript("s", []model.HistoryEntry{model.NewUserEntry(strings.Repeat("x", 100))})
	assert.Equal(t, maxTitleRunes, len([]rune(long.Title())))

	assert.Equal(t, "DocDocGo session", NewTranscript("s", nil).Title())
}

func TestNewTranscript_CopiesEntries(t *testing.T) {
	entries := []model.HistoryEntry{model.NewAssistantEntry("a", []string{"s"})}
	tr := NewTranscript("s", entries)
	entries[0].Sources[0] = "changed"
	assert.Equal(t, "s", tr.Entries[0].Sources[0])
	assert.Equal(t, model.DefaultCollection(), tr.Collection)
}

// =============================================================================
// JSON
// =============================================================================

func TestJSONExporter_Export(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	var decoded Transcript
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "sess-1", decoded.SessionID)
	assert.Equal(t, "Q3 Reports", decoded.Collection.UserFacingName)
	require.Len(t, decoded.Entries, 4)
	assert.Equal(t, []string{"report.pdf", "https://example.com/q3"}, decoded.Entries[1].Sources)
	assert.Nil(t, decoded.Entries[3].Sources)

	var titled struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(out, &titled))
	assert.Equal(t, "What is in the report?", titled.Title)

	_, err = NewJSONExporter(nil).Export(nil)
	assert.Error(t, err)
}

func TestJSONExporter_EntriesOnly(t *testing.T) {
	out, err := NewJSONExporter(&Options{IncludeMetadata: false}).Export(sampleTranscript())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Len(t, doc, 1)
	assert.Contains(t, doc, "entries")
	assert.NotContains(t, string(out), "sess-1")
}

// =============================================================================
// FILES
// =============================================================================

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	opts := &Options{OutputDir: dir, IncludeMetadata: true}

	mdPath, err := ExportMarkdown(sampleTranscript(), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ddg_Q3_Reports_20250314_092653.md"), mdPath)

	jsonPath, err := ExportJSON(sampleTranscript(), opts)
	require.NoError(t, err)
	assert.Equal(t, ".json", filepath.Ext(jsonPath))

	data, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### DDG")
}

func TestForFormat(t *testing.T) {
	for _, f := range []string{"md", "Markdown", ""} {
		e, err := ForFormat(f, nil)
		require.NoError(t, err)
		assert.Equal(t, ".md", e.FileExtension())
	}
	e, err := ForFormat("json", nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", e.MimeType())

	_, err = ForFormat("html", nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Q3 Reports", "Q3_Reports"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "session"},
		{"tab\there", "tab_here"},
		{strings.Repeat("y", 80), strings.Repeat("y", 50)},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, sanitizeFilename(tc.in), tc.in)
	}
}
