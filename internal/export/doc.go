// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes DocDocGo transcripts to files.
//
// # Key Types
//
//   - Transcript: A session's history plus collection and model metadata
//   - Exporter: Format interface (Markdown, JSON)
//   - Options: Output directory and metadata toggles
//
// # Usage
//
//	t := export.NewTranscript(ctrl.SessionID(), snap.History)
//	t.Collection = snap.Collection
//	path, err := export.ExportMarkdown(t, &export.Options{OutputDir: "."})
package export
