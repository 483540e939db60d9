// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import "github.com/jeranaias/docdocgo-cli/internal/model"

// EncodeHistory translates the transcript for transmission. The backend has
// no system turn, so system entries are relabeled user; sources are dropped.
// The result is never nil so an empty history encodes as [].
func EncodeHistory(entries []model.HistoryEntry) []WireMessage {
	out := make([]WireMessage, 0, len(entries))
	for _, e := range entries {
		role := e.Role
		if role == model.RoleSystem {
			role = model.RoleUser
		}
		out = append(out, WireMessage{Role: role, Content: e.Content})
	}
	return out
}

// UsesAttachments reports whether a submission must go through the
// multipart /ingest endpoint.
func UsesAttachments(files []Attachment) bool {
	return len(files) > 0
}
