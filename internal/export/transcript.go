// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
	"time"

	"github.com/jeranaias/docdocgo-cli/internal/model"
	"github.com/jeranaias/docdocgo-cli/internal/util"
)

// maxTitleRunes bounds the title derived from the first user message.
const maxTitleRunes = 60

// Transcript is the exportable view of one session.
type Transcript struct {
	SessionID   string               `json:"session_id"`
	Collection  model.CollectionInfo `json:"collection"`
	Model       string               `json:"model,omitempty"`
	Temperature float64              `json:"temperature"`
	CreatedAt   time.Time            `json:"created_at"`
	Entries     []model.HistoryEntry `json:"entries"`
}

// NewTranscript copies entries into a transcript stamped with the current time.
func NewTranscript(sessionID string, entries []model.HistoryEntry) *Transcript {
	return &Transcript{
		SessionID:  sessionID,
		Collection: model.DefaultCollection(),
		CreatedAt:  time.Now(),
		Entries:    model.CloneHistory(entries),
	}
}

// Title is the first non-empty user message, truncated, or a fixed fallback.
func (t *Transcript) Title() string {
	for _, e := range t.Entries {
		if e.Role != model.RoleUser {
			continue
		}
		line, _, _ := strings.Cut(strings.TrimSpace(e.Content), "\n")
		if line != "" {
			return util.TruncateRunes(line, maxTitleRunes)
		}
	}
	return "DocDocGo session"
}
