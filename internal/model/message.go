// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "slices"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// DisplayName returns a human-readable label for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "DDG"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Message is a single role/content pair.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryEntry is a Message as recorded in the transcript. Sources are only
// ever attached to assistant turns.
type HistoryEntry struct {
	Message
	Sources []string `json:"sources,omitempty"`
}

// NewEntry creates a history entry without sources.
func NewEntry(role Role, content string) HistoryEntry {
	return HistoryEntry{Message: Message{Role: role, Content: content}}
}

// NewUserEntry creates a user history entry.
func NewUserEntry(content string) HistoryEntry {
	return NewEntry(RoleUser, content)
}

// NewSystemEntry creates a system history entry.
func NewSystemEntry(content string) HistoryEntry {
	return NewEntry(RoleSystem, content)
}

// NewAssistantEntry creates an assistant history entry. A nil sources slice
// means the backend sent none; the slice is copied otherwise.
func NewAssistantEntry(content string, sources []string) HistoryEntry {
	entry := NewEntry(RoleAssistant, content)
	if sources != nil {
		entry.Sources = slices.Clone(sources)
	}
	return entry
}

// HasSources reports whether the entry carries citations.
func (e HistoryEntry) HasSources() bool {
	return len(e.Sources) > 0
}

// Clone returns a deep copy so callers can never reach the transcript's
// backing arrays.
func (e HistoryEntry) Clone() HistoryEntry {
	out := e
	if e.Sources != nil {
		out.Sources = slices.Clone(e.Sources)
	}
	return out
}

// CloneHistory deep-copies a transcript.
func CloneHistory(entries []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
