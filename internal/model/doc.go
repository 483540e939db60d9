// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations with a
// DocDocGo backend.
//
// # Key Types
//
//   - HistoryEntry: One transcript turn with role, content and optional sources
//   - Role: Message role enumeration (user, assistant, system)
//   - CollectionInfo: The backend document collection bound to a conversation
//   - Instruction: Side-channel directive issued by the backend with a reply
//
// # Usage
//
//	entry := model.NewAssistantEntry("Hi", []string{"doc.pdf"})
//	fmt.Println(entry.Role.DisplayName(), entry.Content)
package model
