// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// DefaultCollectionLabel is shown before the backend binds a collection.
const DefaultCollectionLabel = "default"

// CollectionInfo identifies the backend document collection the conversation
// is scoped to. It is always replaced as a whole.
type CollectionInfo struct {
	Name           string `json:"name"`
	UserFacingName string `json:"user_facing_name"`
}

// DefaultCollection returns the collection a new session starts with.
func DefaultCollection() CollectionInfo {
	return CollectionInfo{Name: "", UserFacingName: DefaultCollectionLabel}
}

// CollectionFromReply builds a CollectionInfo when both names are present.
// The second return value is false if either is empty.
func CollectionFromReply(name, userFacingName string) (CollectionInfo, bool) {
	if name == "" || userFacingName == "" {
		return CollectionInfo{}, false
	}
	return CollectionInfo{Name: name, UserFacingName: userFacingName}, true
}
