// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"maps"
	"slices"
)

// UserIDLength is how many trailing characters of the credential form the
// user id.
const UserIDLength = 6

// DeriveUserID returns the last UserIDLength characters of credential, or the
// whole credential if it is shorter. It returns false for an empty credential.
func DeriveUserID(credential string) (string, bool) {
	if credential == "" {
		return "", false
	}
	r := []rune(credential)
	if len(r) <= UserIDLength {
		return credential, true
	}
	return string(r[len(r)-UserIDLength:]), true
}

// AccessCodeCache maps userID -> collection name -> access code. Entries are
// only added, never evicted. It is not safe for concurrent use on its own;
// the Controller guards it.
type AccessCodeCache struct {
	entries map[string]map[string]string
}

// NewAccessCodeCache creates an empty cache.
func NewAccessCodeCache() *AccessCodeCache {
	return &AccessCodeCache{entries: make(map[string]map[string]string)}
}

// Put stores a code, overwriting any previous code for the same key pair.
func (c *AccessCodeCache) Put(userID, collection, code string) {
	codes, ok := c.entries[userID]
	if !ok {
		codes = make(map[string]string)
		c.entries[userID] = codes
	}
	codes[collection] = code
}

// Get returns the cached code for a user and collection.
func (c *AccessCodeCache) Get(userID, collection string) (string, bool) {
	code, ok := c.entries[userID][collection]
	return code, ok
}

// ForUser returns a copy of the user's codes, or nil if the user has none.
func (c *AccessCodeCache) ForUser(userID string) map[string]string {
	codes, ok := c.entries[userID]
	if !ok {
		return nil
	}
	return maps.Clone(codes)
}

// Collections returns the sorted collection names cached for a user.
func (c *AccessCodeCache) Collections(userID string) []string {
	return slices.Sorted(maps.Keys(c.entries[userID]))
}

// Snapshot returns a deep copy of the whole cache.
func (c *AccessCodeCache) Snapshot() map[string]map[string]string {
	out := make(map[string]map[string]string, len(c.entries))
	for user, codes := range c.entries {
		out[user] = maps.Clone(codes)
	}
	return out
}

// Len returns the number of cached codes across all users.
func (c *AccessCodeCache) Len() int {
	n := 0
	for _, codes := range c.entries {
		n += len(codes)
	}
	return n
}
