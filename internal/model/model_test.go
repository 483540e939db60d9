// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "DDG"},
		{RoleSystem, "System"},
		{Role("tool"), "tool"},
	}

	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			if got := tc.role.DisplayName(); got != tc.want {
				t.Errorf("DisplayName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("function").Valid() {
		t.Error("unknown role should not be valid")
	}
}

// =============================================================================
// HISTORY ENTRY TESTS
// =============================================================================

func TestNewAssistantEntry_Sources(t *testing.T) {
	if e := NewAssistantEntry("hi", nil); e.Sources != nil {
		t.Errorf("nil sources should stay nil, got %v", e.Sources)
	}

	e := NewAssistantEntry("hi", []string{})
	if e.Sources == nil {
		t.Error("empty sources should be kept as an empty list")
	}
	if e.HasSources() {
		t.Error("empty sources should not count as having sources")
	}

	src := []string{"https://a"}
	e = NewAssistantEntry("hi", src)
	src[0] = "mutated"
	if e.Sources[0] != "https://a" {
		t.Errorf("entry should own its sources, got %q", e.Sources[0])
	}
}

func TestHistoryEntry_Clone(t *testing.T) {
	orig := []HistoryEntry{
		NewUserEntry("q"),
		NewAssistantEntry("a", []string{"s1", "s2"}),
	}
	clone := CloneHistory(orig)
	clone[1].Sources[0] = "changed"
	clone[0].Content = "changed"

	if orig[1].Sources[0] != "s1" {
		t.Error("CloneHistory should deep-copy sources")
	}
	if orig[0].Content != "q" {
		t.Error("CloneHistory should copy entries")
	}
}

func TestHistoryEntry_JSON(t *testing.T) {
	data, err := json.Marshal(NewUserEntry("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"role":"user","content":"hello"}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}

// =============================================================================
// COLLECTION TESTS
// =============================================================================

func TestDefaultCollection(t *testing.T) {
	c := DefaultCollection()
	if c.Name != "" || c.UserFacingName != DefaultCollectionLabel {
		t.Errorf("DefaultCollection() = %+v", c)
	}
}

func TestCollectionFromReply(t *testing.T) {
	tests := []struct {
		name, ufn string
		ok        bool
	}{
		{"c1", "Docs", true},
		{"", "Docs", false},
		{"c1", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := CollectionFromReply(tc.name, tc.ufn)
		if ok != tc.ok {
			t.Errorf("CollectionFromReply(%q, %q) ok = %v, want %v", tc.name, tc.ufn, ok, tc.ok)
			continue
		}
		if ok && (got.Name != tc.name || got.UserFacingName != tc.ufn) {
			t.Errorf("CollectionFromReply(%q, %q) = %+v", tc.name, tc.ufn, got)
		}
	}
}

// =============================================================================
// INSTRUCTION TESTS
// =============================================================================

func TestInstruction_Decode(t *testing.T) {
	var list []Instruction
	raw := `[{"type":"CACHE_ACCESS_CODE","user_id":"abc123","access_code":"xyz"},{"type":"SHOW_UPLOADER"},{"type":"NEW_THING"}]`
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d instructions", len(list))
	}
	if list[0].UserID == nil || *list[0].UserID != "abc123" {
		t.Error("user_id not decoded")
	}
	if list[1].UserID != nil || list[1].AccessCode != nil {
		t.Error("SHOW_UPLOADER should have no payload")
	}
	if list[2].Type.Known() {
		t.Error("NEW_THING should not be known")
	}
	if !HasInstruction(list, InstructionShowUploader) {
		t.Error("HasInstruction should find SHOW_UPLOADER")
	}
}

func TestCacheAccessCode(t *testing.T) {
	in := CacheAccessCode("u", "c")
	if in.Type != InstructionCacheAccessCode || *in.UserID != "u" || *in.AccessCode != "c" {
		t.Errorf("CacheAccessCode() = %+v", in)
	}
	if HasInstruction([]Instruction{in}, InstructionShowUploader) {
		t.Error("unexpected SHOW_UPLOADER")
	}
}
