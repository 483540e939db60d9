// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// InstructionType tags a backend side-channel instruction.
type InstructionType string

const (
	// InstructionShowUploader asks the presentation layer to offer file upload.
	InstructionShowUploader InstructionType = "SHOW_UPLOADER"

	// InstructionCacheAccessCode asks the client to remember an access code
	// for the reply's collection.
	InstructionCacheAccessCode InstructionType = "CACHE_ACCESS_CODE"
)

// Known reports whether the type is understood by this client. Unknown types
// are carried through untouched.
func (t InstructionType) Known() bool {
	return t == InstructionShowUploader || t == InstructionCacheAccessCode
}

// Instruction is a directive attached to a backend reply. UserID and
// AccessCode are nil when the backend omitted them.
type Instruction struct {
	Type       InstructionType `json:"type"`
	UserID     *string         `json:"user_id,omitempty"`
	AccessCode *string         `json:"access_code,omitempty"`
}

// CacheAccessCode builds a CACHE_ACCESS_CODE instruction.
func CacheAccessCode(userID, accessCode string) Instruction {
	return Instruction{
		Type:       InstructionCacheAccessCode,
		UserID:     &userID,
		AccessCode: &accessCode,
	}
}

// ShowUploader builds a SHOW_UPLOADER instruction.
func ShowUploader() Instruction {
	return Instruction{Type: InstructionShowUploader}
}

// HasInstruction reports whether any instruction in the list has type t.
func HasInstruction(list []Instruction, t InstructionType) bool {
	for _, in := range list {
		if in.Type == t {
			return true
		}
	}
	return false
}
