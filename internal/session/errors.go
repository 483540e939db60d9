// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a submission arrives while a request is in flight.
	ErrBusy = errors.New("a request is already in flight")

	// ErrEmptySubmission is returned for a submission with no text, no
	// directive and no files.
	ErrEmptySubmission = errors.New("nothing to submit")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")

	// ErrProtocol marks a reply that breaks the backend contract.
	ErrProtocol = errors.New("protocol violation")

	// errStaleSchedule means a queued continuation lost its idle window.
	errStaleSchedule = errors.New("scheduled query superseded")
)

// UserIDMismatchError reports that the backend derived a different user id
// than the client did. The access code is cached regardless.
type UserIDMismatchError struct {
	Local  string
	Remote string
}

func (e *UserIDMismatchError) Error() string {
	local := e.Local
	if local == "" {
		local = "<none>"
	}
	return fmt.Sprintf("user id mismatch: backend sent %q, client derived %q", e.Remote, local)
}

// Unwrap lets errors.Is(err, ErrProtocol) match mismatches.
func (e *UserIDMismatchError) Unwrap() error {
	return ErrProtocol
}
