// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotConfigured indicates the client has no base URL.
var ErrNotConfigured = errors.New("backend URL not configured")

// HTTPError is returned for any non-2xx reply.
type HTTPError struct {
	Status  int
	Message string
}

// Error formats the status line followed by the server's message, if any.
func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("HTTP error, status: %d", e.Status)
	if e.Message != "" {
		msg += "\n" + e.Message
	}
	return msg
}

// errorBody is the optional JSON error shape returned by the backend.
type errorBody struct {
	Message string `json:"message"`
}

// newHTTPError builds an HTTPError from a failed reply. A body that is not
// JSON, or has no message, falls back to the bare status line.
func newHTTPError(status int, body []byte) *HTTPError {
	herr := &HTTPError{Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		herr.Message = eb.Message
	}
	return herr
}

// IsStatus reports whether err is an HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var herr *HTTPError
	return errors.As(err, &herr) && herr.Status == status
}
