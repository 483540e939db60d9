// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error display and exit codes for ddg commands.
//
// Commands return errors; main decides how to display them and which exit
// code to use.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/jeranaias/docdocgo-cli/internal/backend"
	"github.com/jeranaias/docdocgo-cli/internal/config"
	"github.com/jeranaias/docdocgo-cli/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the backend rejected the credentials
	ExitAuthError = 4
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitProtocolError indicates the backend sent something the client cannot accept
	ExitProtocolError = 6
	// ExitTimeoutError indicates no response arrived in time
	ExitTimeoutError = 8
)

// UsageError is returned for invalid arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// silentError marks an error that has already been shown to the user.
type silentError struct{ err error }

func (e silentError) Error() string { return e.err.Error() }
func (e silentError) Unwrap() error { return e.err }

// IsSilent reports whether err was already printed and should only set the
// exit status.
func IsSilent(err error) bool {
	var s silentError
	return errors.As(err, &s)
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	var ttyErr *TTYRequiredError
	if errors.As(err, &usageErr) || errors.As(err, &ttyErr) {
		return ExitUsageError
	}

	var validationErrs config.ValidateErrors
	var validationErr config.ValidationError
	if errors.As(err, &validationErrs) || errors.As(err, &validationErr) {
		return ExitConfigError
	}

	var httpErr *backend.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusForbidden {
			return ExitAuthError
		}
		return ExitGeneralError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}
	if errors.Is(err, session.ErrProtocol) {
		return ExitProtocolError
	}
	if errors.Is(err, backend.ErrNotConfigured) {
		return ExitConfigError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ExitNetworkError
	}

	return ExitGeneralError
}

// DisplayError prints an error unless it was already shown.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil || IsSilent(err) {
		return
	}
	if jsonMode {
		NewJSONErrorResponse("", err).Print(w)
		return
	}
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("[Error]"), err.Error())
}
