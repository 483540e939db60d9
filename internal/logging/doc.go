// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger used by ddg.
//
// Records go as JSON lines to a size-rotated file and, with --verbose, as
// human-readable lines to stderr. Library packages take a *zap.Logger and
// default to zap.NewNop, so nothing is written unless main wires this in.
//
// # Usage
//
//	logger, err := logging.New(logging.Options{Level: "info", File: path})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	client := backend.NewClient(url).WithLogger(logger.Logger)
package logging
