// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// logs_cmd.go - Log viewing command.
//
// Command: logs
//
// Examples:
//   ddg logs                  Show the 50 most recent entries
//   ddg logs --level warn     Only warnings
//   ddg logs -n 200 --json    Machine-readable output

package cli

import (
	"fmt"
	"io"

	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/docdocgo-cli/internal/logging"
)

// DefaultLogLines is the number of entries ddg logs shows by default.
const DefaultLogLines = 50

// HandleLogs prints the most recent log entries, newest first.
func HandleLogs(w io.Writer, path, level string, limit int, jsonMode bool) error {
	if level != "" {
		if _, err := logging.ParseLevel(level); err != nil {
			return &UsageError{Message: err.Error()}
		}
	}
	if limit <= 0 {
		limit = DefaultLogLines
	}

	return OutputJSON(w, jsonMode, "logs", func() (interface{}, error) {
		entries, err := logging.ReadEntries(path, level, limit)
		if err != nil {
			return nil, err
		}
		if jsonMode {
			return entries, nil
		}

		if len(entries) == 0 {
			fmt.Fprintf(w, "%s\n", infoStyle.Render("No log entries in "+path))
			return entries, nil
		}
		for _, e := range entries {
			line := e.String()
			switch lvl, _ := logging.ParseLevel(e.Level); {
			case lvl >= zapcore.ErrorLevel:
				line = errorStyle.Render(line)
			case lvl == zapcore.WarnLevel:
				line = warningStyle.Render(line)
			}
			fmt.Fprintln(w, line)
		}
		return entries, nil
	})
}
