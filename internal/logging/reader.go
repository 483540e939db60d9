// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
)

// Entry is one decoded JSON log line.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Logger    string         `json:"logger,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"-"`
}

// String formats the entry on one line.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s", e.Timestamp, e.Level)
	if e.Logger != "" {
		fmt.Fprintf(&b, " %s", e.Logger)
	}
	fmt.Fprintf(&b, " %s", e.Message)
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}

var reservedKeys = map[string]bool{
	"timestamp": true, "level": true, "logger": true, "message": true, "caller": true, "stacktrace": true,
}

// ReadEntries returns the newest entries from a log file, newest first.
// level filters case-insensitively when non-empty; limit <= 0 means all.
// Lines that are not JSON are skipped. A missing file yields no entries.
func ReadEntries(path, level string, limit int) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			continue
		}
		entry := Entry{Fields: make(map[string]any)}
		for k, v := range raw {
			s, _ := v.(string)
			switch k {
			case "timestamp":
				entry.Timestamp = s
			case "level":
				entry.Level = s
			case "logger":
				entry.Logger = s
			case "message":
				entry.Message = s
			default:
				if !reservedKeys[k] {
					entry.Fields[k] = v
				}
			}
		}
		if level != "" && !strings.EqualFold(entry.Level, level) {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
