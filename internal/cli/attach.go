// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/docdocgo-cli/internal/backend"
)

// MaxAttachmentSize is the largest file /attach and --file accept (25MB).
const MaxAttachmentSize = 25 * 1024 * 1024

// ErrNoFiles is returned when /attach is given no paths.
var ErrNoFiles = errors.New("no files given")

// LoadAttachments reads each path into an attachment named by its base name.
// It fails on the first unreadable, oversized or non-regular file.
func LoadAttachments(paths []string) ([]backend.Attachment, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	files := make([]backend.Attachment, 0, len(paths))
	for _, p := range paths {
		p = expandHome(p)
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", p, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("attach %s: not a regular file", p)
		}
		if info.Size() > MaxAttachmentSize {
			return nil, fmt.Errorf("attach %s: file too large (%s, max %s)",
				p, formatBytes(info.Size()), formatBytes(MaxAttachmentSize))
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", p, err)
		}
		files = append(files, backend.Attachment{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
