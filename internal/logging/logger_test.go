// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_NoSinks(t *testing.T) {
	l, err := New(Options{})
	require.NoError(t, err)
	assert.Empty(t, l.Path())
	l.Info("dropped")
	assert.NoError(t, l.Close())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestNew_FileCoreWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ddg.log")
	l, err := New(Options{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())

	l.Named("session").Info("reply", zap.Uint64("turn", 3), zap.String("endpoint", "/chat"))
	l.Debug("below level")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"reply"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
	assert.NotContains(t, string(data), "below level")

	entries, err := ReadEntries(path, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "reply", entries[0].Message)
	assert.Equal(t, "session", entries[0].Logger)
	assert.Equal(t, float64(3), entries[0].Fields["turn"])
	assert.NotContains(t, entries[0].Fields, "caller")
}

func TestNew_ConsoleCore(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "error", Console: &buf})
	require.NoError(t, err)

	l.Debug("console gets debug")
	require.NoError(t, l.Close())
	assert.Contains(t, buf.String(), "console gets debug")
}

func TestReadEntries_FilterAndLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ddg.log")
	lines := `{"timestamp":"t1","level":"INFO","message":"one"}
not json
{"timestamp":"t2","level":"WARN","message":"two","status":429}
{"timestamp":"t3","level":"INFO","message":"three"}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0600))

	all, err := ReadEntries(path, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "three", all[0].Message)

	warn, err := ReadEntries(path, "warn", 0)
	require.NoError(t, err)
	require.Len(t, warn, 1)
	assert.Equal(t, "t2 WARN  two status=429", warn[0].String())

	last, err := ReadEntries(path, "", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "two", last[1].Message)
}

func TestReadEntries_MissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "nope.log"), "", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
