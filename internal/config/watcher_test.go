// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	var mu sync.Mutex
	var got []*Config
	w, err := NewWatcher(path, func(c *Config) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, c)
	}, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	require.NoError(t, w.Watch())
	defer w.Close()

	cfg := Default()
	cfg.Bot.Model = "gpt-4o"
	cfg.Bot.Temperature = 0.8
	require.NoError(t, SaveTOML(cfg, path))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1].Bot.Model == "gpt-4o"
	}, 3*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, 0.8, got[len(got)-1].Bot.Temperature)
	mu.Unlock()
}

func TestWatcher_SkipsInvalidFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	calls := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { calls <- c }, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	require.NoError(t, w.Watch())
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[bot]\ntemperature = 9\n"), 0600))
	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0600))

	select {
	case c := <-calls:
		t.Fatalf("unexpected reload: %+v", c.Bot)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_CloseIsPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	w, err := NewWatcher(path, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Watch())

	done := make(chan struct{})
	go func() {
		_ = w.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
}
