// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable ApplyEnvOverrides reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DDG_API_URL", "DDG_API_KEY", "DDG_OPENAI_API_KEY", "OPENAI_API_KEY",
		"DDG_MODEL", "DDG_TEMPERATURE", "DDG_TIMEOUT", "DDG_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:5000", cfg.API.URL)
	assert.Equal(t, "gpt-3.5-turbo-0125", cfg.Bot.Model)
	assert.Equal(t, 0.3, cfg.Bot.Temperature)
	assert.Equal(t, 120*time.Second, cfg.Timeout())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"empty url", func(c *Config) { c.API.URL = "" }, "api.url"},
		{"bad url", func(c *Config) { c.API.URL = "not a url" }, "api.url"},
		{"negative timeout", func(c *Config) { c.API.TimeoutSecs = -1 }, "api.timeout_secs"},
		{"empty model", func(c *Config) { c.Bot.Model = "" }, "bot.model"},
		{"temperature too high", func(c *Config) { c.Bot.Temperature = 2.5 }, "bot.temperature"},
		{"temperature negative", func(c *Config) { c.Bot.Temperature = -0.1 }, "bot.temperature"},
		{"temperature at max", func(c *Config) { c.Bot.Temperature = 2 }, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			err := cfg.Validate()

			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.NotEmpty(t, verrs)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "api.url", Message: "is required"},
		{Field: "bot.model", Message: "is required"},
	}
	assert.Equal(t, "api.url: is required; bot.model: is required", errs.Error())
	assert.Equal(t, "no validation errors", ValidateErrors{}.Error())
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DDG_API_URL", "https://ddg.example.com")
	t.Setenv("DDG_API_KEY", "k1")
	t.Setenv("DDG_OPENAI_API_KEY", "sk-abc")
	t.Setenv("DDG_MODEL", "gpt-4o")
	t.Setenv("DDG_TEMPERATURE", "1.1")
	t.Setenv("DDG_TIMEOUT", "2m")
	t.Setenv("DDG_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "https://ddg.example.com", cfg.API.URL)
	assert.Equal(t, "k1", cfg.API.Key)
	assert.Equal(t, "sk-abc", cfg.API.OpenAIKey)
	assert.Equal(t, "gpt-4o", cfg.Bot.Model)
	assert.Equal(t, 1.1, cfg.Bot.Temperature)
	assert.Equal(t, 120, cfg.API.TimeoutSecs)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestConfig_OpenAIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "sk-fallback", cfg.API.OpenAIKey)

	// A configured key wins over the generic variable.
	cfg = Default()
	cfg.API.OpenAIKey = "sk-file"
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "sk-file", cfg.API.OpenAIKey)
}

func TestConfig_MalformedEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("DDG_TEMPERATURE", "warm")
	t.Setenv("DDG_TIMEOUT", "soon")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, DefaultTemperature, cfg.Bot.Temperature)
	assert.Equal(t, DefaultTimeoutSecs, cfg.API.TimeoutSecs)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "DDG_TEST_DOTENV_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

// =============================================================================
// FILE LOADING AND SAVING
// =============================================================================

func TestLoadFromPath_TOMLKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
url = "https://ddg.example.com/"

[bot]
temperature = 0.9
`), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://ddg.example.com/", cfg.API.URL)
	assert.Equal(t, 0.9, cfg.Bot.Temperature)
	assert.Equal(t, DefaultModel, cfg.Bot.Model)
	assert.Equal(t, DefaultTimeoutSecs, cfg.API.TimeoutSecs)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadFromPath_JSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bot":{"model":"gpt-4o"}}`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Bot.Model)
	assert.Equal(t, DefaultAPIURL, cfg.API.URL)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bot]\ntemperature = 5.0\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot.temperature")
}

func TestLoadFromPath_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DDG_MODEL", "from-env")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bot]\nmodel = \"from-file\"\n"), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Bot.Model)
}

func TestLoad_UsesHomeDirectory(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.API.URL)

	cfg.Bot.Model = "saved-model"
	require.NoError(t, Save(cfg))

	path, err := ConfigPathTOML()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docdocgo", "config.toml"), path)

	reloaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "saved-model", reloaded.Bot.Model)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.API.Key = "secret"
	cfg.Bot.Temperature = 1.5
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

// =============================================================================
// GET/SET AND DISPLAY
// =============================================================================

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("bot.temperature", "0.7"))
	require.NoError(t, cfg.Set("api.timeout_secs", "30"))
	require.NoError(t, cfg.Set("api.openai_key", "sk-x"))
	require.NoError(t, cfg.Set("ui.history", "false"))
	require.NoError(t, cfg.Set("log.max_size_mb", 5))

	v, err := cfg.Get("bot.temperature")
	require.NoError(t, err)
	assert.Equal(t, 0.7, v)
	assert.Equal(t, 30, cfg.API.TimeoutSecs)
	assert.Equal(t, "sk-x", cfg.API.OpenAIKey)
	assert.False(t, cfg.UI.History)
	assert.Equal(t, 5, cfg.Log.MaxSizeMB)

	_, err = cfg.Get("bot.nope")
	assert.Error(t, err)
	_, err = cfg.Get("bot")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("bot.temperature", "hot"))
	assert.Error(t, cfg.Set("", "x"))
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestConfig_StringRedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.API.Key = "ddg-super-secret-1234"
	cfg.API.OpenAIKey = "sk-very-secret-abcd"

	s := cfg.String()
	assert.False(t, strings.Contains(s, "super-secret"))
	assert.False(t, strings.Contains(s, "very-secret"))
	assert.Contains(t, s, "[REDACTED]...1234")

	// The original is untouched.
	assert.Equal(t, "ddg-super-secret-1234", cfg.API.Key)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "[REDACTED]", MaskSecret("abcd"))
	assert.Equal(t, "[REDACTED]...5678", MaskSecret("12345678"))
}
