// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration management commands.
//
// Command: config [show|path|init|get|set]
//
// Examples:
//   ddg config show                      Show the effective configuration
//   ddg config path                      Print the config file location
//   ddg config init                      Write a default config file
//   ddg config get bot.model             Print one value
//   ddg config set bot.temperature 0.5   Change one value in the file

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/docdocgo-cli/internal/config"
)

// ConfigPathInfo is the --json payload of config path.
type ConfigPathInfo struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// HandleConfigShow prints the effective configuration with secrets masked.
func HandleConfigShow(w io.Writer, cfg *config.Config, path string, jsonMode bool) error {
	return OutputJSON(w, jsonMode, "config show", func() (interface{}, error) {
		if !jsonMode {
			fmt.Fprintf(w, "\n%s\n", summaryHeaderStyle.Render("ddg Configuration"))
			fmt.Fprintf(w, "%s\n\n", RenderSeparator(41))
			fmt.Fprint(w, cfg.String())
			fmt.Fprintf(w, "\n%s\n", RenderSeparator(41))
			fmt.Fprintf(w, "Config file: %s\n\n", commandStyle.Render(path))
		}
		return cfg.Redacted(), nil
	})
}

// HandleConfigPath prints the config file location.
func HandleConfigPath(w io.Writer, path string, jsonMode bool) error {
	return OutputJSON(w, jsonMode, "config path", func() (interface{}, error) {
		_, err := os.Stat(path)
		info := ConfigPathInfo{Path: path, Exists: err == nil}
		if !jsonMode {
			fmt.Fprintln(w, path)
			if !info.Exists {
				fmt.Fprintln(w, infoStyle.Render("(not created yet; run 'ddg config init')"))
			}
		}
		return info, nil
	})
}

// HandleConfigInit writes a default config file. An existing file is only
// replaced with force.
func HandleConfigInit(w io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return &UsageError{Message: fmt.Sprintf("config file already exists: %s (use --force to overwrite)", path)}
	}
	if err := saveConfigFile(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Wrote %s\n", commandStyle.Render("[OK]"), path)
	return nil
}

// HandleConfigGet prints one value by dot-notation key. With no key it lists
// every key.
func HandleConfigGet(w io.Writer, cfg *config.Config, key string) error {
	if key == "" {
		for _, k := range config.GetAllKeys() {
			v, _ := cfg.Get(k)
			fmt.Fprintf(w, "%s = %s\n", k, displayValue(k, v))
		}
		return nil
	}

	key = normalizeKey(key)
	v, err := cfg.Get(key)
	if err != nil {
		return &UsageError{Message: fmt.Sprintf("%v (valid keys: %s)", err, strings.Join(config.GetAllKeys(), ", "))}
	}
	fmt.Fprintln(w, displayValue(key, v))
	return nil
}

// HandleConfigSet changes one value in the config file. Environment
// overrides are not written back.
func HandleConfigSet(w io.Writer, path, key, value string) error {
	if key == "" {
		return &UsageError{Message: "no config key provided\nUsage: ddg config set <key> <value>"}
	}
	key = normalizeKey(key)

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		load := config.LoadTOML
		if strings.HasSuffix(path, ".json") {
			load = config.LoadJSON
		}
		if err := load(cfg, path); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return &UsageError{Message: err.Error()}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := saveConfigFile(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s = %s\n", commandStyle.Render("[OK]"), key, displayValue(key, value))
	return nil
}

func saveConfigFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

// normalizeKey lowercases a key and accepts "-" for "_".
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}

// displayValue formats a value, masking secrets.
func displayValue(key string, v interface{}) string {
	s := fmt.Sprint(v)
	if config.IsSecretKey(key) {
		if s == "" {
			return "(not set)"
		}
		return config.MaskSecret(s)
	}
	return s
}
