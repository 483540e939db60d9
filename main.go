// ddg - A terminal client for the DocDocGo document chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/docdocgo-cli/internal/cli"
	"github.com/jeranaias/docdocgo-cli/internal/config"
	"github.com/jeranaias/docdocgo-cli/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	// Global flags
	configFile  string
	apiURL      string
	apiKey      string
	openAIKey   string
	modelName   string
	temperature float64
	timeout     time.Duration
	verbose     bool
	jsonOutput  bool

	// Set up by PersistentPreRunE
	cfg        *config.Config
	configPath string
	logger     *logging.Logger
)

// =============================================================================
// COMMANDS
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "ddg",
	Short: "Chat with your document collections from the terminal",
	Long: `ddg talks to a DocDocGo backend. Messages are answered from the active
document collection; commands such as /research or /ingest are passed through
to the backend unchanged.

Run without arguments to start an interactive chat.`,
	Args:              cobra.NoArgs,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	},
	RunE: runChat,
}

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"c"},
	Short:   "Start an interactive chat session",
	Long: `Starts an interactive session with line editing and history.

Type /help inside the session for the local slash commands. Anything else,
including backend commands such as "/research heatmaps", is sent as a message.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var askFiles []string

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message and print the reply",
	Long: `Sends a single message and prints the reply, including any follow-up
queries the backend schedules. With no message and a piped stdin, the message
is read from stdin.`,
	Example: `  ddg ask "What does the design doc say about retries?"
  ddg ask -f notes.pdf "/ingest"
  git log -5 | ddg ask --json`,
	RunE: runAsk,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.HandleConfigPath(cmd.OutOrStdout(), configPath, jsonOutput)
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.HandleConfigInit(cmd.OutOrStdout(), configPath, configInitForce)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one value, or all values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := ""
		if len(args) == 1 {
			key = args[0]
		}
		return cli.HandleConfigGet(cmd.OutOrStdout(), cfg, key)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one value in the config file",
	Example: `  ddg config set bot.model gpt-4o
  ddg config set api.url https://docdocgo.example.com`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.HandleConfigSet(cmd.OutOrStdout(), configPath, args[0], args[1])
	},
}

var (
	logsLevel string
	logsLines int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent log entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.HandleLogs(cmd.OutOrStdout(), logPath(), logsLevel, logsLines, jsonOutput)
	},
}

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Aliases: []string{"diag"},
	Short:   "Check configuration and backend connectivity",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return cli.HandleDoctor(ctx, cmd.OutOrStdout(), cli.DoctorOptions{
			Config:     cfg,
			ConfigPath: configPath,
			JSON:       jsonOutput,
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
			"go_version": runtime.Version(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		}
		return cli.OutputJSON(cmd.OutOrStdout(), jsonOutput, "version", func() (interface{}, error) {
			if !jsonOutput {
				fmt.Fprintf(cmd.OutOrStdout(), "ddg %s (%s, built %s, %s %s)\n",
					Version, GitCommit, BuildDate, info["go_version"], info["platform"])
			}
			return info, nil
		})
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default: ~/.docdocgo/config.toml)")
	flags.StringVar(&apiURL, "api-url", "", "DocDocGo backend URL (or set DDG_API_URL)")
	flags.StringVar(&apiKey, "api-key", "", "Backend API key (or set DDG_API_KEY)")
	flags.StringVar(&openAIKey, "openai-key", "", "OpenAI API key (or set DDG_OPENAI_API_KEY)")
	flags.StringVar(&modelName, "model", "", "Model name sent with each request")
	flags.Float64Var(&temperature, "temperature", config.DefaultTemperature, "Sampling temperature (0-2)")
	flags.DurationVar(&timeout, "timeout", 0, "Response timeout, 0 to wait forever (default from config)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "Attach a file (repeatable)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Only show entries at this level (debug, info, warn, error)")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", cli.DefaultLogLines, "Number of entries to show")

	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(chatCmd, askCmd, configCmd, logsCmd, doctorCmd, versionCmd)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &cli.UsageError{Message: err.Error()}
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		cli.DisplayError(os.Stderr, err, jsonOutput)
		os.Exit(cli.GetExitCode(err))
	}
}

// =============================================================================
// SETUP
// =============================================================================

// configTolerant lists commands that must run even when the config file
// does not load or validate.
var configTolerant = map[string]bool{
	"init": true,
	"set":  true,
	"path": true,
	"logs": true,
}

// setup loads configuration, applies flag overrides and opens the logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	configPath, err = resolveConfigPath()
	if err != nil {
		return err
	}

	var loadErr error
	if configFile != "" {
		_ = config.LoadDotEnv()
		cfg, loadErr = config.LoadFromPath(configFile)
	} else {
		cfg, loadErr = config.Load()
	}
	if cfg == nil {
		if !configTolerant[cmd.Name()] {
			return loadErr
		}
		cfg = config.Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
	} else if loadErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", loadErr)
	}

	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil && !configTolerant[cmd.Name()] {
		return fmt.Errorf("invalid settings: %w", err)
	}

	opts := logging.Options{
		Level:      cfg.Log.Level,
		File:       logPath(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
	if verbose {
		opts.Console = os.Stderr
	}
	logger, err = logging.New(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Debug("starting",
		zap.String("command", cmd.CommandPath()),
		zap.String("version", Version),
		zap.String("config", configPath))
	return nil
}

// applyFlagOverrides copies explicitly set flags into cfg.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		c.API.URL = apiURL
	}
	if flags.Changed("api-key") {
		c.API.Key = apiKey
	}
	if flags.Changed("openai-key") {
		c.API.OpenAIKey = openAIKey
	}
	if flags.Changed("model") {
		c.Bot.Model = modelName
	}
	if flags.Changed("temperature") {
		c.Bot.Temperature = temperature
	}
	if flags.Changed("timeout") {
		c.API.TimeoutSecs = int(timeout / time.Second)
	}
	if verbose {
		c.Log.Level = "debug"
	}
}

func resolveConfigPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return config.ConfigPathTOML()
}

func logPath() string {
	if cfg != nil && cfg.Log.File != "" {
		return cfg.Log.File
	}
	path, err := config.DefaultLogPath()
	if err != nil {
		return ""
	}
	return path
}

// =============================================================================
// HANDLERS
// =============================================================================

func runChat(cmd *cobra.Command, args []string) error {
	return cli.HandleChatCommand(cmd.Context(), cli.ChatOptions{
		Config:     cfg,
		ConfigPath: configPath,
		Overrides: func(c *config.Config) {
			applyFlagOverrides(cmd, c)
		},
		Logger:   logger.Logger,
		Markdown: cli.IsStdoutTTY(),
		Out:      cmd.OutOrStdout(),
		Err:      cmd.ErrOrStderr(),
	})
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")
	if message == "" && !cli.IsTTY() {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		message = strings.TrimSpace(string(data))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return cli.HandleAskCommand(ctx, cli.AskOptions{
		Config:   cfg,
		Logger:   logger.Logger,
		Message:  message,
		Files:    askFiles,
		JSON:     jsonOutput,
		Markdown: !jsonOutput && cli.IsStdoutTTY(),
		Out:      cmd.OutOrStdout(),
		Err:      cmd.ErrOrStderr(),
	})
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	return cli.HandleConfigShow(cmd.OutOrStdout(), cfg, configPath, jsonOutput)
}
