// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the terminal front-end for ddg.
//
// It wraps a session.Controller in an interactive REPL with line editing and
// slash commands, and in a one-shot ask command. Replies are printed as the
// controller reports them, so backend-scheduled follow-up queries show up
// without further input.
//
// # Key Types
//
//   - Chat: Interactive session state, slash commands and event output
//   - ChatCLI: liner-based input with persistent history
//   - Renderer: glamour markdown rendering of transcript entries
//
// # Usage
//
//	err := cli.HandleChatCommand(ctx, cli.ChatOptions{
//	    Config:     cfg,
//	    ConfigPath: path,
//	    Logger:     logger,
//	    Markdown:   cli.IsStdoutTTY(),
//	})
//
// Output is colored only on a terminal and honors NO_COLOR and FORCE_COLOR.
package cli
