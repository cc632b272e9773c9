// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the codechat command line.
//
// # Commands
//
//   - tui (default): full-screen two-mode chat
//   - ask: one question, reply streamed to stdout
//   - chat: line-mode chat with history and slash commands
//   - config show|path|init|check: configuration management
//   - mock-server: local stand-in for the inference agents
//   - version: build information
//
// Global flags (--config, --endpoint, --api-key, --debug) go before the
// command name.
//
// # Usage
//
//	if err := cli.NewApp().Run(os.Args); err != nil {
//	    fmt.Fprintf(os.Stderr, "Error: %v\n", err)
//	    os.Exit(1)
//	}
package cli
