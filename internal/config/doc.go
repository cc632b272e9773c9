// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves codechat settings.
//
// # Configuration Precedence
//
// Highest first:
//   - Environment variables (CODECHAT_*), including those from .env files
//   - The file named with --config
//   - ~/.codechat/config.toml
//   - ~/.codechat/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := agent.New(cfg.AgentConfig())
//
// Watch reloads a file after edits so the TUI can apply new settings live.
package config
