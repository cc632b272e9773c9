// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared across codechat.
//
//   - AtomicWriteFile: crash-safe file writes for config and exports
//   - TruncateWidth, PadRight: cell-aware string fitting for the status bar
//     and the chat REPL history
package util
