// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Mode: search or generate, each with its own conversation and agent
//   - Message: single message with id, role, content and timestamp
//   - Conversation: append-only history with trailing-message replacement
//   - Store: both conversations plus the active StreamSession per mode
//
// # Usage
//
//	store := model.NewStore()
//	sess, err := store.StartTurn(model.ModeSearch, "where is the parser?")
//	if err != nil {
//	    return err
//	}
//	store.OnChunk(sess.Mode, sess.TargetID, "It lives in ")
//	store.OnChunk(sess.Mode, sess.TargetID, "internal/markdown.")
//	store.Finish(sess.Mode, sess.TargetID)
package model
