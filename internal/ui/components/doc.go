// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the pieces the chat screen is drawn from.

  - Header (header.go): title line with the two mode tabs.
  - MessageBubble and MessageList (message.go): user turns as plain text,
    assistant turns through markdown.Renderer with a streaming caret and
    code block selection.
  - StatusBar (statusbar.go): streaming spinner, last notice and key hints.

Components hold no state beyond what they are given each frame.
*/
package components
