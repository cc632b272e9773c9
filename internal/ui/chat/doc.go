// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for codechat.

The Model is a Bubble Tea model with two conversations, one per mode
(code search and code generate). Tab switches between them without
clearing either.

# Streaming

Enter starts a turn in the current mode. The request runs as a tea.Cmd;
each fragment is posted back to the event loop as a StreamChunkMsg through
a Sender (normally a Relay attached to the tea.Program), and the command's
result is the terminal StreamDoneMsg or StreamErrorMsg. Only Update touches
the conversation store, and every store call carries the id of the
placeholder being streamed into, so replies that were cancelled or
superseded are dropped.

Redraws while streaming are capped at the configured frame rate. A chunk
that arrives inside a frame marks the view dirty and the next StreamTickMsg
draws it.

# Code blocks

ctrl+n and ctrl+p select a code block of the current conversation.
ctrl+y copies the selected block (or the most recent one) to the
clipboard and ctrl+e exports it as a paginated HTML document. ctrl+s
saves the whole conversation as Markdown.

# Usage

	relay := chat.NewRelay()
	m := chat.New(chat.Options{Agent: client, Sender: relay, Config: cfg})
	p := tea.NewProgram(m, tea.WithAltScreen())
	relay.Attach(p)
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat
