// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered message history of one mode.
//
// It is append-only. The single permitted mutation is replacing the content
// of the trailing message, addressed by id.
type Conversation struct {
	mode     Mode
	messages []Message
}

// NewConversation creates an empty conversation for mode.
func NewConversation(mode Mode) *Conversation {
	return &Conversation{mode: mode}
}

// Mode returns the mode this conversation belongs to.
func (c *Conversation) Mode() Mode {
	return c.mode
}

// Append adds msg to the end of the conversation.
func (c *Conversation) Append(msg Message) {
	c.messages = append(c.messages, msg)
}

// Last returns the trailing message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// ReplaceTrailing sets the content of the trailing message if its id is id.
// It reports whether the replacement happened.
func (c *Conversation) ReplaceTrailing(id, content string) bool {
	n := len(c.messages)
	if n == 0 || c.messages[n-1].ID != id {
		return false
	}
	c.messages[n-1].Content = content
	return true
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.messages) == 0
}

// Clear removes all messages.
func (c *Conversation) Clear() {
	c.messages = nil
}
