// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MODE TYPE
// =============================================================================

// Mode selects one of the two independent chat contexts.
type Mode string

const (
	ModeSearch   Mode = "search"
	ModeGenerate Mode = "generate"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeSearch, ModeGenerate}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Label returns the header shown above assistant turns.
func (m Mode) Label() string {
	switch m {
	case ModeSearch:
		return "Code Search"
	case ModeGenerate:
		return "Code Generate"
	default:
		return string(m)
	}
}

// Other returns the mode a toggle switches to.
func (m Mode) Other() Mode {
	if m == ModeSearch {
		return ModeGenerate
	}
	return ModeSearch
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSearch || m == ModeGenerate
}

// ParseMode accepts a mode name or a short alias.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "search", "s", "code-search":
		return ModeSearch, nil
	case "generate", "gen", "g", "code-generate":
		return ModeGenerate, nil
	}
	return "", fmt.Errorf("unknown mode %q (want search or generate)", s)
}

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
// ID, Role and Timestamp never change once created.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{
		ID:        "user-" + uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantPlaceholder creates the empty assistant message a stream fills.
func NewAssistantPlaceholder() Message {
	return Message{
		ID:        "bot-" + uuid.NewString(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
	}
}

// IsUser returns true if this is a user message.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true if this is an assistant message.
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// Clock formats the timestamp as HH:MM.
func (m Message) Clock() string {
	return m.Timestamp.Format("15:04")
}
