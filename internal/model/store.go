// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/jeranaias/codechat-tui/internal/stream"
)

// ConnectivityFailure is the assistant text shown when the agent could not
// be reached.
const ConnectivityFailure = "Failed to connect to the API server. Please try again later."

// ErrorPrefix precedes a server-reported error detail.
const ErrorPrefix = "Error: "

// StoppedMarker fills the assistant reply of a turn cancelled before any
// text arrived.
const StoppedMarker = "[stopped]"

// Sentinel errors for easy checking.
var (
	ErrTurnInProgress = errors.New("a response is still streaming for this mode")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrUnknownMode    = errors.New("unknown mode")
)

// =============================================================================
// STREAM SESSION
// =============================================================================

// StreamSession tracks one in-flight assistant turn.
//
// Every store mutation made on its behalf first checks that the session is
// still active, was not cancelled, and that its target is still the
// trailing message.
type StreamSession struct {
	Mode     Mode
	TargetID string

	acc       *stream.Accumulator
	active    bool
	cancelled bool
	cancel    context.CancelFunc
}

// SetCancel registers the function that aborts the session's request.
func (s *StreamSession) SetCancel(cancel context.CancelFunc) {
	s.cancel = cancel
}

// Active reports whether the session may still mutate the store.
func (s *StreamSession) Active() bool {
	return s.active && !s.cancelled
}

// Cancelled reports whether the session was cancelled.
func (s *StreamSession) Cancelled() bool {
	return s.cancelled
}

// Text returns the text accumulated so far.
func (s *StreamSession) Text() string {
	return s.acc.String()
}

// Stats summarizes the session's stream for log lines.
func (s *StreamSession) Stats() string {
	return s.acc.Stats()
}

// =============================================================================
// STORE
// =============================================================================

// Store holds the conversation for each mode and at most one active stream
// session per mode.
//
// Store is not safe for concurrent use. The UI mutates it only from its
// event loop; streaming goroutines post messages to that loop instead of
// calling the store directly.
type Store struct {
	conversations map[Mode]*Conversation
	sessions      map[Mode]*StreamSession
}

// NewStore creates a store with an empty conversation per mode.
func NewStore() *Store {
	s := &Store{
		conversations: make(map[Mode]*Conversation, len(Modes)),
		sessions:      make(map[Mode]*StreamSession, len(Modes)),
	}
	for _, m := range Modes {
		s.conversations[m] = NewConversation(m)
	}
	return s
}

// Conversation returns the conversation for mode, or nil for an unknown mode.
func (s *Store) Conversation(mode Mode) *Conversation {
	return s.conversations[mode]
}

// Messages returns a copy of the history for mode.
func (s *Store) Messages(mode Mode) []Message {
	conv := s.conversations[mode]
	if conv == nil {
		return nil
	}
	return conv.Messages()
}

// Loading reports whether a stream is active for mode.
func (s *Store) Loading(mode Mode) bool {
	sess := s.sessions[mode]
	return sess != nil && sess.Active()
}

// Session returns the active session for mode, or nil.
func (s *Store) Session(mode Mode) *StreamSession {
	sess := s.sessions[mode]
	if sess == nil || !sess.Active() {
		return nil
	}
	return sess
}

// StartTurn appends the user message and an empty assistant placeholder,
// then opens a stream session targeting the placeholder.
func (s *Store) StartTurn(mode Mode, userText string) (*StreamSession, error) {
	conv := s.conversations[mode]
	if conv == nil {
		return nil, ErrUnknownMode
	}
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyMessage
	}
	if s.Loading(mode) {
		return nil, ErrTurnInProgress
	}

	conv.Append(NewUserMessage(userText))
	placeholder := NewAssistantPlaceholder()
	conv.Append(placeholder)

	sess := &StreamSession{
		Mode:     mode,
		TargetID: placeholder.ID,
		acc:      stream.NewAccumulator(),
		active:   true,
	}
	s.sessions[mode] = sess

	log.Printf("TURN START | mode=%s target=%s chars=%d", mode, placeholder.ID, len(userText))
	return sess, nil
}

// OnChunk appends fragment to the session's accumulated text and replaces
// the trailing message with the full text. Updates for a finished,
// cancelled or superseded session are dropped.
func (s *Store) OnChunk(mode Mode, targetID, fragment string) bool {
	sess := s.lookup(mode, targetID)
	if sess == nil {
		return false
	}
	full := sess.acc.Append(fragment)
	return s.replace(sess, full)
}

// OnError replaces the trailing message with a server-reported error and
// ends the session.
func (s *Store) OnError(mode Mode, targetID, detail string) bool {
	sess := s.lookup(mode, targetID)
	if sess == nil {
		return false
	}
	ok := s.replace(sess, ErrorPrefix+detail)
	s.end(sess, "error")
	return ok
}

// OnFailure replaces the trailing message with the connectivity failure
// text and ends the session.
func (s *Store) OnFailure(mode Mode, targetID string) bool {
	sess := s.lookup(mode, targetID)
	if sess == nil {
		return false
	}
	ok := s.replace(sess, ConnectivityFailure)
	s.end(sess, "failure")
	return ok
}

// Finish ends the session after a successful stream.
func (s *Store) Finish(mode Mode, targetID string) bool {
	sess := s.lookup(mode, targetID)
	if sess == nil {
		return false
	}
	s.end(sess, "done")
	return true
}

// Cancel aborts the active session for mode. Its request is cancelled and
// any later callbacks for it are dropped. Content received so far stays;
// an empty reply becomes StoppedMarker.
func (s *Store) Cancel(mode Mode) bool {
	sess := s.Session(mode)
	if sess == nil {
		return false
	}
	sess.cancelled = true
	if sess.cancel != nil {
		sess.cancel()
	}
	if strings.TrimSpace(sess.Text()) == "" {
		s.replace(sess, StoppedMarker)
	}
	s.end(sess, "cancelled")
	return true
}

// Clear empties the conversation for mode. It refuses while streaming.
func (s *Store) Clear(mode Mode) error {
	conv := s.conversations[mode]
	if conv == nil {
		return ErrUnknownMode
	}
	if s.Loading(mode) {
		return ErrTurnInProgress
	}
	conv.Clear()
	delete(s.sessions, mode)
	return nil
}

func (s *Store) lookup(mode Mode, targetID string) *StreamSession {
	sess := s.Session(mode)
	if sess == nil || sess.TargetID != targetID {
		log.Printf("TURN DROP | mode=%s target=%s", mode, targetID)
		return nil
	}
	return sess
}

func (s *Store) replace(sess *StreamSession, content string) bool {
	return s.conversations[sess.Mode].ReplaceTrailing(sess.TargetID, content)
}

func (s *Store) end(sess *StreamSession, outcome string) {
	sess.active = false
	if sess.cancel != nil && !sess.cancelled {
		// Release the request context.
		sess.cancel()
	}
	log.Printf("TURN END | mode=%s target=%s outcome=%s %s", sess.Mode, sess.TargetID, outcome, sess.Stats())
}
