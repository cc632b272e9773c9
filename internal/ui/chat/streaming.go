// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/codechat-tui/internal/agent"
	"github.com/jeranaias/codechat-tui/internal/model"
)

// Agent streams one reply. *agent.Client implements it.
type Agent interface {
	Send(ctx context.Context, mode model.Mode, message string, onChunk agent.ChunkFunc) (string, error)
}

// Sender posts a message into the running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// =============================================================================
// PROGRAM RELAY
// =============================================================================

// Relay is a Sender that forwards to a program attached after the model is
// built. tea.NewProgram needs the model, and the model needs somewhere to
// send fragments, so the relay breaks the cycle.
type Relay struct {
	mu     sync.RWMutex
	target Sender
}

// NewRelay creates a relay with no target.
func NewRelay() *Relay {
	return &Relay{}
}

// Attach sets the program messages are forwarded to.
func (r *Relay) Attach(target Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
}

// Send forwards msg. Messages sent before Attach are dropped.
func (r *Relay) Send(msg tea.Msg) {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target == nil {
		log.Printf("RELAY DROP | %T", msg)
		return
	}
	target.Send(msg)
}

// =============================================================================
// STREAM COMMAND
// =============================================================================

// streamCmd runs one request on the command goroutine. Each fragment is
// posted through sender as it arrives; the returned message is the
// terminal StreamDoneMsg or StreamErrorMsg. Sends block until the event
// loop takes the message, so fragments arrive in order and before the
// terminal message.
func streamCmd(ctx context.Context, client Agent, sender Sender, mode model.Mode, id, text string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		_, err := client.Send(ctx, mode, text, func(fragment string) {
			sender.Send(StreamChunkMsg{Mode: mode, MessageID: id, Fragment: fragment})
		})
		if err != nil {
			return StreamErrorMsg{Mode: mode, MessageID: id, Err: err}
		}
		return StreamDoneMsg{Mode: mode, MessageID: id, Elapsed: time.Since(start)}
	}
}

// isCancellation reports whether err only says the request was stopped.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// =============================================================================
// FRAME THROTTLE
// =============================================================================

// frameThrottle caps redraws of the message history while replies stream.
// A chunk redraws at once when the limiter allows; otherwise the view is
// marked dirty and the next stream tick catches up.
type frameThrottle struct {
	limiter  *rate.Limiter
	interval time.Duration
	dirty    bool
	ticking  bool
}

func newFrameThrottle(interval time.Duration) *frameThrottle {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return &frameThrottle{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Allow reports whether a redraw may happen now. When it may not, the
// throttle remembers that one is owed.
func (f *frameThrottle) Allow() bool {
	if f.limiter.Allow() {
		f.dirty = false
		return true
	}
	f.dirty = true
	return false
}

// Owed reports and clears a pending redraw.
func (f *frameThrottle) Owed() bool {
	owed := f.dirty
	f.dirty = false
	return owed
}

// SetInterval changes the frame interval.
func (f *frameThrottle) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	f.interval = interval
	f.limiter.SetLimit(rate.Every(interval))
}

// startTicking returns the tick command unless one is already running.
func (f *frameThrottle) startTicking() tea.Cmd {
	if f.ticking {
		return nil
	}
	f.ticking = true
	return streamTickCmd(f.interval)
}

// streamTickCmd sends a StreamTickMsg after one frame interval.
func streamTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
