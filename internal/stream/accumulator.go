// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator owns the growing text of one in-flight assistant turn.
// It has a single writer and is not safe for concurrent use.
type Accumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	content   strings.Builder
	fragments int
	started   time.Time
	first     time.Duration
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{started: time.Now()}
}

// Append concatenates fragment onto the buffer and returns the full text.
func (a *Accumulator) Append(fragment string) string {
	if a.started.IsZero() {
		a.started = time.Now()
	}
	if a.fragments == 0 {
		a.first = time.Since(a.started)
	}
	a.fragments++
	a.content.WriteString(fragment)
	return a.content.String()
}

// String returns the current full text.
func (a *Accumulator) String() string {
	return a.content.String()
}

// Len returns the byte length of the current text.
func (a *Accumulator) Len() int {
	return a.content.Len()
}

// Fragments returns how many fragments have been appended.
func (a *Accumulator) Fragments() int {
	return a.fragments
}

// Reset empties the buffer and restarts timing.
func (a *Accumulator) Reset() {
	a.content.Reset()
	a.fragments = 0
	a.first = 0
	a.started = time.Now()
}

// Stats summarizes the accumulated stream for log lines.
func (a *Accumulator) Stats() string {
	return fmt.Sprintf("fragments=%d chars=%d first=%s total=%s",
		a.fragments, a.content.Len(),
		a.first.Round(time.Millisecond), time.Since(a.started).Round(time.Millisecond))
}
