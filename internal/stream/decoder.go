// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/tidwall/gjson"
)

// =============================================================================
// EVENT PROTOCOL CONSTANTS
// =============================================================================

const (
	// DataPrefix marks an event line that carries a payload.
	DataPrefix = "data: "

	// Sentinel is the payload that ends a stream.
	Sentinel = "[DONE]"

	// ResponseField is the JSON field holding the fragment text.
	ResponseField = "response"
)

// =============================================================================
// DECODER
// =============================================================================

// Decoder turns a server-sent event body into text fragments.
//
// Lines are read up to '\n'. bufio keeps any partial line buffered across
// underlying reads, so a fragment is only produced for a complete line. A
// line still unterminated when the body ends is dropped.
type Decoder struct {
	reader *bufio.Reader
	err    error // sticky; io.EOF once the sentinel or end of body is seen

	// Lines and Skipped count consumed data lines and data lines that
	// produced no fragment.
	Lines   int
	Skipped int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReader(r)}
}

// Next returns the next fragment. It returns io.EOF when the sentinel has
// been seen or the body ended, and the read error otherwise.
func (d *Decoder) Next() (string, error) {
	for d.err == nil {
		line, err := d.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if line != "" {
					log.Printf("STREAM DECODE | dropped unterminated line len=%d", len(line))
				}
				d.err = io.EOF
			} else {
				d.err = err
			}
			break
		}

		payload, ok := dataPayload(line)
		if !ok {
			continue
		}
		d.Lines++

		if strings.TrimSpace(payload) == Sentinel {
			d.err = io.EOF
			break
		}

		if fragment, ok := ParsePayload(payload); ok {
			return fragment, nil
		}
		d.Skipped++
	}
	return "", d.err
}

// Fragments drives a decoder over r and calls fn for every fragment in
// arrival order. It returns nil at end of stream, ctx.Err() if the context
// ends first, and the read error otherwise.
func Fragments(ctx context.Context, r io.Reader, fn func(fragment string)) error {
	dec := NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fragment, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// A cancelled request surfaces as a body read error.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		fn(fragment)
	}
}

// =============================================================================
// LINE PARSING
// =============================================================================

// dataPayload strips the line terminator and the data prefix.
func dataPayload(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, DataPrefix) {
		return "", false
	}
	return line[len(DataPrefix):], true
}

// ParsePayload extracts the fragment carried by one event payload.
//
// Valid JSON yields its response field when that field is present and
// truthy; any other JSON document yields nothing. Text that is not JSON is
// passed through untouched as long as it is not blank.
func ParsePayload(payload string) (string, bool) {
	if !gjson.Valid(payload) {
		if strings.TrimSpace(payload) == "" {
			return "", false
		}
		log.Printf("STREAM DECODE | non-JSON payload passed through len=%d", len(payload))
		return payload, true
	}

	res := gjson.Get(payload, ResponseField)
	switch res.Type {
	case gjson.String:
		return res.Str, res.Str != ""
	case gjson.Number:
		if res.Num == 0 {
			return "", false
		}
		return res.Raw, true
	case gjson.True:
		return res.Raw, true
	case gjson.JSON:
		return res.Raw, true
	default:
		// Null, False, or missing.
		return "", false
	}
}
