// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/jeranaias/codechat-tui/internal/model"
	"github.com/jeranaias/codechat-tui/internal/stream"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// InferenceRequest is the body of every turn.
type InferenceRequest struct {
	UserID    string `json:"user_id"`
	AgentID   string `json:"agent_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Stream    bool   `json:"stream"`
}

// ChunkFunc receives each fragment of a reply in arrival order.
type ChunkFunc func(fragment string)

// =============================================================================
// SEND
// =============================================================================

// Send posts message to the agent for mode and returns the full reply.
//
// For a streamed reply onChunk is called once per fragment, before the
// next one is read. For a single JSON reply it is called once with the
// whole text. A non-2xx status returns a server error carrying the
// serialized detail. A transport failure, including one that interrupts
// the stream, returns a connectivity error. When ctx ends first the text
// received so far is returned with ctx.Err().
func (c *Client) Send(ctx context.Context, mode model.Mode, message string, onChunk ChunkFunc) (string, error) {
	if !mode.Valid() {
		return "", fmt.Errorf("send: %w", model.ErrUnknownMode)
	}
	if onChunk == nil {
		onChunk = func(string) {}
	}

	req, err := c.newRequest(ctx, mode, message)
	if err != nil {
		return "", err
	}

	log.Printf("AGENT REQUEST | mode=%s agent=%s chars=%d", mode, c.config.AgentFor(mode), len(message))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		log.Printf("AGENT FAILURE | mode=%s err=%v", mode, err)
		return "", connectivityError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody))
		detail := errorDetail(body)
		log.Printf("AGENT ERROR | mode=%s status=%d detail=%s", mode, resp.StatusCode, detail)
		return "", serverError(resp.StatusCode, detail)
	}

	if isJSONResponse(resp) {
		return c.readDocument(ctx, mode, resp.Body, onChunk)
	}
	return c.readStream(ctx, mode, resp.Body, onChunk)
}

func (c *Client) newRequest(ctx context.Context, mode model.Mode, message string) (*http.Request, error) {
	agentID := c.config.AgentFor(mode)
	sessionID := c.config.SessionID
	if sessionID == "" {
		sessionID = agentID
	}

	payload, err := json.Marshal(InferenceRequest{
		UserID:    c.config.UserID,
		AgentID:   agentID,
		SessionID: sessionID,
		Message:   message,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeNotConfigured, Message: "invalid endpoint", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.config.APIKey != "" {
		req.Header.Set("x-api-key", c.config.APIKey)
	}
	return req, nil
}

// readStream drives the decoder over an event-stream body.
func (c *Client) readStream(ctx context.Context, mode model.Mode, body io.Reader, onChunk ChunkFunc) (string, error) {
	acc := stream.NewAccumulator()
	err := stream.Fragments(ctx, body, func(fragment string) {
		acc.Append(fragment)
		onChunk(fragment)
	})

	switch {
	case err == nil:
		log.Printf("AGENT DONE | mode=%s %s", mode, acc.Stats())
		return acc.String(), nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Printf("AGENT CANCELLED | mode=%s %s", mode, acc.Stats())
		return acc.String(), err
	default:
		log.Printf("AGENT FAILURE | mode=%s mid-stream err=%v %s", mode, err, acc.Stats())
		return acc.String(), connectivityError(err)
	}
}

// readDocument handles the non-streaming reply {"response": "..."}.
func (c *Client) readDocument(ctx context.Context, mode model.Mode, body io.Reader, onChunk ChunkFunc) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", connectivityError(err)
	}

	text := gjson.GetBytes(data, stream.ResponseField).String()
	if text != "" {
		onChunk(text)
	}
	log.Printf("AGENT DONE | mode=%s document chars=%d", mode, len(text))
	return text, nil
}

// errorDetail serializes the detail field of an error body. A missing,
// falsy or unparseable detail yields the generic message.
func errorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return GenericServerDetail
	}
	res := gjson.GetBytes(body, "detail")
	if !truthy(res) {
		return GenericServerDetail
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(res.Raw)); err != nil {
		return res.Raw
	}
	return buf.String()
}

func truthy(res gjson.Result) bool {
	switch res.Type {
	case gjson.String:
		return res.Str != ""
	case gjson.Number:
		return res.Num != 0
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}
