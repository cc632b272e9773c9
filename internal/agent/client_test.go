// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/codechat-tui/internal/mockagent"
	"github.com/jeranaias/codechat-tui/internal/model"
)

func newTestClient(url string) *Client {
	cfg := DefaultConfig()
	cfg.Endpoint = url
	cfg.APIKey = "test-key"
	cfg.ConnectTimeout = time.Second
	return New(cfg)
}

func collectChunks(c *Client, mode model.Mode, msg string) (string, []string, error) {
	var chunks []string
	text, err := c.Send(context.Background(), mode, msg, func(f string) {
		chunks = append(chunks, f)
	})
	return text, chunks, err
}

// =============================================================================
// REQUEST SHAPE
// =============================================================================

func TestSend_RequestShape(t *testing.T) {
	var got InferenceRequest
	var header http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Send(context.Background(), model.ModeGenerate, "write a parser", nil)
	require.NoError(t, err)

	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "text/event-stream", header.Get("Accept"))
	assert.Equal(t, "test-key", header.Get("x-api-key"))

	assert.Equal(t, DefaultUserID, got.UserID)
	assert.Equal(t, DefaultGenerateAgent, got.AgentID)
	assert.Equal(t, DefaultGenerateAgent, got.SessionID)
	assert.Equal(t, "write a parser", got.Message)
	assert.True(t, got.Stream)

	_, err = client.Send(context.Background(), model.ModeSearch, "find it", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchAgent, got.AgentID)
}

func TestSend_ExplicitSessionID(t *testing.T) {
	var got InferenceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.Endpoint = server.URL
	cfg.SessionID = "session-1"
	_, err := New(cfg).Send(context.Background(), model.ModeSearch, "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "session-1", got.SessionID)
}

// =============================================================================
// STREAMING
// =============================================================================

func TestSend_StreamsFragmentsInOrder(t *testing.T) {
	mock := mockagent.New(mockagent.Options{
		APIKey: "test-key",
		Reply:  func(mockagent.Request) string { return "Hello world, this is **streamed**." },
	})
	server := httptest.NewServer(mock.Handler())
	defer server.Close()

	text, chunks, err := collectChunks(newTestClient(server.URL+mockagent.DefaultPath), model.ModeSearch, "hi")
	require.NoError(t, err)

	assert.Equal(t, "Hello world, this is **streamed**.", text)
	assert.Equal(t, mockagent.Split(text), chunks)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSend_RawFallbackAndIgnoredLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": comment\n")
		fmt.Fprint(w, "data: {\"response\":\"json \"}\n\n")
		fmt.Fprint(w, "data: raw text\n\n")
		fmt.Fprint(w, "data: {\"other\":1}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"response\":\"ignored\"}\n\n")
	}))
	defer server.Close()

	text, chunks, err := collectChunks(newTestClient(server.URL), model.ModeSearch, "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"json ", "raw text"}, chunks)
	assert.Equal(t, "json raw text", text)
}

func TestSend_JSONDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		fmt.Fprint(w, `{"response":"all at once"}`)
	}))
	defer server.Close()

	text, chunks, err := collectChunks(newTestClient(server.URL), model.ModeSearch, "q")
	require.NoError(t, err)
	assert.Equal(t, "all at once", text)
	assert.Equal(t, []string{"all at once"}, chunks)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestSend_ServerErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"string detail", http.StatusBadRequest, `{"detail":"bad request"}`, `"bad request"`},
		{"object detail compacted", http.StatusUnprocessableEntity, `{"detail": [ {"loc": "message"} ]}`, `[{"loc":"message"}]`},
		{"missing detail", http.StatusInternalServerError, `{"error":"boom"}`, GenericServerDetail},
		{"null detail", http.StatusBadGateway, `{"detail":null}`, GenericServerDetail},
		{"empty detail", http.StatusBadRequest, `{"detail":""}`, GenericServerDetail},
		{"not json", http.StatusServiceUnavailable, `<html>down</html>`, GenericServerDetail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, chunks, err := collectChunks(newTestClient(server.URL), model.ModeSearch, "q")
			require.Error(t, err)
			assert.Empty(t, chunks)
			assert.ErrorIs(t, err, ErrServer)
			assert.NotErrorIs(t, err, ErrConnectivity)

			detail, ok := ServerDetail(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantDetail, detail)

			var ce *ClientError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.status, ce.Status)
		})
	}
}

func TestSend_MockAgentRejectsKey(t *testing.T) {
	server := httptest.NewServer(mockagent.New(mockagent.Options{APIKey: "right"}).Handler())
	defer server.Close()

	_, _, err := collectChunks(newTestClient(server.URL+mockagent.DefaultPath), model.ModeSearch, "q")
	detail, ok := ServerDetail(err)
	require.True(t, ok)
	assert.Equal(t, `"Invalid API key"`, detail)
}

func TestSend_ConnectivityFailure(t *testing.T) {
	// Grab a free port, then close it so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, _, err = collectChunks(newTestClient("http://"+addr+"/"), model.ModeSearch, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectivity)
	_, ok := ServerDetail(err)
	assert.False(t, ok)
}

func TestSend_MidStreamFailureKeepsPartial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Content-Length", "1000")
		fmt.Fprint(w, "data: {\"response\":\"partial\"}\n\n")
		w.(http.Flusher).Flush()
		// Returning early with a short body makes the client see an
		// unexpected EOF.
	}))
	defer server.Close()

	text, chunks, err := collectChunks(newTestClient(server.URL), model.ModeSearch, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectivity)
	assert.Equal(t, "partial", text)
	assert.Equal(t, []string{"partial"}, chunks)
}

func TestSend_Cancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"response\":\"first\"}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(server.URL)

	text, err := client.Send(ctx, model.ModeSearch, "q", func(f string) {
		if f == "first" {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "first", text)
	_, ok := ServerDetail(err)
	assert.False(t, ok)
}

func TestSend_InvalidMode(t *testing.T) {
	_, err := New(DefaultConfig()).Send(context.Background(), model.Mode("x"), "q", nil)
	assert.ErrorIs(t, err, model.ErrUnknownMode)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(mockagent.New(mockagent.Options{}).Handler())
	defer server.Close()

	client := newTestClient(server.URL + mockagent.DefaultPath)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestClientError_Error(t *testing.T) {
	err := serverError(400, `"bad"`)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Contains(t, err.Error(), `"bad"`)

	cause := errors.New("dial tcp: refused")
	cerr := connectivityError(cause)
	assert.ErrorIs(t, cerr, cause)
	assert.Contains(t, cerr.Error(), "refused")
	assert.Equal(t, "connectivity", cerr.Type.String())
}
