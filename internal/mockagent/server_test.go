// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockagent

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, s *Server, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, DefaultPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestInferenceStream(t *testing.T) {
	s := New(Options{Reply: func(Request) string { return "Hello world" }})

	rec := post(t, s, `{"agent_id":"a","message":"hi","stream":true}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `data: {"response":"Hello"}`)
	assert.Contains(t, body, `data: {"response":" world"}`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
}

func TestInferenceDocument(t *testing.T) {
	s := New(Options{Reply: func(Request) string { return "whole" }})

	rec := post(t, s, `{"agent_id":"a","message":"hi","stream":false}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"whole"}`, rec.Body.String())
}

func TestInferenceErrors(t *testing.T) {
	s := New(Options{APIKey: "secret", Agents: []string{"known"}})

	tests := []struct {
		name   string
		body   string
		header map[string]string
		status int
		detail string
	}{
		{"missing key", `{"agent_id":"known","message":"x"}`, nil, http.StatusUnauthorized, "Invalid API key"},
		{"bad json", `{`, map[string]string{"x-api-key": "secret"}, http.StatusBadRequest, "invalid request body"},
		{"unknown agent", `{"agent_id":"other","message":"x"}`, map[string]string{"x-api-key": "secret"}, http.StatusNotFound, "agent other not found"},
		{"empty message", `{"agent_id":"known","message":" "}`, map[string]string{"x-api-key": "secret"}, http.StatusUnprocessableEntity, "field required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s, tt.body, tt.header)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.detail)
		})
	}
}

func TestSplitRoundTrip(t *testing.T) {
	for _, text := range []string{"", "one", "two words", " lead", "a\nb c\n\nd", CannedReply(Request{Message: "write a server"})} {
		assert.Equal(t, text, strings.Join(Split(text), ""), "text %q", text)
	}
}

func TestCannedReplyShapes(t *testing.T) {
	assert.Equal(t, "Hello!", CannedReply(Request{Message: "hello there"}))
	assert.Contains(t, CannedReply(Request{Message: "write a cli"}), "```go")
	assert.Contains(t, CannedReply(Request{Message: "show a table"}), "| File | Line |")
	assert.Contains(t, CannedReply(Request{Message: "parser"}), "`parser`")
}
