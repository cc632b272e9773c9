// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mockagent serves a local stand-in for the inference agents.
//
// It speaks the same protocol as the hosted service: a JSON POST answered
// either with an event stream of {"response": "..."} lines ending in
// "data: [DONE]" or, when stream is false, with a single JSON document.
// Errors are reported as {"detail": ...} with a non-2xx status.
package mockagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// DefaultPath matches the hosted endpoint path.
const DefaultPath = "/v3/inference/stream/"

// Request mirrors the agent request body.
type Request struct {
	UserID    string `json:"user_id"`
	AgentID   string `json:"agent_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Stream    bool   `json:"stream"`
}

// ReplyFunc produces the full reply text for a request.
type ReplyFunc func(req Request) string

// Options configures a Server. Zero values are usable.
type Options struct {
	// Path is the route for POST requests (default DefaultPath).
	Path string

	// APIKey, when set, must match the x-api-key header.
	APIKey string

	// Agents limits the accepted agent ids. Empty accepts any id.
	Agents []string

	// Delay is the pause between streamed fragments.
	Delay time.Duration

	// Reply overrides the canned replies.
	Reply ReplyFunc
}

// Server is an echo application implementing the agent protocol.
type Server struct {
	echo *echo.Echo
	opts Options
}

// New creates a server with routes registered.
func New(opts Options) *Server {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Reply == nil {
		opts.Reply = CannedReply
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, opts: opts}
	s.RegisterRoutes(e)
	return s
}

// RegisterRoutes registers the agent routes on e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST(s.opts.Path, s.Inference)
	e.HEAD(s.opts.Path, s.Health)
	e.GET("/health", s.Health)
}

// Handler exposes the server for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("MOCK AGENT | listening addr=%s path=%s", addr, s.opts.Path)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// Health answers liveness checks.
// GET /health, HEAD <path>
func (s *Server) Health(c echo.Context) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(http.StatusOK)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Inference answers one chat turn.
// POST <path>
func (s *Server) Inference(c echo.Context) error {
	if s.opts.APIKey != "" && c.Request().Header.Get("x-api-key") != s.opts.APIKey {
		return c.JSON(http.StatusUnauthorized, map[string]any{"detail": "Invalid API key"})
	}

	var req Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"detail": "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"loc": "message", "msg": "field required"}},
		})
	}
	if !s.knownAgent(req.AgentID) {
		return c.JSON(http.StatusNotFound, map[string]any{"detail": fmt.Sprintf("agent %s not found", req.AgentID)})
	}

	reply := s.opts.Reply(req)
	log.Printf("MOCK AGENT | agent=%s stream=%t chars=%d", req.AgentID, req.Stream, len(reply))

	if !req.Stream {
		return c.JSON(http.StatusOK, map[string]string{"response": reply})
	}
	return s.stream(c, reply)
}

func (s *Server) knownAgent(id string) bool {
	if len(s.opts.Agents) == 0 {
		return id != ""
	}
	for _, a := range s.opts.Agents {
		if a == id {
			return true
		}
	}
	return false
}

func (s *Server) stream(c echo.Context, reply string) error {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return errors.New("streaming not supported")
	}

	ctx := c.Request().Context()
	for _, fragment := range Split(reply) {
		data, err := json.Marshal(map[string]string{"response": fragment})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Response().Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()

		if s.opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.opts.Delay):
			}
		}
	}

	fmt.Fprint(c.Response().Writer, "data: [DONE]\n\n")
	flusher.Flush()
	return nil
}

// Split cuts text into word-sized fragments that concatenate back to text.
func Split(text string) []string {
	var out []string
	start := 0
	for i := 1; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '\n' {
			out = append(out, text[start:i])
			start = i
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
