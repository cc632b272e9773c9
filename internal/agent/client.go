// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent provides the HTTP client for the remote inference agents.
package agent

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/codechat-tui/internal/model"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultEndpoint is the hosted streaming inference endpoint.
	DefaultEndpoint = "https://agent-prod.studio.lyzr.ai/v3/inference/stream/"

	// DefaultSearchAgent answers code search questions.
	DefaultSearchAgent = "67c556420606a0f240481e79"

	// DefaultGenerateAgent writes code.
	DefaultGenerateAgent = "67c55dfe8cfac3392e3a4eb0"

	// DefaultUserID identifies this client to the agent service.
	DefaultUserID = "codechat"

	// MaxErrorBody bounds how much of an error response is read.
	MaxErrorBody = 64 * 1024
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the agent client.
type Config struct {
	// Endpoint receives the POST for every turn.
	Endpoint string

	// APIKey is sent as the x-api-key header.
	APIKey string

	// UserID is sent as user_id.
	UserID string

	// SessionID is sent as session_id. Empty means use the mode's agent id.
	SessionID string

	// SearchAgent and GenerateAgent are the agent ids per mode.
	SearchAgent   string
	GenerateAgent string

	// ConnectTimeout bounds dialing and the TLS handshake (default: 10s).
	ConnectTimeout time.Duration

	// HeaderTimeout bounds the wait for response headers (default: 60s).
	// The body of a stream is not subject to a timeout.
	HeaderTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint:       DefaultEndpoint,
		UserID:         DefaultUserID,
		SearchAgent:    DefaultSearchAgent,
		GenerateAgent:  DefaultGenerateAgent,
		ConnectTimeout: 10 * time.Second,
		HeaderTimeout:  60 * time.Second,
	}
}

// AgentFor returns the agent id that serves mode.
func (c Config) AgentFor(mode model.Mode) string {
	if mode == model.ModeGenerate {
		return c.GenerateAgent
	}
	return c.SearchAgent
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends chat turns to the remote agents and streams their replies.
//
// The Client is safe for concurrent use; each Send owns its own request,
// decoder and accumulator.
//
// Example:
//
//	client := agent.New(agent.DefaultConfig())
//	text, err := client.Send(ctx, model.ModeSearch, "where is main?", func(f string) {
//	    fmt.Print(f)
//	})
type Client struct {
	config     Config
	httpClient *http.Client
}

// New creates a client, filling zero values from DefaultConfig.
func New(config Config) *Client {
	def := DefaultConfig()
	if config.Endpoint == "" {
		config.Endpoint = def.Endpoint
	}
	if config.UserID == "" {
		config.UserID = def.UserID
	}
	if config.SearchAgent == "" {
		config.SearchAgent = def.SearchAgent
	}
	if config.GenerateAgent == "" {
		config.GenerateAgent = def.GenerateAgent
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = def.ConnectTimeout
	}
	if config.HeaderTimeout == 0 {
		config.HeaderTimeout = def.HeaderTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   config.ConnectTimeout,
		ResponseHeaderTimeout: config.HeaderTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Transport: transport},
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Ping checks that the endpoint host answers HTTP at all. Any status code
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.config.Endpoint, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeNotConfigured, Message: "invalid endpoint", Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return connectivityError(err)
	}
	resp.Body.Close()
	log.Printf("AGENT PING | endpoint=%s status=%d", c.config.Endpoint, resp.StatusCode)
	return nil
}

// isJSONResponse reports whether a success response is a single JSON
// document rather than an event stream.
func isJSONResponse(resp *http.Response) bool {
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	return strings.HasPrefix(ct, "application/json")
}
