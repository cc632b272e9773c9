// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeServer
	ErrTypeConnectivity
	ErrTypeNotConfigured
)

// String returns the error type name used in log lines.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeServer:
		return "server"
	case ErrTypeConnectivity:
		return "connectivity"
	case ErrTypeNotConfigured:
		return "not_configured"
	default:
		return "unknown"
	}
}

// GenericServerDetail is reported when an error response carries no detail.
const GenericServerDetail = "Failed to fetch response"

// ClientError represents an error from the agent client.
//
// Server errors carry the HTTP status and the serialized detail from the
// response body. Connectivity errors wrap the transport failure.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int
	Detail  string
	Cause   error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.Type == ErrTypeServer {
		msg = fmt.Sprintf("%s (HTTP %d): %s", e.Message, e.Status, e.Detail)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches on error type so the sentinels below work with errors.Is.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Sentinel errors for easy checking.
var (
	ErrServer        = &ClientError{Type: ErrTypeServer, Message: "agent returned an error"}
	ErrConnectivity  = &ClientError{Type: ErrTypeConnectivity, Message: "cannot connect to agent"}
	ErrNotConfigured = &ClientError{Type: ErrTypeNotConfigured, Message: "agent client not configured"}
)

func serverError(status int, detail string) *ClientError {
	return &ClientError{
		Type:    ErrTypeServer,
		Message: ErrServer.Message,
		Status:  status,
		Detail:  detail,
	}
}

func connectivityError(cause error) *ClientError {
	return &ClientError{
		Type:    ErrTypeConnectivity,
		Message: ErrConnectivity.Message,
		Cause:   cause,
	}
}

// ServerDetail returns the serialized detail of a server-reported error.
// ok is false for every other error, including connectivity failures.
func ServerDetail(err error) (detail string, ok bool) {
	var ce *ClientError
	if errors.As(err, &ce) && ce.Type == ErrTypeServer {
		return ce.Detail, true
	}
	return "", false
}
