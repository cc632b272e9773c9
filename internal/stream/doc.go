// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the agent's server-sent event body into text
// fragments and accumulates them into one message.
//
// Each complete line starting with "data: " carries a payload. A payload of
// "[DONE]" ends the stream. JSON payloads contribute their "response" field;
// anything else that is not blank is passed through as raw text.
//
//	dec := stream.NewDecoder(resp.Body)
//	acc := stream.NewAccumulator()
//	for {
//	    fragment, err := dec.Next()
//	    if err != nil {
//	        break // io.EOF at end of stream
//	    }
//	    full := acc.Append(fragment)
//	    render(full)
//	}
package stream
