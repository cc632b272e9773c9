// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockagent

import (
	"fmt"
	"strings"
)

// CannedReply answers with markdown that exercises the renderer: headers,
// a list, a table and a fenced code block.
func CannedReply(req Request) string {
	msg := strings.TrimSpace(req.Message)
	lower := strings.ToLower(msg)

	switch {
	case lower == "hi" || strings.HasPrefix(lower, "hello"):
		return "Hello!"
	case strings.Contains(lower, "table"):
		return "### Matches\n\n| File | Line |\n|---|---|\n| main.go | 12 |\n| internal/cli/cli.go | 40 |"
	case strings.Contains(lower, "write") || strings.Contains(lower, "generate"):
		return fmt.Sprintf("Here is a starting point for **%s**:\n\n"+
			"```go\npackage main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(%q)\n}\n```\n\n"+
			"### Notes\n\n- Run it with `go run .`\n- Adjust the message as needed.", msg, msg)
	default:
		return fmt.Sprintf("### Search results\n\nI looked for `%s` in the indexed repositories.\n\n"+
			"1. **internal/stream** decodes the event stream\n"+
			"2. **internal/markdown** renders the reply\n\n"+
			"> Results are simulated by the mock agent.", msg)
	}
}
