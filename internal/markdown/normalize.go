// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strings"
)

// =============================================================================
// NORMALIZER
// =============================================================================

var (
	// strayDotPattern matches a lone leading "." and the whitespace after it.
	// ".gitignore" does not match.
	strayDotPattern = regexp.MustCompile(`^\s*\.(?:\s+|$)`)

	// blankRunPattern matches three or more consecutive newlines.
	blankRunPattern = regexp.MustCompile(`\n{3,}`)

	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

	escapedQuotes = strings.NewReplacer(
		`\u0027`, "'",
		`\u2019`, "’",
	)
)

// Normalize cleans transport artifacts out of model output before it is
// parsed. It is pure and idempotent, and safe on text cut off mid-stream.
//
// In order:
//  1. unescape literal \u0027 (and \u2019) sequences
//  2. turn literal \n sequences, CRLF and lone CR into newlines
//  3. strip leading stray "." tokens and surrounding whitespace
//  4. collapse three or more newlines to two
//  5. put a blank line before every ### header marker outside code fences
//
// Header spacing runs on trimmed text so the first line is classified as
// fence or prose the same way on every pass.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = escapedQuotes.Replace(text)
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = lineEndings.Replace(text)
	text = trimEdges(text)
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return spaceHeaders(text)
}

// trimEdges strips stray dots and whitespace until neither applies. The
// regexp and strings.TrimSpace disagree on what counts as space, so one
// round is not always enough.
func trimEdges(text string) string {
	for {
		next := strings.TrimSpace(stripStrayDots(text))
		if next == text {
			return text
		}
		text = next
	}
}

func stripStrayDots(text string) string {
	for {
		loc := strayDotPattern.FindStringIndex(text)
		if loc == nil {
			return text
		}
		text = text[loc[1]:]
	}
}

// spaceHeaders makes each run of three or more '#' start after a blank
// line, adding only the newlines that are missing. Lines inside fenced code
// are copied untouched.
func spaceHeaders(text string) string {
	if !strings.Contains(text, "###") {
		return text
	}

	out := make([]byte, 0, len(text)+16)
	var fence string

	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out = append(out, '\n')
		}

		if marker := fenceMarker(line); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(marker, fence):
				fence = ""
			}
			out = append(out, line...)
			continue
		}
		if fence != "" {
			out = append(out, line...)
			continue
		}

		for j := 0; j < len(line); j++ {
			if line[j] == '#' && (j == 0 || line[j-1] != '#') && hashRun(line[j:]) >= 3 {
				out = ensureBlankLine(out)
			}
			out = append(out, line[j])
		}
	}
	return string(out)
}

// ensureBlankLine makes out end in exactly two newlines unless it is empty
// or already ends in a blank line. Spaces left before the marker are
// dropped.
func ensureBlankLine(out []byte) []byte {
	trimmed := trimRightBlanks(out)
	if len(trimmed) == 0 {
		return out
	}
	n := trailingNewlines(trimmed)
	if n >= 2 {
		return trimmed
	}
	for ; n < 2; n++ {
		trimmed = append(trimmed, '\n')
	}
	return trimmed
}

func trimRightBlanks(b []byte) []byte {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == '\t') {
		end--
	}
	return b[:end]
}

func trailingNewlines(b []byte) int {
	n := 0
	for i := len(b) - 1; i >= 0 && b[i] == '\n'; i-- {
		n++
	}
	return n
}

func hashRun(s string) int {
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	return n
}

// fenceMarker returns the ``` or ~~~ run opening line, or "".
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return ""
	}
	for _, ch := range []byte{'`', '~'} {
		n := 0
		for n < len(trimmed) && trimmed[n] == ch {
			n++
		}
		if n >= 3 {
			return trimmed[:n]
		}
	}
	return ""
}
