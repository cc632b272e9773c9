// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// DefaultCodeStyle is the chroma style used for terminal output.
const DefaultCodeStyle = "monokai"

// Lexer returns the lexer for language, guessing from code when the
// language is unknown.
func Lexer(language, code string) chroma.Lexer {
	lexer := lexers.Get(strings.ToLower(language))
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// Style returns the named chroma style or the fallback style.
func Style(name string) *chroma.Style {
	if name == "" {
		name = DefaultCodeStyle
	}
	style := chromaStyles.Get(name)
	if style == nil {
		style = chromaStyles.Fallback
	}
	return style
}

// Highlight colours code for a 256-colour terminal. The input is returned
// unchanged if tokenising or formatting fails.
func Highlight(code, language, styleName string) string {
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := Lexer(language, code).Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, Style(styleName), iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// LanguageName returns the display name of the lexer chosen for language.
func LanguageName(language, code string) string {
	cfg := Lexer(language, code).Config()
	if cfg == nil {
		return language
	}
	return cfg.Name
}
