// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export saves assistant output outside the terminal.
//
// Two kinds of Document are supported: a single code block lifted from a
// reply, and a whole conversation transcript.
//
// # Formats
//
//   - HTML: standalone page with embedded CSS. Code is highlighted with
//     chroma and split into print pages.
//   - Markdown: YAML frontmatter followed by the normalized message text.
//   - JSON: the raw document for tooling.
//
// # Usage
//
//	path, err := export.ExportCodeHTML(model.ModeGenerate, code, &export.Options{
//	    OutputDir:    dir,
//	    LinesPerPage: 60,
//	})
package export
