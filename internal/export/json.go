// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/codechat-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// jsonDocument is the serialized shape of a Document.
type jsonDocument struct {
	Title    string          `json:"title"`
	Mode     model.Mode      `json:"mode"`
	Created  time.Time       `json:"created"`
	Code     *jsonCode       `json:"code,omitempty"`
	Messages []model.Message `json:"messages,omitempty"`
}

type jsonCode struct {
	Index    int    `json:"index"`
	Language string `json:"language"`
	Source   string `json:"source"`
}

// JSONExporter exports documents to JSON. Options are not consulted; the
// output always carries every message and timestamp.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	return &JSONExporter{options: opts.withDefaults()}
}

// Export converts a document to indented JSON.
func (e *JSONExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	out := jsonDocument{
		Title:    doc.Title,
		Mode:     doc.Mode,
		Created:  doc.Created,
		Messages: doc.Messages,
	}
	if doc.Code != nil {
		out.Code = &jsonCode{Index: doc.Code.Index, Language: doc.Code.Language, Source: doc.Code.Source}
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
