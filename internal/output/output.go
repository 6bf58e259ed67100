// Package output serializes query and analysis results for export.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format selects an export encoding.
type Format string

const (
	FormatJSON  Format = "json"  // one pretty-printed JSON document
	FormatJSONL Format = "jsonl" // newline-delimited JSON, one record per line
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name from the command line.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatJSONL, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported output format %q (want json, jsonl or yaml)", s)
}

// Encoder writes records in one export format. Buffered encoders emit
// nothing until Close.
type Encoder interface {
	// Encode adds one record to the export.
	Encode(v any) error

	// Close finishes the export and flushes everything written.
	Close() error
}

// New returns an encoder for the format writing to w.
func New(w io.Writer, format Format) (Encoder, error) {
	switch format {
	case FormatJSON:
		return &jsonEncoder{w: bufio.NewWriter(w)}, nil
	case FormatJSONL:
		return &jsonlEncoder{w: bufio.NewWriter(w)}, nil
	case FormatYAML:
		return &yamlEncoder{w: bufio.NewWriter(w)}, nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// jsonEncoder buffers records and emits one document on Close: a bare
// object for a single record, an array otherwise.
type jsonEncoder struct {
	w     *bufio.Writer
	items []any
}

func (e *jsonEncoder) Encode(v any) error {
	e.items = append(e.items, v)
	return nil
}

func (e *jsonEncoder) Close() error {
	var doc any = e.items
	if len(e.items) == 1 {
		doc = e.items[0]
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		return err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	return e.w.Flush()
}

// jsonlEncoder streams one JSON line per record, so exports of any size
// never hold the whole result set encoded in memory.
type jsonlEncoder struct {
	w *bufio.Writer
}

func (e *jsonlEncoder) Encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

func (e *jsonlEncoder) Close() error {
	return e.w.Flush()
}

type yamlEncoder struct {
	w     *bufio.Writer
	items []any
}

func (e *yamlEncoder) Encode(v any) error {
	e.items = append(e.items, v)
	return nil
}

func (e *yamlEncoder) Close() error {
	enc := yaml.NewEncoder(e.w)
	enc.SetIndent(2)
	var doc any = e.items
	if len(e.items) == 1 {
		doc = e.items[0]
	}
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return e.w.Flush()
}
