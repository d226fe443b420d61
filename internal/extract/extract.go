// Package extract pulls plain text out of uploaded files ahead of chunking.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"dealflow-ai/internal/indexer"
)

// Extractor converts an uploaded file's bytes into indexable plain text.
type Extractor interface {
	Extract(filename string, data []byte) (string, error)
	// Supports reports whether the extractor handles the file's extension.
	Supports(filename string) bool
}

// PlainText extracts .txt and .md files. Markdown is flattened to prose so headings
// and list markers do not leak into search chunks.
type PlainText struct{}

func (PlainText) Supports(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return true
	}
	return false
}

func (PlainText) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return string(data), nil
	case ".md":
		return indexer.FlattenMarkdown(data), nil
	}
	return "", fmt.Errorf("unsupported file type %s", ext)
}

// Chain tries each extractor in order and uses the first that supports the file.
type Chain []Extractor

func (c Chain) Supports(filename string) bool {
	for _, e := range c {
		if e.Supports(filename) {
			return true
		}
	}
	return false
}

func (c Chain) Extract(filename string, data []byte) (string, error) {
	for _, e := range c {
		if e.Supports(filename) {
			return e.Extract(filename, data)
		}
	}
	return "", fmt.Errorf("no extractor for file %s", filename)
}
