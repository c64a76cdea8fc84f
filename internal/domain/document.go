package domain

import (
	"fmt"
	"time"
)

// FileRecord is a single file extracted from a raw repository dump:
// the path-like identifier captured from its separator marker and the
// text between that marker and the next one.
type FileRecord struct {
	Identifier string
	Content    string
}

// DocumentItem is the atomic unit of storage and retrieval. One item is
// one chunk of repository text plus run-level provenance metadata. Items
// are immutable after insertion; corrections are delete-and-reinsert.
type DocumentItem struct {
	ID              string
	DocumentSource  string
	DocumentURL     string
	DocumentContent string
	CreatedAt       time.Time
}

// ScoredDocument pairs a stored item with its cosine distance to a
// query vector. Smaller distance means more similar.
type ScoredDocument struct {
	DocumentItem
	Distance float64
}

// NewDocumentItem creates a DocumentItem for the given chunk content and
// run-level provenance.
func NewDocumentItem(source, url, content string, createdAt time.Time) *DocumentItem {
	return &DocumentItem{
		DocumentSource:  source,
		DocumentURL:     url,
		DocumentContent: content,
		CreatedAt:       createdAt,
	}
}

// ValidateDocumentItem validates a DocumentItem before persistence.
func ValidateDocumentItem(d *DocumentItem) error {
	if d == nil {
		return fmt.Errorf("document item cannot be nil")
	}
	if d.DocumentSource == "" {
		return fmt.Errorf("document item DocumentSource is required")
	}
	if d.DocumentURL == "" {
		return fmt.Errorf("document item DocumentURL is required")
	}
	if d.DocumentContent == "" {
		return fmt.Errorf("document item DocumentContent is required")
	}
	return nil
}
