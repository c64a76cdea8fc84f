package ingest

import "github.com/docsmith-ai/docsmith/internal/domain"

// DefaultMinContentLength is the default usefulness threshold in characters.
// Records at or below it (near-empty files, binary placeholders) add
// retrieval noise without informational value.
const DefaultMinContentLength = 50

// Filter retains only records whose content length exceeds minLength.
// Filtering an already-filtered sequence returns it unchanged.
func Filter(records []domain.FileRecord, minLength int) []domain.FileRecord {
	kept := make([]domain.FileRecord, 0, len(records))
	for _, r := range records {
		if len(r.Content) > minLength {
			kept = append(kept, r)
		}
	}
	return kept
}
