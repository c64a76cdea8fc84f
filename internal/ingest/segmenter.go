package ingest

import (
	"regexp"
	"strings"

	"github.com/docsmith-ai/docsmith/internal/domain"
)

// separatorPattern matches one file marker inside a raw repository dump:
// a rule of '=' characters, the "File:" label, the captured path, and a
// closing rule. The rules and the label may share a line
// ("==== File: a.py ====") or be newline-separated, which covers the
// three-line form emitted by gitingest.
var separatorPattern = regexp.MustCompile(`={3,}\s*File:\s*([^\n=]+?)\s*={3,}`)

// Segment splits a raw concatenated-repository dump into file records.
// Records keep dump order; identifiers are not deduplicated, since a dump
// may legitimately repeat a path. A dump without any marker yields an
// empty slice, not an error.
func Segment(raw string) []domain.FileRecord {
	matches := separatorPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return []domain.FileRecord{}
	}

	records := make([]domain.FileRecord, 0, len(matches))
	for i, m := range matches {
		identifier := strings.TrimSpace(raw[m[2]:m[3]])

		contentEnd := len(raw)
		if i+1 < len(matches) {
			contentEnd = matches[i+1][0]
		}
		content := strings.TrimSpace(raw[m[1]:contentEnd])

		records = append(records, domain.FileRecord{
			Identifier: identifier,
			Content:    content,
		})
	}

	return records
}
