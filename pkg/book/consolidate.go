package book

import (
	"strings"
	"unicode/utf8"
)

const (
	// PreviewLength bounds each secondary context snippet.
	PreviewLength = 200

	// MaxSecondaries caps how many secondary records survive
	// consolidation.
	MaxSecondaries = 2

	// MinScore discards low-confidence retrieval hits. Records with a
	// zero score (no score reported) are kept.
	MinScore = 0.7
)

// Consolidate merges a ranked list of retrieval hits into one primary
// record plus bounded secondary previews. The record matching the
// expected section becomes primary; if none matches, the top-ranked
// record is used and Mismatch is set. Pure function: identical inputs
// always produce identical output.
func Consolidate(records []SectionRecord, expectedSection int) (RetrievalResult, bool) {
	kept := records[:0:0]
	for _, r := range records {
		if r.Score == 0 || r.Score >= MinScore {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return RetrievalResult{}, false
	}

	primaryIdx := -1
	for i, r := range kept {
		if r.SectionID == expectedSection {
			primaryIdx = i
			break
		}
	}
	result := RetrievalResult{}
	if primaryIdx < 0 {
		primaryIdx = 0
		result.Mismatch = true
	}
	result.Primary = kept[primaryIdx]

	for i, r := range kept {
		if i == primaryIdx || len(result.Secondaries) >= MaxSecondaries {
			continue
		}
		result.Secondaries = append(result.Secondaries, Secondary{
			SectionID: r.SectionID,
			Preview:   truncatePreview(r.Content, PreviewLength),
			Score:     r.Score,
		})
	}
	return result, true
}

// truncatePreview cuts text to at most n characters without splitting
// a rune, appending an ellipsis when cut.
func truncatePreview(text string, n int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "..."
}
