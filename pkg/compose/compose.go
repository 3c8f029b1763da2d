// Package compose shapes free-form reply text into ordered delivery chunks.
package compose

import (
	"regexp"
	"strings"
)

var (
	paragraphBreak  = regexp.MustCompile(`\n[ \t\r]*\n`)
	citationMarkers = regexp.MustCompile(`【[^】]*】`)
)

// Split breaks reply text on blank-line paragraph boundaries into trimmed,
// non-empty chunks. Chunk order matches paragraph order in the source text.
// Citation-marker artifacts the extraction model sometimes leaks are removed.
func Split(text string) []string {
	paragraphs := paragraphBreak.Split(text, -1)

	chunks := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		chunk := strings.TrimSpace(citationMarkers.ReplaceAllString(paragraph, ""))
		if chunk == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}

	return chunks
}
