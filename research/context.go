package research

import (
	"fmt"
	"strings"
)

const documentSeparator = "\n\n---\n\n"

// FormatWebDocuments renders web results as one Context entry. Content longer than
// maxChars runes is truncated; maxChars <= 0 disables truncation.
func FormatWebDocuments(docs []Document, maxChars int) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("<Document href=\"%s\">\n%s\n\n**SOURCE URL: %s**\n</Document>",
			d.Source, truncate(d.Content, maxChars), d.Source))
	}
	return strings.Join(blocks, documentSeparator)
}

// FormatKnowledgeDocuments renders encyclopedic pages as one Context entry.
func FormatKnowledgeDocuments(docs []Document, maxChars int) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("<Document source=\"%s\" page=\"%s\">\n%s\n\n**SOURCE URL: %s**\n</Document>",
			d.Source, d.Page, truncate(d.Content, maxChars), d.Source))
	}
	return strings.Join(blocks, documentSeparator)
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars]) + "..."
}
