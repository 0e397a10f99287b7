// Package ingestion turns uploaded resume files into clean plain text the
// scoring and drafting calls can work from. PDF and plain-text uploads are
// supported; everything else is rejected up front.
package ingestion

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)
var excessiveBlankLines = regexp.MustCompile(`\n\n\n+`)

// CleanText normalizes extracted resume text while keeping its line
// structure: line endings become LF, runs of spaces collapse, and blank-line
// runs shrink to at most one.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			line = multiSpace.ReplaceAllString(line, " ")
		}
		cleaned = append(cleaned, line)
	}

	result := strings.Join(cleaned, "\n")
	result = excessiveBlankLines.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
