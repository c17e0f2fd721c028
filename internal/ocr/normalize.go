package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF      = regexp.MustCompile(`\r\n?`)
	reTrailWS   = regexp.MustCompile(`[ \t]+\n`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans extractor output without changing its content: unix line
// endings, no trailing whitespace, at most one blank line in a row.
func Normalize(s string) string {
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTrailWS.ReplaceAllString(s, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
