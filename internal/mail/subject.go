package mail

import (
	"regexp"
	"strings"
)

// Customer-ID extraction is an ordered list of pattern-matchers with defined
// precedence: exact KYC tag, then a generic ID tag, then a bare run of four
// or more digits. The first matcher that hits wins.
var subjectMatchers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)KYC\s*[:\-]\s*(\w+)`),
	regexp.MustCompile(`(?i)\bID\s*[:\-]?\s*(\w+)`),
	regexp.MustCompile(`\b(\d{4,})\b`),
}

// ParseCustomerID extracts the customer identifier from a subject line.
func ParseCustomerID(subject string) (string, bool) {
	for _, re := range subjectMatchers {
		if m := re.FindStringSubmatch(subject); m != nil {
			return m[1], true
		}
	}
	return "", false
}

var reAngleAddr = regexp.MustCompile(`<([^>]+)>`)

// ParseSenderAddress pulls the bare address out of a From value, which may
// arrive as either `Name <addr@host>` or `addr@host`.
func ParseSenderAddress(from string) string {
	if m := reAngleAddr.FindStringSubmatch(from); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(from)
}
