package slug

import (
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given title.
//
// Examples:
//   - "My First Upload!" → "my-first-upload"
//   - "Go  Concurrency   Patterns" → "go-concurrency-patterns"
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))

	// Replace any non-alphanumeric run with a single hyphen.
	s = slugRegexp.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}
