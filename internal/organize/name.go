package organize

import (
	"regexp"
	"strings"
)

// maxNameLen bounds generated file and directory name stems.
const maxNameLen = 50

var (
	invalidChars = regexp.MustCompile(`[^\w\s-]`)
	separators   = regexp.MustCompile(`[-\s]+`)
)

// Sanitize turns free-form model output into a safe file name stem:
// invalid characters are stripped, the result is lowercased, runs of
// whitespace and hyphens collapse to a single hyphen, and the stem is
// truncated to 50 characters.
func Sanitize(s string) string {
	out := invalidChars.ReplaceAllString(s, "")
	out = strings.ToLower(strings.TrimSpace(out))
	out = separators.ReplaceAllString(out, "-")
	out = strings.Trim(out, "-")

	runes := []rune(out)
	if len(runes) > maxNameLen {
		out = strings.Trim(string(runes[:maxNameLen]), "-")
	}
	return out
}
