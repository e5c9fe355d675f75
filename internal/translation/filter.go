package translation

import (
	"regexp"
	"strings"
)

var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)^(?:<img\b[^>]*>\s*(?:</img>)?\s*)+$`),
	regexp.MustCompile(`(?is)^<table\b.*</table>$`),
	regexp.MustCompile(`(?is)^<svg\b.*</svg>$`),
	regexp.MustCompile(`(?is)^<a\b[^>]*>\s*\d+\s*</a>$`),
}

var nbspReplacer = strings.NewReplacer("&nbsp;", "", "&#160;", "", "&#xa0;", "", "&#xA0;", "")

// ShouldSkip reports whether a unit is returned untouched without reaching
// the cache or the translator: a lone image, a whole table or svg block,
// blank content, or a link around a bare number.
func ShouldSkip(unit string) bool {
	trimmed := strings.TrimSpace(unit)
	if strings.TrimSpace(nbspReplacer.Replace(trimmed)) == "" {
		return true
	}

	for _, pattern := range skipPatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}
