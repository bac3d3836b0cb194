package site

import (
	"regexp"
	"strings"
)

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	spacePattern   = regexp.MustCompile(`\s+`)
	nonWordPattern = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)
	dashRunPattern = regexp.MustCompile(`-{2,}`)
)

// GenerateSlug turns a title into a URL slug: lower case, words joined by
// single dashes, everything else dropped.
func GenerateSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = spacePattern.ReplaceAllString(slug, "-")
	slug = nonWordPattern.ReplaceAllString(slug, "")
	slug = dashRunPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// StripTags removes HTML tags from s.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// ReadingTime estimates the minutes needed to read text. It is never less
// than one.
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 1
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
