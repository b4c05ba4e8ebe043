package utils

import (
	"regexp"
	"strings"
)

var (
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9-]`)
	slugSplit      = regexp.MustCompile(`[-_ ]+`)
)

// Slugify normalizes a tag to a lowercase hyphenated slug: whitespace
// runs become hyphens, anything outside [a-z0-9-] is dropped.
func Slugify(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	return slugInvalid.ReplaceAllString(slug, "")
}

// TitleFromSlug turns a slug into a display label: hyphens and
// underscores become spaces, each word is title-cased. Empty input
// yields "Other".
func TitleFromSlug(slug string) string {
	words := slugSplit.Split(strings.TrimSpace(slug), -1)
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		parts = append(parts, strings.ToUpper(w[:1])+w[1:])
	}
	out := strings.Join(parts, " ")
	if out == "" {
		return "Other"
	}
	return out
}
