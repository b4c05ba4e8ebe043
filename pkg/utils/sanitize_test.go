package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeString(t *testing.T) {
	assert.Equal(t, "hello", SafeString("  hello  ", 10))
	assert.Equal(t, "he", SafeString("hello", 2))
	assert.Equal(t, "", SafeString("   ", 10))
	assert.Equal(t, "", SafeString("", 10))
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 25, ClampInt("25", 1, 50, 10))
	assert.Equal(t, 25, ClampInt(" 25 ", 1, 50, 10))
	assert.Equal(t, 1, ClampInt("0", 1, 50, 10))
	assert.Equal(t, 50, ClampInt("900", 1, 50, 10))
	assert.Equal(t, 10, ClampInt("", 1, 50, 10))
	assert.Equal(t, 10, ClampInt("abc", 1, 50, 10))
	assert.Equal(t, 10, ClampInt("2.5", 1, 50, 10))
}

func TestStripServerCodes(t *testing.T) {
	assert.Equal(t, "Illicit RP | Serious Roleplay", StripServerCodes("^1Illicit RP ^7| Serious Roleplay"))
	assert.Equal(t, "plain", StripServerCodes("plain"))
	assert.Equal(t, "", StripServerCodes("^1^2^3"))
}

func TestEscapeSQLWildcards(t *testing.T) {
	assert.Equal(t, "100\\%", EscapeSQLWildcards("100%"))
	assert.Equal(t, "a\\_b", EscapeSQLWildcards("a_b"))
	assert.Equal(t, "c:\\\\path", EscapeSQLWildcards("c:\\path"))
}

func TestSanitizeSearchQuery(t *testing.T) {
	assert.Equal(t, "%smith%", SanitizeSearchQuery("  smith "))
	assert.Equal(t, "%100\\%\\_x%", SanitizeSearchQuery("100%_x"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "ab", TruncateString("abc", 2))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "core", Slugify("Core"))
	assert.Equal(t, "quality-of-life", Slugify("Quality of Life"))
	assert.Equal(t, "bug-fixes", Slugify("  Bug   Fixes  "))
	assert.Equal(t, "v21", Slugify("v2.1!"))
	assert.Equal(t, "", Slugify("???"))
}

func TestTitleFromSlug(t *testing.T) {
	assert.Equal(t, "Core", TitleFromSlug("core"))
	assert.Equal(t, "Quality Of Life", TitleFromSlug("quality-of-life"))
	assert.Equal(t, "Bug Fixes", TitleFromSlug("bug_fixes"))
	assert.Equal(t, "Other", TitleFromSlug(""))
	assert.Equal(t, "Other", TitleFromSlug("---"))
}
