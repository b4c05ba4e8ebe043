package changelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testParser(allowed []string) *Parser {
	p := NewParser(time.UTC, "guild1", "chan1", allowed)
	p.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestParse_EmptyMessageYieldsNothing(t *testing.T) {
	p := testParser(nil)

	assert.Nil(t, p.Parse(Message{ID: "1", Content: ""}))
	assert.Nil(t, p.Parse(Message{ID: "2", Content: "   \n\n  \n"}))
}

func TestParse_BracketTags(t *testing.T) {
	p := testParser(nil)

	e := p.Parse(Message{
		ID:        "100",
		Content:   "[core, security] Patch notes",
		Timestamp: "2024-05-20T10:30:00+00:00",
	})

	assert.NotNil(t, e)
	assert.Equal(t, []string{"core", "security"}, e.Tags)
	assert.Equal(t, "Core", e.Type)
	assert.Equal(t, "Patch notes", e.Title)
	assert.Equal(t, "2024-05-20", e.Date)
	assert.Equal(t, "10:30", e.Time)
	assert.Equal(t, "https://discord.com/channels/guild1/chan1/100", e.URL)
}

func TestParse_TagsLineWithDetailsAndNotes(t *testing.T) {
	p := testParser(nil)

	e := p.Parse(Message{
		ID:        "101",
		Content:   "Tags: ui\n- fixed scroll bug\nSome note",
		Timestamp: "2024-05-20T10:30:00+00:00",
	})

	assert.NotNil(t, e)
	assert.Equal(t, []string{"ui"}, e.Tags)
	assert.Equal(t, "Ui", e.Type)
	assert.Equal(t, []string{"fixed scroll bug"}, e.Details)
	assert.Equal(t, "Some note", e.Notes)
	// the Tags: line can't be a title; the next line is used as-is
	assert.Equal(t, "- fixed scroll bug", e.Title)
}

func TestParse_Hashtags(t *testing.T) {
	p := testParser(nil)

	e := p.Parse(Message{ID: "102", Content: "New heists #crime #gameplay"})

	assert.NotNil(t, e)
	assert.Equal(t, []string{"crime", "gameplay"}, e.Tags)
	assert.Equal(t, "New heists", e.Title)
}

func TestParse_BracketAndHashtagsCombine(t *testing.T) {
	p := testParser(nil)

	e := p.Parse(Message{ID: "103", Content: "[core] Engine rework #performance"})

	assert.NotNil(t, e)
	assert.Equal(t, []string{"core", "performance"}, e.Tags)
	assert.Equal(t, "Engine rework", e.Title)
}

func TestParse_TagNormalization(t *testing.T) {
	p := testParser(nil)

	e := p.Parse(Message{ID: "104", Content: "[Core Systems, CORE SYSTEMS, ***] Title"})

	// slugged, deduped, empty slugs dropped
	assert.Equal(t, []string{"core-systems"}, e.Tags)
	assert.Equal(t, "Core Systems", e.Type)
}

func TestParse_AllowListFiltersAndDefaults(t *testing.T) {
	p := testParser([]string{"core", "ui"})

	e := p.Parse(Message{ID: "105", Content: "[economy] Market update"})
	assert.NotNil(t, e)
	assert.Equal(t, []string{"other"}, e.Tags)
	assert.Equal(t, "Other", e.Type)

	e = p.Parse(Message{ID: "106", Content: "[economy, core] Market update"})
	assert.Equal(t, []string{"core"}, e.Tags)
}

func TestParse_NoTitleYieldsNothing(t *testing.T) {
	p := testParser(nil)

	// Only a tag declaration, nothing usable as a title
	assert.Nil(t, p.Parse(Message{ID: "107", Content: "Tags: core"}))
}

func TestParse_MarkdownStripped(t *testing.T) {
	p := testParser(nil)

	e := p.Parse(Message{
		ID:      "108",
		Content: "**Big** *update* with `code`\n- __underlined__ fix",
	})

	assert.Equal(t, "Big update with code", e.Title)
	assert.Equal(t, []string{"underlined fix"}, e.Details)
}

func TestParse_BulletMarkers(t *testing.T) {
	p := testParser(nil)

	e := p.Parse(Message{
		ID:      "109",
		Content: "Release\n- dash bullet\n* star bullet\n• dot bullet\nplain note\nanother note",
	})

	assert.Equal(t, []string{"dash bullet", "star bullet", "dot bullet"}, e.Details)
	assert.Equal(t, "plain note\nanother note", e.Notes)
}

func TestParse_MalformedTimestampFallsBack(t *testing.T) {
	p := testParser(nil)

	e := p.Parse(Message{ID: "110", Content: "Hotfix", Timestamp: "not-a-date"})

	assert.NotNil(t, e)
	assert.Equal(t, int64(0), e.CreatedAtMs)
	// falls back to the injected clock
	assert.Equal(t, "2024-06-01", e.Date)
}

func TestParse_EditedTimestampFallback(t *testing.T) {
	p := testParser(nil)

	e := p.Parse(Message{ID: "111", Content: "Hotfix", EditedTimestamp: "2024-05-01T08:00:00+00:00"})

	assert.Equal(t, "2024-05-01", e.Date)
	assert.True(t, e.CreatedAtMs > 0)
}

func TestParse_TimezoneApplied(t *testing.T) {
	loc, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	p := NewParser(loc, "", "", nil)

	// 13:00 UTC on 2024-05-20 is 01:00 next day in Auckland (UTC+12)
	e := p.Parse(Message{ID: "112", Content: "Night patch", Timestamp: "2024-05-20T13:00:00+00:00"})

	assert.Equal(t, "2024-05-21", e.Date)
	assert.Equal(t, "01:00", e.Time)
}

func TestParse_NoURLWithoutGuild(t *testing.T) {
	p := NewParser(time.UTC, "", "chan1", nil)

	e := p.Parse(Message{ID: "113", Content: "Patch"})
	assert.Empty(t, e.URL)
}

func TestParseAll_DropsUnusableMessages(t *testing.T) {
	p := testParser(nil)

	entries := p.ParseAll([]Message{
		{ID: "1", Content: "[core] First"},
		{ID: "2", Content: ""},
		{ID: "3", Content: "Tags: ui"},
		{ID: "4", Content: "Second"},
	})

	assert.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].ID)
	assert.Equal(t, "4", entries[1].ID)
}
