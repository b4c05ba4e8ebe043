package changelog

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/istoking/illicitrp-site/pkg/utils"
)

var (
	bracketTags  = regexp.MustCompile(`^\[([^\]]+)\]\s*(.*)$`)
	hashtagToken = regexp.MustCompile(`(?i)#[a-z0-9_-]+`)
	tagsLine     = regexp.MustCompile(`(?i)^tags?\s*:\s*(.+)$`)
	bulletMarker = regexp.MustCompile(`^[-*•]\s+`)
	headingMark  = regexp.MustCompile(`^#+\s*`)

	mdBold   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdItalic = regexp.MustCompile(`\*(.*?)\*`)
	mdUnder  = regexp.MustCompile(`__(.*?)__`)
	mdCode   = regexp.MustCompile("`([^`]+)`")
)

// Parser converts raw channel messages into entries.
type Parser struct {
	loc         *time.Location
	guildID     string
	channelID   string
	allowedTags []string
	now         func() time.Time
}

// NewParser builds a parser for one channel. An empty allow-list means
// any tag is accepted.
func NewParser(loc *time.Location, guildID, channelID string, allowedTags []string) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{
		loc:         loc,
		guildID:     guildID,
		channelID:   channelID,
		allowedTags: allowedTags,
		now:         time.Now,
	}
}

// Parse yields at most one entry per message, or nil when the message
// is not well-formed changelog content (no usable lines, no title).
func (p *Parser) Parse(msg Message) *Entry {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return nil
	}

	var lines []string
	for _, l := range strings.Split(content, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	var tags []string
	firstLine := lines[0]
	hadBracket := false

	// [core, security] Title...
	if m := bracketTags.FindStringSubmatch(lines[0]); m != nil {
		hadBracket = true
		tags = append(tags, splitTagList(m[1])...)
		firstLine = m[2]
	}

	// #core #security ...
	if hashes := hashtagToken.FindAllString(lines[0], -1); len(hashes) > 0 {
		for _, h := range hashes {
			tags = append(tags, utils.Slugify(strings.TrimPrefix(h, "#")))
		}
		firstLine = strings.TrimSpace(hashtagToken.ReplaceAllString(firstLine, ""))
	}

	// Tags: core, security (within the first three lines; the bracket
	// form on line one takes precedence)
	if !hadBracket {
		for _, l := range lines[:minInt(3, len(lines))] {
			if m := tagsLine.FindStringSubmatch(stripMarkdown(l)); m != nil {
				tags = append(tags, splitTagList(m[1])...)
				break
			}
		}
	}

	tags = normalizeTags(tags, p.allowedTags)

	entry := &Entry{
		ID:      msg.ID,
		Tags:    tags,
		Type:    utils.TitleFromSlug(tags[0]),
		Details: []string{},
	}

	// Title: the tag-stripped first line, else the first line that is
	// not a tag declaration.
	title := strings.TrimSpace(headingMark.ReplaceAllString(stripMarkdown(firstLine), ""))
	if tagsLine.MatchString(title) {
		// a bare tag declaration is not a title
		title = ""
	}
	if title == "" {
		for _, l := range lines {
			clean := stripMarkdown(l)
			if tagsLine.MatchString(clean) {
				continue
			}
			if clean == "" || strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "[") {
				continue
			}
			title = clean
			break
		}
	}
	if title == "" {
		return nil
	}
	entry.Title = title

	// Date/time from the creation timestamp, edit timestamp, or now.
	// Malformed timestamps never fail; they fall back silently.
	createdISO := msg.Timestamp
	if createdISO == "" {
		createdISO = msg.EditedTimestamp
	}
	entry.CreatedAt = createdISO

	dt := p.now()
	if createdISO != "" {
		if t, err := time.Parse(time.RFC3339, createdISO); err == nil {
			entry.CreatedAtMs = t.UnixMilli()
			dt = t
		}
	}
	entry.Date = dt.In(p.loc).Format("2006-01-02")
	entry.Time = dt.In(p.loc).Format("15:04")

	// Remaining lines: bullets become details, the rest becomes notes.
	var notes []string
	for _, l := range lines[1:] {
		clean := stripMarkdown(l)
		if clean == "" || tagsLine.MatchString(clean) {
			continue
		}
		if bulletMarker.MatchString(clean) {
			entry.Details = append(entry.Details, strings.TrimSpace(bulletMarker.ReplaceAllString(clean, "")))
		} else {
			notes = append(notes, clean)
		}
	}
	entry.Notes = strings.Join(notes, "\n")

	if p.guildID != "" && p.channelID != "" && msg.ID != "" {
		entry.URL = fmt.Sprintf("https://discord.com/channels/%s/%s/%s", p.guildID, p.channelID, msg.ID)
	}

	return entry
}

// ParseAll parses a batch, dropping messages that yield no entry.
func (p *Parser) ParseAll(msgs []Message) []Entry {
	entries := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		if e := p.Parse(m); e != nil {
			entries = append(entries, *e)
		}
	}
	return entries
}

func splitTagList(s string) []string {
	var out []string
	for _, t := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		out = append(out, utils.Slugify(t))
	}
	return out
}

// normalizeTags slugs, filters against the allow-list, dedupes
// preserving first-seen order, and defaults to ["other"].
func normalizeTags(tags, allowed []string) []string {
	allowedSet := map[string]bool{}
	for _, a := range allowed {
		allowedSet[a] = true
	}

	seen := map[string]bool{}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		slug := utils.Slugify(t)
		if slug == "" || seen[slug] {
			continue
		}
		if len(allowed) > 0 && !allowedSet[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, slug)
	}
	if len(out) == 0 {
		return []string{"other"}
	}
	return out
}

func stripMarkdown(s string) string {
	s = mdBold.ReplaceAllString(s, "$1")
	s = mdItalic.ReplaceAllString(s, "$1")
	s = mdUnder.ReplaceAllString(s, "$1")
	s = mdCode.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
