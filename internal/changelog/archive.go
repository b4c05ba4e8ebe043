package changelog

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"

	"github.com/istoking/illicitrp-site/internal/kv"
)

const (
	keyDisplayed    = "changelog:displayed"
	keyArchiveIndex = "changelog:archive:index"
	keyMonthPrefix  = "changelog:archive:"
)

var monthKey = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Archiver persists entries that fall out of the display window into
// per-month buckets. All storage operations are best-effort: failures
// degrade to empty data and are reported on the result, never returned
// as errors, because the archive must not break the changelog response.
type Archiver struct {
	store        kv.Store // nil disables archiving entirely
	displayLimit int
	monthLimit   int
}

// ArchiveResult is the archive block of a changelog run. Degraded and
// Reason are diagnostics for logging, not part of the response body.
type ArchiveResult struct {
	Enabled          bool         `json:"enabled"`
	RecentlyArchived []Entry      `json:"recentlyArchived"`
	Index            []MonthCount `json:"index"`
	Degraded         bool         `json:"-"`
	Reason           string       `json:"-"`
}

func NewArchiver(store kv.Store, displayLimit, monthLimit int) *Archiver {
	return &Archiver{store: store, displayLimit: displayLimit, monthLimit: monthLimit}
}

// Enabled reports whether a backing store is configured.
func (a *Archiver) Enabled() bool { return a.store != nil }

// Run performs one archival pass: diff the current display window
// against the previous run's snapshot, persist overflow plus moved-out
// entries into month buckets, refresh the index, and store the new
// snapshot. all must contain displayed as its prefix (the full parsed
// list, newest first).
func (a *Archiver) Run(ctx context.Context, all, displayed, overflow []Entry) ArchiveResult {
	res := ArchiveResult{RecentlyArchived: []Entry{}, Index: []MonthCount{}}
	if a.store == nil {
		return res
	}
	res.Enabled = true

	var prevIDs []string
	a.getJSON(ctx, keyDisplayed, &prevIDs, &res)
	if len(prevIDs) > a.displayLimit {
		prevIDs = prevIDs[:a.displayLimit]
	}

	currIDs := entryIDs(displayed)
	currSet := map[string]bool{}
	for _, id := range currIDs {
		currSet[id] = true
	}

	// Entries that were in last run's window but no longer are: they
	// got pushed past the cutoff and must be archived now, even when
	// the absolute overflow list is empty.
	byID := map[string]Entry{}
	for _, e := range all {
		byID[e.ID] = e
	}
	var moved []Entry
	for _, id := range prevIDs {
		if currSet[id] {
			continue
		}
		if e, ok := byID[id]; ok {
			moved = append(moved, e)
		}
	}

	toArchive := dedupeByID(append(append([]Entry{}, overflow...), moved...))

	index := map[string]int{}
	if len(toArchive) > 0 {
		a.getJSON(ctx, keyArchiveIndex, &index, &res)

		for _, entry := range toArchive {
			ym := monthOf(entry)
			key := keyMonthPrefix + ym

			var bucket []Entry
			a.getJSON(ctx, key, &bucket, &res)

			bucket = upsertEntry(bucket, entry)
			sort.SliceStable(bucket, func(i, j int) bool {
				return bucket[i].CreatedAtMs > bucket[j].CreatedAtMs
			})
			if len(bucket) > a.monthLimit {
				bucket = bucket[:a.monthLimit]
			}

			a.putJSON(ctx, key, bucket, &res)
			index[ym] = len(bucket)
		}

		a.putJSON(ctx, keyArchiveIndex, index, &res)
	} else {
		// Nothing to write; refresh the index summary read-only.
		a.getJSON(ctx, keyArchiveIndex, &index, &res)
	}
	res.Index = indexToCounts(index)

	recent := append([]Entry{}, moved...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAtMs > recent[j].CreatedAtMs
	})
	if len(recent) > 5 {
		recent = recent[:5]
	}
	res.RecentlyArchived = recent

	// The new snapshot is written even when nothing was archived, so
	// the next run diffs against what this run actually displayed.
	a.putJSON(ctx, keyDisplayed, currIDs, &res)

	return res
}

// Month returns one month bucket, empty when absent or on store error.
func (a *Archiver) Month(ctx context.Context, month string) []Entry {
	entries := []Entry{}
	if a.store == nil {
		return entries
	}
	var res ArchiveResult
	a.getJSON(ctx, keyMonthPrefix+month, &entries, &res)
	return entries
}

// Index returns the navigational month index, newest month first.
func (a *Archiver) Index(ctx context.Context) []MonthCount {
	index := map[string]int{}
	if a.store == nil {
		return []MonthCount{}
	}
	var res ArchiveResult
	a.getJSON(ctx, keyArchiveIndex, &index, &res)
	return indexToCounts(index)
}

// ValidMonth reports whether s is a YYYY-MM key.
func ValidMonth(s string) bool { return monthKey.MatchString(s) }

func monthOf(e Entry) string {
	if len(e.Date) >= 7 {
		return e.Date[:7]
	}
	return "unknown"
}

// upsertEntry replaces an existing entry with the same id in place,
// otherwise appends.
func upsertEntry(bucket []Entry, entry Entry) []Entry {
	for i, e := range bucket {
		if e.ID == entry.ID {
			bucket[i] = entry
			return bucket
		}
	}
	return append(bucket, entry)
}

// indexToCounts keeps only real YYYY-MM keys, sorted newest first.
func indexToCounts(index map[string]int) []MonthCount {
	months := make([]string, 0, len(index))
	for m := range index {
		if monthKey.MatchString(m) {
			months = append(months, m)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	out := make([]MonthCount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthCount{Month: m, Count: index[m]})
	}
	return out
}

func (a *Archiver) getJSON(ctx context.Context, key string, dest any, res *ArchiveResult) {
	raw, ok, err := a.store.Get(ctx, key)
	if err != nil {
		res.degrade("kv get " + key + ": " + err.Error())
		return
	}
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		res.degrade("kv decode " + key + ": " + err.Error())
	}
}

func (a *Archiver) putJSON(ctx context.Context, key string, value any, res *ArchiveResult) {
	raw, err := json.Marshal(value)
	if err != nil {
		res.degrade("kv encode " + key + ": " + err.Error())
		return
	}
	if err := a.store.Put(ctx, key, raw, 0); err != nil {
		res.degrade("kv put " + key + ": " + err.Error())
	}
}

func (r *ArchiveResult) degrade(reason string) {
	if !r.Degraded {
		r.Degraded = true
		r.Reason = reason
	}
}
