package changelog

import "sort"

// SortEntries orders entries newest-first by timestamp, falling back to
// string-descending date comparison when timestamps are unavailable.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.CreatedAtMs != b.CreatedAtMs {
			return a.CreatedAtMs > b.CreatedAtMs
		}
		return a.Date > b.Date
	})
}

// Window partitions entries into the displayed window (first limit) and
// the overflow that becomes archive candidates.
func Window(entries []Entry, limit int) (displayed, overflow []Entry) {
	if limit < 0 {
		limit = 0
	}
	if len(entries) <= limit {
		return entries, nil
	}
	return entries[:limit], entries[limit:]
}

func dedupeByID(entries []Entry) []Entry {
	seen := map[string]bool{}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
