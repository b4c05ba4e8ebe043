// Package changelog turns raw Discord channel messages into structured
// changelog entries, selects the display window, and archives entries
// that fall out of it into month buckets in the key-value store.
package changelog

// Message is the raw input: one chat message as returned by the
// channel listing API.
type Message struct {
	ID              string `json:"id"`
	Content         string `json:"content"`
	Timestamp       string `json:"timestamp"`
	EditedTimestamp string `json:"edited_timestamp"`
}

// Entry is one parsed changelog record.
type Entry struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Details     []string `json:"details"`
	Notes       string   `json:"notes"`
	CreatedAt   string   `json:"createdAt"`
	CreatedAtMs int64    `json:"createdAtMs"`
	URL         string   `json:"url,omitempty"`
}

// MonthCount is one row of the archive's navigational index.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}
