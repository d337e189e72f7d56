package models

import "time"

// Source is a configured feed endpoint with its lifecycle status.
// Sources are identified by name; the name is what news items refer
// back to, so a Source row can be deleted while its items survive.
type Source struct {
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Category    string     `json:"category"`
	Active      bool       `json:"active"`
	LastFetched *time.Time `json:"lastFetched,omitempty"`
}

// NewsItem is a single ingested feed entry. Identity is the
// (SourceName, URL) pair; re-fetching the same entry is a no-op.
// Category is copied from the source at ingestion time so historic
// items keep the category they were filed under.
type NewsItem struct {
	Id          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	SourceName  string     `json:"sourceName"`
	Category    string     `json:"category"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	FetchedAt   time.Time  `json:"fetchedAt"`
}

// FeedItem is a normalized entry as returned by the feed parser,
// before it is attributed to a source and stored.
type FeedItem struct {
	Title       string
	Link        string
	Summary     string
	PublishedAt *time.Time
}

// SourceOutcome records how a single source fared during an
// ingestion run. Err is nil on success.
type SourceOutcome struct {
	Source   string `json:"source"`
	NewItems int    `json:"newItems"`
	Err      error  `json:"-"`
}

// IngestSummary is the batch result of one ingestion run. Inserted
// holds only the items that were actually new, in insertion order.
type IngestSummary struct {
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	NewItems  int             `json:"newItems"`
	Outcomes  []SourceOutcome `json:"outcomes"`
	Inserted  []NewsItem      `json:"-"`
}
