package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"newsdesk/db"
	"newsdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*db.Writer, *db.Reader) {
	t.Helper()

	database := filepath.Join(t.TempDir(), "news.db")
	require.NoError(t, db.Migrate(database))

	writer, err := db.NewWriter(database)
	require.NoError(t, err)
	t.Cleanup(func() { writer.Close() })

	reader, err := db.NewReader(database)
	require.NoError(t, err)
	t.Cleanup(func() { reader.Close() })

	return writer, reader
}

func item(source, url, title string, fetched time.Time) models.NewsItem {
	return models.NewsItem{
		Title:       title,
		Description: "description of " + title,
		URL:         url,
		SourceName:  source,
		Category:    "tech",
		FetchedAt:   fetched,
	}
}

func TestInsertItemDeduplicates(t *testing.T) {
	writer, reader := newTestStore(t)
	now := time.Now()

	added, err := writer.InsertItem(item("A", "https://a.example/1", "first", now))
	require.NoError(t, err)
	assert.True(t, added)

	// Same (source, url) again: no-op, first-seen data wins
	added, err = writer.InsertItem(item("A", "https://a.example/1", "changed title", now.Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, added)

	// Same url under a different source is a different item
	added, err = writer.InsertItem(item("B", "https://a.example/1", "first", now))
	require.NoError(t, err)
	assert.True(t, added)

	items, err := reader.RecentItems(10, false)
	require.NoError(t, err)
	require.Len(t, items, 2)

	stored, err := reader.ItemsBySource("A", 10, false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "first", stored[0].Title)
	assert.Equal(t, now.Unix(), stored[0].FetchedAt.Unix())
}

func TestMarkSourceFetched(t *testing.T) {
	writer, reader := newTestStore(t)

	first := time.Now().Add(-time.Hour)
	require.NoError(t, writer.MarkSourceFetched("A", "https://a.example/feed", "tech", first))

	sources, err := reader.ListSources(false)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.True(t, sources[0].Active)
	require.NotNil(t, sources[0].LastFetched)
	assert.Equal(t, first.Unix(), sources[0].LastFetched.Unix())

	// A later fetch refreshes the timestamp on the same row
	second := time.Now()
	require.NoError(t, writer.MarkSourceFetched("A", "https://a.example/feed", "tech", second))

	sources, err = reader.ListSources(false)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, second.Unix(), sources[0].LastFetched.Unix())
}

func TestReconcileSources(t *testing.T) {
	writer, reader := newTestStore(t)

	configured := []models.Source{
		{Name: "A", URL: "https://a.example/feed", Category: "tech"},
		{Name: "B", URL: "https://b.example/feed", Category: "world"},
	}
	require.NoError(t, writer.ReconcileSources(configured))

	active, err := reader.ListSources(true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	// Applying the same configuration again changes nothing
	require.NoError(t, writer.ReconcileSources(configured))
	again, err := reader.ListSources(true)
	require.NoError(t, err)
	assert.Equal(t, active, again)

	// Dropping B deactivates it but keeps the row
	require.NoError(t, writer.ReconcileSources(configured[:1]))

	all, err := reader.ListSources(false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Active)     // A
	assert.False(t, all[1].Active)    // B
	assert.Equal(t, "B", all[1].Name) // ordered by name

	// Re-adding B reactivates the existing row
	require.NoError(t, writer.ReconcileSources(configured))
	active, err = reader.ListSources(true)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestDeactivateSourcesExcept(t *testing.T) {
	writer, reader := newTestStore(t)

	require.NoError(t, writer.ReconcileSources([]models.Source{
		{Name: "A"}, {Name: "B"}, {Name: "C"},
	}))

	count, err := writer.DeactivateSourcesExcept([]string{"A"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Unlike reconcile, it never reactivates
	count, err = writer.DeactivateSourcesExcept([]string{"A", "B", "C"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	active, err := reader.ListSources(true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "A", active[0].Name)
}

func TestDeleteInactiveSourcesKeepsItems(t *testing.T) {
	writer, reader := newTestStore(t)
	now := time.Now()

	require.NoError(t, writer.MarkSourceFetched("Old", "https://old.example/feed", "tech", now))
	_, err := writer.InsertItem(item("Old", "https://old.example/1", "kept", now))
	require.NoError(t, err)

	require.NoError(t, writer.ReconcileSources(nil))

	inactive, err := writer.InactiveSources()
	require.NoError(t, err)
	require.Len(t, inactive, 1)

	removed, err := writer.DeleteInactiveSources()
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	sources, err := reader.ListSources(false)
	require.NoError(t, err)
	assert.Empty(t, sources)

	// The item survives with a dangling source name
	items, err := reader.ItemsBySource("Old", 10, false)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRecentItemsOrderingAndFiltering(t *testing.T) {
	writer, reader := newTestStore(t)
	base := time.Now().Add(-time.Hour)

	require.NoError(t, writer.MarkSourceFetched("A", "https://a.example/feed", "tech", base))
	require.NoError(t, writer.MarkSourceFetched("B", "https://b.example/feed", "world", base))

	for i, it := range []models.NewsItem{
		item("A", "https://a.example/1", "oldest", base),
		item("B", "https://b.example/1", "middle", base.Add(time.Minute)),
		item("A", "https://a.example/2", "newest", base.Add(2*time.Minute)),
	} {
		added, err := writer.InsertItem(it)
		require.NoError(t, err, "item %d", i)
		require.True(t, added)
	}

	items, err := reader.RecentItems(10, false)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "newest", items[0].Title)
	assert.Equal(t, "middle", items[1].Title)
	assert.Equal(t, "oldest", items[2].Title)

	// Limit applies after ordering
	items, err = reader.RecentItems(2, false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "newest", items[0].Title)

	// Deactivate B: active-only hides its items, unfiltered is a superset
	require.NoError(t, writer.ReconcileSources([]models.Source{{Name: "A", URL: "https://a.example/feed", Category: "tech"}}))

	activeItems, err := reader.RecentItems(10, true)
	require.NoError(t, err)
	require.Len(t, activeItems, 2)
	for _, it := range activeItems {
		assert.Equal(t, "A", it.SourceName)
	}

	allItems, err := reader.RecentItems(10, false)
	require.NoError(t, err)
	assert.Len(t, allItems, 3)
}

func TestRecentItemsTiesKeepInsertionOrder(t *testing.T) {
	writer, reader := newTestStore(t)

	// One fetch batch: every item shares the same unix-second timestamp
	fetched := time.Now()
	for _, it := range []models.NewsItem{
		item("A", "https://a.example/1", "first", fetched),
		item("A", "https://a.example/2", "second", fetched),
		item("A", "https://a.example/3", "third", fetched),
	} {
		added, err := writer.InsertItem(it)
		require.NoError(t, err)
		require.True(t, added)
	}

	items, err := reader.RecentItems(10, false)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "first", items[0].Title)
	assert.Equal(t, "second", items[1].Title)
	assert.Equal(t, "third", items[2].Title)
}

func TestItemsBySourceActiveOnly(t *testing.T) {
	writer, reader := newTestStore(t)
	now := time.Now()

	require.NoError(t, writer.MarkSourceFetched("A", "https://a.example/feed", "tech", now))
	_, err := writer.InsertItem(item("A", "https://a.example/1", "one", now))
	require.NoError(t, err)

	require.NoError(t, writer.ReconcileSources(nil)) // deactivate everything

	// Inactive source with activeOnly: empty, not an error
	items, err := reader.ItemsBySource("A", 10, true)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = reader.ItemsBySource("A", 10, false)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// Unknown source: empty both ways
	items, err = reader.ItemsBySource("nope", 10, false)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItemsByCategory(t *testing.T) {
	writer, reader := newTestStore(t)
	now := time.Now()

	techItem := item("A", "https://a.example/1", "tech story", now)
	worldItem := item("B", "https://b.example/1", "world story", now)
	worldItem.Category = "world"

	_, err := writer.InsertItem(techItem)
	require.NoError(t, err)
	_, err = writer.InsertItem(worldItem)
	require.NoError(t, err)

	items, err := reader.ItemsByCategory("world", 10, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "world story", items[0].Title)
}

func TestSearchItems(t *testing.T) {
	writer, reader := newTestStore(t)
	now := time.Now()

	one := item("A", "https://a.example/1", "Go 1.23 released", now)
	two := item("A", "https://a.example/2", "Weather report", now.Add(time.Minute))
	two.Description = "Nothing about golang here, or is there"

	_, err := writer.InsertItem(one)
	require.NoError(t, err)
	_, err = writer.InsertItem(two)
	require.NoError(t, err)

	tests := []struct {
		name    string
		keyword string
		want    []string
	}{
		{
			name:    "title match case-insensitive",
			keyword: "go 1.23",
			want:    []string{"Go 1.23 released"},
		},
		{
			name:    "description match",
			keyword: "GOLANG",
			want:    []string{"Weather report"},
		},
		{
			name:    "no match",
			keyword: "cricket",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := reader.SearchItems(tt.keyword, 10)
			require.NoError(t, err)

			var titles []string
			for _, it := range items {
				titles = append(titles, it.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestListCategories(t *testing.T) {
	writer, reader := newTestStore(t)
	now := time.Now()

	require.NoError(t, writer.MarkSourceFetched("A", "https://a.example/feed", "tech", now))
	require.NoError(t, writer.MarkSourceFetched("B", "https://b.example/feed", "world", now))
	require.NoError(t, writer.MarkSourceFetched("C", "https://c.example/feed", "tech", now))

	categories, err := reader.ListCategories(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"tech", "world"}, categories)

	_, err = writer.DeactivateSourcesExcept([]string{"A", "C"})
	require.NoError(t, err)

	categories, err = reader.ListCategories(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"tech"}, categories)
}
