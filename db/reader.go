package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"newsdesk/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

// Membership test against the currently active source names. Kept as
// a subquery so it sees the same statement-level snapshot as the rest
// of the query.
const activeSourceFilter = "source_name IN (SELECT name FROM sources WHERE is_active = 1)"

// Reader answers read-only queries over the item archive and the
// source registry.
type Reader struct {
	db *sql.DB
}

func NewReader(database string) (*Reader, error) {
	// Open in read-only mode with settings tuned for reads
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?mode=ro&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", database))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	db.SetMaxOpenConns(4) // Allow multiple concurrent readers
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)

	if _, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -32000; -- 32MB cache
		PRAGMA temp_store = MEMORY;
		PRAGMA mmap_size = 268435456; -- 256MB memory mapped I/O
		PRAGMA page_size = 4096;      -- Optimal page size for most systems
		PRAGMA read_uncommitted = 1;   -- Allow dirty reads for better concurrency
	`); err != nil {
		return nil, fmt.Errorf("%w: failed to set pragmas: %v", models.ErrStoreUnavailable, err)
	}

	return &Reader{db: db}, nil
}

func (reader *Reader) Close() error {
	return reader.db.Close()
}

func itemSelect(limit int, activeOnly bool) *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "title", "description", "url", "source_name", "category", "published_at", "fetched_at")
	sb.From("news_items")
	if activeOnly {
		sb.Where(activeSourceFilter)
	}
	// Ties on fetched_at fall back to rowid, i.e. insertion order
	sb.OrderBy("fetched_at DESC", "id ASC")
	sb.Limit(limit)
	return sb
}

func (reader *Reader) queryItems(sb *sqlbuilder.SelectBuilder) ([]models.NewsItem, error) {
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := reader.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var items []models.NewsItem
	for rows.Next() {
		var (
			item        models.NewsItem
			description sql.NullString
			category    sql.NullString
			published   sql.NullInt64
			fetched     int64
		)
		if err := rows.Scan(&item.Id, &item.Title, &description, &item.URL, &item.SourceName, &category, &published, &fetched); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		item.Description = description.String
		item.Category = category.String
		if published.Valid {
			t := time.Unix(published.Int64, 0)
			item.PublishedAt = &t
		}
		item.FetchedAt = time.Unix(fetched, 0)
		items = append(items, item)
	}

	return items, rows.Err()
}

// RecentItems returns up to limit items, most recently fetched first.
func (reader *Reader) RecentItems(limit int, activeOnly bool) ([]models.NewsItem, error) {
	return reader.queryItems(itemSelect(limit, activeOnly))
}

// ItemsBySource returns items attributed to the named source. An
// inactive or deleted source with activeOnly set yields an empty
// result, not an error.
func (reader *Reader) ItemsBySource(source string, limit int, activeOnly bool) ([]models.NewsItem, error) {
	sb := itemSelect(limit, activeOnly)
	sb.Where(sb.Equal("source_name", source))
	return reader.queryItems(sb)
}

// ItemsByCategory returns items filed under the given category at
// ingestion time.
func (reader *Reader) ItemsByCategory(category string, limit int, activeOnly bool) ([]models.NewsItem, error) {
	sb := itemSelect(limit, activeOnly)
	sb.Where(sb.Equal("category", category))
	return reader.queryItems(sb)
}

// SearchItems matches the keyword case-insensitively against title or
// description. Results are unfiltered by source status.
func (reader *Reader) SearchItems(keyword string, limit int) ([]models.NewsItem, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"

	sb := itemSelect(limit, false)
	sb.Where(sb.Or(
		sb.Like("LOWER(title)", pattern),
		sb.Like("LOWER(description)", pattern),
	))
	return reader.queryItems(sb)
}

// ListSources returns registry rows ordered by name.
func (reader *Reader) ListSources(activeOnly bool) ([]models.Source, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("name", "url", "category", "is_active", "last_fetched").From("sources")
	if activeOnly {
		sb.Where(sb.Equal("is_active", 1))
	}
	sb.OrderBy("name").Asc()
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := reader.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// ListCategories returns the distinct categories of the registered
// sources, ordered alphabetically.
func (reader *Reader) ListCategories(activeOnly bool) ([]string, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("DISTINCT category").From("sources")
	sb.Where(sb.NotEqual("category", ""))
	if activeOnly {
		sb.Where(sb.Equal("is_active", 1))
	}
	sb.OrderBy("category").Asc()
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := reader.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func scanSources(rows *sql.Rows) ([]models.Source, error) {
	var sources []models.Source
	for rows.Next() {
		var (
			source      models.Source
			url         sql.NullString
			category    sql.NullString
			active      int
			lastFetched sql.NullInt64
		)
		if err := rows.Scan(&source.Name, &url, &category, &active, &lastFetched); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		source.URL = url.String
		source.Category = category.String
		source.Active = active != 0
		if lastFetched.Valid {
			t := time.Unix(lastFetched.Int64, 0)
			source.LastFetched = &t
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}
