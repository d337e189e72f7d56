package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsdesk/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Writer owns the single writer connection. All registry and item
// mutations go through it so duplicate-insert checks never race.
type Writer struct {
	db *sql.DB
}

func NewWriter(database string) (*Writer, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return &Writer{db: db}, nil
}

func (writer *Writer) Close() error {
	return writer.db.Close()
}

// storeErr maps driver errors onto the store error kinds. Unique
// violations are kept distinct as a backstop behind the
// insert-if-absent check.
func storeErr(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", models.ErrStoreConstraint, err)
		}
	}
	return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
}

// InsertItem stores the item unless a row with the same
// (source_name, url) already exists. First-seen data wins; existing
// rows are never updated. Returns true when a new row was written.
func (writer *Writer) InsertItem(item models.NewsItem) (bool, error) {
	selectItem := sqlbuilder.NewSelectBuilder()
	selectItem.Select("COUNT(*)").From("news_items")
	selectItem.Where(
		selectItem.Equal("source_name", item.SourceName),
		selectItem.Equal("url", item.URL),
	)
	query, args := selectItem.BuildWithFlavor(sqlbuilder.SQLite)

	var count int
	if err := writer.db.QueryRow(query, args...).Scan(&count); err != nil {
		return false, storeErr(err)
	}
	if count > 0 {
		return false, nil
	}

	var published interface{}
	if item.PublishedAt != nil {
		published = item.PublishedAt.Unix()
	}

	insertItem := sqlbuilder.NewInsertBuilder()
	insertItem.InsertInto("news_items").
		Cols("source_name", "url", "title", "description", "category", "published_at", "fetched_at").
		Values(item.SourceName, item.URL, item.Title, item.Description, item.Category, published, item.FetchedAt.Unix())
	query, args = insertItem.BuildWithFlavor(sqlbuilder.SQLite)

	if _, err := writer.db.Exec(query, args...); err != nil {
		return false, storeErr(err)
	}

	return true, nil
}

// MarkSourceFetched records a successful fetch: the source row is
// created if missing and flagged active with a fresh last_fetched.
// Fetch failures must not call this; a transient error leaves the
// row untouched.
func (writer *Writer) MarkSourceFetched(name string, url string, category string, fetched time.Time) error {
	log.WithFields(log.Fields{
		"source":  name,
		"fetched": fetched.Format(time.RFC3339),
	}).Debug("Marking source fetched")

	_, err := writer.db.Exec(`
		INSERT INTO sources (name, url, category, is_active, last_fetched)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET
			is_active = 1,
			last_fetched = excluded.last_fetched,
			url = excluded.url,
			category = excluded.category`,
		name, url, category, fetched.Unix(),
	)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// ReconcileSources replaces the active set with the given sources:
// rows absent from the list go inactive, listed rows go active and
// are created when missing. Idempotent; last_fetched is not touched.
func (writer *Writer) ReconcileSources(sources []models.Source) error {
	tx, err := writer.db.Begin()
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	names := lo.Map(sources, func(source models.Source, _ int) string { return source.Name })

	deactivate := sqlbuilder.NewUpdateBuilder()
	deactivate.Update("sources").Set(deactivate.Assign("is_active", 0))
	if len(names) > 0 {
		deactivate.Where(deactivate.NotIn("name", lo.ToAnySlice(names)...))
	}
	query, args := deactivate.BuildWithFlavor(sqlbuilder.SQLite)

	if _, err := tx.Exec(query, args...); err != nil {
		return storeErr(err)
	}

	for _, source := range sources {
		_, err := tx.Exec(`
			INSERT INTO sources (name, url, category, is_active)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(name) DO UPDATE SET
				is_active = 1,
				url = excluded.url,
				category = excluded.category`,
			source.Name, source.URL, source.Category,
		)
		if err != nil {
			return storeErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	return nil
}

// DeactivateSourcesExcept flips active sources not in the given list
// to inactive. Unlike ReconcileSources it never (re)activates rows.
// Returns the number of sources deactivated.
func (writer *Writer) DeactivateSourcesExcept(names []string) (int64, error) {
	deactivate := sqlbuilder.NewUpdateBuilder()
	deactivate.Update("sources").Set(deactivate.Assign("is_active", 0))
	deactivate.Where(deactivate.Equal("is_active", 1))
	if len(names) > 0 {
		deactivate.Where(deactivate.NotIn("name", lo.ToAnySlice(names)...))
	}
	query, args := deactivate.BuildWithFlavor(sqlbuilder.SQLite)

	res, err := writer.db.Exec(query, args...)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.RowsAffected()
}

// InactiveSources lists the rows a cleanup would remove, ordered by
// name.
func (writer *Writer) InactiveSources() ([]models.Source, error) {
	selectSources := sqlbuilder.NewSelectBuilder()
	selectSources.Select("name", "url", "category", "is_active", "last_fetched").From("sources")
	selectSources.Where(selectSources.Equal("is_active", 0))
	selectSources.OrderBy("name").Asc()
	query, args := selectSources.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := writer.db.Query(query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// DeleteInactiveSources removes all inactive source rows. News items
// are retained on purpose: they reference the source by name only,
// so history survives registry cleanup.
func (writer *Writer) DeleteInactiveSources() (int64, error) {
	deleteSources := sqlbuilder.NewDeleteBuilder()
	deleteSources.DeleteFrom("sources")
	deleteSources.Where(deleteSources.Equal("is_active", 0))
	query, args := deleteSources.BuildWithFlavor(sqlbuilder.SQLite)

	res, err := writer.db.Exec(query, args...)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.RowsAffected()
}
