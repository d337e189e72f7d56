// Package ingest pulls configured feeds into the local archive.
//
// Ingestion is fault-isolated per source: a feed that is down,
// malformed or slow is recorded as failed in the batch summary and
// the remaining sources are still processed. Store errors are the
// exception; they abort the run.
package ingest

import (
	"context"
	"errors"
	"time"

	"newsdesk/config"
	"newsdesk/db"
	"newsdesk/models"

	log "github.com/sirupsen/logrus"
)

const defaultSourceTimeout = 30 * time.Second

// Engine runs one synchronous ingestion pass over the configured
// sources. Sources are fetched sequentially so all writes stay on the
// single writer connection.
type Engine struct {
	fetcher Fetcher
	writer  *db.Writer
	timeout time.Duration
}

func NewEngine(fetcher Fetcher, writer *db.Writer, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &Engine{
		fetcher: fetcher,
		writer:  writer,
		timeout: timeout,
	}
}

// Run ingests every configured feed and returns the batch summary.
// The returned error is non-nil only for store failures; per-source
// fetch failures live in the summary outcomes.
func (engine *Engine) Run(ctx context.Context, feeds []config.Feed) (models.IngestSummary, error) {
	summary := models.IngestSummary{
		Attempted: len(feeds),
		Outcomes:  make([]models.SourceOutcome, 0, len(feeds)),
	}

	for _, feed := range feeds {
		fetchAttempts.Inc()

		inserted, err := engine.ingestSource(ctx, feed)
		if err != nil {
			if isStoreError(err) {
				return summary, err
			}

			log.WithFields(log.Fields{
				"source": feed.Name,
				"url":    feed.URL,
				"error":  err,
			}).Warn("Feed fetch failed")

			fetchFailures.WithLabelValues(failureReason(err)).Inc()
			summary.Failed++
			summary.Outcomes = append(summary.Outcomes, models.SourceOutcome{
				Source: feed.Name,
				Err:    err,
			})
			continue
		}

		log.WithFields(log.Fields{
			"source":   feed.Name,
			"newItems": len(inserted),
		}).Info("Feed ingested")

		itemsInserted.Add(float64(len(inserted)))
		summary.Succeeded++
		summary.NewItems += len(inserted)
		summary.Inserted = append(summary.Inserted, inserted...)
		summary.Outcomes = append(summary.Outcomes, models.SourceOutcome{
			Source:   feed.Name,
			NewItems: len(inserted),
		})
	}

	return summary, nil
}

// ingestSource fetches one feed and stores the items not yet seen.
// On fetch failure nothing is written and the source row keeps its
// previous status.
func (engine *Engine) ingestSource(ctx context.Context, feed config.Feed) ([]models.NewsItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, engine.timeout)
	defer cancel()

	start := time.Now()
	fetched, err := engine.fetcher.Fetch(fetchCtx, feed.URL)
	fetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var inserted []models.NewsItem

	for _, entry := range fetched {
		published := entry.PublishedAt
		if published == nil {
			// Feeds without dates fall back to fetch time
			published = &now
		}

		item := models.NewsItem{
			Title:       entry.Title,
			Description: entry.Summary,
			URL:         entry.Link,
			SourceName:  feed.Name,
			Category:    feed.Category,
			PublishedAt: published,
			FetchedAt:   now,
		}

		added, err := engine.writer.InsertItem(item)
		if err != nil {
			return inserted, err
		}
		if added {
			inserted = append(inserted, item)
		}
	}

	// A successful retrieval, even an empty one, refreshes the source
	if err := engine.writer.MarkSourceFetched(feed.Name, feed.URL, feed.Category, now); err != nil {
		return inserted, err
	}

	return inserted, nil
}

func isStoreError(err error) bool {
	return errors.Is(err, models.ErrStoreUnavailable) || errors.Is(err, models.ErrStoreConstraint)
}
