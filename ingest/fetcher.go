package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"newsdesk/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/mmcdole/gofeed"
)

const (
	userAgent     = "newsdesk/1.0 (+https://github.com/newsdesk)"
	maxSummaryLen = 200
)

// Fetcher retrieves the current item list for a feed URL. Errors are
// classified as unreachable, invalid-format or timeout via the
// models sentinels.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]models.FeedItem, error)
}

// FeedFetcher fetches RSS/Atom feeds with gofeed. Transient failures
// are retried with exponential backoff; malformed feeds are not.
type FeedFetcher struct {
	client *http.Client
}

func NewFeedFetcher() *FeedFetcher {
	return &FeedFetcher{
		client: &http.Client{},
	}
}

func (fetcher *FeedFetcher) Fetch(ctx context.Context, url string) ([]models.FeedItem, error) {
	var items []models.FeedItem

	operation := func() error {
		fetched, err := fetcher.fetchOnce(ctx, url)
		if err != nil {
			// Retrying a malformed document will not fix it
			if errors.Is(err, models.ErrFeedInvalidFormat) {
				return backoff.Permanent(err)
			}
			return err
		}
		items = fetched
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, 2), ctx)); err != nil {
		return nil, err
	}

	return items, nil
}

func (fetcher *FeedFetcher) fetchOnce(ctx context.Context, url string) ([]models.FeedItem, error) {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = fetcher.client

	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, classifyFetchError(err)
	}

	items := make([]models.FeedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}
		summary = truncate(stripHTML(summary), maxSummaryLen)

		var published *time.Time
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed
		}

		items = append(items, models.FeedItem{
			Title:       entry.Title,
			Link:        entry.Link,
			Summary:     summary,
			PublishedAt: published,
		})
	}

	return items, nil
}

// classifyFetchError maps transport and parse failures onto the feed
// error kinds. Anything that got a body but failed to parse counts as
// invalid format.
func classifyFetchError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", models.ErrFeedTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrFeedTimeout, err)
	}

	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Errorf("%w: %v", models.ErrFeedUnreachable, err)
	}

	// Transport-level failures (refused connections, DNS) arrive as
	// url.Error or net.OpError from the HTTP client
	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", models.ErrFeedUnreachable, err)
	}

	return fmt.Errorf("%w: %v", models.ErrFeedInvalidFormat, err)
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
	)
)

// stripHTML reduces a feed summary to plain text.
func stripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
