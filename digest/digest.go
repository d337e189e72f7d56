// Package digest renders stored news items into Markdown digest
// files, grouped by source.
package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"newsdesk/models"

	"github.com/samber/lo"
)

const timestampLayout = "2006-01-02_15-04-05"

// Generate writes a Markdown digest of the given items to outDir and
// returns the file path. An empty filename picks a timestamped one.
func Generate(items []models.NewsItem, generatedAt time.Time, outDir string, filename string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("creating digest directory: %w", err)
	}

	if filename == "" {
		filename = generatedAt.Format(timestampLayout) + "_news_digest.md"
	}
	path := filepath.Join(outDir, filename)

	if err := os.WriteFile(path, []byte(Render(items, generatedAt)), 0644); err != nil {
		return "", fmt.Errorf("writing digest: %w", err)
	}

	return path, nil
}

// Render produces the digest document as a string.
func Render(items []models.NewsItem, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# News Digest\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", generatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Total Items:** %d\n\n", len(items))

	grouped := lo.GroupBy(items, func(item models.NewsItem) string { return item.SourceName })

	names := lo.Keys(grouped)
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(&b, "## %s\n\n", name)

		for _, item := range grouped[name] {
			fmt.Fprintf(&b, "### %s\n\n", item.Title)
			fmt.Fprintf(&b, "**Source:** %s  \n", item.SourceName)
			if item.PublishedAt != nil {
				fmt.Fprintf(&b, "**Published:** %s  \n", item.PublishedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(&b, "**URL:** [%s](%s)  \n\n", ExtractDomain(item.URL), item.URL)

			if item.Description != "" {
				b.WriteString(strings.ReplaceAll(item.Description, "\n", " "))
				b.WriteString("\n\n")
			}

			b.WriteString("---\n\n")
		}
	}

	return b.String()
}

// ExtractDomain reduces a URL to its host for cleaner display.
func ExtractDomain(url string) string {
	domain := url
	if idx := strings.Index(domain, "://"); idx >= 0 {
		domain = domain[idx+3:]
	}
	if idx := strings.IndexByte(domain, '/'); idx >= 0 {
		domain = domain[:idx]
	}
	return strings.TrimPrefix(domain, "www.")
}
