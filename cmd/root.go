package cmd

import (
	"encoding/json"
	"fmt"

	"newsdesk/models"

	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "newsdesk",
		Usage: "Aggregate RSS feeds into a local news archive",
		Description: `Newsdesk fetches the feeds listed in a TOML configuration file,
		stores their entries in a local SQLite archive and lets you browse,
		search and export them.

		Re-running a fetch is idempotent: entries already stored are left
		untouched. Sources removed from the configuration are deactivated,
		never deleted, so their items stay browsable.

		Flags can generally be set via environment variables, e.g.:

		--database => NEWSDESK_DATABASE=news.db
		--config => NEWSDESK_CONFIG=feeds.toml
		`,
		Commands: []*cli.Command{
			fetchCmd(),
			recentCmd(),
			searchCmd(),
			digestCmd(),
			sourcesCmd(),
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func databaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Value:   "news.db",
		Usage:   "SQLite database file location",
		EnvVars: []string{"NEWSDESK_DATABASE"},
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "feeds.toml",
		Usage:   "Path to feeds configuration file",
		EnvVars: []string{"NEWSDESK_CONFIG"},
	}
}

func limitFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Value:   20,
		Usage:   "Maximum number of items to return",
	}
}

func activeFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "active",
		Usage: "Restrict to items from currently active sources",
	}
}

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print items as JSON objects, one per line",
	}
}

// printItems renders items either as single-line JSON objects (for
// piping to jq and friends) or as a compact human-readable listing.
func printItems(items []models.NewsItem, asJSON bool) error {
	if asJSON {
		for _, item := range items {
			encoded, err := json.Marshal(item)
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
		}
		return nil
	}

	for i, item := range items {
		date := ""
		if item.PublishedAt != nil {
			date = item.PublishedAt.Format("2006-01-02") + " - "
		}
		fmt.Printf("[%d] %s%s (%s)\n", i+1, date, item.Title, item.SourceName)
		fmt.Printf("    %s\n", item.URL)
	}
	return nil
}
