package cmd

import (
	"fmt"
	"time"

	"newsdesk/db"
	"newsdesk/digest"
	"newsdesk/models"

	"github.com/urfave/cli/v2"
)

func digestCmd() *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "Write a Markdown digest of stored items",
		Description: `Exports stored items to a Markdown file grouped by source.
		Without filters the most recently fetched items are used.`,
		Flags: []cli.Flag{
			databaseFlag(),
			limitFlag(),
			activeFlag(),
			&cli.StringFlag{
				Name:  "source",
				Usage: "Only items from this source",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Only items in this category",
			},
			&cli.StringFlag{
				Name:    "out",
				Value:   "news_digests",
				Usage:   "Directory for Markdown digests",
				EnvVars: []string{"NEWSDESK_DIGEST_DIR"},
			},
			&cli.StringFlag{
				Name:  "filename",
				Usage: "Digest filename (default: timestamped)",
			},
		},
		Action: func(ctx *cli.Context) error {
			reader, err := db.NewReader(ctx.String("database"))
			if err != nil {
				return err
			}
			defer reader.Close()

			var items []models.NewsItem
			switch {
			case ctx.String("source") != "":
				items, err = reader.ItemsBySource(ctx.String("source"), ctx.Int("limit"), ctx.Bool("active"))
			case ctx.String("category") != "":
				items, err = reader.ItemsByCategory(ctx.String("category"), ctx.Int("limit"), ctx.Bool("active"))
			default:
				items, err = reader.RecentItems(ctx.Int("limit"), ctx.Bool("active"))
			}
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Println("No items matched; nothing to write")
				return nil
			}

			path, err := digest.Generate(items, time.Now(), ctx.String("out"), ctx.String("filename"))
			if err != nil {
				return err
			}

			fmt.Println("Digest written to", path)
			return nil
		},
	}
}
