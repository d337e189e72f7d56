package cmd

import (
	"fmt"
	"time"

	"newsdesk/config"
	"newsdesk/db"
	"newsdesk/digest"
	"newsdesk/ingest"
	"newsdesk/lifecycle"

	"github.com/urfave/cli/v2"
)

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch all configured feeds and store new items",
		Description: `Reconciles the source registry with the configuration file, then
		fetches every configured feed and stores the entries not seen before.

		A feed that is unreachable, malformed or slow is reported as failed
		and does not stop the rest of the batch.`,
		Flags: []cli.Flag{
			databaseFlag(),
			configFlag(),
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   30 * time.Second,
				Usage:   "Per-feed fetch timeout",
				EnvVars: []string{"NEWSDESK_FETCH_TIMEOUT"},
			},
			&cli.BoolFlag{
				Name:  "digest",
				Usage: "Write a Markdown digest of the newly stored items",
			},
			&cli.StringFlag{
				Name:    "digest-dir",
				Value:   "news_digests",
				Usage:   "Directory for Markdown digests",
				EnvVars: []string{"NEWSDESK_DIGEST_DIR"},
			},
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")

			if err := db.Migrate(database); err != nil {
				return err
			}

			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}

			writer, err := db.NewWriter(database)
			if err != nil {
				return err
			}
			defer writer.Close()

			if err := lifecycle.NewManager(writer).Reconcile(cfg); err != nil {
				return err
			}

			engine := ingest.NewEngine(ingest.NewFeedFetcher(), writer, ctx.Duration("timeout"))
			summary, err := engine.Run(ctx.Context, cfg.Feeds)
			if err != nil {
				return err
			}

			fmt.Printf("Fetched %d sources: %d succeeded, %d failed, %d new items\n",
				summary.Attempted, summary.Succeeded, summary.Failed, summary.NewItems)
			for _, outcome := range summary.Outcomes {
				if outcome.Err != nil {
					fmt.Printf("  %s: %v\n", outcome.Source, outcome.Err)
				}
			}

			if ctx.Bool("digest") && len(summary.Inserted) > 0 {
				path, err := digest.Generate(summary.Inserted, time.Now(), ctx.String("digest-dir"), "")
				if err != nil {
					return err
				}
				fmt.Println("Digest written to", path)
			}

			return nil
		},
	}
}
