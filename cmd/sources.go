package cmd

import (
	"errors"
	"fmt"

	"newsdesk/config"
	"newsdesk/db"
	"newsdesk/lifecycle"
	"newsdesk/models"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"
)

func sourcesCmd() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "Manage the feed source registry",
		Subcommands: []*cli.Command{
			sourcesListCmd(),
			sourcesReconcileCmd(),
			sourcesDeactivateCmd(),
			sourcesCleanupCmd(),
		},
	}
}

func sourcesListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List sources and their status",
		Flags: []cli.Flag{
			databaseFlag(),
			activeFlag(),
		},
		Action: func(ctx *cli.Context) error {
			reader, err := db.NewReader(ctx.String("database"))
			if err != nil {
				return err
			}
			defer reader.Close()

			sources, err := reader.ListSources(ctx.Bool("active"))
			if err != nil {
				return err
			}

			printSources(sources)
			return nil
		},
	}
}

func sourcesReconcileCmd() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "Sync the registry active set with the configuration",
		Description: `Makes the stored active set equal to the configured one: configured
		sources are created and activated, everything else is deactivated.
		Idempotent.`,
		Flags: []cli.Flag{
			databaseFlag(),
			configFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}

			writer, err := db.NewWriter(ctx.String("database"))
			if err != nil {
				return err
			}
			defer writer.Close()

			if err := lifecycle.NewManager(writer).Reconcile(cfg); err != nil {
				return err
			}

			fmt.Printf("Reconciled: %d sources active\n", len(cfg.Feeds))
			return nil
		},
	}
}

func sourcesDeactivateCmd() *cli.Command {
	return &cli.Command{
		Name:  "deactivate",
		Usage: "Deactivate sources missing from the configuration",
		Description: `Only flips removed sources to inactive; existing sources are never
		(re)activated. Use reconcile for full replace semantics.`,
		Flags: []cli.Flag{
			databaseFlag(),
			configFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}

			writer, err := db.NewWriter(ctx.String("database"))
			if err != nil {
				return err
			}
			defer writer.Close()

			count, err := lifecycle.NewManager(writer).DeactivateObsolete(cfg)
			if err != nil {
				return err
			}

			fmt.Printf("Deactivated %d obsolete sources\n", count)
			return nil
		},
	}
}

func sourcesCleanupCmd() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Permanently remove inactive sources",
		Description: `Deletes all inactive source rows from the registry. News items from
		removed sources are kept; they reference the source by name only.

		Without --yes the candidates are listed and you are asked to
		confirm.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
		Action: func(ctx *cli.Context) error {
			writer, err := db.NewWriter(ctx.String("database"))
			if err != nil {
				return err
			}
			defer writer.Close()

			manager := lifecycle.NewManager(writer)

			candidates, err := manager.Cleanup(ctx.Bool("yes"))
			if err != nil && !errors.Is(err, models.ErrConfirmationRequired) {
				return err
			}

			if len(candidates) == 0 {
				fmt.Println("No inactive sources to clean up")
				return nil
			}

			if errors.Is(err, models.ErrConfirmationRequired) {
				fmt.Println("Inactive sources:")
				printSources(candidates)

				answer, err := prompt.New().
					Ask(fmt.Sprintf("Permanently delete %d inactive sources?", len(candidates))).
					Choose([]string{"no", "yes"})
				if err != nil {
					return err
				}
				if answer != "yes" {
					fmt.Println("Cleanup cancelled")
					return nil
				}

				if _, err := manager.Cleanup(true); err != nil {
					return err
				}
			}

			fmt.Printf("Removed %d inactive sources\n", len(candidates))
			return nil
		},
	}
}

func printSources(sources []models.Source) {
	for _, source := range sources {
		status := "inactive"
		if source.Active {
			status = "active"
		}
		lastFetched := "never"
		if source.LastFetched != nil {
			lastFetched = source.LastFetched.Format("2006-01-02 15:04")
		}
		fmt.Printf("%s (%s) - %s - last fetched: %s\n", source.Name, source.Category, status, lastFetched)
	}
}
