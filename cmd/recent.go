package cmd

import (
	"newsdesk/db"

	"github.com/urfave/cli/v2"
)

func recentCmd() *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List the most recently fetched items",
		Flags: []cli.Flag{
			databaseFlag(),
			limitFlag(),
			activeFlag(),
			jsonFlag(),
		},
		Action: func(ctx *cli.Context) error {
			reader, err := db.NewReader(ctx.String("database"))
			if err != nil {
				return err
			}
			defer reader.Close()

			items, err := reader.RecentItems(ctx.Int("limit"), ctx.Bool("active"))
			if err != nil {
				return err
			}

			return printItems(items, ctx.Bool("json"))
		},
	}
}
