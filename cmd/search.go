package cmd

import (
	"errors"

	"newsdesk/db"

	"github.com/urfave/cli/v2"
)

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search stored items by keyword",
		ArgsUsage: "<keyword>",
		Description: `Case-insensitive substring search over item titles and
		descriptions, most recently fetched first.`,
		Flags: []cli.Flag{
			databaseFlag(),
			limitFlag(),
			jsonFlag(),
		},
		Action: func(ctx *cli.Context) error {
			keyword := ctx.Args().First()
			if keyword == "" {
				return errors.New("please specify a search keyword")
			}

			reader, err := db.NewReader(ctx.String("database"))
			if err != nil {
				return err
			}
			defer reader.Close()

			items, err := reader.SearchItems(keyword, ctx.Int("limit"))
			if err != nil {
				return err
			}

			return printItems(items, ctx.Bool("json"))
		},
	}
}
