package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"newsdesk/db"
	"newsdesk/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read-only news query API",
		Description: `Starts the HTTP server exposing the stored items and sources as a
		JSON API: recent items, keyword search, per-source and per-category
		listings.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3000,
				Usage:   "Port to listen on",
				EnvVars: []string{"NEWSDESK_PORT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")

			if err := db.Migrate(database); err != nil {
				return err
			}

			reader, err := db.NewReader(database)
			if err != nil {
				return err
			}
			defer reader.Close()

			app := server.Server(&server.ServerConfig{Reader: reader})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			go func() {
				<-c
				fmt.Println("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
					log.Error("Error shutting down server", err)
				}
			}()

			addr := fmt.Sprintf(":%d", ctx.Int("port"))
			log.WithField("addr", addr).Info("Starting server")
			return app.Listen(addr)
		},
	}
}
