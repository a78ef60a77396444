package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"ktrek/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	vs, err := env.EnvsRequired(
		"DB_DSN",
	)
	if err != nil {
		log.Fatal(err)
	}

	container := NewContainer(vs)

	app := &cli.App{
		Name: "reconcile",
		Commands: []*cli.Command{
			commandReconcile(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandReconcile(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "replay progress, rewards and leaderboard from the completion ledger",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "user",
				Usage: "reconcile a single user id; omit to walk every user",
			},
		},
		Action: func(c *cli.Context) error {
			serviceReconcile, err := do.Invoke[*services.ServiceReconcile](container)
			if err != nil {
				return err
			}

			ctx := context.Background()

			if userID := c.Int64("user"); userID != 0 {
				report, err := serviceReconcile.Reconcile(ctx, userID)
				if err != nil {
					return err
				}

				fmt.Printf("user %d: awarded %d, skipped %d\n", report.UserID, len(report.Awarded), len(report.Skipped))
				return nil
			}

			reports, err := serviceReconcile.ReconcileAll(ctx)
			if err != nil {
				return err
			}

			awarded := 0
			for _, report := range reports {
				awarded += len(report.Awarded)
			}
			fmt.Printf("reconciled %d users, awarded %d rewards\n", len(reports), awarded)

			return nil
		},
	}
}
