package main

import (
	"context"
	"fmt"

	"zakatdesk/internal/seed"

	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with fake applicants and cases",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of cases to create",
			Value:   40,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()
		logger := newLogger()

		app, err := newPostgresCore(ctx, cfg, logger, nil)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer app.Close()

		logger.Info("Connected to database")

		if err := migrate(ctx, app.pool, logger); err != nil {
			return err
		}

		logger.Info("Seeding applicants...")
		if err := seed.SeedApplicants(ctx, app.applicants); err != nil {
			return fmt.Errorf("failed to seed applicants: %w", err)
		}

		logger.Info("Seeding cases...")
		if err := seed.SeedCases(ctx, app.cases, c.Int("count"), nil); err != nil {
			return fmt.Errorf("failed to seed cases: %w", err)
		}

		logger.Info("Seed complete")

		return nil
	},
}
