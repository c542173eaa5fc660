package main

import (
	"context"

	"zakatdesk/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply the database schema",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}

		ctx := context.Background()
		logger := newLogger()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		return migrate(ctx, pool, logger)
	},
}

func migrate(ctx context.Context, pool *pgxpool.Pool, logger *logrus.Logger) error {
	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info("schema applied")
	return nil
}
