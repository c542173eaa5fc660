package main

import (
	"context"
	"fmt"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var caseCommand = &cli.Command{
	Name:  "case",
	Usage: "Inspect cases",
	Subcommands: []*cli.Command{
		{
			Name:      "show",
			Usage:     "Print a case with its history and disbursements",
			ArgsUsage: "<case-id>",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "no-color", Usage: "Disable colored output"},
			},
			Action: showCase,
		},
	},
}

func showCase(c *cli.Context) error {
	caseID := c.Args().First()
	if caseID == "" {
		return fmt.Errorf("case id is required")
	}

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx := context.Background()
	logger := newLogger()

	app, err := newPostgresCore(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	record, err := app.cases.GetCase(ctx, caseID)
	if err != nil {
		return err
	}

	history, err := app.cases.GetCaseHistory(ctx, caseID)
	if err != nil {
		return err
	}

	ledger, err := app.cases.GetApplicationDisbursements(ctx, caseID)
	if err != nil {
		return err
	}

	printer := pp.New()
	printer.SetColoringEnabled(!c.Bool("no-color"))
	printer.SetOutput(c.App.Writer)

	printer.Println(record)
	printer.Println(history)
	printer.Println(ledger)

	return nil
}
