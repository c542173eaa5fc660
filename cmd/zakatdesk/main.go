package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "zakatdesk",
		Usage: "Zakat assistance case management API",
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			seedCommand,
			caseCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
