package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zakatdesk/internal/identity"
	"zakatdesk/internal/server"
	"zakatdesk/internal/storage"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "memory",
			Usage: "Keep cases in memory instead of PostgreSQL",
		},
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Apply the schema before serving",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	memory := cCtx.Bool("memory")

	config, err := loadConfig(!memory)
	if err != nil {
		return err
	}

	if config.CognitoIssuerURL == "" {
		return fmt.Errorf("set COGNITO_ISSUER_URL")
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	var app *core
	if memory {
		logger.Warn("serving from memory, cases are lost on shutdown")
		app, err = newMemoryCore(config, logger)
	} else {
		app, err = newPostgresCore(ctx, config, logger, &awsConfig)
	}
	if err != nil {
		return err
	}
	defer app.Close()

	if app.pool != nil && cCtx.Bool("migrate") {
		if err := migrate(ctx, app.pool, logger); err != nil {
			return err
		}
	}

	verifier, err := identity.NewCognitoVerifier(ctx, config.CognitoIssuerURL)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Cases:     app.cases,
		Auth:      verifier,
		Documents: storage.NewDocumentStorage(s3.NewFromConfig(awsConfig), config.DocumentBucket),
		Metrics:   app.metrics,
	}
	if app.applicants != nil {
		deps.Applicants = app.applicants
	}
	if config.CognitoClientID != "" {
		deps.Cognito = cognitoidentityprovider.NewFromConfig(awsConfig)
	}

	srv, err := server.New(config, logger, deps)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
