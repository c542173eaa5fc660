package main

import (
	"context"
	"fmt"
	"time"

	"zakatdesk/internal/cache"
	"zakatdesk/internal/cases"
	"zakatdesk/internal/db"
	"zakatdesk/internal/identity"
	"zakatdesk/internal/metrics"
	"zakatdesk/internal/store"
	"zakatdesk/internal/store/memstore"
	"zakatdesk/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// core is the case service plus the connections it owns.
type core struct {
	cases      *cases.Service
	applicants *store.ApplicantRepository
	metrics    *metrics.Metrics

	pool  *pgxpool.Pool
	redis *redis.Client
}

func (c *core) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

func serviceOptions(config *types.Config) []cases.Option {
	return []cases.Option{
		cases.WithSideEffectTimeout(time.Duration(config.SideEffectTimeoutSec) * time.Second),
		cases.WithApplicationNumberPrefix(config.ApplicationNumberPrefix),
	}
}

// newMemoryCore keeps everything in process. Nothing survives a restart.
func newMemoryCore(config *types.Config, logger *logrus.Logger) (*core, error) {
	m := metrics.New()
	mem := memstore.New()

	svc, err := cases.New(logger, cases.Deps{
		Cases:         mem,
		History:       mem,
		Requests:      mem,
		Disbursements: mem,
		Notifier:      mem,
		Feed:          mem,
		Directory:     mem,
		Flags:         mem,
		Metrics:       m,
	}, serviceOptions(config)...)
	if err != nil {
		return nil, err
	}

	return &core{cases: svc, metrics: m}, nil
}

// newPostgresCore wires the PostgreSQL repositories. A nil awsConfig skips
// the Cognito directory and the applicants table is the only source of
// applicant details.
func newPostgresCore(ctx context.Context, config *types.Config, logger *logrus.Logger, awsConfig *aws.Config) (*core, error) {
	pool, err := db.Connect(ctx, config)
	if err != nil {
		return nil, err
	}

	out := &core{pool: pool, metrics: metrics.New()}
	out.applicants = store.NewApplicantRepository(pool)

	directory := identity.Chain{out.applicants}
	if awsConfig != nil && config.CognitoUserPoolID != "" {
		cognito := identity.NewCognitoDirectory(cognitoidentityprovider.NewFromConfig(*awsConfig), config.CognitoUserPoolID)
		directory = identity.Chain{cognito, out.applicants}
	}

	notifications := store.NewNotificationRepository(pool)
	deps := cases.Deps{
		Cases:         store.NewCaseRepository(pool),
		History:       store.NewHistoryRepository(pool),
		Requests:      store.NewDocumentRequestRepository(pool),
		Disbursements: store.NewDisbursementRepository(pool),
		Notifier:      notifications,
		Feed:          notifications,
		Directory:     directory,
		Flags:         out.applicants,
		Metrics:       out.metrics,
	}

	if config.RedisURL != "" {
		client, err := cache.Connect(ctx, config.RedisURL)
		if err != nil {
			out.Close()
			return nil, err
		}
		out.redis = client
		deps.Cache = cache.NewSummaryCache(client, time.Duration(config.SummaryCacheTTLSec)*time.Second)
	} else {
		logger.Info("REDIS_URL not set, disbursement summaries are not cached")
	}

	out.cases, err = cases.New(logger, deps, serviceOptions(config)...)
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to build case service: %w", err)
	}

	return out, nil
}
