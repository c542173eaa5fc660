// Package cache keeps computed disbursement summaries in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zakatdesk/pkg/types"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "zakatdesk:summary:applicant:"

type SummaryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewSummaryCache(client redis.UniversalClient, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func applicantKey(applicantID string) string {
	return summaryKeyPrefix + applicantID
}

func (c *SummaryCache) ApplicantSummary(ctx context.Context, applicantID string) (*types.DisbursementSummary, bool, error) {
	data, err := c.client.Get(ctx, applicantKey(applicantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read summary for %s: %w", applicantID, err)
	}

	var summary types.DisbursementSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false, fmt.Errorf("failed to decode summary for %s: %w", applicantID, err)
	}

	if summary.ByMasjid == nil {
		summary.ByMasjid = map[string]*types.MasjidBreakdown{}
	}

	return &summary, true, nil
}

func (c *SummaryCache) SetApplicantSummary(ctx context.Context, summary *types.DisbursementSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary for %s: %w", summary.ApplicantID, err)
	}

	return c.client.Set(ctx, applicantKey(summary.ApplicantID), data, c.ttl).Err()
}

func (c *SummaryCache) InvalidateApplicant(ctx context.Context, applicantID string) error {
	return c.client.Del(ctx, applicantKey(applicantID)).Err()
}
