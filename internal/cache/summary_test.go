package cache

import (
	"context"
	"testing"
	"time"

	"zakatdesk/pkg/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSummaryCache(client, time.Minute), mr
}

func TestSummaryRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.ApplicantSummary(ctx, "applicant-1")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	summary := &types.DisbursementSummary{
		ApplicantID:     "applicant-1",
		TotalAmount:     decimal.RequireFromString("150.25"),
		Count:           2,
		LastDisbursedAt: &at,
		ByMasjid: map[string]*types.MasjidBreakdown{
			"masjid-1": {MasjidID: "masjid-1", MasjidName: "Masjid One", Total: decimal.RequireFromString("150.25"), Count: 2},
		},
	}
	require.NoError(t, c.SetApplicantSummary(ctx, summary))
	assert.Equal(t, time.Minute, mr.TTL(applicantKey("applicant-1")))

	got, ok, err := c.ApplicantSummary(ctx, "applicant-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, summary.TotalAmount.Equal(got.TotalAmount))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "Masjid One", got.ByMasjid["masjid-1"].MasjidName)

	require.NoError(t, c.InvalidateApplicant(ctx, "applicant-1"))
	_, ok, err = c.ApplicantSummary(ctx, "applicant-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummaryCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(applicantKey("applicant-1"), "not json"))

	_, ok, err := c.ApplicantSummary(context.Background(), "applicant-1")
	require.Error(t, err)
	assert.False(t, ok)
}
