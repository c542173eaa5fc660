package store

import (
	"testing"
	"time"

	"zakatdesk/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildVerifyRequestRequiresUnreviewedUpload(t *testing.T) {
	query, _, err := buildVerifyRequest("case-1", "req-1", types.Verification{Verified: true, VerifiedBy: "admin-1", VerifiedAt: time.Now()})
	require.NoError(t, err)

	assert.Contains(t, query, "fulfilled_at IS NOT NULL")
	assert.Contains(t, query, "verified IS NULL")
	assert.Contains(t, query, "RETURNING ")
}

func TestBuildFulfillRequestClearsVerification(t *testing.T) {
	query, args, err := buildFulfillRequest("case-1", "req-1", types.Fulfillment{StoragePath: "a.pdf", FulfilledAt: time.Now()})
	require.NoError(t, err)

	for _, col := range []string{"verified = $", "verified_by = $", "verified_at = $", "verification_notes = $"} {
		assert.Contains(t, query, col)
	}
	assert.Contains(t, args, "a.pdf")
}
