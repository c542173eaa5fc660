package store

import (
	"testing"

	"zakatdesk/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDisbursementQuery(t *testing.T) {
	query, args, err := buildDisbursementQuery(types.DisbursementFilter{ApplicantID: "applicant-1", MasjidID: "masjid-1"})
	require.NoError(t, err)

	assert.Contains(t, query, "applicant_id = $1")
	assert.Contains(t, query, "masjid_id = $2")
	assert.Contains(t, query, "ORDER BY disbursed_at DESC")
	assert.Equal(t, []any{"applicant-1", "masjid-1"}, args)

	query, args, err = buildDisbursementQuery(types.DisbursementFilter{})
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}
