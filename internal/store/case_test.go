package store

import (
	"strings"
	"testing"
	"time"

	"zakatdesk/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCaseListQueryPool(t *testing.T) {
	query, args, err := buildCaseListQuery(types.CaseFilter{
		Statuses:   []types.CaseStatus{types.CaseStatusSubmitted},
		Unassigned: true,
		Limit:      25,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "FROM zakatdesk.cases")
	assert.Contains(t, query, "status IN ($1)")
	assert.Contains(t, query, "assigned_to IS NULL")
	assert.Contains(t, query, "ORDER BY submitted_at DESC NULLS LAST, created_at DESC")
	assert.Contains(t, query, "LIMIT 25")
	assert.Equal(t, []any{types.CaseStatusSubmitted}, args)
}

func TestBuildCaseListQueryWithoutFilter(t *testing.T) {
	query, args, err := buildCaseListQuery(types.CaseFilter{})
	require.NoError(t, err)

	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestBuildCaseListQueryByAssignee(t *testing.T) {
	admin := "admin-1"
	masjid := "masjid-1"
	query, args, err := buildCaseListQuery(types.CaseFilter{AssignedTo: &admin, MasjidID: &masjid})
	require.NoError(t, err)

	assert.Contains(t, query, "assigned_to = $1")
	assert.Contains(t, query, "assigned_to_masjid = $2")
	assert.Equal(t, []any{admin, masjid}, args)
}

func TestBuildConditionalCaseUpdateForClaim(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	submitted := types.CaseStatusSubmitted
	review := types.CaseStatusUnderReview

	query, args, err := buildConditionalCaseUpdate("case-1",
		types.CaseCondition{Status: &submitted, Unassigned: true},
		&types.CasePatch{
			Status:    &review,
			Assign:    &types.Assignment{AdminID: "admin-1", MasjidID: "masjid-1", At: now},
			UpdatedAt: now,
		})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "UPDATE zakatdesk.cases SET "))
	assert.Contains(t, query, "assigned_to = ")
	assert.Contains(t, query, "WHERE (id = ")
	assert.Contains(t, query, "AND assigned_to IS NULL")
	assert.Contains(t, query, "RETURNING id, ")
	assert.Contains(t, args, "admin-1")
	assert.Contains(t, args, submitted)
	assert.Contains(t, args, review)
}

func TestBuildConditionalCaseUpdateForRelease(t *testing.T) {
	now := time.Now()
	admin := "admin-1"
	submitted := types.CaseStatusSubmitted

	query, _, err := buildConditionalCaseUpdate("case-1",
		types.CaseCondition{AssignedTo: &admin, StatusIn: []types.CaseStatus{types.CaseStatusUnderReview, types.CaseStatusPendingDocuments}},
		&types.CasePatch{Status: &submitted, ClearAssignment: true, UpdatedAt: now})
	require.NoError(t, err)

	assert.Contains(t, query, "assigned_at = $")
	assert.Contains(t, query, "status IN (")
	assert.Contains(t, query, "assigned_to = $")
}

func TestSectionColumnsOnlyIncludesProvidedSections(t *testing.T) {
	cols := sectionColumns(&types.CaseSections{
		Contact:    &types.Contact{City: "Dallas"},
		References: []types.Reference{{Name: "Imam"}},
	})

	assert.Len(t, cols, 2)
	assert.Contains(t, cols, "contact")
	assert.Contains(t, cols, "reference_contacts")
}

func TestBuildAppendNote(t *testing.T) {
	now := time.Now()
	query, args, err := buildAppendNote("case-1", types.AdminNote{ID: "n1", Content: "hello"}, now)
	require.NoError(t, err)

	assert.Contains(t, query, "admin_notes = COALESCE(admin_notes, '[]'::jsonb) || $1::jsonb")
	require.Len(t, args, 3)
	assert.Contains(t, args[0], `"content":"hello"`)
}
