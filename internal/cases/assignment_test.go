package cases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"zakatdesk/internal/cases"
	"zakatdesk/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.claimed(t, adminA)
	require.Equal(t, types.CaseStatusUnderReview, c.Status)
	require.NotNil(t, c.AssignedTo)
	assert.Equal(t, adminA.ID, *c.AssignedTo)
	require.NotNil(t, c.AssignedToMasjid)
	assert.Equal(t, adminA.MasjidID, *c.AssignedToMasjid)

	c, err := f.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusPendingDocuments, cases.StatusChange{Note: "need lease"})
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusPendingDocuments, c.Status)

	amount := decimal.NewFromInt(900)
	c, err = f.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusApproved, cases.StatusChange{AmountApproved: &amount})
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusApproved, c.Status)
	require.NotNil(t, c.Resolution)
	assert.Equal(t, types.CaseStatusApproved, c.Resolution.Decision)
	assert.Equal(t, adminA.ID, c.Resolution.DecidedBy)
	assert.True(t, amount.Equal(*c.Resolution.AmountApproved))

	c, err = f.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusDisbursed, cases.StatusChange{})
	require.NoError(t, err)
	c, err = f.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusClosed, cases.StatusChange{})
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusClosed, c.Status)
	assert.Equal(t, adminA.ID, *c.AssignedTo)

	assert.Equal(t, []types.HistoryAction{
		types.HistoryActionCreated,
		types.HistoryActionSubmitted,
		types.HistoryActionAssigned,
		types.HistoryActionStatusChanged,
		types.HistoryActionApproved,
		types.HistoryActionStatusChanged,
		types.HistoryActionStatusChanged,
	}, f.actions(t, c.ID))

	assert.Equal(t, []string{
		"draft->submitted",
		"submitted->under_review",
		"under_review->pending_documents",
		"pending_documents->approved",
		"approved->disbursed",
		"disbursed->closed",
	}, f.metrics.transitions)
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	c := f.submitted(t)

	const admins = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		losses  int
	)

	for i := 0; i < admins; i++ {
		admin := types.Actor{ID: fmt.Sprintf("admin-%d", i), Role: types.RoleAdmin}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Claim(context.Background(), c.ID, admin)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, admin.ID)
			case errors.Is(err, types.ErrAlreadyAssigned):
				losses++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, admins-1, losses)
	assert.Equal(t, admins-1, f.metrics.conflicts)

	got, err := f.svc.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusUnderReview, got.Status)
	assert.Equal(t, winners[0], *got.AssignedTo)
}

func TestClaimPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Claim(ctx, "missing", adminA)
	require.ErrorIs(t, err, types.ErrNotFound)

	draft := f.draft(t)
	_, err = f.svc.Claim(ctx, draft.ID, adminA)
	require.ErrorIs(t, err, types.ErrInvalidState)

	claimed := f.claimed(t, adminA)
	_, err = f.svc.Claim(ctx, claimed.ID, adminB)
	require.ErrorIs(t, err, types.ErrAlreadyAssigned)

	_, err = f.svc.Claim(ctx, claimed.ID, adminA)
	require.ErrorIs(t, err, types.ErrAlreadyAssigned)

	_, err = f.svc.Claim(ctx, claimed.ID, types.Actor{})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestReleaseReturnsCaseToPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.claimed(t, adminA)

	pool, err := f.svc.ListPool(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pool)

	_, err = f.svc.Release(ctx, c.ID, adminB)
	require.ErrorIs(t, err, types.ErrNotOwner)

	released, err := f.svc.Release(ctx, c.ID, adminA)
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusSubmitted, released.Status)
	assert.Nil(t, released.AssignedTo)
	assert.Nil(t, released.AssignedToMasjid)
	assert.Nil(t, released.AssignedAt)

	pool, err = f.svc.ListPool(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, c.ID, pool[0].ID)

	reclaimed, err := f.svc.Claim(ctx, c.ID, adminB)
	require.NoError(t, err)
	assert.Equal(t, adminB.ID, *reclaimed.AssignedTo)
}

func TestReleaseFromPendingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.claimed(t, adminA)
	_, err := f.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusPendingVerification, cases.StatusChange{})
	require.NoError(t, err)

	released, err := f.svc.Release(ctx, c.ID, adminA)
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusSubmitted, released.Status)
}

func TestReleaseRequiresReviewStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.claimed(t, adminA)
	_, err := f.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusRejected, cases.StatusChange{RejectionReason: "incomplete"})
	require.NoError(t, err)

	_, err = f.svc.Release(ctx, c.ID, adminA)
	require.ErrorIs(t, err, types.ErrInvalidState)

	_, err = f.svc.Release(ctx, "missing", adminA)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestPoolExcludesOtherStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.draft(t)
	f.claimed(t, adminA)
	open := f.submitted(t)

	pool, err := f.svc.ListPool(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, open.ID, pool[0].ID)
}

func TestChangeStatusRejectsInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.draft(t)
	_, err := f.svc.ChangeStatus(ctx, draft.ID, adminA, types.CaseStatusSubmitted, cases.StatusChange{})
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	submitted := f.submitted(t)
	_, err = f.svc.ChangeStatus(ctx, submitted.ID, adminA, types.CaseStatusUnderReview, cases.StatusChange{})
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = f.svc.ChangeStatus(ctx, submitted.ID, adminA, types.CaseStatusApproved, cases.StatusChange{})
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = f.svc.ChangeStatus(ctx, submitted.ID, adminA, "paid", cases.StatusChange{})
	require.ErrorIs(t, err, types.ErrInvalidState)

	got, err := f.svc.GetCase(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusSubmitted, got.Status)
}

func TestClosedCaseIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.claimed(t, adminA)
	_, err := f.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusRejected, cases.StatusChange{RejectionReason: "over income limit"})
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusClosed, cases.StatusChange{})
	require.NoError(t, err)

	before, err := f.svc.GetCase(ctx, c.ID)
	require.NoError(t, err)

	for _, to := range types.AllCaseStatuses {
		_, err := f.svc.ChangeStatus(ctx, c.ID, adminA, to, cases.StatusChange{})
		require.ErrorIs(t, err, types.ErrInvalidTransition, "closed -> %s", to)
	}

	after, err := f.svc.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Equal(t, "over income limit", after.Resolution.RejectionReason)
}

func TestChangeStatusBackToSubmittedClearsAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.claimed(t, adminA)
	c, err := f.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusSubmitted, cases.StatusChange{})
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusSubmitted, c.Status)
	assert.Nil(t, c.AssignedTo)

	pool, err := f.svc.ListPool(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pool, 1)
}

func TestChangeStatusRejectsNonPositiveApprovedAmount(t *testing.T) {
	f := newFixture(t)
	c := f.claimed(t, adminA)

	zero := decimal.Zero
	_, err := f.svc.ChangeStatus(context.Background(), c.ID, adminA, types.CaseStatusApproved, cases.StatusChange{AmountApproved: &zero})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestSideEffectFailuresDoNotFailOperations(t *testing.T) {
	f := newFixture(t)
	broken := newFixture(t, func(d *cases.Deps) {
		d.Cases = f.store
		d.Requests = f.store
		d.Disbursements = f.store
		d.Directory = f.store
		d.History = failingHistory{f.store}
		d.Notifier = failingNotifier{}
	})
	broken.store = f.store
	ctx := context.Background()

	c := f.submitted(t)

	claimed, err := broken.svc.Claim(ctx, c.ID, adminA)
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusUnderReview, claimed.Status)

	_, err = broken.svc.ChangeStatus(ctx, c.ID, adminA, types.CaseStatusPendingDocuments, cases.StatusChange{})
	require.NoError(t, err)

	assert.Equal(t, 2, broken.metrics.failures["history"])
	assert.Equal(t, 2, broken.metrics.failures["notification"])

	assert.Equal(t, []types.HistoryAction{
		types.HistoryActionCreated,
		types.HistoryActionSubmitted,
	}, f.actions(t, c.ID))
}

func TestClaimNotifiesApplicant(t *testing.T) {
	f := newFixture(t)
	c := f.claimed(t, adminA)

	notes := f.store.Notifications()
	require.NotEmpty(t, notes)
	last := notes[len(notes)-1]
	assert.Equal(t, types.NotificationCaseClaimed, last.Type)
	assert.Equal(t, applicant.ID, last.RecipientID)
	assert.Equal(t, c.ID, last.CaseID)
}
