package cases_test

import (
	"context"
	"sync"
	"testing"

	"zakatdesk/internal/cases"
	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payment(amount int64) cases.DisbursementInput {
	return cases.DisbursementInput{
		Amount: decimal.NewFromInt(amount),
		Method: types.PaymentMethodCheck,
	}
}

func TestRecordDisbursement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.approved(t, adminA)

	d, err := f.svc.RecordDisbursement(ctx, c.ID, adminA, cases.DisbursementInput{
		Amount:          decimal.RequireFromString("450.50"),
		Method:          types.PaymentMethodBankTransfer,
		ReferenceNumber: "TX-1",
		PeriodMonth:     utils.IntPtr(3),
		PeriodYear:      utils.IntPtr(2026),
	})
	require.NoError(t, err)
	assert.Equal(t, c.ApplicantID, d.ApplicantID)
	assert.Equal(t, "masjid-1", *d.MasjidID)
	assert.Equal(t, "TX-1", *d.ReferenceNumber)

	got, err := f.svc.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CaseStatusApproved, got.Status)
	assert.Contains(t, f.actions(t, c.ID), types.HistoryActionDisbursed)
}

func TestRecordDisbursementRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.approved(t, adminA)

	for name, input := range map[string]cases.DisbursementInput{
		"zero":           payment(0),
		"negative":       payment(-5),
		"unknown method": {Amount: decimal.NewFromInt(10), Method: "crypto"},
		"missing method": {Amount: decimal.NewFromInt(10)},
		"month only":     {Amount: decimal.NewFromInt(10), Method: types.PaymentMethodCash, PeriodMonth: utils.IntPtr(4)},
		"bad month":      {Amount: decimal.NewFromInt(10), Method: types.PaymentMethodCash, PeriodMonth: utils.IntPtr(13), PeriodYear: utils.IntPtr(2026)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.RecordDisbursement(ctx, c.ID, adminA, input)
			require.ErrorIs(t, err, types.ErrInvalidArgument)
		})
	}

	ledger, err := f.svc.GetApplicationDisbursements(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger.Disbursements)
	assert.True(t, ledger.TotalDisbursed.IsZero())

	_, err = f.svc.RecordDisbursement(ctx, "missing", adminA, payment(10))
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestRecordDisbursementRequiresApprovedCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.draft(t)
	_, err := f.svc.RecordDisbursement(ctx, draft.ID, adminA, payment(500))
	require.ErrorIs(t, err, types.ErrInvalidState)

	inReview := f.claimed(t, adminA)
	_, err = f.svc.RecordDisbursement(ctx, inReview.ID, adminA, payment(500))
	require.ErrorIs(t, err, types.ErrInvalidState)

	rejected, err := f.svc.ChangeStatus(ctx, inReview.ID, adminA, types.CaseStatusRejected, cases.StatusChange{RejectionReason: "ineligible"})
	require.NoError(t, err)
	_, err = f.svc.RecordDisbursement(ctx, rejected.ID, adminA, payment(500))
	require.ErrorIs(t, err, types.ErrInvalidState)

	closed, err := f.svc.ChangeStatus(ctx, rejected.ID, adminA, types.CaseStatusClosed, cases.StatusChange{})
	require.NoError(t, err)
	_, err = f.svc.RecordDisbursement(ctx, closed.ID, adminA, payment(500))
	require.ErrorIs(t, err, types.ErrInvalidState)

	summary, err := f.svc.GetApplicantDisbursementSummary(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Count)

	monthly := f.approved(t, adminA)
	_, err = f.svc.RecordDisbursement(ctx, monthly.ID, adminA, payment(300))
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, monthly.ID, adminA, types.CaseStatusDisbursed, cases.StatusChange{})
	require.NoError(t, err)
	_, err = f.svc.RecordDisbursement(ctx, monthly.ID, adminA, payment(300))
	require.NoError(t, err)

	ledger, err := f.svc.GetApplicationDisbursements(ctx, monthly.ID)
	require.NoError(t, err)
	assert.Len(t, ledger.Disbursements, 2)
}

func TestApplicationDisbursementsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.approved(t, adminA)

	for _, amount := range []int64{100, 250, 50} {
		_, err := f.svc.RecordDisbursement(ctx, c.ID, adminA, payment(amount))
		require.NoError(t, err)
	}

	ledger, err := f.svc.GetApplicationDisbursements(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, ledger.Disbursements, 3)
	assert.True(t, decimal.NewFromInt(50).Equal(ledger.Disbursements[0].Amount))
	assert.True(t, decimal.NewFromInt(400).Equal(ledger.TotalDisbursed))
}

func TestApplicantSummaryAcrossMasjids(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.approved(t, adminA)
	second := f.approved(t, adminB)

	_, err := f.svc.RecordDisbursement(ctx, first.ID, adminA, payment(100))
	require.NoError(t, err)
	_, err = f.svc.RecordDisbursement(ctx, first.ID, adminA, payment(200))
	require.NoError(t, err)
	_, err = f.svc.RecordDisbursement(ctx, second.ID, adminB, payment(75))
	require.NoError(t, err)

	summary, err := f.svc.GetApplicantDisbursementSummary(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.True(t, decimal.NewFromInt(375).Equal(summary.TotalAmount))
	require.NotNil(t, summary.LastDisbursedAt)
	require.Len(t, summary.ByMasjid, 2)
	assert.True(t, decimal.NewFromInt(300).Equal(summary.ByMasjid["masjid-1"].Total))
	assert.Equal(t, "Masjid Two", summary.ByMasjid["masjid-2"].MasjidName)

	again, err := f.svc.GetApplicantDisbursementSummary(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, summary, again)

	masjid, err := f.svc.GetMasjidDisbursementSummary(ctx, "masjid-2")
	require.NoError(t, err)
	assert.Equal(t, 1, masjid.Count)
	assert.True(t, decimal.NewFromInt(75).Equal(masjid.TotalAmount))
}

func TestAllApplicantsSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.approved(t, adminA)
	bilal := types.Actor{ID: "applicant-2", Name: "Bilal"}
	other, err := f.svc.CreateCase(ctx, bilal, completeSections())
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, other.ID, bilal)
	require.NoError(t, err)
	_, err = f.svc.Claim(ctx, other.ID, adminB)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, other.ID, adminB, types.CaseStatusApproved, cases.StatusChange{})
	require.NoError(t, err)

	_, err = f.svc.RecordDisbursement(ctx, c.ID, adminA, payment(100))
	require.NoError(t, err)
	_, err = f.svc.RecordDisbursement(ctx, other.ID, adminB, payment(500))
	require.NoError(t, err)

	all, err := f.svc.AllApplicantsDisbursementSummary(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "applicant-2", all[0].ApplicantID)
	assert.Equal(t, applicant.ID, all[1].ApplicantID)

	scoped, err := f.svc.AllApplicantsDisbursementSummary(ctx, "masjid-1")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, applicant.ID, scoped[0].ApplicantID)
}

func TestSummaryDegradesOnScanFailure(t *testing.T) {
	f := newFixture(t)
	broken := newFixture(t, func(d *cases.Deps) {
		d.Disbursements = failingDisbursements{f.store}
	})
	ctx := context.Background()

	summary, err := broken.svc.GetApplicantDisbursementSummary(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Count)
	assert.True(t, summary.TotalAmount.IsZero())

	all, err := broken.svc.AllApplicantsDisbursementSummary(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

type mapCache struct {
	mu          sync.Mutex
	entries     map[string]*types.DisbursementSummary
	invalidated []string
}

func (m *mapCache) ApplicantSummary(_ context.Context, applicantID string) (*types.DisbursementSummary, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[applicantID]
	return s, ok, nil
}

func (m *mapCache) SetApplicantSummary(_ context.Context, s *types.DisbursementSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]*types.DisbursementSummary{}
	}
	m.entries[s.ApplicantID] = s
	return nil
}

func (m *mapCache) InvalidateApplicant(_ context.Context, applicantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, applicantID)
	m.invalidated = append(m.invalidated, applicantID)
	return nil
}

func TestSummaryCacheIsInvalidatedOnDisbursement(t *testing.T) {
	cache := &mapCache{}
	f := newFixture(t, func(d *cases.Deps) { d.Cache = cache })
	ctx := context.Background()
	c := f.approved(t, adminA)

	_, err := f.svc.RecordDisbursement(ctx, c.ID, adminA, payment(100))
	require.NoError(t, err)
	assert.Equal(t, []string{applicant.ID}, cache.invalidated)

	first, err := f.svc.GetApplicantDisbursementSummary(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Count)
	assert.Contains(t, cache.entries, applicant.ID)

	_, err = f.svc.RecordDisbursement(ctx, c.ID, adminA, payment(50))
	require.NoError(t, err)

	second, err := f.svc.GetApplicantDisbursementSummary(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Count)
	assert.True(t, decimal.NewFromInt(150).Equal(second.TotalAmount))
}
