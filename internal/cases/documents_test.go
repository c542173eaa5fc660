package cases_test

import (
	"context"
	"testing"

	"zakatdesk/internal/cases"
	"zakatdesk/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leaseRequest = cases.DocumentRequestInput{
	DocumentType: types.DocTypeProofOfAddress,
	Description:  "Signed lease for current address",
	Required:     true,
}

func TestDocumentRequestFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.claimed(t, adminA)

	req, err := f.svc.RequestDocument(ctx, c.ID, adminA, leaseRequest)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentRequestRequested, req.State())

	fulfilled, err := f.svc.FulfillRequest(ctx, c.ID, req.ID, applicant, "cases/"+c.ID+"/lease.pdf", "lease.pdf")
	require.NoError(t, err)
	assert.Equal(t, types.DocumentRequestFulfilled, fulfilled.State())

	verified, err := f.svc.VerifyRequest(ctx, c.ID, req.ID, adminA, true, "matches ID")
	require.NoError(t, err)
	assert.Equal(t, types.DocumentRequestVerified, verified.State())
	assert.Equal(t, adminA.ID, *verified.VerifiedBy)

	got, err := f.svc.GetCase(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.DocumentRequests, 1)
	assert.Equal(t, req.ID, got.DocumentRequests[0].ID)

	assert.Contains(t, f.actions(t, c.ID), types.HistoryActionDocumentUploaded)
	assert.Contains(t, f.actions(t, c.ID), types.HistoryActionDocumentVerified)

	var kinds []types.NotificationType
	var uploadRecipient string
	for _, n := range f.store.Notifications() {
		kinds = append(kinds, n.Type)
		if n.Type == types.NotificationDocumentUploaded {
			uploadRecipient = n.RecipientID
		}
	}
	assert.Contains(t, kinds, types.NotificationDocumentRequested)
	assert.Equal(t, adminA.ID, uploadRecipient)
}

func TestRefulfillClearsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.claimed(t, adminA)

	req, err := f.svc.RequestDocument(ctx, c.ID, adminA, leaseRequest)
	require.NoError(t, err)
	_, err = f.svc.FulfillRequest(ctx, c.ID, req.ID, applicant, "a.pdf", "a.pdf")
	require.NoError(t, err)
	_, err = f.svc.VerifyRequest(ctx, c.ID, req.ID, adminA, false, "blurry")
	require.NoError(t, err)

	again, err := f.svc.FulfillRequest(ctx, c.ID, req.ID, applicant, "b.pdf", "b.pdf")
	require.NoError(t, err)
	assert.Equal(t, types.DocumentRequestFulfilled, again.State())
	assert.Nil(t, again.Verified)
	assert.Nil(t, again.VerifiedBy)
	assert.Equal(t, "b.pdf", *again.StoragePath)
}

func TestVerdictIsSetOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.claimed(t, adminA)

	req, err := f.svc.RequestDocument(ctx, c.ID, adminA, leaseRequest)
	require.NoError(t, err)
	_, err = f.svc.FulfillRequest(ctx, c.ID, req.ID, applicant, "a.pdf", "a.pdf")
	require.NoError(t, err)
	_, err = f.svc.VerifyRequest(ctx, c.ID, req.ID, adminA, true, "matches ID")
	require.NoError(t, err)

	_, err = f.svc.VerifyRequest(ctx, c.ID, req.ID, adminB, false, "looks altered")
	require.ErrorIs(t, err, types.ErrInvalidState)

	got, err := f.store.Request(ctx, c.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentRequestVerified, got.State())
	assert.Equal(t, adminA.ID, *got.VerifiedBy)

	_, err = f.svc.FulfillRequest(ctx, c.ID, req.ID, applicant, "b.pdf", "b.pdf")
	require.NoError(t, err)
	rejected, err := f.svc.VerifyRequest(ctx, c.ID, req.ID, adminB, false, "looks altered")
	require.NoError(t, err)
	assert.Equal(t, types.DocumentRequestRejected, rejected.State())
	assert.Equal(t, adminB.ID, *rejected.VerifiedBy)
}

func TestVerifyUnfulfilledRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.claimed(t, adminA)

	req, err := f.svc.RequestDocument(ctx, c.ID, adminA, leaseRequest)
	require.NoError(t, err)

	_, err = f.svc.VerifyRequest(ctx, c.ID, req.ID, adminA, true, "")
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = f.svc.VerifyRequest(ctx, c.ID, "missing", adminA, true, "")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestRequestDocumentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.draft(t)
	_, err := f.svc.RequestDocument(ctx, draft.ID, adminA, leaseRequest)
	require.ErrorIs(t, err, types.ErrInvalidState)

	c := f.claimed(t, adminA)
	_, err = f.svc.RequestDocument(ctx, c.ID, adminA, cases.DocumentRequestInput{DocumentType: types.DocTypeOther})
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = f.svc.FulfillRequest(ctx, c.ID, "missing", applicant, "x.pdf", "x.pdf")
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = f.svc.FulfillRequest(ctx, c.ID, "missing", applicant, "", "x.pdf")
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}
