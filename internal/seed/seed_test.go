package seed

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"zakatdesk/internal/cases"
	"zakatdesk/internal/store/memstore"
	"zakatdesk/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityRecorder map[string]string

func (r identityRecorder) UpsertIdentity(_ context.Context, applicantID, email, _, _, _ string) error {
	r[applicantID] = email
	return nil
}

func newService(t *testing.T, store *memstore.Store) *cases.Service {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc, err := cases.New(logger, cases.Deps{
		Cases:         store,
		History:       store,
		Requests:      store,
		Disbursements: store,
		Notifier:      store,
		Directory:     store,
	})
	require.NoError(t, err)
	return svc
}

func TestSeedApplicants(t *testing.T) {
	recorder := identityRecorder{}
	require.NoError(t, SeedApplicants(context.Background(), recorder))
	assert.Len(t, recorder, len(fakeApplicants))
}

func TestSeedCasesReachesEveryTarget(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newService(t, store)
	rng := rand.New(rand.NewSource(7))

	for _, w := range weightedStatuses {
		require.NoError(t, seedCase(ctx, svc, rng, fakeApplicants[0], fakeAdmins[0], w.Status), w.Status)
	}

	all, err := store.Cases(ctx, types.CaseFilter{})
	require.NoError(t, err)
	require.Len(t, all, len(weightedStatuses))

	got := map[types.CaseStatus]int{}
	for _, c := range all {
		got[c.Status]++
		if c.Status.Decided() {
			assert.NotNil(t, c.Resolution, c.Status)
		}
	}
	for _, w := range weightedStatuses {
		assert.Equal(t, 1, got[w.Status], w.Status)
	}
}

func TestSeedCasesCount(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	require.NoError(t, SeedCases(ctx, newService(t, store), 25, rand.New(rand.NewSource(1))))

	all, err := store.Cases(ctx, types.CaseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 25)

	require.NoError(t, SeedCases(ctx, newService(t, store), 0, nil))
}
