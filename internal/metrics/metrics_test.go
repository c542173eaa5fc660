package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zakatdesk/pkg/types"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Transition(types.CaseStatusSubmitted, types.CaseStatusUnderReview)
	m.Transition(types.CaseStatusSubmitted, types.CaseStatusUnderReview)
	m.ClaimConflict()
	m.SideEffectFailure("history")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CaseTransitions.WithLabelValues("submitted", "under_review")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClaimConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SideEffectFailures.WithLabelValues("history")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodPost, http.StatusConflict, 20*time.Millisecond)
	m.ClaimConflict()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zakatdesk_claim_conflicts_total 1")
	assert.Contains(t, rec.Body.String(), `zakatdesk_http_request_duration_seconds_count{method="POST",status="409"} 1`)
}
