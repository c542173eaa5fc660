package memstore

import (
	"context"
	"sort"

	"zakatdesk/pkg/types"
)

func (s *Store) AppendEntry(_ context.Context, entry *types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	s.history = append(s.history, &e)
	return nil
}

func (s *Store) EntriesByCase(_ context.Context, caseID string) ([]*types.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.HistoryEntry, 0)
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].CaseID != caseID {
			continue
		}
		e := *s.history[i]
		out = append(out, &e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *Store) CreateRequest(_ context.Context, req *types.DocumentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *req
	s.requests[req.CaseID] = append(s.requests[req.CaseID], &r)
	return nil
}

func (s *Store) findRequest(caseID, requestID string) *types.DocumentRequest {
	for _, r := range s.requests[caseID] {
		if r.ID == requestID {
			return r
		}
	}
	return nil
}

func (s *Store) Request(_ context.Context, caseID, requestID string) (*types.DocumentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.findRequest(caseID, requestID)
	if r == nil {
		return nil, types.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (s *Store) RequestsByCase(_ context.Context, caseID string) ([]*types.DocumentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.DocumentRequest, 0, len(s.requests[caseID]))
	for _, r := range s.requests[caseID] {
		req := *r
		out = append(out, &req)
	}
	return out, nil
}

func (s *Store) FulfillRequest(_ context.Context, caseID, requestID string, f types.Fulfillment) (*types.DocumentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.findRequest(caseID, requestID)
	if r == nil {
		return nil, types.ErrNotFound
	}

	path, at := f.StoragePath, f.FulfilledAt
	r.StoragePath = &path
	r.FulfilledAt = &at
	r.FileName = nil
	if f.FileName != "" {
		name := f.FileName
		r.FileName = &name
	}

	r.Verified = nil
	r.VerifiedBy = nil
	r.VerifiedByName = nil
	r.VerifiedAt = nil
	r.VerificationNotes = nil

	out := *r
	return &out, nil
}

func (s *Store) VerifyRequest(_ context.Context, caseID, requestID string, v types.Verification) (*types.DocumentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.findRequest(caseID, requestID)
	if r == nil {
		return nil, types.ErrNotFound
	}
	if r.FulfilledAt == nil || r.Verified != nil {
		return nil, types.ErrConditionFailed
	}

	verified, by, at := v.Verified, v.VerifiedBy, v.VerifiedAt
	r.Verified = &verified
	r.VerifiedBy = &by
	r.VerifiedAt = &at
	r.VerifiedByName = nil
	if v.VerifierName != "" {
		name := v.VerifierName
		r.VerifiedByName = &name
	}
	r.VerificationNotes = nil
	if v.Notes != "" {
		notes := v.Notes
		r.VerificationNotes = &notes
	}

	out := *r
	return &out, nil
}

func (s *Store) CreateDisbursement(_ context.Context, d *types.Disbursement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *d
	s.disbursements = append(s.disbursements, &rec)
	return nil
}

func (s *Store) Disbursements(_ context.Context, filter types.DisbursementFilter) ([]*types.Disbursement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Disbursement, 0)
	for _, d := range s.disbursements {
		if filter.CaseID != "" && d.CaseID != filter.CaseID {
			continue
		}
		if filter.ApplicantID != "" && d.ApplicantID != filter.ApplicantID {
			continue
		}
		if filter.MasjidID != "" && (d.MasjidID == nil || *d.MasjidID != filter.MasjidID) {
			continue
		}
		rec := *d
		out = append(out, &rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisbursedAt.After(out[j].DisbursedAt)
	})

	return out, nil
}

func (s *Store) Notify(_ context.Context, n *types.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *n
	s.notifications = append(s.notifications, &rec)
	return nil
}

// Notifications returns every notification sent so far, oldest first.
func (s *Store) Notifications() []*types.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		rec := *n
		out = append(out, &rec)
	}
	return out
}

func (s *Store) LatestForRecipient(_ context.Context, recipientID string, limit uint64) ([]*types.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Notification, 0)
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].RecipientID != recipientID {
			continue
		}
		rec := *s.notifications[i]
		out = append(out, &rec)
		if limit > 0 && uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}
