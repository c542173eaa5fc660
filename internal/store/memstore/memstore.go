// Package memstore is an in-memory implementation of the case core's store
// interfaces. Conditional updates are evaluated under a single mutex, which
// gives the same claim exclusivity as the PostgreSQL conditional UPDATE.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"zakatdesk/pkg/types"
)

type Store struct {
	mu            sync.Mutex
	cases         map[string]*types.Case
	requests      map[string][]*types.DocumentRequest
	history       []*types.HistoryEntry
	disbursements []*types.Disbursement
	notifications []*types.Notification
	applicants    map[string]*types.ApplicantSnapshot
	sequence      int64
}

func New() *Store {
	return &Store{
		cases:      make(map[string]*types.Case),
		requests:   make(map[string][]*types.DocumentRequest),
		applicants: make(map[string]*types.ApplicantSnapshot),
	}
}

func cloneCase(c *types.Case) *types.Case {
	out := *c
	out.AdminNotes = append([]types.AdminNote(nil), c.AdminNotes...)
	out.References = append([]types.Reference(nil), c.References...)
	out.DocumentRequests = nil
	return &out
}

func (s *Store) Case(_ context.Context, caseID string) (*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[caseID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return cloneCase(c), nil
}

func (s *Store) Cases(_ context.Context, filter types.CaseFilter) ([]*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Case, 0)
	for _, c := range s.cases {
		if !matchesFilter(c, filter) {
			continue
		}
		out = append(out, cloneCase(c))
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].SubmittedAt, out[j].SubmittedAt
		switch {
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.After(*tj)
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Limit > 0 && uint64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func matchesFilter(c *types.Case, filter types.CaseFilter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if c.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	switch {
	case filter.Unassigned:
		if c.AssignedTo != nil {
			return false
		}
	case filter.AssignedTo != nil:
		if c.AssignedTo == nil || *c.AssignedTo != *filter.AssignedTo {
			return false
		}
	}

	if filter.MasjidID != nil && (c.AssignedToMasjid == nil || *c.AssignedToMasjid != *filter.MasjidID) {
		return false
	}

	if filter.ApplicantID != nil && c.ApplicantID != *filter.ApplicantID {
		return false
	}

	return true
}

func (s *Store) CreateCase(_ context.Context, c *types.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.AdminNotes == nil {
		c.AdminNotes = []types.AdminNote{}
	}
	s.cases[c.ID] = cloneCase(c)
	return nil
}

func (s *Store) UpdateCaseIf(_ context.Context, caseID string, cond types.CaseCondition, patch *types.CasePatch) (*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[caseID]
	if !ok || !cond.Matches(c) {
		return nil, types.ErrConditionFailed
	}

	updated := cloneCase(c)
	patch.Apply(updated)
	s.cases[caseID] = updated

	return cloneCase(updated), nil
}

func (s *Store) AppendNote(_ context.Context, caseID string, note types.AdminNote, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[caseID]
	if !ok {
		return types.ErrNotFound
	}

	updated := cloneCase(c)
	updated.AdminNotes = append(updated.AdminNotes, note)
	updated.UpdatedAt = at
	s.cases[caseID] = updated
	return nil
}

func (s *Store) NextApplicationSequence(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence++
	return s.sequence, nil
}

// PutApplicant registers a directory entry for Applicant lookups.
func (s *Store) PutApplicant(applicantID string, snapshot types.ApplicantSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applicants[applicantID] = &snapshot
}

func (s *Store) Applicant(_ context.Context, applicantID string) (*types.ApplicantSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.applicants[applicantID]
	if !ok {
		return nil, types.ErrNotFound
	}
	out := *snapshot
	return &out, nil
}

// SetFlagged marks a known applicant. Unknown applicants are recorded with
// only the flag set.
func (s *Store) SetFlagged(_ context.Context, applicantID string, flagged bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.applicants[applicantID]
	if !ok {
		snapshot = &types.ApplicantSnapshot{}
		s.applicants[applicantID] = snapshot
	}
	snapshot.ApplicantFlagged = flagged
	return nil
}
