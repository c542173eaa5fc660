package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"zakatdesk/pkg/types"

)

func canView(actor types.Actor, c *types.Case) bool {
	return actor.Role.IsAdmin() || c.ApplicantID == actor.ID
}

// applicantView hides internal admin notes from the applicant.
func applicantView(c *types.Case) *types.Case {
	out := *c
	out.AdminNotes = make([]types.AdminNote, 0, len(c.AdminNotes))
	for _, n := range c.AdminNotes {
		if !n.IsInternal {
			out.AdminNotes = append(out.AdminNotes, n)
		}
	}
	return &out
}

func viewFor(actor types.Actor, c *types.Case) *types.Case {
	if actor.Role.IsAdmin() {
		return c
	}
	return applicantView(c)
}

// visibleCase loads the case named in the path and checks the caller may
// see it.
func (s *Service) visibleCase(w http.ResponseWriter, r *http.Request) (*types.Case, types.Actor, bool) {
	actor, _ := actorFromContext(r.Context())

	c, err := s.cases.GetCase(r.Context(), r.PathValue("caseID"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, actor, false
	}

	if !canView(actor, c) {
		s.writeError(w, r, fmt.Errorf("%w: case belongs to another applicant", types.ErrPermissionDenied))
		return nil, actor, false
	}

	return c, actor, true
}

func (s *Service) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := actorFromContext(ctx)

	var sections types.CaseSections
	if err := decodeJSON(r, &sections); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.recordApplicant(ctx, actor)

	c, err := s.cases.CreateCase(ctx, actor, sections)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, viewFor(actor, c))
}

// recordApplicant keeps the local applicants table current for the
// directory fallback. Failures only cost snapshot quality.
func (s *Service) recordApplicant(ctx context.Context, actor types.Actor) {
	if s.applicants == nil {
		return
	}

	given, family, _ := strings.Cut(actor.Name, " ")
	if err := s.applicants.UpsertIdentity(ctx, actor.ID, actor.Email, given, family, actor.Phone); err != nil {
		s.logger.WithError(err).WithField("applicant_id", actor.ID).Warn("failed to record applicant identity")
	}
}

type caseListQuery struct {
	Status      []types.CaseStatus `form:"status"`
	AssignedTo  string             `form:"assignedTo"`
	Mine        bool               `form:"mine"`
	Unassigned  bool               `form:"unassigned"`
	MasjidID    string             `form:"masjidId"`
	ApplicantID string             `form:"applicantId"`
	Limit       uint64             `form:"limit"`
}

func (q caseListQuery) filter(actor types.Actor) types.CaseFilter {
	filter := types.CaseFilter{
		Statuses:   q.Status,
		Unassigned: q.Unassigned,
		Limit:      q.Limit,
	}

	if !actor.Role.IsAdmin() {
		filter.ApplicantID = &actor.ID
		filter.Unassigned = false
		return filter
	}

	switch {
	case q.Mine:
		filter.AssignedTo = &actor.ID
	case q.AssignedTo != "":
		filter.AssignedTo = &q.AssignedTo
	}
	if q.MasjidID != "" {
		filter.MasjidID = &q.MasjidID
	}
	if q.ApplicantID != "" {
		filter.ApplicantID = &q.ApplicantID
	}

	return filter
}

// handleListCases lists an applicant's own cases, or any cases for admins.
func (s *Service) handleListCases(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var q caseListQuery
	if err := decodeQuery(r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.cases.ListCases(r.Context(), q.filter(actor))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]*types.Case, 0, len(list))
	for _, c := range list {
		out = append(out, viewFor(actor, c))
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := s.visibleCase(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, viewFor(actor, c))
}

func (s *Service) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var sections types.CaseSections
	if err := decodeJSON(r, &sections); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.cases.UpdateDraft(r.Context(), r.PathValue("caseID"), actor, sections)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, viewFor(actor, c))
}

func (s *Service) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	c, err := s.cases.Submit(r.Context(), r.PathValue("caseID"), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, viewFor(actor, c))
}

func (s *Service) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	c, _, ok := s.visibleCase(w, r)
	if !ok {
		return
	}

	entries, err := s.cases.GetCaseHistory(r.Context(), c.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Service) handleGetCaseDisbursements(w http.ResponseWriter, r *http.Request) {
	c, _, ok := s.visibleCase(w, r)
	if !ok {
		return
	}

	ledger, err := s.cases.GetApplicationDisbursements(r.Context(), c.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ledger)
}
