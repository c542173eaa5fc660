package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zakatdesk/internal/lifecycle"
	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	"github.com/sirupsen/logrus"
)

// CreateCase starts a draft application for applicant. The applicant
// snapshot is copied onto the case now and never refreshed.
func (s *Service) CreateCase(ctx context.Context, applicant types.Actor, sections types.CaseSections) (*types.Case, error) {
	if applicant.ID == "" {
		return nil, fmt.Errorf("%w: applicant id is required", types.ErrInvalidArgument)
	}

	seq, err := s.cases.NextApplicationSequence(ctx)
	if err != nil {
		return nil, internalErr(err, "allocate application number")
	}

	now := s.now()
	c := &types.Case{
		ID:                utils.NanoID(),
		ApplicationNumber: fmt.Sprintf("%s-%d-%06d", s.numberPrefix, now.Year(), seq),
		ApplicantID:       applicant.ID,
		ApplicantSnapshot: s.applicantSnapshot(ctx, applicant),
		Status:            types.CaseStatusDraft,
		CaseSections:      sections,
		AdminNotes:        []types.AdminNote{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.cases.CreateCase(ctx, c); err != nil {
		return nil, internalErr(err, "create case")
	}

	s.logger.WithFields(logrus.Fields{
		"case_id":            c.ID,
		"application_number": c.ApplicationNumber,
		"applicant_id":       c.ApplicantID,
	}).Info("case created")

	s.recordHistory(ctx, applicant, &types.HistoryEntry{
		CaseID:    c.ID,
		Action:    types.HistoryActionCreated,
		NewStatus: statusPtr(types.CaseStatusDraft),
		Details:   "Application created",
	})

	return c, nil
}

func (s *Service) applicantSnapshot(ctx context.Context, applicant types.Actor) types.ApplicantSnapshot {
	fallback := types.ApplicantSnapshot{
		ApplicantName:  applicant.Name,
		ApplicantEmail: applicant.Email,
		ApplicantPhone: applicant.Phone,
	}

	if s.directory == nil {
		return fallback
	}

	snapshot, err := s.directory.Applicant(ctx, applicant.ID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			s.logger.WithError(err).WithField("applicant_id", applicant.ID).Warn("applicant directory lookup failed, using caller details")
		}
		return fallback
	}

	out := *snapshot
	if out.ApplicantName == "" {
		out.ApplicantName = fallback.ApplicantName
	}
	if out.ApplicantEmail == "" {
		out.ApplicantEmail = fallback.ApplicantEmail
	}
	if out.ApplicantPhone == "" {
		out.ApplicantPhone = fallback.ApplicantPhone
	}

	return out
}

// UpdateDraft replaces the sections provided. Only draft cases can be
// edited and only by their applicant.
func (s *Service) UpdateDraft(ctx context.Context, caseID string, applicant types.Actor, sections types.CaseSections) (*types.Case, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if c.ApplicantID != applicant.ID {
		return nil, fmt.Errorf("%w: case %s belongs to another applicant", types.ErrPermissionDenied, caseID)
	}
	if c.Status != types.CaseStatusDraft {
		return nil, fmt.Errorf("%w: case %s is %s and can no longer be edited", types.ErrInvalidState, caseID, c.Status)
	}

	updated, err := s.cases.UpdateCaseIf(ctx, caseID,
		types.CaseCondition{Status: statusPtr(types.CaseStatusDraft)},
		&types.CasePatch{Sections: &sections, UpdatedAt: s.now()},
	)
	if err != nil {
		if errors.Is(err, types.ErrConditionFailed) {
			return nil, fmt.Errorf("%w: case %s left draft while being edited", types.ErrInvalidState, caseID)
		}
		return nil, internalErr(err, "update draft")
	}

	s.recordHistory(ctx, applicant, &types.HistoryEntry{
		CaseID:   caseID,
		Action:   types.HistoryActionEdited,
		Details:  "Application edited",
		Metadata: map[string]any{"sections": sectionNames(&sections)},
	})

	return updated, nil
}

func sectionNames(s *types.CaseSections) []string {
	names := []string{}
	if s.Demographics != nil {
		names = append(names, "demographics")
	}
	if s.Contact != nil {
		names = append(names, "contact")
	}
	if s.Household != nil {
		names = append(names, "household")
	}
	if s.Financial != nil {
		names = append(names, "financial")
	}
	if s.Circumstances != nil {
		names = append(names, "circumstances")
	}
	if s.RequestDetails != nil {
		names = append(names, "requestDetails")
	}
	if s.References != nil {
		names = append(names, "references")
	}
	if s.Documents != nil {
		names = append(names, "documents")
	}
	if s.PreviousApplications != nil {
		names = append(names, "previousApplications")
	}
	return names
}

// Submit moves a complete draft into the review pool.
func (s *Service) Submit(ctx context.Context, caseID string, applicant types.Actor) (*types.Case, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if c.ApplicantID != applicant.ID {
		return nil, fmt.Errorf("%w: case %s belongs to another applicant", types.ErrPermissionDenied, caseID)
	}

	if err := lifecycle.ValidateFor(lifecycle.EntrySubmit, c.Status, types.CaseStatusSubmitted); err != nil {
		return nil, err
	}

	if err := s.checkComplete(c); err != nil {
		return nil, err
	}

	now := s.now()
	updated, err := s.cases.UpdateCaseIf(ctx, caseID,
		types.CaseCondition{Status: statusPtr(types.CaseStatusDraft)},
		&types.CasePatch{Status: statusPtr(types.CaseStatusSubmitted), SubmittedAt: &now, UpdatedAt: now},
	)
	if err != nil {
		if errors.Is(err, types.ErrConditionFailed) {
			return nil, fmt.Errorf("%w: case %s was submitted concurrently", types.ErrInvalidState, caseID)
		}
		return nil, internalErr(err, "submit case")
	}

	s.metrics.Transition(types.CaseStatusDraft, types.CaseStatusSubmitted)
	s.logger.WithFields(logrus.Fields{"case_id": caseID, "applicant_id": applicant.ID}).Info("case submitted")

	s.recordHistory(ctx, applicant, &types.HistoryEntry{
		CaseID:         caseID,
		Action:         types.HistoryActionSubmitted,
		PreviousStatus: statusPtr(types.CaseStatusDraft),
		NewStatus:      statusPtr(types.CaseStatusSubmitted),
		Details:        "Application submitted for review",
	})

	return updated, nil
}

func (s *Service) checkComplete(c *types.Case) error {
	missing := []string{}
	if c.Demographics == nil {
		missing = append(missing, "demographics")
	} else if err := s.validateInput(c.Demographics); err != nil {
		return err
	}
	if c.RequestDetails == nil {
		missing = append(missing, "requestDetails")
	} else if err := s.validateInput(c.RequestDetails); err != nil {
		return err
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing sections: %s", types.ErrInvalidArgument, strings.Join(missing, ", "))
	}
	return nil
}

// GetCase returns the case with its document requests attached.
func (s *Service) GetCase(ctx context.Context, caseID string) (*types.Case, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	requests, err := s.requests.RequestsByCase(ctx, caseID)
	if err != nil {
		return nil, internalErr(err, "load document requests")
	}
	c.DocumentRequests = requests

	return c, nil
}

func (s *Service) ListCases(ctx context.Context, filter types.CaseFilter) ([]*types.Case, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", types.ErrInvalidState, status)
		}
	}

	cases, err := s.cases.Cases(ctx, filter)
	if err != nil {
		return nil, internalErr(err, "list cases")
	}
	return cases, nil
}

// ListPool returns submitted cases nobody has claimed, newest submission
// first.
func (s *Service) ListPool(ctx context.Context, limit uint64) ([]*types.Case, error) {
	cases, err := s.cases.Cases(ctx, types.CaseFilter{
		Statuses:   []types.CaseStatus{types.CaseStatusSubmitted},
		Unassigned: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, internalErr(err, "list pool")
	}
	return cases, nil
}

// GetCaseHistory returns the audit trail for a case, newest first.
func (s *Service) GetCaseHistory(ctx context.Context, caseID string) ([]*types.HistoryEntry, error) {
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, err
	}

	entries, err := s.history.EntriesByCase(ctx, caseID)
	if err != nil {
		return nil, internalErr(err, "load case history")
	}
	return entries, nil
}

// AddNote appends an admin note. Non-internal notes are shared with the
// applicant.
func (s *Service) AddNote(ctx context.Context, caseID string, author types.Actor, content string, internal bool) (*types.AdminNote, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: note content is required", types.ErrInvalidArgument)
	}

	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	note := types.AdminNote{
		ID:         utils.NanoID(),
		Content:    content,
		IsInternal: internal,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		CreatedAt:  now,
	}

	if err := s.cases.AppendNote(ctx, caseID, note, now); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
		}
		return nil, internalErr(err, "append note")
	}

	s.recordHistory(ctx, author, &types.HistoryEntry{
		CaseID:   caseID,
		Action:   types.HistoryActionNoteAdded,
		Details:  "Note added",
		Metadata: map[string]any{"noteId": note.ID, "internal": internal},
	})

	if !internal {
		s.notify(ctx, c.ApplicantID, types.NotificationNoteAdded, caseID,
			"New note on your application",
			fmt.Sprintf("A reviewer added a note to application %s.", c.ApplicationNumber))
	}

	return &note, nil
}

// FlagApplicant marks or clears the applicant flag on one case.
func (s *Service) FlagApplicant(ctx context.Context, caseID string, admin types.Actor, flagged bool, reason string) (*types.Case, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	updated, err := s.cases.UpdateCaseIf(ctx, caseID, types.CaseCondition{},
		&types.CasePatch{Flagged: &flagged, UpdatedAt: s.now()})
	if err != nil {
		if errors.Is(err, types.ErrConditionFailed) {
			return nil, fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
		}
		return nil, internalErr(err, "flag applicant")
	}

	details := "Applicant flagged"
	if !flagged {
		details = "Applicant flag cleared"
	}

	s.recordHistory(ctx, admin, &types.HistoryEntry{
		CaseID:   caseID,
		Action:   types.HistoryActionFlagged,
		Details:  details,
		Metadata: map[string]any{"flagged": flagged, "reason": reason},
	})

	s.flagInDirectory(ctx, c.ApplicantID, flagged)

	return updated, nil
}

// flagInDirectory mirrors the flag onto the applicant record so future
// snapshots carry it. Existing cases keep their own value.
func (s *Service) flagInDirectory(ctx context.Context, applicantID string, flagged bool) {
	if s.flags == nil {
		return
	}

	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()

	if err := s.flags.SetFlagged(ctx, applicantID, flagged); err != nil {
		s.metrics.SideEffectFailure("directory")
		s.logger.WithError(err).WithField("applicant_id", applicantID).Warn("failed to flag applicant in directory")
	}
}

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// ListNotifications returns the newest notifications sent to recipientID.
func (s *Service) ListNotifications(ctx context.Context, recipientID string, limit uint64) ([]*types.Notification, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("%w: recipient id is required", types.ErrInvalidArgument)
	}
	if s.feed == nil {
		return []*types.Notification{}, nil
	}

	switch {
	case limit == 0:
		limit = defaultNotificationLimit
	case limit > maxNotificationLimit:
		limit = maxNotificationLimit
	}

	out, err := s.feed.LatestForRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, internalErr(err, "list notifications")
	}
	return out, nil
}
