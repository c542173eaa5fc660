package cases

import (
	"context"
	"errors"
	"fmt"

	"zakatdesk/internal/lifecycle"
	"zakatdesk/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var reviewStatuses = []types.CaseStatus{
	types.CaseStatusUnderReview,
	types.CaseStatusPendingDocuments,
	types.CaseStatusPendingVerification,
}

func claimable(c *types.Case) error {
	if c.Status != types.CaseStatusSubmitted && !c.Status.InReview() {
		return fmt.Errorf("%w: case %s is %s and cannot be claimed", types.ErrInvalidState, c.ID, c.Status)
	}
	if c.AssignedTo != nil {
		return fmt.Errorf("%w: case %s is assigned to %s", types.ErrAlreadyAssigned, c.ID, *c.AssignedTo)
	}
	if c.Status != types.CaseStatusSubmitted {
		return fmt.Errorf("%w: case %s is %s and cannot be claimed", types.ErrInvalidState, c.ID, c.Status)
	}
	return nil
}

// Claim assigns a submitted, unassigned case to admin and moves it to
// under_review. Of any number of concurrent claims exactly one succeeds;
// the rest fail with types.ErrAlreadyAssigned.
func (s *Service) Claim(ctx context.Context, caseID string, admin types.Actor) (*types.Case, error) {
	if admin.ID == "" {
		return nil, fmt.Errorf("%w: admin id is required", types.ErrInvalidArgument)
	}

	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if err := claimable(c); err != nil {
		s.countConflict(err)
		return nil, err
	}

	now := s.now()
	updated, err := s.cases.UpdateCaseIf(ctx, caseID,
		types.CaseCondition{Status: statusPtr(types.CaseStatusSubmitted), Unassigned: true},
		&types.CasePatch{
			Status:    statusPtr(types.CaseStatusUnderReview),
			Assign:    &types.Assignment{AdminID: admin.ID, MasjidID: admin.MasjidID, At: now},
			UpdatedAt: now,
		},
	)
	if err != nil {
		if !errors.Is(err, types.ErrConditionFailed) {
			return nil, internalErr(err, "claim case")
		}

		// Lost a race. Reload to report what happened.
		fresh, lerr := s.loadCase(ctx, caseID)
		if lerr != nil {
			return nil, lerr
		}
		if cerr := claimable(fresh); cerr != nil {
			s.countConflict(cerr)
			return nil, cerr
		}
		return nil, fmt.Errorf("%w: case %s changed during claim", types.ErrInvalidState, caseID)
	}

	s.metrics.Transition(types.CaseStatusSubmitted, types.CaseStatusUnderReview)
	s.logger.WithFields(logrus.Fields{"case_id": caseID, "admin_id": admin.ID}).Info("case claimed")

	s.recordHistory(ctx, admin, &types.HistoryEntry{
		CaseID:         caseID,
		Action:         types.HistoryActionAssigned,
		PreviousStatus: statusPtr(types.CaseStatusSubmitted),
		NewStatus:      statusPtr(types.CaseStatusUnderReview),
		NewAssignee:    &admin.ID,
		Details:        fmt.Sprintf("Claimed by %s", displayName(admin)),
	})

	s.notify(ctx, updated.ApplicantID, types.NotificationCaseClaimed, caseID,
		"Your application is under review",
		fmt.Sprintf("Application %s has been picked up by a reviewer.", updated.ApplicationNumber))

	return updated, nil
}

func (s *Service) countConflict(err error) {
	if errors.Is(err, types.ErrAlreadyAssigned) {
		s.metrics.ClaimConflict()
	}
}

func releasable(c *types.Case, adminID string) error {
	if c.AssignedTo == nil || *c.AssignedTo != adminID {
		return fmt.Errorf("%w: case %s is not assigned to %s", types.ErrNotOwner, c.ID, adminID)
	}
	if !c.Status.InReview() {
		return fmt.Errorf("%w: case %s is %s and cannot be released", types.ErrInvalidState, c.ID, c.Status)
	}
	return nil
}

// Release returns a case the caller owns to the pool: status goes back to
// submitted and the assignment is cleared.
func (s *Service) Release(ctx context.Context, caseID string, admin types.Actor) (*types.Case, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if err := releasable(c, admin.ID); err != nil {
		return nil, err
	}

	previous := c.Status
	updated, err := s.cases.UpdateCaseIf(ctx, caseID,
		types.CaseCondition{AssignedTo: &admin.ID, StatusIn: reviewStatuses},
		&types.CasePatch{
			Status:          statusPtr(types.CaseStatusSubmitted),
			ClearAssignment: true,
			UpdatedAt:       s.now(),
		},
	)
	if err != nil {
		if !errors.Is(err, types.ErrConditionFailed) {
			return nil, internalErr(err, "release case")
		}

		fresh, lerr := s.loadCase(ctx, caseID)
		if lerr != nil {
			return nil, lerr
		}
		if rerr := releasable(fresh, admin.ID); rerr != nil {
			return nil, rerr
		}
		return nil, fmt.Errorf("%w: case %s changed during release", types.ErrInvalidState, caseID)
	}

	s.metrics.Transition(previous, types.CaseStatusSubmitted)
	s.logger.WithFields(logrus.Fields{"case_id": caseID, "admin_id": admin.ID}).Info("case released")

	s.recordHistory(ctx, admin, &types.HistoryEntry{
		CaseID:           caseID,
		Action:           types.HistoryActionReleased,
		PreviousStatus:   &previous,
		NewStatus:        statusPtr(types.CaseStatusSubmitted),
		PreviousAssignee: &admin.ID,
		Details:          fmt.Sprintf("Released by %s", displayName(admin)),
	})

	s.notify(ctx, updated.ApplicantID, types.NotificationCaseReleased, caseID,
		"Your application is back in the queue",
		fmt.Sprintf("Application %s is waiting for a new reviewer.", updated.ApplicationNumber))

	return updated, nil
}

// StatusChange carries the optional decision details for ChangeStatus.
type StatusChange struct {
	Note            string
	AmountApproved  *decimal.Decimal
	RejectionReason string
}

// ChangeStatus moves a case along any edge owned by the status entry point.
// Decisions (approved, rejected) write their resolution in the same update.
// Moving back to submitted clears the assignment.
func (s *Service) ChangeStatus(ctx context.Context, caseID string, admin types.Actor, to types.CaseStatus, change StatusChange) (*types.Case, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown case status %q", types.ErrInvalidState, to)
	}
	if change.AmountApproved != nil && !change.AmountApproved.IsPositive() {
		return nil, fmt.Errorf("%w: approved amount must be positive", types.ErrInvalidArgument)
	}

	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	from := c.Status
	if err := lifecycle.ValidateFor(lifecycle.EntryChangeStatus, from, to); err != nil {
		return nil, err
	}

	now := s.now()
	patch := &types.CasePatch{Status: &to, UpdatedAt: now}

	switch to {
	case types.CaseStatusApproved, types.CaseStatusRejected:
		patch.Resolution = &types.Resolution{
			Decision:        to,
			DecidedBy:       admin.ID,
			DecidedByName:   admin.Name,
			DecidedAt:       now,
			AmountApproved:  change.AmountApproved,
			RejectionReason: change.RejectionReason,
			Notes:           change.Note,
		}
	case types.CaseStatusSubmitted:
		patch.ClearAssignment = true
	}

	updated, err := s.cases.UpdateCaseIf(ctx, caseID, types.CaseCondition{Status: &from}, patch)
	if err != nil {
		if !errors.Is(err, types.ErrConditionFailed) {
			return nil, internalErr(err, "change status")
		}

		fresh, lerr := s.loadCase(ctx, caseID)
		if lerr != nil {
			return nil, lerr
		}
		if verr := lifecycle.ValidateFor(lifecycle.EntryChangeStatus, fresh.Status, to); verr != nil {
			return nil, verr
		}
		return nil, fmt.Errorf("%w: case %s moved from %s to %s concurrently", types.ErrInvalidState, caseID, from, fresh.Status)
	}

	s.metrics.Transition(from, to)
	s.logger.WithFields(logrus.Fields{
		"case_id":  caseID,
		"admin_id": admin.ID,
		"from":     from,
		"to":       to,
	}).Info("case status changed")

	entry := &types.HistoryEntry{
		CaseID:         caseID,
		Action:         historyActionFor(to),
		PreviousStatus: &from,
		NewStatus:      &to,
		Details:        change.Note,
	}
	if to == types.CaseStatusSubmitted && c.AssignedTo != nil {
		entry.PreviousAssignee = c.AssignedTo
	}
	if patch.Resolution != nil {
		entry.Metadata = map[string]any{"resolution": patch.Resolution}
	}
	s.recordHistory(ctx, admin, entry)

	s.notify(ctx, updated.ApplicantID, types.NotificationStatusChanged, caseID,
		"Application status updated",
		fmt.Sprintf("Application %s is now %s.", updated.ApplicationNumber, statusLabel(to)))

	return updated, nil
}

func historyActionFor(to types.CaseStatus) types.HistoryAction {
	switch to {
	case types.CaseStatusApproved:
		return types.HistoryActionApproved
	case types.CaseStatusRejected:
		return types.HistoryActionRejected
	}
	return types.HistoryActionStatusChanged
}

func statusLabel(s types.CaseStatus) string {
	switch s {
	case types.CaseStatusSubmitted:
		return "waiting for review"
	case types.CaseStatusUnderReview:
		return "under review"
	case types.CaseStatusPendingDocuments:
		return "waiting on documents"
	case types.CaseStatusPendingVerification:
		return "pending verification"
	}
	return string(s)
}

func displayName(a types.Actor) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
