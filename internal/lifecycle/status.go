// Package lifecycle defines the case status state machine.
//
//	draft ──► submitted ──(claim)──► under_review ──► pending_documents ─┐
//	              ▲                       │  ▲                           │
//	              └───────────────────────┘  └── pending_verification ◄─┤
//	                                      │                              │
//	                                      ▼                              ▼
//	                          approved ──► disbursed ──► closed ◄── rejected
//
// closed is terminal.
package lifecycle

import (
	"fmt"

	"zakatdesk/pkg/types"
)

// EntryPoint names the operation allowed to perform a transition.
type EntryPoint string

const (
	EntrySubmit       EntryPoint = "submit"
	EntryClaim        EntryPoint = "claim"
	EntryChangeStatus EntryPoint = "change_status"
)

// Allowed returns the statuses reachable from one step. Unknown statuses
// fail with types.ErrInvalidState.
func Allowed(from types.CaseStatus) ([]types.CaseStatus, error) {
	switch from {
	case types.CaseStatusDraft:
		return []types.CaseStatus{types.CaseStatusSubmitted}, nil
	case types.CaseStatusSubmitted:
		return []types.CaseStatus{types.CaseStatusUnderReview}, nil
	case types.CaseStatusUnderReview:
		return []types.CaseStatus{
			types.CaseStatusPendingDocuments,
			types.CaseStatusPendingVerification,
			types.CaseStatusApproved,
			types.CaseStatusRejected,
			types.CaseStatusSubmitted,
		}, nil
	case types.CaseStatusPendingDocuments, types.CaseStatusPendingVerification:
		return []types.CaseStatus{
			types.CaseStatusUnderReview,
			types.CaseStatusApproved,
			types.CaseStatusRejected,
		}, nil
	case types.CaseStatusApproved:
		return []types.CaseStatus{types.CaseStatusDisbursed, types.CaseStatusClosed}, nil
	case types.CaseStatusRejected, types.CaseStatusDisbursed:
		return []types.CaseStatus{types.CaseStatusClosed}, nil
	case types.CaseStatusClosed:
		return []types.CaseStatus{}, nil
	}

	return nil, fmt.Errorf("%w: unknown case status %q", types.ErrInvalidState, from)
}

// IsValidTransition reports whether from -> to is in the transition table.
func IsValidTransition(from, to types.CaseStatus) bool {
	if !to.Valid() {
		return false
	}

	allowed, err := Allowed(from)
	if err != nil {
		return false
	}

	for _, s := range allowed {
		if s == to {
			return true
		}
	}

	return false
}

// ApplyTransition validates a single step and returns the new status.
func ApplyTransition(from, to types.CaseStatus) (types.CaseStatus, error) {
	if !from.Valid() {
		return "", fmt.Errorf("%w: unknown case status %q", types.ErrInvalidState, from)
	}
	if !to.Valid() {
		return "", fmt.Errorf("%w: unknown case status %q", types.ErrInvalidState, to)
	}
	if !IsValidTransition(from, to) {
		return "", fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, from, to)
	}
	return to, nil
}

// EntryPointFor returns which operation owns the from -> to edge.
func EntryPointFor(from, to types.CaseStatus) EntryPoint {
	switch {
	case from == types.CaseStatusDraft && to == types.CaseStatusSubmitted:
		return EntrySubmit
	case from == types.CaseStatusSubmitted && to == types.CaseStatusUnderReview:
		return EntryClaim
	}
	return EntryChangeStatus
}

// ValidateFor checks a transition requested through the given entry point.
// Edges owned by another entry point fail with types.ErrInvalidTransition
// even when the table allows them.
func ValidateFor(entry EntryPoint, from, to types.CaseStatus) error {
	if _, err := ApplyTransition(from, to); err != nil {
		return err
	}

	if owner := EntryPointFor(from, to); owner != entry {
		return fmt.Errorf("%w: %s -> %s is only reachable through %s", types.ErrInvalidTransition, from, to, owner)
	}

	return nil
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(s types.CaseStatus) bool {
	allowed, err := Allowed(s)
	return err == nil && len(allowed) == 0
}
