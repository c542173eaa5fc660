package types

import "fmt"

type CaseStatus string

const (
	CaseStatusDraft               CaseStatus = "draft"
	CaseStatusSubmitted           CaseStatus = "submitted"
	CaseStatusUnderReview         CaseStatus = "under_review"
	CaseStatusPendingDocuments    CaseStatus = "pending_documents"
	CaseStatusPendingVerification CaseStatus = "pending_verification"
	CaseStatusApproved            CaseStatus = "approved"
	CaseStatusRejected            CaseStatus = "rejected"
	CaseStatusDisbursed           CaseStatus = "disbursed"
	CaseStatusClosed              CaseStatus = "closed"
)

// AllCaseStatuses lists every status in lifecycle order.
var AllCaseStatuses = []CaseStatus{
	CaseStatusDraft,
	CaseStatusSubmitted,
	CaseStatusUnderReview,
	CaseStatusPendingDocuments,
	CaseStatusPendingVerification,
	CaseStatusApproved,
	CaseStatusRejected,
	CaseStatusDisbursed,
	CaseStatusClosed,
}

// ParseCaseStatus fails with ErrInvalidState for values outside the enum.
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown case status %q", ErrInvalidState, s)
	}
	return status, nil
}

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusDraft, CaseStatusSubmitted, CaseStatusUnderReview,
		CaseStatusPendingDocuments, CaseStatusPendingVerification,
		CaseStatusApproved, CaseStatusRejected, CaseStatusDisbursed, CaseStatusClosed:
		return true
	}
	return false
}

// InReview reports whether the status belongs to an admin's active workload.
func (s CaseStatus) InReview() bool {
	switch s {
	case CaseStatusUnderReview, CaseStatusPendingDocuments, CaseStatusPendingVerification:
		return true
	}
	return false
}

// Decided reports whether a resolution record is expected for the status.
func (s CaseStatus) Decided() bool {
	switch s {
	case CaseStatusApproved, CaseStatusRejected, CaseStatusDisbursed, CaseStatusClosed:
		return true
	}
	return false
}
