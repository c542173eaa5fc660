package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	"github.com/sirupsen/logrus"
)

type DocumentRequestInput struct {
	DocumentType string `json:"documentType" form:"documentType" validate:"required"`
	Description  string `json:"description" form:"description" validate:"required"`
	Required     bool   `json:"required" form:"required"`
}

// RequestDocument asks the applicant for a document. The case must be in
// review.
func (s *Service) RequestDocument(ctx context.Context, caseID string, admin types.Actor, input DocumentRequestInput) (*types.DocumentRequest, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if !c.Status.InReview() {
		return nil, fmt.Errorf("%w: case %s is %s and cannot take document requests", types.ErrInvalidState, caseID, c.Status)
	}

	req := &types.DocumentRequest{
		ID:              utils.NanoID(),
		CaseID:          caseID,
		DocumentType:    input.DocumentType,
		Description:     input.Description,
		Required:        input.Required,
		RequestedBy:     admin.ID,
		RequestedByName: admin.Name,
		RequestedAt:     s.now(),
	}

	if err := s.requests.CreateRequest(ctx, req); err != nil {
		return nil, internalErr(err, "create document request")
	}

	s.logger.WithFields(logrus.Fields{
		"case_id":    caseID,
		"request_id": req.ID,
		"type":       req.DocumentType,
	}).Info("document requested")

	s.notify(ctx, c.ApplicantID, types.NotificationDocumentRequested, caseID,
		"Document requested",
		fmt.Sprintf("Please upload: %s", req.Description))

	return req, nil
}

// FulfillRequest attaches an uploaded file to a request. Fulfilling again
// replaces the file and clears any earlier verification.
func (s *Service) FulfillRequest(ctx context.Context, caseID, requestID string, applicant types.Actor, storagePath, fileName string) (*types.DocumentRequest, error) {
	if strings.TrimSpace(storagePath) == "" {
		return nil, fmt.Errorf("%w: storage path is required", types.ErrInvalidArgument)
	}

	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	req, err := s.requests.FulfillRequest(ctx, caseID, requestID, types.Fulfillment{
		StoragePath: storagePath,
		FileName:    fileName,
		FulfilledAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("document request %s: %w", requestID, types.ErrNotFound)
		}
		return nil, internalErr(err, "fulfill document request")
	}

	s.recordHistory(ctx, applicant, &types.HistoryEntry{
		CaseID:   caseID,
		Action:   types.HistoryActionDocumentUploaded,
		Details:  fmt.Sprintf("Uploaded %s", req.DocumentType),
		Metadata: map[string]any{"requestId": requestID, "fileName": fileName},
	})

	if c.AssignedTo != nil {
		s.notify(ctx, *c.AssignedTo, types.NotificationDocumentUploaded, caseID,
			"Document uploaded",
			fmt.Sprintf("%s uploaded %s for application %s.", displayName(applicant), req.DocumentType, c.ApplicationNumber))
	}

	return req, nil
}

// VerifyRequest records an admin's review of a fulfilled request. A verdict
// is set once; only a new upload reopens the request.
func (s *Service) VerifyRequest(ctx context.Context, caseID, requestID string, admin types.Actor, verified bool, notes string) (*types.DocumentRequest, error) {
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, err
	}

	req, err := s.requests.VerifyRequest(ctx, caseID, requestID, types.Verification{
		Verified:     verified,
		VerifiedBy:   admin.ID,
		VerifierName: admin.Name,
		VerifiedAt:   s.now(),
		Notes:        notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			return nil, fmt.Errorf("document request %s: %w", requestID, types.ErrNotFound)
		case errors.Is(err, types.ErrConditionFailed):
			return nil, s.classifyVerifyConflict(ctx, caseID, requestID)
		}
		return nil, internalErr(err, "verify document request")
	}

	details := "Document verified"
	if !verified {
		details = "Document rejected"
	}

	s.recordHistory(ctx, admin, &types.HistoryEntry{
		CaseID:   caseID,
		Action:   types.HistoryActionDocumentVerified,
		Details:  details,
		Metadata: map[string]any{"requestId": requestID, "verified": verified, "notes": notes},
	})

	return req, nil
}

func (s *Service) classifyVerifyConflict(ctx context.Context, caseID, requestID string) error {
	current, err := s.requests.Request(ctx, caseID, requestID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("document request %s: %w", requestID, types.ErrNotFound)
		}
		return internalErr(err, "reload document request")
	}
	if current.Verified != nil {
		return fmt.Errorf("document request %s was already reviewed by %s: %w", requestID, utils.PtrString(current.VerifiedBy), types.ErrInvalidState)
	}
	return fmt.Errorf("document request %s has no upload to verify: %w", requestID, types.ErrNotFound)
}
