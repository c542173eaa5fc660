package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"zakatdesk/internal/storage"
	"zakatdesk/pkg/types"
)

const maxUploadBytes = 20 << 20

type fulfillRequest struct {
	StoragePath string `json:"storagePath"`
	FileName    string `json:"fileName"`
}

// handleFulfillRequest accepts either a multipart upload (field "file"),
// which is stored in S3, or a JSON body naming an object already uploaded.
func (s *Service) handleFulfillRequest(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := s.visibleCase(w, r)
	if !ok {
		return
	}

	if c.ApplicantID != actor.ID {
		s.writeError(w, r, fmt.Errorf("%w: only the applicant can upload documents", types.ErrPermissionDenied))
		return
	}

	ctx := r.Context()
	requestID := r.PathValue("requestID")

	var (
		body     fulfillRequest
		uploaded bool
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		key, name, err := s.storeUpload(w, r, c.ID, requestID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		body = fulfillRequest{StoragePath: key, FileName: name}
		uploaded = true
	} else {
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
		if body.StoragePath != "" && !storage.OwnsKey(c.ID, requestID, body.StoragePath) {
			s.writeError(w, r, fmt.Errorf("%w: storage path must be under %s", types.ErrInvalidArgument, storage.KeyPrefix(c.ID, requestID)))
			return
		}
	}

	req, err := s.cases.FulfillRequest(ctx, c.ID, requestID, actor, body.StoragePath, body.FileName)
	if err != nil {
		if uploaded {
			s.discardUpload(ctx, body.StoragePath)
		}
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, req)
}

func (s *Service) storeUpload(w http.ResponseWriter, r *http.Request, caseID, requestID string) (string, string, error) {
	if s.documents == nil {
		return "", "", fmt.Errorf("%w: document uploads are not configured", types.ErrInvalidArgument)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", "", fmt.Errorf("%w: upload exceeds %d bytes", types.ErrInvalidArgument, maxUploadBytes)
		}
		return "", "", fmt.Errorf("%w: invalid multipart form: %v", types.ErrInvalidArgument, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", fmt.Errorf("%w: file is required", types.ErrInvalidArgument)
	}
	defer file.Close()

	key, err := s.documents.Upload(r.Context(), caseID, requestID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", types.ErrInternal, err)
	}

	return key, header.Filename, nil
}

func (s *Service) discardUpload(ctx context.Context, key string) {
	if err := s.documents.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.WithError(err).WithField("storage_key", key).Warn("failed to remove orphaned upload")
	}
}
