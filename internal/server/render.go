package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"zakatdesk/pkg/types"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusForKind(kind string) int {
	switch kind {
	case "not_found":
		return http.StatusNotFound
	case "invalid_state", "invalid_transition", "already_assigned":
		return http.StatusConflict
	case "not_owner", "permission_denied":
		return http.StatusForbidden
	case "invalid_argument":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) writeMessage(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// writeError maps a core error kind onto an HTTP status. Internal errors
// are logged and their detail withheld.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := types.ErrorKind(err)
	status := statusForKind(kind)

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		s.writeMessage(w, status, "internal", "internal server error")
		return
	}

	s.writeMessage(w, status, kind, err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body too large", types.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: malformed json body: %v", types.ErrInvalidArgument, err)
	}
	return nil
}

func decodeQuery(r *http.Request, dst any) error {
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		return fmt.Errorf("%w: invalid query: %v", types.ErrInvalidArgument, err)
	}
	return nil
}
