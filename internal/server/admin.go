package server

import (
	"fmt"
	"net/http"

	"zakatdesk/internal/cases"
	"zakatdesk/pkg/types"

	"github.com/shopspring/decimal"
)

type poolQuery struct {
	Limit uint64 `form:"limit"`
}

func (s *Service) handleListPool(w http.ResponseWriter, r *http.Request) {
	var q poolQuery
	if err := decodeQuery(r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}

	pool, err := s.cases.ListPool(r.Context(), q.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, pool)
}

func (s *Service) handleClaim(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	c, err := s.cases.Claim(r.Context(), r.PathValue("caseID"), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleRelease(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	c, err := s.cases.Release(r.Context(), r.PathValue("caseID"), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

type statusRequest struct {
	Status          types.CaseStatus `json:"status"`
	Note            string           `json:"note"`
	AmountApproved  *decimal.Decimal `json:"amountApproved"`
	RejectionReason string           `json:"rejectionReason"`
}

func (s *Service) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.cases.ChangeStatus(r.Context(), r.PathValue("caseID"), actor, req.Status, cases.StatusChange{
		Note:            req.Note,
		AmountApproved:  req.AmountApproved,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

type noteRequest struct {
	Content  string `json:"content"`
	Internal bool   `json:"internal"`
}

func (s *Service) handleAddNote(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	note, err := s.cases.AddNote(r.Context(), r.PathValue("caseID"), actor, req.Content, req.Internal)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, note)
}

type flagRequest struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason"`
}

func (s *Service) handleFlag(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req flagRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.cases.FlagApplicant(r.Context(), r.PathValue("caseID"), actor, req.Flagged, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

func (s *Service) handleRequestDocument(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var input cases.DocumentRequestInput
	if err := decodeJSON(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	req, err := s.cases.RequestDocument(r.Context(), r.PathValue("caseID"), actor, input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, req)
}

type verifyRequest struct {
	Verified bool   `json:"verified"`
	Notes    string `json:"notes"`
}

func (s *Service) handleVerifyRequest(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var body verifyRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	req, err := s.cases.VerifyRequest(ctx, r.PathValue("caseID"), r.PathValue("requestID"), actor, body.Verified, body.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, req)
}

func (s *Service) handleRecordDisbursement(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var input cases.DisbursementInput
	if err := decodeJSON(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	d, err := s.cases.RecordDisbursement(r.Context(), r.PathValue("caseID"), actor, input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, d)
}

func (s *Service) handleApplicantSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.cases.GetApplicantDisbursementSummary(r.Context(), r.PathValue("applicantID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

type summaryQuery struct {
	MasjidID string `form:"masjidId"`
}

// handleMasjidSummary defaults to the caller's own masjid.
func (s *Service) handleMasjidSummary(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var q summaryQuery
	if err := decodeQuery(r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}

	masjidID := q.MasjidID
	if masjidID == "" {
		masjidID = actor.MasjidID
	}
	if masjidID == "" {
		s.writeError(w, r, fmt.Errorf("%w: masjidId is required", types.ErrInvalidArgument))
		return
	}

	summary, err := s.cases.GetMasjidDisbursementSummary(r.Context(), masjidID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Service) handleAllApplicantsSummary(w http.ResponseWriter, r *http.Request) {
	var q summaryQuery
	if err := decodeQuery(r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}

	summaries, err := s.cases.AllApplicantsDisbursementSummary(r.Context(), q.MasjidID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summaries)
}
