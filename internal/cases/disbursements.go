package cases

import (
	"context"
	"fmt"
	"sort"

	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// unassignedMasjid keys disbursements recorded by an admin with no masjid.
const unassignedMasjid = "unassigned"

type DisbursementInput struct {
	Amount          decimal.Decimal     `json:"amount"`
	Method          types.PaymentMethod `json:"method" validate:"required"`
	ReferenceNumber string              `json:"referenceNumber"`
	Notes           string              `json:"notes"`
	PeriodMonth     *int                `json:"periodMonth" validate:"omitempty,min=1,max=12"`
	PeriodYear      *int                `json:"periodYear" validate:"omitempty,min=2000,max=2100"`
}

func (s *Service) checkDisbursement(input DisbursementInput) error {
	if !input.Amount.IsPositive() {
		return fmt.Errorf("%w: disbursement amount must be greater than zero", types.ErrInvalidArgument)
	}
	if err := s.validateInput(input); err != nil {
		return err
	}
	if !input.Method.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", types.ErrInvalidArgument, input.Method)
	}
	if (input.PeriodMonth == nil) != (input.PeriodYear == nil) {
		return fmt.Errorf("%w: period month and year must be given together", types.ErrInvalidArgument)
	}
	return nil
}

// RecordDisbursement appends a payment to the case ledger. The case must be
// approved or already disbursed; the status is left unchanged.
func (s *Service) RecordDisbursement(ctx context.Context, caseID string, admin types.Actor, input DisbursementInput) (*types.Disbursement, error) {
	if err := s.checkDisbursement(input); err != nil {
		return nil, err
	}

	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != types.CaseStatusApproved && c.Status != types.CaseStatusDisbursed {
		return nil, fmt.Errorf("%w: cannot record a disbursement on a %s case", types.ErrInvalidState, c.Status)
	}

	d := &types.Disbursement{
		ID:              utils.NanoID(),
		CaseID:          caseID,
		ApplicantID:     c.ApplicantID,
		Amount:          input.Amount,
		Method:          input.Method,
		ReferenceNumber: utils.NilIfEmpty(input.ReferenceNumber),
		Notes:           utils.NilIfEmpty(input.Notes),
		DisbursedBy:     admin.ID,
		DisbursedByName: admin.Name,
		MasjidID:        utils.NilIfEmpty(admin.MasjidID),
		MasjidName:      utils.NilIfEmpty(admin.MasjidName),
		DisbursedAt:     s.now(),
		PeriodMonth:     input.PeriodMonth,
		PeriodYear:      input.PeriodYear,
	}

	if err := s.disbursements.CreateDisbursement(ctx, d); err != nil {
		return nil, internalErr(err, "record disbursement")
	}

	s.logger.WithFields(logrus.Fields{
		"case_id":         caseID,
		"disbursement_id": d.ID,
		"amount":          d.Amount.String(),
	}).Info("disbursement recorded")

	s.invalidateSummary(ctx, c.ApplicantID)

	s.recordHistory(ctx, admin, &types.HistoryEntry{
		CaseID:  caseID,
		Action:  types.HistoryActionDisbursed,
		Details: fmt.Sprintf("Disbursed %s via %s", d.Amount.StringFixed(2), d.Method),
		Metadata: map[string]any{
			"disbursementId": d.ID,
			"amount":         d.Amount.String(),
			"method":         d.Method,
		},
	})

	s.notify(ctx, c.ApplicantID, types.NotificationDisbursement, caseID,
		"Assistance disbursed",
		fmt.Sprintf("A payment of %s was recorded for application %s.", d.Amount.StringFixed(2), c.ApplicationNumber))

	return d, nil
}

// GetApplicationDisbursements returns a case's ledger, newest first, with
// its total.
func (s *Service) GetApplicationDisbursements(ctx context.Context, caseID string) (*types.ApplicationDisbursements, error) {
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, err
	}

	records, err := s.disbursements.Disbursements(ctx, types.DisbursementFilter{CaseID: caseID})
	if err != nil {
		return nil, internalErr(err, "load disbursements")
	}

	total := decimal.Zero
	for _, d := range records {
		total = total.Add(d.Amount)
	}

	return &types.ApplicationDisbursements{
		CaseID:         caseID,
		Disbursements:  records,
		TotalDisbursed: total,
	}, nil
}

// GetApplicantDisbursementSummary aggregates every disbursement made to an
// applicant. A failed scan yields an empty summary.
func (s *Service) GetApplicantDisbursementSummary(ctx context.Context, applicantID string) (*types.DisbursementSummary, error) {
	if applicantID == "" {
		return nil, fmt.Errorf("%w: applicant id is required", types.ErrInvalidArgument)
	}

	if s.cache != nil {
		summary, ok, err := s.cache.ApplicantSummary(ctx, applicantID)
		if err != nil {
			s.metrics.SideEffectFailure("cache")
			s.logger.WithError(err).WithField("applicant_id", applicantID).Warn("summary cache read failed")
		}
		if ok {
			return summary, nil
		}
	}

	records, err := s.disbursements.Disbursements(ctx, types.DisbursementFilter{ApplicantID: applicantID})
	if err != nil {
		s.logger.WithError(err).WithField("applicant_id", applicantID).Error("failed to scan applicant disbursements")
		return summarize(nil, applicantID, ""), nil
	}

	summary := summarize(records, applicantID, "")

	if s.cache != nil {
		cctx, cancel := s.sideEffectContext(ctx)
		defer cancel()
		if err := s.cache.SetApplicantSummary(cctx, summary); err != nil {
			s.metrics.SideEffectFailure("cache")
			s.logger.WithError(err).WithField("applicant_id", applicantID).Warn("summary cache write failed")
		}
	}

	return summary, nil
}

// GetMasjidDisbursementSummary aggregates disbursements made by one masjid.
// A failed scan yields an empty summary.
func (s *Service) GetMasjidDisbursementSummary(ctx context.Context, masjidID string) (*types.DisbursementSummary, error) {
	if masjidID == "" {
		return nil, fmt.Errorf("%w: masjid id is required", types.ErrInvalidArgument)
	}

	records, err := s.disbursements.Disbursements(ctx, types.DisbursementFilter{MasjidID: masjidID})
	if err != nil {
		s.logger.WithError(err).WithField("masjid_id", masjidID).Error("failed to scan masjid disbursements")
		return summarize(nil, "", masjidID), nil
	}

	return summarize(records, "", masjidID), nil
}

// AllApplicantsDisbursementSummary returns one summary per applicant,
// largest total first. masjidID narrows the scan when set.
func (s *Service) AllApplicantsDisbursementSummary(ctx context.Context, masjidID string) ([]*types.DisbursementSummary, error) {
	records, err := s.disbursements.Disbursements(ctx, types.DisbursementFilter{MasjidID: masjidID})
	if err != nil {
		s.logger.WithError(err).WithField("masjid_id", masjidID).Error("failed to scan disbursements")
		return []*types.DisbursementSummary{}, nil
	}

	byApplicant := map[string][]*types.Disbursement{}
	for _, d := range records {
		byApplicant[d.ApplicantID] = append(byApplicant[d.ApplicantID], d)
	}

	out := make([]*types.DisbursementSummary, 0, len(byApplicant))
	for applicantID, group := range byApplicant {
		out = append(out, summarize(group, applicantID, masjidID))
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalAmount.Cmp(out[j].TotalAmount); c != 0 {
			return c > 0
		}
		return out[i].ApplicantID < out[j].ApplicantID
	})

	return out, nil
}

func summarize(records []*types.Disbursement, applicantID, masjidID string) *types.DisbursementSummary {
	summary := &types.DisbursementSummary{
		ApplicantID: applicantID,
		MasjidID:    masjidID,
		TotalAmount: decimal.Zero,
		ByMasjid:    map[string]*types.MasjidBreakdown{},
	}

	for _, d := range records {
		summary.TotalAmount = summary.TotalAmount.Add(d.Amount)
		summary.Count++

		if summary.LastDisbursedAt == nil || d.DisbursedAt.After(*summary.LastDisbursedAt) {
			at := d.DisbursedAt
			summary.LastDisbursedAt = &at
		}

		key := unassignedMasjid
		if d.MasjidID != nil {
			key = *d.MasjidID
		}

		b, ok := summary.ByMasjid[key]
		if !ok {
			b = &types.MasjidBreakdown{MasjidID: key, MasjidName: utils.PtrString(d.MasjidName), Total: decimal.Zero}
			summary.ByMasjid[key] = b
		}
		b.Total = b.Total.Add(d.Amount)
		b.Count++
	}

	return summary
}

func (s *Service) invalidateSummary(ctx context.Context, applicantID string) {
	if s.cache == nil {
		return
	}

	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()

	if err := s.cache.InvalidateApplicant(ctx, applicantID); err != nil {
		s.metrics.SideEffectFailure("cache")
		s.logger.WithError(err).WithField("applicant_id", applicantID).Warn("failed to invalidate summary cache")
	}
}
