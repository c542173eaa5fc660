package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"zakatdesk/internal/cases"
	"zakatdesk/pkg/types"

	"github.com/shopspring/decimal"
)

// CaseService is the part of the case core the seeder drives. Seeded cases
// go through the real operations so their history and ledgers are complete.
type CaseService interface {
	CreateCase(ctx context.Context, applicant types.Actor, sections types.CaseSections) (*types.Case, error)
	Submit(ctx context.Context, caseID string, applicant types.Actor) (*types.Case, error)
	Claim(ctx context.Context, caseID string, admin types.Actor) (*types.Case, error)
	ChangeStatus(ctx context.Context, caseID string, admin types.Actor, to types.CaseStatus, change cases.StatusChange) (*types.Case, error)
	AddNote(ctx context.Context, caseID string, author types.Actor, content string, internal bool) (*types.AdminNote, error)
	RequestDocument(ctx context.Context, caseID string, admin types.Actor, input cases.DocumentRequestInput) (*types.DocumentRequest, error)
	RecordDisbursement(ctx context.Context, caseID string, admin types.Actor, input cases.DisbursementInput) (*types.Disbursement, error)
}

var fakePurposes = []string{
	"Behind on rent after a reduction in work hours.",
	"Utility shutoff notice following a medical emergency.",
	"Groceries and essentials while waiting on benefits.",
	"Car repair needed to keep getting to work.",
	"School fees and supplies for three children.",
	"Medical bills not covered by insurance.",
	"Security deposit for a safer apartment.",
	"Funeral costs for a family member.",
}

var assistanceTypes = []string{"rent", "utilities", "food", "transportation", "education", "medical", "other"}

type weightedCaseStatus struct {
	Status types.CaseStatus
	Weight int
}

var weightedStatuses = []weightedCaseStatus{
	{Status: types.CaseStatusDraft, Weight: 15},
	{Status: types.CaseStatusSubmitted, Weight: 25},
	{Status: types.CaseStatusUnderReview, Weight: 15},
	{Status: types.CaseStatusPendingDocuments, Weight: 10},
	{Status: types.CaseStatusApproved, Weight: 12},
	{Status: types.CaseStatusRejected, Weight: 8},
	{Status: types.CaseStatusDisbursed, Weight: 10},
	{Status: types.CaseStatusClosed, Weight: 5},
}

// SeedCases creates count cases spread across the lifecycle. rng may be nil.
func SeedCases(ctx context.Context, svc CaseService, count int, rng *rand.Rand) error {
	if count <= 0 {
		fmt.Println("Skipping fake cases seed because count <= 0")
		return nil
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	created := 0
	for i := 0; i < count; i++ {
		applicant := fakeApplicants[rng.Intn(len(fakeApplicants))]
		admin := fakeAdmins[rng.Intn(len(fakeAdmins))]
		target := pickWeightedStatus(rng)

		if err := seedCase(ctx, svc, rng, applicant, admin, target); err != nil {
			return fmt.Errorf("failed to seed fake case %d (%s): %w", i+1, target, err)
		}
		created++
	}

	fmt.Printf("Fake cases seeded: %d created\n", created)
	return nil
}

func seedCase(ctx context.Context, svc CaseService, rng *rand.Rand, applicant fakeApplicant, admin types.Actor, target types.CaseStatus) error {
	requested := decimal.NewFromInt(int64(rng.Intn(24)+1) * 100)
	actor := applicant.actor()

	c, err := svc.CreateCase(ctx, actor, fakeSections(rng, applicant, requested))
	if err != nil {
		return err
	}
	if target == types.CaseStatusDraft {
		return nil
	}

	if _, err := svc.Submit(ctx, c.ID, actor); err != nil {
		return err
	}
	if target == types.CaseStatusSubmitted {
		return nil
	}

	if _, err := svc.Claim(ctx, c.ID, admin); err != nil {
		return err
	}
	if rng.Intn(100) < 60 {
		if _, err := svc.AddNote(ctx, c.ID, admin, "Spoke with applicant by phone.", rng.Intn(2) == 0); err != nil {
			return err
		}
	}

	switch target {
	case types.CaseStatusUnderReview:
		return nil

	case types.CaseStatusPendingDocuments:
		if _, err := svc.RequestDocument(ctx, c.ID, admin, cases.DocumentRequestInput{
			DocumentType: "lease",
			Description:  "Current lease or eviction notice",
			Required:     true,
		}); err != nil {
			return err
		}
		_, err := svc.ChangeStatus(ctx, c.ID, admin, types.CaseStatusPendingDocuments, cases.StatusChange{})
		return err

	case types.CaseStatusRejected:
		_, err := svc.ChangeStatus(ctx, c.ID, admin, types.CaseStatusRejected, cases.StatusChange{
			RejectionReason: "Outside of the zakat eligibility guidelines.",
		})
		return err
	}

	approved := requested.Mul(decimal.NewFromFloat(0.5 + rng.Float64()*0.5)).Round(0)
	if !approved.IsPositive() {
		approved = requested
	}
	if _, err := svc.ChangeStatus(ctx, c.ID, admin, types.CaseStatusApproved, cases.StatusChange{AmountApproved: &approved}); err != nil {
		return err
	}
	if target == types.CaseStatusApproved {
		return nil
	}

	if _, err := svc.RecordDisbursement(ctx, c.ID, admin, cases.DisbursementInput{
		Amount: approved,
		Method: []types.PaymentMethod{types.PaymentMethodCheck, types.PaymentMethodCash, types.PaymentMethodBankTransfer}[rng.Intn(3)],
	}); err != nil {
		return err
	}
	if _, err := svc.ChangeStatus(ctx, c.ID, admin, types.CaseStatusDisbursed, cases.StatusChange{}); err != nil {
		return err
	}
	if target == types.CaseStatusDisbursed {
		return nil
	}

	_, err = svc.ChangeStatus(ctx, c.ID, admin, types.CaseStatusClosed, cases.StatusChange{Note: "Assistance complete."})
	return err
}

func fakeSections(rng *rand.Rand, applicant fakeApplicant, requested decimal.Decimal) types.CaseSections {
	return types.CaseSections{
		Demographics: &types.Demographics{
			FirstName: applicant.GivenName,
			LastName:  applicant.FamilyName,
		},
		RequestDetails: &types.RequestDetails{
			AssistanceType:  assistanceTypes[rng.Intn(len(assistanceTypes))],
			AmountRequested: requested,
			Purpose:         fakePurposes[rng.Intn(len(fakePurposes))],
		},
	}
}

func pickWeightedStatus(rng *rand.Rand) types.CaseStatus {
	total := 0
	for _, item := range weightedStatuses {
		total += item.Weight
	}

	if total == 0 {
		return types.CaseStatusDraft
	}

	roll := rng.Intn(total)
	running := 0
	for _, item := range weightedStatuses {
		running += item.Weight
		if roll < running {
			return item.Status
		}
	}

	return types.CaseStatusDraft
}
