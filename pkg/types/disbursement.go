package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCheck         PaymentMethod = "check"
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodMoneyOrder    PaymentMethod = "money_order"
	PaymentMethodGiftCard      PaymentMethod = "gift_card"
	PaymentMethodDirectPayment PaymentMethod = "direct_payment"
	PaymentMethodOther         PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCheck, PaymentMethodCash, PaymentMethodBankTransfer,
		PaymentMethodMoneyOrder, PaymentMethodGiftCard, PaymentMethodDirectPayment,
		PaymentMethodOther:
		return true
	}
	return false
}

// Disbursement is one recorded payment against a case. Immutable.
type Disbursement struct {
	ID              string          `db:"id" json:"id"`
	CaseID          string          `db:"case_id" json:"caseId"`
	ApplicantID     string          `db:"applicant_id" json:"applicantId"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Method          PaymentMethod   `db:"method" json:"method"`
	ReferenceNumber *string         `db:"reference_number" json:"referenceNumber,omitempty"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	DisbursedBy     string          `db:"disbursed_by" json:"disbursedBy"`
	DisbursedByName string          `db:"disbursed_by_name" json:"disbursedByName"`
	MasjidID        *string         `db:"masjid_id" json:"masjidId,omitempty"`
	MasjidName      *string         `db:"masjid_name" json:"masjidName,omitempty"`
	DisbursedAt     time.Time       `db:"disbursed_at" json:"disbursedAt"`
	PeriodMonth     *int            `db:"period_month" json:"periodMonth,omitempty"`
	PeriodYear      *int            `db:"period_year" json:"periodYear,omitempty"`
}

// DisbursementFilter scopes a disbursement scan. Empty fields match all.
type DisbursementFilter struct {
	CaseID      string
	ApplicantID string
	MasjidID    string
}

// ApplicationDisbursements is the per-case ledger view, newest first.
type ApplicationDisbursements struct {
	CaseID         string          `json:"caseId"`
	Disbursements  []*Disbursement `json:"disbursements"`
	TotalDisbursed decimal.Decimal `json:"totalDisbursed"`
}

// DisbursementSummary aggregates disbursements for one applicant or one
// masjid, broken down by the disbursing masjid.
type DisbursementSummary struct {
	ApplicantID     string                      `json:"applicantId,omitempty"`
	MasjidID        string                      `json:"masjidId,omitempty"`
	TotalAmount     decimal.Decimal             `json:"totalAmount"`
	Count           int                         `json:"count"`
	LastDisbursedAt *time.Time                  `json:"lastDisbursedAt,omitempty"`
	ByMasjid        map[string]*MasjidBreakdown `json:"byMasjid"`
}

type MasjidBreakdown struct {
	MasjidID   string          `json:"masjidId"`
	MasjidName string          `json:"masjidName"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}
