package types

import "time"

// Document slot names in the applicant's document bag.
const (
	DocTypePhotoID        = "photo_id"
	DocTypeProofOfAddress = "proof_of_address"
	DocTypeIncomeProof    = "income_proof"
	DocTypeBankStatement  = "bank_statement"
	DocTypeMedicalRecord  = "medical_record"
	DocTypeEvictionNotice = "eviction_notice"
	DocTypeUtilityBill    = "utility_bill"
	DocTypeOther          = "other"
)

// DocumentBag holds the named required slots plus an open-ended list.
type DocumentBag struct {
	PhotoID        *UploadedDocument  `json:"photoId,omitempty"`
	ProofOfAddress *UploadedDocument  `json:"proofOfAddress,omitempty"`
	IncomeProof    *UploadedDocument  `json:"incomeProof,omitempty"`
	BankStatement  *UploadedDocument  `json:"bankStatement,omitempty"`
	Other          []UploadedDocument `json:"other,omitempty"`
}

// UploadedDocument is upload metadata plus its own verification state.
type UploadedDocument struct {
	StoragePath string     `json:"storagePath"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType,omitempty"`
	SizeBytes   int64      `json:"sizeBytes,omitempty"`
	UploadedAt  time.Time  `json:"uploadedAt"`
	Verified    *bool      `json:"verified,omitempty"`
	VerifiedBy  *string    `json:"verifiedBy,omitempty"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
}

// DocumentRequest is an admin-issued ask for a supporting document.
//
// Lifecycle: requested -> fulfilled -> verified|rejected. A fulfilled request
// may be fulfilled again, which clears the verification fields.
type DocumentRequest struct {
	ID              string    `db:"id" json:"id"`
	CaseID          string    `db:"case_id" json:"caseId"`
	DocumentType    string    `db:"document_type" json:"documentType"`
	Description     string    `db:"description" json:"description"`
	Required        bool      `db:"required" json:"required"`
	RequestedBy     string    `db:"requested_by" json:"requestedBy"`
	RequestedByName string    `db:"requested_by_name" json:"requestedByName"`
	RequestedAt     time.Time `db:"requested_at" json:"requestedAt"`

	StoragePath *string    `db:"storage_path" json:"storagePath,omitempty"`
	FileName    *string    `db:"file_name" json:"fileName,omitempty"`
	FulfilledAt *time.Time `db:"fulfilled_at" json:"fulfilledAt,omitempty"`

	Verified          *bool      `db:"verified" json:"verified,omitempty"`
	VerifiedBy        *string    `db:"verified_by" json:"verifiedBy,omitempty"`
	VerifiedByName    *string    `db:"verified_by_name" json:"verifiedByName,omitempty"`
	VerifiedAt        *time.Time `db:"verified_at" json:"verifiedAt,omitempty"`
	VerificationNotes *string    `db:"verification_notes" json:"verificationNotes,omitempty"`
}

type DocumentRequestState string

const (
	DocumentRequestRequested DocumentRequestState = "requested"
	DocumentRequestFulfilled DocumentRequestState = "fulfilled"
	DocumentRequestVerified  DocumentRequestState = "verified"
	DocumentRequestRejected  DocumentRequestState = "rejected"
)

func (r *DocumentRequest) State() DocumentRequestState {
	switch {
	case r.FulfilledAt == nil:
		return DocumentRequestRequested
	case r.Verified == nil:
		return DocumentRequestFulfilled
	case *r.Verified:
		return DocumentRequestVerified
	default:
		return DocumentRequestRejected
	}
}

// Fulfillment is written by the applicant's upload.
type Fulfillment struct {
	StoragePath string
	FileName    string
	FulfilledAt time.Time
}

// Verification is written by an admin once a request is fulfilled.
type Verification struct {
	Verified     bool
	VerifiedBy   string
	VerifierName string
	VerifiedAt   time.Time
	Notes        string
}
