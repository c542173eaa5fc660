package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Case is one zakat assistance application.
//
// The ApplicantSnapshot fields are copied from the applicant directory when
// the case is created and are never refreshed afterwards; list views read
// them instead of joining against the directory.
type Case struct {
	ID                string `db:"id" json:"id"`
	ApplicationNumber string `db:"application_number" json:"applicationNumber"`
	ApplicantID       string `db:"applicant_id" json:"applicantId"`

	ApplicantSnapshot

	Status           CaseStatus `db:"status" json:"status"`
	AssignedTo       *string    `db:"assigned_to" json:"assignedTo,omitempty"`
	AssignedToMasjid *string    `db:"assigned_to_masjid" json:"assignedToMasjid,omitempty"`
	AssignedAt       *time.Time `db:"assigned_at" json:"assignedAt,omitempty"`

	CaseSections

	AdminNotes []AdminNote  `db:"admin_notes" json:"adminNotes"`
	Resolution *Resolution  `db:"resolution" json:"resolution,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`

	DocumentRequests []*DocumentRequest `db:"-" json:"documentRequests"`
}

type ApplicantSnapshot struct {
	ApplicantName    string `db:"applicant_name" json:"applicantName"`
	ApplicantEmail   string `db:"applicant_email" json:"applicantEmail"`
	ApplicantPhone   string `db:"applicant_phone" json:"applicantPhone"`
	ApplicantFlagged bool   `db:"applicant_flagged" json:"applicantFlagged"`
}

// CaseSections holds the applicant-entered form sections. Each section is
// stored as a jsonb column.
type CaseSections struct {
	Demographics         *Demographics         `db:"demographics" json:"demographics,omitempty"`
	Contact              *Contact              `db:"contact" json:"contact,omitempty"`
	Household            *Household            `db:"household" json:"household,omitempty"`
	Financial            *Financial            `db:"financial" json:"financial,omitempty"`
	Circumstances        *Circumstances        `db:"circumstances" json:"circumstances,omitempty"`
	RequestDetails       *RequestDetails       `db:"request_details" json:"requestDetails,omitempty"`
	References           []Reference           `db:"reference_contacts" json:"references,omitempty"`
	Documents            *DocumentBag          `db:"documents" json:"documents,omitempty"`
	PreviousApplications *PreviousApplications `db:"previous_applications" json:"previousApplications,omitempty"`
}

type Demographics struct {
	FirstName     string     `json:"firstName" validate:"required"`
	LastName      string     `json:"lastName" validate:"required"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	MaritalStatus string     `json:"maritalStatus,omitempty"`
	Citizenship   string     `json:"citizenship,omitempty"`
	Language      string     `json:"language,omitempty"`
}

type Contact struct {
	Address    string `json:"address"`
	AddressExt string `json:"addressExt,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zipCode"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
}

type Household struct {
	Size    int               `json:"size"`
	Members []HouseholdMember `json:"members,omitempty"`
}

type HouseholdMember struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Age          int    `json:"age"`
}

type Financial struct {
	MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
	IncomeSources   []string        `json:"incomeSources,omitempty"`
	Assets          decimal.Decimal `json:"assets"`
	Debts           decimal.Decimal `json:"debts"`
	ReceivesAid     bool            `json:"receivesAid"`
}

type Circumstances struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Urgency     string `json:"urgency,omitempty"`
}

type RequestDetails struct {
	AssistanceType  string          `json:"assistanceType" validate:"required"`
	AmountRequested decimal.Decimal `json:"amountRequested"`
	Purpose         string          `json:"purpose" validate:"required"`
	IsRecurring     bool            `json:"isRecurring"`
}

type Reference struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

type PreviousApplications struct {
	HasApplied    bool       `json:"hasApplied"`
	LastAppliedAt *time.Time `json:"lastAppliedAt,omitempty"`
	Details       string     `json:"details,omitempty"`
}

// AdminNote is immutable once appended.
type AdminNote struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"isInternal"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Resolution is the terminal decision on a case.
type Resolution struct {
	Decision        CaseStatus       `json:"decision"`
	DecidedBy       string           `json:"decidedBy"`
	DecidedByName   string           `json:"decidedByName"`
	DecidedAt       time.Time        `json:"decidedAt"`
	AmountApproved  *decimal.Decimal `json:"amountApproved,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// Assignment is the admin ownership of a case in review.
type Assignment struct {
	AdminID  string
	MasjidID string
	At       time.Time
}

// CaseCondition is the precondition a conditional case update must match.
// Zero-valued fields are not checked.
type CaseCondition struct {
	Status     *CaseStatus
	StatusIn   []CaseStatus
	Unassigned bool
	AssignedTo *string
}

// CasePatch lists the fields a conditional update writes. Nil fields are
// left untouched. UpdatedAt is always written.
type CasePatch struct {
	Status          *CaseStatus
	Assign          *Assignment
	ClearAssignment bool
	Resolution      *Resolution
	SubmittedAt     *time.Time
	Sections        *CaseSections
	Flagged         *bool
	UpdatedAt       time.Time
}

// CaseFilter narrows case listings. Unassigned selects rows whose
// assigned_to is NULL and takes precedence over AssignedTo.
type CaseFilter struct {
	Statuses    []CaseStatus
	AssignedTo  *string
	Unassigned  bool
	MasjidID    *string
	ApplicantID *string
	Limit       uint64
}

// Apply copies the patch onto c. Stores use it to keep in-memory and
// returned records consistent with what was written.
func (p *CasePatch) Apply(c *Case) {
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.ClearAssignment {
		c.AssignedTo = nil
		c.AssignedToMasjid = nil
		c.AssignedAt = nil
	}
	if p.Assign != nil {
		adminID := p.Assign.AdminID
		at := p.Assign.At
		c.AssignedTo = &adminID
		if p.Assign.MasjidID != "" {
			masjidID := p.Assign.MasjidID
			c.AssignedToMasjid = &masjidID
		} else {
			c.AssignedToMasjid = nil
		}
		c.AssignedAt = &at
	}
	if p.Resolution != nil {
		resolution := *p.Resolution
		c.Resolution = &resolution
	}
	if p.SubmittedAt != nil {
		submittedAt := *p.SubmittedAt
		c.SubmittedAt = &submittedAt
	}
	if p.Sections != nil {
		p.Sections.MergeInto(&c.CaseSections)
	}
	if p.Flagged != nil {
		c.ApplicantFlagged = *p.Flagged
	}
	c.UpdatedAt = p.UpdatedAt
}

// MergeInto replaces every section of dst that s provides.
func (s *CaseSections) MergeInto(dst *CaseSections) {
	if s.Demographics != nil {
		dst.Demographics = s.Demographics
	}
	if s.Contact != nil {
		dst.Contact = s.Contact
	}
	if s.Household != nil {
		dst.Household = s.Household
	}
	if s.Financial != nil {
		dst.Financial = s.Financial
	}
	if s.Circumstances != nil {
		dst.Circumstances = s.Circumstances
	}
	if s.RequestDetails != nil {
		dst.RequestDetails = s.RequestDetails
	}
	if s.References != nil {
		dst.References = s.References
	}
	if s.Documents != nil {
		dst.Documents = s.Documents
	}
	if s.PreviousApplications != nil {
		dst.PreviousApplications = s.PreviousApplications
	}
}

// Matches reports whether c satisfies the condition.
func (cond CaseCondition) Matches(c *Case) bool {
	if cond.Status != nil && c.Status != *cond.Status {
		return false
	}
	if len(cond.StatusIn) > 0 {
		found := false
		for _, s := range cond.StatusIn {
			if c.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if cond.Unassigned && c.AssignedTo != nil {
		return false
	}
	if cond.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *cond.AssignedTo) {
		return false
	}
	return true
}
