package types

import "time"

type Role string

const (
	RoleApplicant  Role = "applicant"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Actor is the pre-authenticated caller of a core operation.
type Actor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       Role   `json:"role"`
	MasjidID   string `json:"masjidId,omitempty"`
	MasjidName string `json:"masjidName,omitempty"`
}

// Applicant mirrors an identity-provider user who applies for assistance.
type Applicant struct {
	ID         string    `db:"id"`
	Email      *string   `db:"email"`
	GivenName  *string   `db:"given_name"`
	FamilyName *string   `db:"family_name"`
	Phone      *string   `db:"phone"`
	Flagged    bool      `db:"flagged"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
