package seed

import (
	"context"
	"fmt"

	"zakatdesk/pkg/types"
)

// ApplicantRecorder stores the identity fields a seeded applicant would
// otherwise get from Cognito.
type ApplicantRecorder interface {
	UpsertIdentity(ctx context.Context, applicantID, email, givenName, familyName, phone string) error
}

type fakeApplicant struct {
	ID         string
	Email      string
	GivenName  string
	FamilyName string
	Phone      string
}

func (a fakeApplicant) actor() types.Actor {
	return types.Actor{
		ID:    a.ID,
		Name:  a.GivenName + " " + a.FamilyName,
		Email: a.Email,
		Phone: a.Phone,
		Role:  types.RoleApplicant,
	}
}

var fakeApplicants = []fakeApplicant{
	{ID: "11111111-1111-1111-1111-111111111111", Email: "amina.yusuf+seed1@example.com", GivenName: "Amina", FamilyName: "Yusuf", Phone: "+15555550101"},
	{ID: "22222222-2222-2222-2222-222222222222", Email: "omar.hassan+seed2@example.com", GivenName: "Omar", FamilyName: "Hassan", Phone: "+15555550102"},
	{ID: "33333333-3333-3333-3333-333333333333", Email: "fatima.ali+seed3@example.com", GivenName: "Fatima", FamilyName: "Ali"},
	{ID: "44444444-4444-4444-4444-444444444444", Email: "yusuf.rahman+seed4@example.com", GivenName: "Yusuf", FamilyName: "Rahman", Phone: "+15555550104"},
	{ID: "55555555-5555-5555-5555-555555555555", Email: "khadija.ahmed+seed5@example.com", GivenName: "Khadija", FamilyName: "Ahmed"},
	{ID: "66666666-6666-6666-6666-666666666666", Email: "bilal.karim+seed6@example.com", GivenName: "Bilal", FamilyName: "Karim", Phone: "+15555550106"},
	{ID: "77777777-7777-7777-7777-777777777777", Email: "maryam.siddiqui+seed7@example.com", GivenName: "Maryam", FamilyName: "Siddiqui"},
	{ID: "88888888-8888-8888-8888-888888888888", Email: "ibrahim.osman+seed8@example.com", GivenName: "Ibrahim", FamilyName: "Osman"},
}

var fakeAdmins = []types.Actor{
	{ID: "aaaaaaaa-0000-0000-0000-000000000001", Name: "Imam Abdullah", Role: types.RoleAdmin, MasjidID: "masjid-noor", MasjidName: "Masjid An-Noor"},
	{ID: "aaaaaaaa-0000-0000-0000-000000000002", Name: "Sr. Hafsa", Role: types.RoleAdmin, MasjidID: "masjid-noor", MasjidName: "Masjid An-Noor"},
	{ID: "aaaaaaaa-0000-0000-0000-000000000003", Name: "Br. Tariq", Role: types.RoleAdmin, MasjidID: "masjid-rahma", MasjidName: "Masjid Ar-Rahma"},
}

func SeedApplicants(ctx context.Context, recorder ApplicantRecorder) error {
	seeded := 0
	for _, a := range fakeApplicants {
		if err := recorder.UpsertIdentity(ctx, a.ID, a.Email, a.GivenName, a.FamilyName, a.Phone); err != nil {
			return fmt.Errorf("failed to upsert fake applicant %s: %w", a.ID, err)
		}
		seeded++
	}

	fmt.Printf("Fake applicants seeded: %d upserted\n", seeded)
	return nil
}
