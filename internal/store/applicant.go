package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicantTableName = "zakatdesk.applicants"

var applicantColumns = utils.StructTagValues(types.Applicant{})

// ApplicantRepository is the local mirror of applicant identities. It backs
// the applicant directory when Cognito is not configured.
type ApplicantRepository struct {
	pool *pgxpool.Pool
}

func NewApplicantRepository(pool *pgxpool.Pool) *ApplicantRepository {
	return &ApplicantRepository{pool: pool}
}

func (r *ApplicantRepository) ApplicantByID(ctx context.Context, applicantID string) (*types.Applicant, error) {
	query, args, err := psql().
		Select(applicantColumns...).
		From(applicantTableName).
		Where(sq.Eq{"id": applicantID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate applicant query: %w", err)
	}

	var applicant types.Applicant
	err = pgxscan.Get(ctx, r.pool, &applicant, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch applicant: %w", err)
	}

	return &applicant, nil
}

// Applicant returns the snapshot copied onto new cases.
func (r *ApplicantRepository) Applicant(ctx context.Context, applicantID string) (*types.ApplicantSnapshot, error) {
	applicant, err := r.ApplicantByID(ctx, applicantID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(utils.PtrString(applicant.GivenName) + " " + utils.PtrString(applicant.FamilyName))

	return &types.ApplicantSnapshot{
		ApplicantName:    name,
		ApplicantEmail:   utils.PtrString(applicant.Email),
		ApplicantPhone:   utils.PtrString(applicant.Phone),
		ApplicantFlagged: applicant.Flagged,
	}, nil
}

func (r *ApplicantRepository) UpsertIdentity(ctx context.Context, applicantID, email, givenName, familyName, phone string) error {
	now := time.Now()

	query, args, err := psql().
		Insert(applicantTableName).
		Columns("id", "email", "given_name", "family_name", "phone", "created_at", "updated_at").
		Values(
			applicantID,
			utils.NilIfEmpty(strings.TrimSpace(email)),
			utils.NilIfEmpty(strings.TrimSpace(givenName)),
			utils.NilIfEmpty(strings.TrimSpace(familyName)),
			utils.NilIfEmpty(strings.TrimSpace(phone)),
			now,
			now,
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, given_name = EXCLUDED.given_name, family_name = EXCLUDED.family_name, phone = EXCLUDED.phone, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert applicant query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert applicant identity fields: %w", err)
	}

	return nil
}

// SetFlagged marks the applicant in the directory. Existing case snapshots
// are not touched.
func (r *ApplicantRepository) SetFlagged(ctx context.Context, applicantID string, flagged bool) error {
	query, args, err := psql().
		Update(applicantTableName).
		Set("flagged", flagged).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": applicantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate flag applicant query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to flag applicant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}

	return nil
}
