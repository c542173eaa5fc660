package store

import (
	"context"
	"fmt"

	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const disbursementTableName = "zakatdesk.disbursements"

var disbursementColumns = utils.StructTagValues(types.Disbursement{})

type DisbursementRepository struct {
	pool *pgxpool.Pool
}

func NewDisbursementRepository(pool *pgxpool.Pool) *DisbursementRepository {
	return &DisbursementRepository{pool: pool}
}

func (r *DisbursementRepository) CreateDisbursement(ctx context.Context, d *types.Disbursement) error {
	query, args, err := psql().
		Insert(disbursementTableName).
		SetMap(utils.StructToMap(d)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert disbursement query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to record disbursement")
}

// Disbursements scans the ledger, newest first.
func (r *DisbursementRepository) Disbursements(ctx context.Context, filter types.DisbursementFilter) ([]*types.Disbursement, error) {
	query, args, err := buildDisbursementQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to generate disbursement query: %w", err)
	}

	var out = make([]*types.Disbursement, 0)
	err = pgxscan.Select(ctx, r.pool, &out, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch disbursements: %w", err)
	}

	return out, nil
}

func buildDisbursementQuery(filter types.DisbursementFilter) (string, []any, error) {
	where := sq.Eq{}
	if filter.CaseID != "" {
		where["case_id"] = filter.CaseID
	}
	if filter.ApplicantID != "" {
		where["applicant_id"] = filter.ApplicantID
	}
	if filter.MasjidID != "" {
		where["masjid_id"] = filter.MasjidID
	}

	builder := psql().
		Select(disbursementColumns...).
		From(disbursementTableName).
		OrderBy("disbursed_at DESC")

	if len(where) > 0 {
		builder = builder.Where(where)
	}

	return builder.ToSql()
}
