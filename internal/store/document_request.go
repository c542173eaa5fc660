package store

import (
	"context"
	"fmt"
	"strings"

	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentRequestTableName = "zakatdesk.document_requests"

var documentRequestColumns = utils.StructTagValues(types.DocumentRequest{})

type DocumentRequestRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRequestRepository(pool *pgxpool.Pool) *DocumentRequestRepository {
	return &DocumentRequestRepository{pool: pool}
}

// CreateRequest inserts a new, unfulfilled request
func (r *DocumentRequestRepository) CreateRequest(ctx context.Context, req *types.DocumentRequest) error {
	query, args, err := psql().
		Insert(documentRequestTableName).
		SetMap(utils.StructToMap(req)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert document request query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create document request")
}

// Request retrieves a single request scoped by case
func (r *DocumentRequestRepository) Request(ctx context.Context, caseID, requestID string) (*types.DocumentRequest, error) {
	query, args, err := psql().
		Select(documentRequestColumns...).
		From(documentRequestTableName).
		Where(squirrel.Eq{"id": requestID, "case_id": caseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document request query: %w", err)
	}

	var req = new(types.DocumentRequest)
	err = pgxscan.Get(ctx, r.pool, req, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch document request %s: %w", requestID, err)
	}
	return req, nil
}

// RequestsByCase retrieves all requests for a case, oldest first
func (r *DocumentRequestRepository) RequestsByCase(ctx context.Context, caseID string) ([]*types.DocumentRequest, error) {
	query, args, err := psql().
		Select(documentRequestColumns...).
		From(documentRequestTableName).
		Where(squirrel.Eq{"case_id": caseID}).
		OrderBy("requested_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document requests query: %w", err)
	}

	var reqs = make([]*types.DocumentRequest, 0)
	err = pgxscan.Select(ctx, r.pool, &reqs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document requests for case %s: %w", caseID, err)
	}
	return reqs, nil
}

// FulfillRequest records the applicant's upload and resets any earlier
// verification so the admin reviews the new file.
func (r *DocumentRequestRepository) FulfillRequest(ctx context.Context, caseID, requestID string, f types.Fulfillment) (*types.DocumentRequest, error) {
	query, args, err := buildFulfillRequest(caseID, requestID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to generate fulfill query for request %s: %w", requestID, err)
	}

	var req = new(types.DocumentRequest)
	err = pgxscan.Get(ctx, r.pool, req, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fulfill document request %s: %w", requestID, err)
	}
	return req, nil
}

func buildFulfillRequest(caseID, requestID string, f types.Fulfillment) (string, []any, error) {
	return psql().
		Update(documentRequestTableName).
		SetMap(map[string]any{
			"storage_path":       f.StoragePath,
			"file_name":          utils.NilIfEmpty(f.FileName),
			"fulfilled_at":       f.FulfilledAt,
			"verified":           nil,
			"verified_by":        nil,
			"verified_by_name":   nil,
			"verified_at":        nil,
			"verification_notes": nil,
		}).
		Where(squirrel.Eq{"id": requestID, "case_id": caseID}).
		Suffix("RETURNING " + strings.Join(documentRequestColumns, ", ")).
		ToSql()
}

// VerifyRequest records an admin's verdict on a fulfilled request. It
// returns types.ErrConditionFailed when the request exists but has not been
// fulfilled.
func (r *DocumentRequestRepository) VerifyRequest(ctx context.Context, caseID, requestID string, v types.Verification) (*types.DocumentRequest, error) {
	query, args, err := buildVerifyRequest(caseID, requestID, v)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verify query for request %s: %w", requestID, err)
	}

	var req = new(types.DocumentRequest)
	err = pgxscan.Get(ctx, r.pool, req, query, args...)
	if err == nil {
		return req, nil
	}

	if !pgxscan.NotFound(err) {
		return nil, fmt.Errorf("failed to verify document request %s: %w", requestID, err)
	}

	if _, err := r.Request(ctx, caseID, requestID); err != nil {
		return nil, err
	}

	return nil, types.ErrConditionFailed
}

func buildVerifyRequest(caseID, requestID string, v types.Verification) (string, []any, error) {
	return psql().
		Update(documentRequestTableName).
		SetMap(map[string]any{
			"verified":           v.Verified,
			"verified_by":        v.VerifiedBy,
			"verified_by_name":   utils.NilIfEmpty(v.VerifierName),
			"verified_at":        v.VerifiedAt,
			"verification_notes": utils.NilIfEmpty(v.Notes),
		}).
		Where(squirrel.And{
			squirrel.Eq{"id": requestID, "case_id": caseID},
			squirrel.NotEq{"fulfilled_at": nil},
			squirrel.Eq{"verified": nil},
		}).
		Suffix("RETURNING " + strings.Join(documentRequestColumns, ", ")).
		ToSql()
}
