package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	caseTableName             = "zakatdesk.cases"
	applicationNumberSequence = "zakatdesk.application_number_seq"
)

var caseColumns = utils.StructTagValues(types.Case{})

type CaseRepository struct {
	pool *pgxpool.Pool
}

func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{pool: pool}
}

func (r *CaseRepository) Case(ctx context.Context, caseID string) (*types.Case, error) {

	query, args, err := psql().Select(caseColumns...).From(caseTableName).
		Where(sq.Eq{"id": caseID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate case query: %w", err)
	}

	var c = new(types.Case)
	err = pgxscan.Get(ctx, r.pool, c, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, fmt.Errorf("failed to fetch case %s: %w", caseID, err)
	}

	if err != nil {
		return nil, types.ErrNotFound
	}

	return c, nil

}

func (r *CaseRepository) Cases(ctx context.Context, filter types.CaseFilter) ([]*types.Case, error) {

	query, args, err := buildCaseListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to generate case list query: %w", err)
	}

	var cases = make([]*types.Case, 0)
	err = pgxscan.Select(ctx, r.pool, &cases, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	return cases, nil
}

func buildCaseListQuery(filter types.CaseFilter) (string, []any, error) {
	where := sq.And{}

	if len(filter.Statuses) > 0 {
		where = append(where, sq.Eq{"status": filter.Statuses})
	}

	switch {
	case filter.Unassigned:
		where = append(where, sq.Eq{"assigned_to": nil})
	case filter.AssignedTo != nil:
		where = append(where, sq.Eq{"assigned_to": *filter.AssignedTo})
	}

	if filter.MasjidID != nil {
		where = append(where, sq.Eq{"assigned_to_masjid": *filter.MasjidID})
	}

	if filter.ApplicantID != nil {
		where = append(where, sq.Eq{"applicant_id": *filter.ApplicantID})
	}

	builder := psql().Select(caseColumns...).From(caseTableName).
		OrderBy("submitted_at DESC NULLS LAST", "created_at DESC")

	if len(where) > 0 {
		builder = builder.Where(where)
	}

	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	return builder.ToSql()
}

func (r *CaseRepository) CreateCase(ctx context.Context, c *types.Case) error {

	if c.AdminNotes == nil {
		c.AdminNotes = []types.AdminNote{}
	}

	query, args, err := psql().Insert(caseTableName).SetMap(utils.StructToMap(c)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert case query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create case")

}

// UpdateCaseIf applies patch to the case only when cond still holds and
// returns the updated row. A missing row or a failed precondition both
// return types.ErrConditionFailed; the caller reloads to tell them apart.
func (r *CaseRepository) UpdateCaseIf(ctx context.Context, caseID string, cond types.CaseCondition, patch *types.CasePatch) (*types.Case, error) {

	query, args, err := buildConditionalCaseUpdate(caseID, cond, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to generate conditional update for case %s: %w", caseID, err)
	}

	var c = new(types.Case)
	err = pgxscan.Get(ctx, r.pool, c, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to update case %s: %w", caseID, err)
	}

	return c, nil

}

func buildConditionalCaseUpdate(caseID string, cond types.CaseCondition, patch *types.CasePatch) (string, []any, error) {
	set := map[string]any{"updated_at": patch.UpdatedAt}

	if patch.Status != nil {
		set["status"] = *patch.Status
	}

	if patch.ClearAssignment {
		set["assigned_to"] = nil
		set["assigned_to_masjid"] = nil
		set["assigned_at"] = nil
	}

	if patch.Assign != nil {
		set["assigned_to"] = patch.Assign.AdminID
		set["assigned_to_masjid"] = utils.NilIfEmpty(patch.Assign.MasjidID)
		set["assigned_at"] = patch.Assign.At
	}

	if patch.Resolution != nil {
		set["resolution"] = patch.Resolution
	}

	if patch.SubmittedAt != nil {
		set["submitted_at"] = *patch.SubmittedAt
	}

	if patch.Flagged != nil {
		set["applicant_flagged"] = *patch.Flagged
	}

	if patch.Sections != nil {
		for column, value := range sectionColumns(patch.Sections) {
			set[column] = value
		}
	}

	where := sq.And{sq.Eq{"id": caseID}}

	if cond.Status != nil {
		where = append(where, sq.Eq{"status": *cond.Status})
	}

	if len(cond.StatusIn) > 0 {
		where = append(where, sq.Eq{"status": cond.StatusIn})
	}

	if cond.Unassigned {
		where = append(where, sq.Eq{"assigned_to": nil})
	}

	if cond.AssignedTo != nil {
		where = append(where, sq.Eq{"assigned_to": *cond.AssignedTo})
	}

	return psql().Update(caseTableName).
		SetMap(set).
		Where(where).
		Suffix("RETURNING " + strings.Join(caseColumns, ", ")).
		ToSql()
}

// sectionColumns returns only the sections the patch provides.
func sectionColumns(s *types.CaseSections) map[string]any {
	out := make(map[string]any)
	if s.Demographics != nil {
		out["demographics"] = s.Demographics
	}
	if s.Contact != nil {
		out["contact"] = s.Contact
	}
	if s.Household != nil {
		out["household"] = s.Household
	}
	if s.Financial != nil {
		out["financial"] = s.Financial
	}
	if s.Circumstances != nil {
		out["circumstances"] = s.Circumstances
	}
	if s.RequestDetails != nil {
		out["request_details"] = s.RequestDetails
	}
	if s.References != nil {
		out["reference_contacts"] = s.References
	}
	if s.Documents != nil {
		out["documents"] = s.Documents
	}
	if s.PreviousApplications != nil {
		out["previous_applications"] = s.PreviousApplications
	}
	return out
}

// AppendNote adds note to the case's admin_notes array in place.
func (r *CaseRepository) AppendNote(ctx context.Context, caseID string, note types.AdminNote, at time.Time) error {

	query, args, err := buildAppendNote(caseID, note, at)
	if err != nil {
		return fmt.Errorf("failed to generate append note query for case %s: %w", caseID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to append note to case %s: %w", caseID, err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}

	return nil
}

func buildAppendNote(caseID string, note types.AdminNote, at time.Time) (string, []any, error) {
	data, err := json.Marshal([]types.AdminNote{note})
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode note: %w", err)
	}

	return psql().Update(caseTableName).
		Set("admin_notes", sq.Expr("COALESCE(admin_notes, '[]'::jsonb) || ?::jsonb", string(data))).
		Set("updated_at", at).
		Where(sq.Eq{"id": caseID}).
		ToSql()
}

func (r *CaseRepository) NextApplicationSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT nextval('%s')", applicationNumberSequence)).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate application number: %w", err)
	}
	return seq, nil
}
