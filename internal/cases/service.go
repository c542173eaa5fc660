// Package cases is the lifecycle and assignment core of the application.
//
// Every operation follows the same shape: load the case, validate the
// request against the current state, apply the primary mutation as one
// conditional update, then append history and send notifications. The
// trailing writes are fire-and-forget: their failures are logged and
// counted but never change the operation's result.
package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type CaseStore interface {
	Case(ctx context.Context, caseID string) (*types.Case, error)
	Cases(ctx context.Context, filter types.CaseFilter) ([]*types.Case, error)
	CreateCase(ctx context.Context, c *types.Case) error
	UpdateCaseIf(ctx context.Context, caseID string, cond types.CaseCondition, patch *types.CasePatch) (*types.Case, error)
	AppendNote(ctx context.Context, caseID string, note types.AdminNote, at time.Time) error
	NextApplicationSequence(ctx context.Context) (int64, error)
}

type HistoryStore interface {
	AppendEntry(ctx context.Context, entry *types.HistoryEntry) error
	EntriesByCase(ctx context.Context, caseID string) ([]*types.HistoryEntry, error)
}

type DocumentRequestStore interface {
	CreateRequest(ctx context.Context, req *types.DocumentRequest) error
	Request(ctx context.Context, caseID, requestID string) (*types.DocumentRequest, error)
	RequestsByCase(ctx context.Context, caseID string) ([]*types.DocumentRequest, error)
	FulfillRequest(ctx context.Context, caseID, requestID string, f types.Fulfillment) (*types.DocumentRequest, error)
	VerifyRequest(ctx context.Context, caseID, requestID string, v types.Verification) (*types.DocumentRequest, error)
}

type DisbursementStore interface {
	CreateDisbursement(ctx context.Context, d *types.Disbursement) error
	Disbursements(ctx context.Context, filter types.DisbursementFilter) ([]*types.Disbursement, error)
}

type Notifier interface {
	Notify(ctx context.Context, n *types.Notification) error
}

// NotificationFeed reads back what Notifier delivered.
type NotificationFeed interface {
	LatestForRecipient(ctx context.Context, recipientID string, limit uint64) ([]*types.Notification, error)
}

// ApplicantDirectory supplies the applicant snapshot taken at case creation.
type ApplicantDirectory interface {
	Applicant(ctx context.Context, applicantID string) (*types.ApplicantSnapshot, error)
}

// SummaryCache holds computed applicant disbursement summaries.
// ApplicantFlagger records the applicant-level flag outside of any one case.
type ApplicantFlagger interface {
	SetFlagged(ctx context.Context, applicantID string, flagged bool) error
}

type SummaryCache interface {
	ApplicantSummary(ctx context.Context, applicantID string) (*types.DisbursementSummary, bool, error)
	SetApplicantSummary(ctx context.Context, summary *types.DisbursementSummary) error
	InvalidateApplicant(ctx context.Context, applicantID string) error
}

type Recorder interface {
	Transition(from, to types.CaseStatus)
	ClaimConflict()
	SideEffectFailure(effect string)
}

type noopRecorder struct{}

func (noopRecorder) Transition(types.CaseStatus, types.CaseStatus) {}
func (noopRecorder) ClaimConflict()                                {}
func (noopRecorder) SideEffectFailure(string)                      {}

// Deps are the collaborators of the service. Cases, History, Requests and
// Disbursements are required.
type Deps struct {
	Cases         CaseStore
	History       HistoryStore
	Requests      DocumentRequestStore
	Disbursements DisbursementStore
	Notifier      Notifier
	Feed          NotificationFeed
	Directory     ApplicantDirectory
	Flags         ApplicantFlagger
	Cache         SummaryCache
	Metrics       Recorder
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSideEffectTimeout(d time.Duration) Option {
	return func(s *Service) { s.sideEffectTimeout = d }
}

func WithApplicationNumberPrefix(prefix string) Option {
	return func(s *Service) { s.numberPrefix = prefix }
}

type Service struct {
	logger        *logrus.Logger
	cases         CaseStore
	history       HistoryStore
	requests      DocumentRequestStore
	disbursements DisbursementStore
	notifier      Notifier
	feed          NotificationFeed
	directory     ApplicantDirectory
	flags         ApplicantFlagger
	cache         SummaryCache
	metrics       Recorder
	validate      *validator.Validate

	now               func() time.Time
	sideEffectTimeout time.Duration
	numberPrefix      string
}

func New(logger *logrus.Logger, deps Deps, opts ...Option) (*Service, error) {
	if deps.Cases == nil || deps.History == nil || deps.Requests == nil || deps.Disbursements == nil {
		return nil, fmt.Errorf("cases: case, history, document request and disbursement stores are required")
	}

	if logger == nil {
		logger = logrus.New()
	}

	s := &Service{
		logger:            logger,
		cases:             deps.Cases,
		history:           deps.History,
		requests:          deps.Requests,
		disbursements:     deps.Disbursements,
		notifier:          deps.Notifier,
		feed:              deps.Feed,
		directory:         deps.Directory,
		flags:             deps.Flags,
		cache:             deps.Cache,
		metrics:           deps.Metrics,
		validate:          validator.New(),
		now:               time.Now,
		sideEffectTimeout: 5 * time.Second,
		numberPrefix:      "ZK",
	}

	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// internalErr classifies a store failure. Errors that already carry a kind
// pass through with added context.
func internalErr(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, types.ErrInternal) || types.ErrorKind(err) != "internal" {
		return fmt.Errorf("%s: %w", msg, err)
	}

	return fmt.Errorf("%w: %s: %w", types.ErrInternal, msg, err)
}

func (s *Service) loadCase(ctx context.Context, caseID string) (*types.Case, error) {
	if strings.TrimSpace(caseID) == "" {
		return nil, fmt.Errorf("%w: case id is required", types.ErrInvalidArgument)
	}

	c, err := s.cases.Case(ctx, caseID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("case %s: %w", caseID, types.ErrNotFound)
		}
		return nil, internalErr(err, "load case")
	}

	return c, nil
}

func (s *Service) validateInput(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: invalid fields: %s", types.ErrInvalidArgument, strings.Join(fields, ", "))
	}

	return fmt.Errorf("%w: %v", types.ErrInvalidArgument, err)
}

func (s *Service) sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
}

// recordHistory appends entry on behalf of actor. Failures are logged.
func (s *Service) recordHistory(ctx context.Context, actor types.Actor, entry *types.HistoryEntry) {
	entry.ID = utils.NanoID()
	entry.ActorID = actor.ID
	entry.ActorName = actor.Name
	entry.ActorRole = actor.Role
	entry.ActorMasjidID = utils.NilIfEmpty(actor.MasjidID)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()

	if err := s.history.AppendEntry(ctx, entry); err != nil {
		s.metrics.SideEffectFailure("history")
		s.logger.WithError(err).WithFields(logrus.Fields{
			"case_id": entry.CaseID,
			"action":  entry.Action,
		}).Warn("failed to record case history")
	}
}

func (s *Service) notify(ctx context.Context, recipientID string, kind types.NotificationType, caseID, title, message string) {
	if s.notifier == nil || recipientID == "" {
		return
	}

	n := &types.Notification{
		ID:          utils.NanoID(),
		RecipientID: recipientID,
		Type:        kind,
		Title:       title,
		Message:     message,
		CaseID:      caseID,
		CreatedAt:   s.now(),
	}

	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()

	if err := s.notifier.Notify(ctx, n); err != nil {
		s.metrics.SideEffectFailure("notification")
		s.logger.WithError(err).WithFields(logrus.Fields{
			"case_id":      caseID,
			"recipient_id": recipientID,
			"type":         kind,
		}).Warn("failed to send notification")
	}
}

func statusPtr(s types.CaseStatus) *types.CaseStatus {
	return &s
}
