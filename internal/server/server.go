package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"zakatdesk/internal/cases"
	"zakatdesk/internal/metrics"
	"zakatdesk/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

// CaseService is the case core as the HTTP layer uses it.
type CaseService interface {
	CreateCase(ctx context.Context, applicant types.Actor, sections types.CaseSections) (*types.Case, error)
	UpdateDraft(ctx context.Context, caseID string, applicant types.Actor, sections types.CaseSections) (*types.Case, error)
	Submit(ctx context.Context, caseID string, applicant types.Actor) (*types.Case, error)
	GetCase(ctx context.Context, caseID string) (*types.Case, error)
	ListCases(ctx context.Context, filter types.CaseFilter) ([]*types.Case, error)
	ListPool(ctx context.Context, limit uint64) ([]*types.Case, error)
	GetCaseHistory(ctx context.Context, caseID string) ([]*types.HistoryEntry, error)
	ListNotifications(ctx context.Context, recipientID string, limit uint64) ([]*types.Notification, error)

	Claim(ctx context.Context, caseID string, admin types.Actor) (*types.Case, error)
	Release(ctx context.Context, caseID string, admin types.Actor) (*types.Case, error)
	ChangeStatus(ctx context.Context, caseID string, admin types.Actor, to types.CaseStatus, change cases.StatusChange) (*types.Case, error)
	AddNote(ctx context.Context, caseID string, author types.Actor, content string, internal bool) (*types.AdminNote, error)
	FlagApplicant(ctx context.Context, caseID string, admin types.Actor, flagged bool, reason string) (*types.Case, error)

	RequestDocument(ctx context.Context, caseID string, admin types.Actor, input cases.DocumentRequestInput) (*types.DocumentRequest, error)
	FulfillRequest(ctx context.Context, caseID, requestID string, applicant types.Actor, storagePath, fileName string) (*types.DocumentRequest, error)
	VerifyRequest(ctx context.Context, caseID, requestID string, admin types.Actor, verified bool, notes string) (*types.DocumentRequest, error)

	RecordDisbursement(ctx context.Context, caseID string, admin types.Actor, input cases.DisbursementInput) (*types.Disbursement, error)
	GetApplicationDisbursements(ctx context.Context, caseID string) (*types.ApplicationDisbursements, error)
	GetApplicantDisbursementSummary(ctx context.Context, applicantID string) (*types.DisbursementSummary, error)
	GetMasjidDisbursementSummary(ctx context.Context, masjidID string) (*types.DisbursementSummary, error)
	AllApplicantsDisbursementSummary(ctx context.Context, masjidID string) ([]*types.DisbursementSummary, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (types.Actor, error)
}

type DocumentStorage interface {
	Upload(ctx context.Context, caseID, requestID, fileName, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// ApplicantRecorder mirrors identity-provider users into the local
// applicants table.
type ApplicantRecorder interface {
	UpsertIdentity(ctx context.Context, applicantID, email, givenName, familyName, phone string) error
}

type CognitoAuthAPI interface {
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

// Deps are the server's collaborators. Cases and Auth are required.
type Deps struct {
	Cases      CaseService
	Auth       Authenticator
	Documents  DocumentStorage
	Applicants ApplicantRecorder
	Cognito    CognitoAuthAPI
	Metrics    *metrics.Metrics
}

type Service struct {
	logger     *logrus.Logger
	config     *types.Config
	cases      CaseService
	auth       Authenticator
	documents  DocumentStorage
	applicants ApplicantRecorder
	cognito    CognitoAuthAPI
	metrics    *metrics.Metrics
	cookie     *securecookie.SecureCookie

	handler http.Handler
	server  *http.Server
}

func New(config *types.Config, logger *logrus.Logger, deps Deps) (*Service, error) {
	if deps.Cases == nil || deps.Auth == nil {
		return nil, fmt.Errorf("server: case service and authenticator are required")
	}

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie block key: %w", err)
	}
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		logger.Warn("COOKIE_HASH_KEY not set, session cookies will not survive a restart")
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}

	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	mux := flow.New()

	s := &Service{
		logger:     logger,
		config:     config,
		cases:      deps.Cases,
		auth:       deps.Auth,
		documents:  deps.Documents,
		applicants: deps.Applicants,
		cognito:    deps.Cognito,
		metrics:    deps.Metrics,
		cookie:     securecookie.New(hashKey, blockKey),
		handler:    mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler(), http.MethodGet)

	if s.cognito != nil {
		r.HandleFunc("/api/register", s.handlePostRegister, http.MethodPost)
		r.HandleFunc("/api/register/confirm", s.handlePostRegisterConfirm, http.MethodPost)
		r.HandleFunc("/api/login", s.handlePostLogin, http.MethodPost)
	}
	r.HandleFunc("/api/logout", s.handlePostLogout, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/me", s.handleGetMe, http.MethodGet)
		r.HandleFunc("/api/notifications", s.handleListNotifications, http.MethodGet)

		r.HandleFunc("/api/cases", s.handleCreateCase, http.MethodPost)
		r.HandleFunc("/api/cases", s.handleListCases, http.MethodGet)
		r.HandleFunc("/api/cases/:caseID", s.handleGetCase, http.MethodGet)
		r.HandleFunc("/api/cases/:caseID", s.handleUpdateDraft, http.MethodPatch)
		r.HandleFunc("/api/cases/:caseID/submit", s.handleSubmit, http.MethodPost)
		r.HandleFunc("/api/cases/:caseID/history", s.handleGetHistory, http.MethodGet)
		r.HandleFunc("/api/cases/:caseID/disbursements", s.handleGetCaseDisbursements, http.MethodGet)
		r.HandleFunc("/api/cases/:caseID/requests/:requestID/fulfill", s.handleFulfillRequest, http.MethodPost)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireAdmin)

			r.HandleFunc("/api/pool", s.handleListPool, http.MethodGet)
			r.HandleFunc("/api/cases/:caseID/claim", s.handleClaim, http.MethodPost)
			r.HandleFunc("/api/cases/:caseID/release", s.handleRelease, http.MethodPost)
			r.HandleFunc("/api/cases/:caseID/status", s.handleChangeStatus, http.MethodPost)
			r.HandleFunc("/api/cases/:caseID/notes", s.handleAddNote, http.MethodPost)
			r.HandleFunc("/api/cases/:caseID/flag", s.handleFlag, http.MethodPost)
			r.HandleFunc("/api/cases/:caseID/requests", s.handleRequestDocument, http.MethodPost)
			r.HandleFunc("/api/cases/:caseID/requests/:requestID/verify", s.handleVerifyRequest, http.MethodPost)
			r.HandleFunc("/api/cases/:caseID/disbursements", s.handleRecordDisbursement, http.MethodPost)

			r.HandleFunc("/api/applicants/:applicantID/disbursements/summary", s.handleApplicantSummary, http.MethodGet)
			r.HandleFunc("/api/disbursements/summary", s.handleMasjidSummary, http.MethodGet)
			r.HandleFunc("/api/disbursements/applicants", s.handleAllApplicantsSummary, http.MethodGet)
		})
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleGetMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	s.writeJSON(w, http.StatusOK, actor)
}

type notificationQuery struct {
	Limit uint64 `form:"limit"`
}

func (s *Service) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var q notificationQuery
	if err := decodeQuery(r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.cases.ListNotifications(r.Context(), actor.ID, q.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, list)
}
