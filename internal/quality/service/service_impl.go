package service

import (
	"context"
	"strings"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/observability/metrics"
	"github.com/ayurtrace/ayurtrace/internal/quality/domain"
	"github.com/ayurtrace/ayurtrace/internal/quality/thresholds"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const clockSkew = 5 * time.Minute

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Validate   *validator.Validate
	Authz      authorization.Service
	Thresholds *thresholds.Holder
	Metrics    *metrics.TraceMetrics `optional:"true"`
	Registry   registrydomain.Reader
	Batches    batchdomain.Lifecycle
	Repo       domain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	validate   *validator.Validate
	authz      authorization.Service
	thresholds *thresholds.Holder
	metrics    *metrics.TraceMetrics
	registry   registrydomain.Reader
	batches    batchdomain.Lifecycle
	repo       domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("quality.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		validate:   p.Validate,
		authz:      p.Authz,
		thresholds: p.Thresholds,
		metrics:    p.Metrics,
		registry:   p.Registry,
		batches:    p.Batches,
		repo:       p.Repo,
	}
}

func (s *Service) Submit(ctx context.Context, who actor.Actor, req domain.SubmitRequest) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectQualityTest, authorization.ActionQualityTestSubmit); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	batchID, err := parseRef(req.BatchID)
	if err != nil {
		return nil, err
	}
	labID, err := parseRef(req.LabID)
	if err != nil {
		return nil, err
	}
	testType, ok := domain.ParseTestType(req.TestType)
	if !ok {
		return nil, domain.ErrInvalidTestType
	}
	declared, ok := domain.ParseResult(req.Result)
	if !ok {
		return nil, domain.ErrInvalidResult
	}
	lab, err := s.registry.LabByID(ctx, labID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	testedAt := now
	if req.TestedAt != nil {
		testedAt = req.TestedAt.UTC()
	}
	if testedAt.After(now.Add(clockSkew)) {
		return nil, domain.ErrTestedInFuture
	}

	test := &domain.QualityTest{
		ID:             s.genID.Generate().Int64(),
		BatchID:        batchID,
		LabID:          lab.ID,
		TestType:       testType,
		DeclaredResult: declared,
		Value:          req.Value,
		Unit:           strings.TrimSpace(req.Unit),
		TestedAt:       testedAt,
		CertificateRef: req.CertificateRef,
		SubmittedBy:    who.ID.Int64(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.revalidate(test)

	batch, err := s.batches.ApplyQualityResult(ctx, batchID, outcomeOf(test, true), func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, test)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncQualityResult(string(test.TestType), string(test.ValidationStatus), test.Critical)
	s.log.Info("quality test submitted",
		zap.Int64("quality_test_id", test.ID),
		zap.Int64("batch_id", batchID),
		zap.String("test_type", string(test.TestType)),
		zap.String("validation_status", string(test.ValidationStatus)),
		zap.Bool("critical", test.Critical),
	)
	resp := toResponse(test)
	resp.BatchStatus = string(batch.Status)
	return &resp, nil
}

// UpdateResult replaces the lab's result and recomputes the validation.
func (s *Service) UpdateResult(ctx context.Context, who actor.Actor, id string, req domain.UpdateResultRequest) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectQualityTest, authorization.ActionQualityTestUpdate); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	if req.Result == nil && req.Value == nil && req.Unit == nil && req.CertificateRef == nil {
		return nil, domain.ErrEmptyUpdate
	}
	testID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	test, err := s.find(ctx, testID)
	if err != nil {
		return nil, err
	}

	resultChanged := false
	if req.Result != nil {
		declared, ok := domain.ParseResult(*req.Result)
		if !ok {
			return nil, domain.ErrInvalidResult
		}
		resultChanged = declared != test.DeclaredResult
		test.DeclaredResult = declared
	}
	if req.Value != nil {
		resultChanged = resultChanged || test.Value == nil || *test.Value != *req.Value
		test.Value = req.Value
	}
	if req.Unit != nil {
		test.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.CertificateRef != nil {
		test.CertificateRef = req.CertificateRef
	}
	test.UpdatedAt = s.clock.Now()
	s.revalidate(test)

	outcome := outcomeOf(test, false)
	outcome.Unchanged = !resultChanged
	batch, err := s.batches.ApplyQualityResult(ctx, test.BatchID, outcome, func(tx *gorm.DB) error {
		return s.repo.UpdateResult(ctx, tx, test)
	})
	if err != nil {
		return nil, err
	}

	if resultChanged {
		s.metrics.IncQualityResult(string(test.TestType), string(test.ValidationStatus), test.Critical)
	}
	s.log.Info("quality test updated",
		zap.Int64("quality_test_id", test.ID),
		zap.String("validation_status", string(test.ValidationStatus)),
	)
	resp := toResponse(test)
	resp.BatchStatus = string(batch.Status)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, who actor.Actor, id string) (*domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectQualityTest, authorization.ActionView); err != nil {
		return nil, err
	}
	testID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	test, err := s.find(ctx, testID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(test)
	return &resp, nil
}

func (s *Service) ListByBatch(ctx context.Context, who actor.Actor, batchID string) ([]domain.Response, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectQualityTest, authorization.ActionView); err != nil {
		return nil, err
	}
	id, err := parseRef(batchID)
	if err != nil {
		return nil, err
	}
	tests, err := s.repo.ListByBatch(ctx, s.db, id)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resp := make([]domain.Response, 0, len(tests))
	for i := range tests {
		resp = append(resp, toResponse(&tests[i]))
	}
	return resp, nil
}

func (s *Service) revalidate(test *domain.QualityTest) {
	v := s.thresholds.Get().Validate(test.TestType, test.DeclaredResult, test.Value, test.Unit)
	test.ValidationStatus = v.Status
	test.ValidationNotes = datatypes.JSONSlice[string](v.Notes)
	test.Critical = v.Critical
}

func (s *Service) find(ctx context.Context, id int64) (*domain.QualityTest, error) {
	test, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if test == nil {
		return nil, domain.ErrNotFound
	}
	return test, nil
}

func outcomeOf(test *domain.QualityTest, appendID bool) batchdomain.QualityOutcome {
	return batchdomain.QualityOutcome{
		TestID:   test.ID,
		TestType: string(test.TestType),
		Passed:   test.ValidationStatus == domain.ResultPassed,
		Critical: test.Critical,
		Append:   appendID,
	}
}

func toResponse(t *domain.QualityTest) domain.Response {
	notes := []string(t.ValidationNotes)
	if notes == nil {
		notes = []string{}
	}
	return domain.Response{
		ID:               snowflake.ID(t.ID).String(),
		BatchID:          snowflake.ID(t.BatchID).String(),
		LabID:            snowflake.ID(t.LabID).String(),
		TestType:         t.TestType,
		Result:           t.DeclaredResult,
		Value:            t.Value,
		Unit:             t.Unit,
		TestedAt:         t.TestedAt,
		CertificateRef:   t.CertificateRef,
		ValidationStatus: t.ValidationStatus,
		ValidationNotes:  notes,
		Critical:         t.Critical,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func parseID(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}

func parseRef(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidReference
	}
	return id.Int64(), nil
}
