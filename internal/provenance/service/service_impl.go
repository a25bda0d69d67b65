package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	auditdomain "github.com/ayurtrace/ayurtrace/internal/audit/domain"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/blob"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	collectiondomain "github.com/ayurtrace/ayurtrace/internal/collection/domain"
	"github.com/ayurtrace/ayurtrace/internal/config"
	"github.com/ayurtrace/ayurtrace/internal/observability/metrics"
	productdomain "github.com/ayurtrace/ayurtrace/internal/product/domain"
	"github.com/ayurtrace/ayurtrace/internal/provenance/domain"
	"github.com/ayurtrace/ayurtrace/internal/providers/pdf"
	qrdomain "github.com/ayurtrace/ayurtrace/internal/qrcode/domain"
	qualitydomain "github.com/ayurtrace/ayurtrace/internal/quality/domain"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Config    config.Config
	GenID     *snowflake.Node
	Clock     clock.Clock
	Authz     authorization.Service
	Audit     auditdomain.Service
	Metrics   *metrics.TraceMetrics `optional:"true"`
	Blob      blob.Store
	PDF       pdf.Provider
	Batches   batchdomain.Reader
	Lifecycle batchdomain.Lifecycle
	Registry  registrydomain.Reader
	Events    collectiondomain.Repository
	Tests     qualitydomain.Repository
	Products  productdomain.Repository
	QrCodes   qrdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	baseURL   string
	genID     *snowflake.Node
	clock     clock.Clock
	authz     authorization.Service
	audit     auditdomain.Service
	metrics   *metrics.TraceMetrics
	blob      blob.Store
	pdf       pdf.Provider
	batches   batchdomain.Reader
	lifecycle batchdomain.Lifecycle
	registry  registrydomain.Reader
	events    collectiondomain.Repository
	tests     qualitydomain.Repository
	products  productdomain.Repository
	qrCodes   qrdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("provenance.service"),
		baseURL:   strings.TrimRight(p.Config.PublicBaseURL, "/"),
		genID:     p.GenID,
		clock:     p.Clock,
		authz:     p.Authz,
		audit:     p.Audit,
		metrics:   p.Metrics,
		blob:      p.Blob,
		pdf:       p.PDF,
		batches:   p.Batches,
		lifecycle: p.Lifecycle,
		registry:  p.Registry,
		events:    p.Events,
		tests:     p.Tests,
		products:  p.Products,
		qrCodes:   p.QrCodes,
	}
}

func (s *Service) Assemble(ctx context.Context, batchID int64) (*domain.Provenance, error) {
	batch, err := s.batches.BatchByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, batchdomain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	out := &domain.Provenance{
		Batch:       *batch,
		AssembledAt: s.clock.Now(),
	}

	if out.Species, err = s.registry.SpeciesByID(ctx, batch.SpeciesID); err != nil && !errors.Is(err, registrydomain.ErrSpeciesNotFound) {
		return nil, err
	}

	events, err := s.events.FindByIDs(ctx, s.db, []int64(batch.CollectionEventIDs))
	if err != nil {
		return nil, apperror.Storage(err)
	}
	out.Events = inBatchOrder(events, batch.CollectionEventIDs)

	if out.Steps, err = s.batches.StepsByBatch(ctx, batchID); err != nil {
		return nil, err
	}
	if out.Tests, err = s.tests.ListByBatch(ctx, s.db, batchID); err != nil {
		return nil, apperror.Storage(err)
	}
	if out.Products, err = s.products.ListByBatch(ctx, s.db, batchID); err != nil {
		return nil, apperror.Storage(err)
	}
	if out.QrCode, err = s.qrCodes.FindByBatchID(ctx, s.db, batchID); err != nil {
		return nil, apperror.Storage(err)
	}

	if err := s.resolveReferences(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// inBatchOrder lists events in the order the batch linked them.
func inBatchOrder(events []collectiondomain.CollectionEvent, ids []int64) []collectiondomain.CollectionEvent {
	byID := make(map[int64]collectiondomain.CollectionEvent, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	out := make([]collectiondomain.CollectionEvent, 0, len(events))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (s *Service) resolveReferences(ctx context.Context, p *domain.Provenance) error {
	var collectorIDs, cooperativeIDs, facilityIDs, labIDs []int64
	for _, e := range p.Events {
		collectorIDs = append(collectorIDs, e.CollectorID)
		cooperativeIDs = append(cooperativeIDs, e.CooperativeID)
	}
	for _, step := range p.Steps {
		if step.FacilityID != nil {
			facilityIDs = append(facilityIDs, *step.FacilityID)
		}
	}
	for _, t := range p.Tests {
		labIDs = append(labIDs, t.LabID)
	}

	var err error
	if p.Collectors, err = s.registry.CollectorsByIDs(ctx, collectorIDs); err != nil {
		return err
	}
	if p.Cooperatives, err = s.registry.CooperativesByIDs(ctx, cooperativeIDs); err != nil {
		return err
	}
	if p.Facilities, err = s.registry.FacilitiesByIDs(ctx, facilityIDs); err != nil {
		return err
	}
	if p.Labs, err = s.registry.LabsByIDs(ctx, labIDs); err != nil {
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, who actor.Actor, batchID string) (*domain.Bundle, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectProvenance, authorization.ActionView); err != nil {
		return nil, err
	}
	id, err := parseID(batchID)
	if err != nil {
		return nil, err
	}
	p, err := s.Assemble(ctx, id)
	if err != nil {
		return nil, err
	}
	bundle := p.ToBundle()
	return &bundle, nil
}

func (s *Service) TraceByQR(ctx context.Context, raw string, meta domain.ScanMeta) (*domain.Bundle, error) {
	code, err := qrdomain.NormalizeCode(raw)
	if err != nil {
		return nil, err
	}
	qr, err := s.qrCodes.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if qr == nil {
		return nil, qrdomain.ErrNotFound
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.qrCodes.IncrementScan(ctx, tx, qr.ID, now)
		if err != nil {
			return err
		}
		if !found {
			return qrdomain.ErrNotFound
		}
		return s.qrCodes.InsertScan(ctx, tx, &qrdomain.ConsumerScan{
			ID:        s.genID.Generate().Int64(),
			QrCodeID:  qr.ID,
			BatchID:   qr.BatchID,
			ScannedAt: now,
			Location:  meta.Location,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			AccountID: meta.AccountID,
		})
	})
	if err != nil {
		return nil, apperror.Storage(err)
	}
	s.metrics.IncQRScan()

	p, err := s.Assemble(ctx, qr.BatchID)
	if err != nil {
		return nil, err
	}
	bundle := p.ToBundle()
	return &bundle, nil
}

func (s *Service) Publish(ctx context.Context, who actor.Actor, batchID string) (*domain.PublishResult, error) {
	if err := s.authz.Authorize(ctx, who, authorization.ObjectProvenance, authorization.ActionProvenancePublish); err != nil {
		return nil, err
	}
	id, err := parseID(batchID)
	if err != nil {
		return nil, err
	}
	p, err := s.Assemble(ctx, id)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(p.ToBundle())
	if err != nil {
		return nil, err
	}
	certificate, err := s.pdf.GenerateCertificate(ctx, s.certificateData(p))
	if err != nil {
		return nil, err
	}

	prefix := "provenance/" + snowflake.ID(id).String() + "/"
	bundleURL, err := s.upload(ctx, prefix+"bundle.json", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	certificateURL, err := s.upload(ctx, prefix+"certificate.pdf", certificate, "application/pdf")
	if err != nil {
		return nil, err
	}

	if err := s.lifecycle.SetProvenanceBundleURL(ctx, id, bundleURL); err != nil {
		return nil, err
	}

	s.metrics.IncBundlePublished()
	target := snowflake.ID(id).String()
	if err := s.audit.AuditLog(ctx, who, auditdomain.ActionBundlePublished, "batch", &target, map[string]any{
		"bundle_url":      bundleURL,
		"certificate_url": certificateURL,
	}); err != nil {
		s.log.Warn("failed to audit bundle publication", zap.String("batch_id", target), zap.Error(err))
	}
	s.log.Info("provenance bundle published",
		zap.String("batch_id", target),
		zap.String("actor", who.String()),
	)

	return &domain.PublishResult{
		BatchID:        target,
		BundleURL:      bundleURL,
		CertificateURL: certificateURL,
	}, nil
}

func (s *Service) upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if _, err := s.blob.Put(ctx, key, body, contentType); err != nil {
		return "", apperror.Storage(err)
	}
	url, err := s.blob.URL(ctx, key)
	if err != nil {
		return "", apperror.Storage(err)
	}
	return url, nil
}

func (s *Service) traceURL(code string) string {
	return s.baseURL + "/public/trace/" + code
}

func (s *Service) certificateData(p *domain.Provenance) pdf.CertificateData {
	const day = "2006-01-02"

	data := pdf.CertificateData{
		BatchID:     snowflake.ID(p.Batch.ID).String(),
		Species:     p.SpeciesName(),
		Status:      string(p.Batch.Status),
		QrCode:      p.Batch.QrCode,
		TraceURL:    s.traceURL(p.Batch.QrCode),
		Recalled:    p.Batch.RecallFlag,
		GeneratedAt: p.AssembledAt.Format(day),
	}
	if p.Species != nil {
		data.Species = p.Species.CommonName + " (" + p.Species.BotanicalName + ")"
	}
	if p.Batch.RecallReason != nil {
		data.RecallReason = *p.Batch.RecallReason
	}

	for _, e := range p.Events {
		data.Events = append(data.Events, pdf.CertificateRow{
			Date:    e.CollectedAt.Format(day),
			Columns: [3]string{p.CollectorName(e.CollectorID), p.CooperativeName(e.CooperativeID), e.HarvestMethod},
		})
	}
	for _, step := range p.Steps {
		row := pdf.CertificateRow{Date: step.Timestamp.Format(day)}
		row.Columns[0] = step.StepType
		if step.FacilityID != nil {
			row.Columns[1] = p.FacilityName(*step.FacilityID)
		}
		if step.Notes != nil {
			row.Columns[2] = *step.Notes
		}
		data.Steps = append(data.Steps, row)
	}
	for _, t := range p.Tests {
		result := string(t.ValidationStatus)
		if t.Value != nil {
			result += " (" + strconv.FormatFloat(*t.Value, 'f', -1, 64) + " " + t.Unit + ")"
		}
		data.Tests = append(data.Tests, pdf.CertificateRow{
			Date:    t.TestedAt.Format(day),
			Columns: [3]string{string(t.TestType), result, p.LabName(t.LabID)},
		})
	}
	for _, pr := range p.Products {
		row := pdf.CertificateRow{Date: pr.PackagingDate.Format(day)}
		row.Columns[0] = pr.Name
		row.Columns[1] = string(pr.Status)
		if pr.RetailLocation != nil {
			row.Columns[2] = *pr.RetailLocation
		}
		data.Products = append(data.Products, row)
	}
	return data
}

func parseID(value string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}
