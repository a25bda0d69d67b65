package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	productdomain "github.com/ayurtrace/ayurtrace/internal/product/domain"
	"github.com/ayurtrace/ayurtrace/internal/quality/domain"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/ayurtrace/ayurtrace/internal/testutil"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	env   *testutil.Env
	svc   *testutil.Services
	lab   actor.Actor
	maker actor.Actor
	labID string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := testutil.New(t)
	fixture := env.SeedRegistry(t)
	return &harness{
		env:   env,
		svc:   env.Services(t),
		lab:   env.Actor(actor.RoleLaboratory),
		maker: env.Actor(actor.RoleManufacturer),
		labID: snowflake.ID(fixture.Lab.ID).String(),
	}
}

// batchAt creates a batch and moves it to status.
func (h *harness) batchAt(t *testing.T, status batchdomain.Status) *batchdomain.Response {
	t.Helper()
	ctx := context.Background()
	var species registrydomain.Species
	require.NoError(t, h.env.DB.First(&species).Error)
	batch, err := h.svc.Batch.CreateBatch(ctx, h.maker, batchdomain.CreateRequest{SpeciesID: snowflake.ID(species.ID).String()})
	require.NoError(t, err)
	if status != batchdomain.StatusCollected {
		batch, err = h.svc.Batch.UpdateStatus(ctx, h.maker, batch.ID, batchdomain.UpdateStatusRequest{Status: string(status)})
		require.NoError(t, err)
	}
	return batch
}

func (h *harness) submit(t *testing.T, batchID string, testType domain.TestType, result domain.Result, value float64, unit string) *domain.Response {
	t.Helper()
	resp, err := h.svc.Quality.Submit(context.Background(), h.lab, domain.SubmitRequest{
		BatchID:  batchID,
		LabID:    h.labID,
		TestType: string(testType),
		Result:   string(result),
		Value:    &value,
		Unit:     unit,
	})
	require.NoError(t, err)
	return resp
}

func (h *harness) batch(t *testing.T, id string) *batchdomain.Response {
	t.Helper()
	resp, err := h.svc.Batch.Get(context.Background(), h.maker, id)
	require.NoError(t, err)
	return resp
}

func TestPassingTestReturnsBatchToProcessing(t *testing.T) {
	h := newHarness(t)
	batch := h.batchAt(t, batchdomain.StatusQualityCheck)

	resp := h.submit(t, batch.ID, domain.TestMoistureContent, domain.ResultPassed, 9.8, "%")

	assert.Equal(t, domain.ResultPassed, resp.ValidationStatus)
	assert.False(t, resp.Critical)
	assert.Equal(t, string(batchdomain.StatusProcessing), resp.BatchStatus)

	got := h.batch(t, batch.ID)
	assert.Equal(t, []string{resp.ID}, got.QualityTestIDs)
}

func TestNonCriticalFailureHoldsBatch(t *testing.T) {
	h := newHarness(t)
	batch := h.batchAt(t, batchdomain.StatusQualityCheck)

	resp := h.submit(t, batch.ID, domain.TestMoistureContent, domain.ResultPassed, 14, "%")

	assert.Equal(t, domain.ResultFailed, resp.ValidationStatus)
	assert.False(t, resp.Critical)
	assert.Equal(t, []string{"MOISTURE_CONTENT 14% exceeds maximum 12%"}, resp.ValidationNotes)

	got := h.batch(t, batch.ID)
	assert.Equal(t, batchdomain.StatusQualityFailed, got.Status)
	assert.False(t, got.RecallFlag)
}

func TestCriticalFailureRecallsBatchAndProducts(t *testing.T) {
	h := newHarness(t)
	batch := h.batchAt(t, batchdomain.StatusPackaged)
	_, err := h.svc.Product.Create(context.Background(), h.maker, productdomain.CreateRequest{BatchID: batch.ID, Name: "Ashwagandha Capsules", SKU: "ASH-CAP-60"})
	require.NoError(t, err)

	resp := h.submit(t, batch.ID, domain.TestPesticideResidue, domain.ResultPassed, 0.4, "ppm")
	assert.Equal(t, domain.ResultFailed, resp.ValidationStatus)
	assert.True(t, resp.Critical)
	assert.Equal(t, string(batchdomain.StatusQualityFailed), resp.BatchStatus)

	got := h.batch(t, batch.ID)
	assert.True(t, got.RecallFlag)
	require.NotNil(t, got.RecallSeverity)
	assert.Equal(t, batchdomain.SeverityCritical, *got.RecallSeverity)
	require.NotNil(t, got.RecallReason)
	assert.Contains(t, *got.RecallReason, "PESTICIDE_RESIDUE")

	products, err := h.svc.Product.ListByBatch(context.Background(), h.maker, batch.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].RecallFlag)

	id, err := snowflake.ParseString(batch.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, h.env.CountRows(t, "processing_steps", "batch_id = ? AND step_type = ?", id.Int64(), batchdomain.StepQualityRecall))
	assert.EqualValues(t, 0, h.env.CountRows(t, "processing_steps", "batch_id = ? AND step_type = ?", id.Int64(), batchdomain.StepRecall))
}

func TestRecallAfterCriticalFailureRecordsOperatorReason(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	batch := h.batchAt(t, batchdomain.StatusPackaged)
	_, err := h.svc.Product.Create(ctx, h.maker, productdomain.CreateRequest{BatchID: batch.ID, Name: "Ashwagandha Powder", SKU: "ASH-PWD-100"})
	require.NoError(t, err)
	h.submit(t, batch.ID, domain.TestPesticideResidue, domain.ResultPassed, 0.5, "ppm")

	id, err := snowflake.ParseString(batch.ID)
	require.NoError(t, err)
	recallSteps := func() int64 {
		return h.env.CountRows(t, "processing_steps", "batch_id = ? AND step_type = ?", id.Int64(), batchdomain.StepRecall)
	}

	got, err := h.svc.Batch.SetRecallFlag(ctx, h.maker, batch.ID, batchdomain.RecallRequest{Reason: "contamination", Severity: "LOW"})
	require.NoError(t, err)
	assert.Equal(t, batchdomain.StatusRecalled, got.Status)
	require.NotNil(t, got.RecallReason)
	assert.Equal(t, "contamination", *got.RecallReason)
	require.NotNil(t, got.RecallSeverity)
	assert.Equal(t, batchdomain.SeverityLow, *got.RecallSeverity)
	assert.EqualValues(t, 1, recallSteps())

	products, err := h.svc.Product.ListByBatch(ctx, h.maker, batch.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].RecallReason)
	assert.Equal(t, "contamination", *products[0].RecallReason)

	again, err := h.svc.Batch.SetRecallFlag(ctx, h.maker, batch.ID, batchdomain.RecallRequest{Reason: "retry", Severity: "HIGH"})
	require.NoError(t, err)
	assert.Equal(t, "contamination", *again.RecallReason)
	assert.EqualValues(t, 1, recallSteps())
}

func TestPassAfterCriticalFailureKeepsRecall(t *testing.T) {
	h := newHarness(t)
	batch := h.batchAt(t, batchdomain.StatusQualityCheck)
	h.submit(t, batch.ID, domain.TestHeavyMetals, domain.ResultFailed, 0.9, "ppm")

	resp := h.submit(t, batch.ID, domain.TestMoistureContent, domain.ResultPassed, 8, "%")
	assert.Equal(t, domain.ResultPassed, resp.ValidationStatus)

	got := h.batch(t, batch.ID)
	assert.True(t, got.RecallFlag)
	assert.Equal(t, batchdomain.StatusQualityFailed, got.Status)
	assert.Len(t, got.QualityTestIDs, 2)
}

func TestPendingDeclarationWithoutValuePasses(t *testing.T) {
	h := newHarness(t)
	batch := h.batchAt(t, batchdomain.StatusQualityCheck)

	resp, err := h.svc.Quality.Submit(context.Background(), h.lab, domain.SubmitRequest{
		BatchID:  batch.ID,
		LabID:    h.labID,
		TestType: "dna_barcoding",
		Result:   "pending",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultPending, resp.Result)
	assert.Equal(t, domain.ResultPassed, resp.ValidationStatus)
	assert.Equal(t, string(batchdomain.StatusProcessing), resp.BatchStatus)
}

func TestUpdateWithoutResultChangeLeavesBatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	batch := h.batchAt(t, batchdomain.StatusProcessing)
	test := h.submit(t, batch.ID, domain.TestMoistureContent, domain.ResultPassed, 9, "%")
	_, err := h.svc.Batch.UpdateStatus(ctx, h.maker, batch.ID, batchdomain.UpdateStatusRequest{Status: "QUALITY_CHECK"})
	require.NoError(t, err)

	cert := "CERT-2026-0042"
	resp, err := h.svc.Quality.UpdateResult(ctx, h.lab, test.ID, domain.UpdateResultRequest{CertificateRef: &cert})
	require.NoError(t, err)
	require.NotNil(t, resp.CertificateRef)
	assert.Equal(t, cert, *resp.CertificateRef)
	assert.Equal(t, string(batchdomain.StatusQualityCheck), resp.BatchStatus)

	same := 9.0
	resp, err = h.svc.Quality.UpdateResult(ctx, h.lab, test.ID, domain.UpdateResultRequest{Value: &same})
	require.NoError(t, err)
	assert.Equal(t, string(batchdomain.StatusQualityCheck), resp.BatchStatus)
	assert.Equal(t, batchdomain.StatusQualityCheck, h.batch(t, batch.ID).Status)
}

func TestUpdateResultRevalidates(t *testing.T) {
	h := newHarness(t)
	batch := h.batchAt(t, batchdomain.StatusQualityCheck)
	first := h.submit(t, batch.ID, domain.TestMoistureContent, domain.ResultPassed, 15, "%")
	require.Equal(t, domain.ResultFailed, first.ValidationStatus)

	corrected := 10.5
	resp, err := h.svc.Quality.UpdateResult(context.Background(), h.lab, first.ID, domain.UpdateResultRequest{Value: &corrected})
	require.NoError(t, err)
	assert.Equal(t, domain.ResultPassed, resp.ValidationStatus)
	assert.Equal(t, string(batchdomain.StatusProcessing), resp.BatchStatus)

	got := h.batch(t, batch.ID)
	assert.Len(t, got.QualityTestIDs, 1)

	_, err = h.svc.Quality.UpdateResult(context.Background(), h.lab, first.ID, domain.UpdateResultRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyUpdate)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	batch := h.batchAt(t, batchdomain.StatusQualityCheck)
	ctx := context.Background()
	value := 1.0

	_, err := h.svc.Quality.Submit(ctx, h.lab, domain.SubmitRequest{BatchID: batch.ID, LabID: h.labID, TestType: "TASTE", Result: "PASSED", Value: &value})
	assert.ErrorIs(t, err, domain.ErrInvalidTestType)

	_, err = h.svc.Quality.Submit(ctx, h.lab, domain.SubmitRequest{BatchID: batch.ID, LabID: h.labID, TestType: "AFLATOXIN", Result: "MAYBE", Value: &value})
	assert.ErrorIs(t, err, domain.ErrInvalidResult)

	future := h.env.Clock.Now().Add(24 * time.Hour)
	_, err = h.svc.Quality.Submit(ctx, h.lab, domain.SubmitRequest{BatchID: batch.ID, LabID: h.labID, TestType: "AFLATOXIN", Result: "PASSED", Value: &value, TestedAt: &future})
	assert.ErrorIs(t, err, domain.ErrTestedInFuture)

	_, err = h.svc.Quality.Submit(ctx, h.lab, domain.SubmitRequest{BatchID: "424242", LabID: h.labID, TestType: "AFLATOXIN", Result: "PASSED", Value: &value})
	assert.ErrorIs(t, err, batchdomain.ErrNotFound)
	assert.EqualValues(t, 0, h.env.CountRows(t, "quality_tests", "batch_id = ?", 424242))

	_, err = h.svc.Quality.Submit(ctx, h.maker, domain.SubmitRequest{BatchID: batch.ID, LabID: h.labID, TestType: "AFLATOXIN", Result: "PASSED", Value: &value})
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestListByBatchOrdersByTestedAt(t *testing.T) {
	h := newHarness(t)
	batch := h.batchAt(t, batchdomain.StatusQualityCheck)
	ctx := context.Background()
	value := 5.0
	later := h.env.Clock.Now().Add(-time.Hour)
	earlier := h.env.Clock.Now().Add(-3 * time.Hour)

	second, err := h.svc.Quality.Submit(ctx, h.lab, domain.SubmitRequest{BatchID: batch.ID, LabID: h.labID, TestType: "AFLATOXIN", Result: "PASSED", Value: &value, TestedAt: &later})
	require.NoError(t, err)
	first, err := h.svc.Quality.Submit(ctx, h.lab, domain.SubmitRequest{BatchID: batch.ID, LabID: h.labID, TestType: "MOISTURE_CONTENT", Result: "PASSED", Value: &value, TestedAt: &earlier})
	require.NoError(t, err)

	tests, err := h.svc.Quality.ListByBatch(ctx, h.maker, batch.ID)
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Equal(t, first.ID, tests[0].ID)
	assert.Equal(t, second.ID, tests[1].ID)
}
