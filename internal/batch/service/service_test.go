package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	"github.com/ayurtrace/ayurtrace/internal/batch/domain"
	collectiondomain "github.com/ayurtrace/ayurtrace/internal/collection/domain"
	"github.com/ayurtrace/ayurtrace/internal/lock"
	productdomain "github.com/ayurtrace/ayurtrace/internal/product/domain"
	"github.com/ayurtrace/ayurtrace/internal/testutil"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	env     *testutil.Env
	svc     *testutil.Services
	fixture testutil.Fixture
	maker   actor.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := testutil.New(t)
	return &harness{
		env:     env,
		svc:     env.Services(t),
		fixture: env.SeedRegistry(t),
		maker:   env.Actor(actor.RoleManufacturer),
	}
}

func (h *harness) createBatch(t *testing.T, events ...*collectiondomain.CollectionEvent) *domain.Response {
	t.Helper()
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, snowflake.ID(e.ID).String())
	}
	resp, err := h.svc.Batch.CreateBatch(context.Background(), h.maker, domain.CreateRequest{
		SpeciesID:          snowflake.ID(h.fixture.Species.ID).String(),
		CollectionEventIDs: ids,
		Location:           "Neemuch mandi",
	})
	require.NoError(t, err)
	return resp
}

func (h *harness) move(t *testing.T, batchID string, status domain.Status) *domain.Response {
	t.Helper()
	resp, err := h.svc.Batch.UpdateStatus(context.Background(), h.maker, batchID, domain.UpdateStatusRequest{Status: string(status)})
	require.NoError(t, err)
	return resp
}

func (h *harness) addProduct(t *testing.T, batchID string, sku string) *productdomain.Response {
	t.Helper()
	resp, err := h.svc.Product.Create(context.Background(), h.maker, productdomain.CreateRequest{
		BatchID: batchID,
		Name:    "Ashwagandha Churna 100g",
		SKU:     sku,
	})
	require.NoError(t, err)
	return resp
}

func TestCreateBatchLinksEventsAndIssuesCode(t *testing.T) {
	h := newHarness(t)
	first := h.env.SeedEvent(t, h.fixture, testutil.Epoch.Add(-48*time.Hour))
	second := h.env.SeedEvent(t, h.fixture, testutil.Epoch.Add(-24*time.Hour))

	resp := h.createBatch(t, first, second)

	assert.Equal(t, domain.StatusCollected, resp.Status)
	assert.False(t, resp.RecallFlag)
	assert.True(t, strings.HasPrefix(resp.QrCode, "AYU-"))
	assert.Len(t, resp.CollectionEventIDs, 2)
	assert.Empty(t, resp.ProcessingStepIDs)
	assert.Equal(t, "Neemuch mandi", resp.CurrentLocation)

	assert.EqualValues(t, 1, h.env.CountRows(t, "qr_codes", "code = ?", resp.QrCode))
	batchID, err := snowflake.ParseString(resp.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, h.env.CountRows(t, "collection_events", "batch_id = ?", batchID.Int64()))
}

func TestCreateBatchIssuesDistinctCodes(t *testing.T) {
	h := newHarness(t)
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		resp := h.createBatch(t)
		_, dup := seen[resp.QrCode]
		require.False(t, dup, "duplicate code %s", resp.QrCode)
		seen[resp.QrCode] = struct{}{}
	}
}

func TestConcurrentCreateBatchIssuesDistinctCodes(t *testing.T) {
	h := newHarness(t)
	h.env.SerializeWrites(t)
	const n = 20

	var wg sync.WaitGroup
	codes := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := h.svc.Batch.CreateBatch(context.Background(), h.maker, domain.CreateRequest{
				SpeciesID: snowflake.ID(h.fixture.Species.ID).String(),
			})
			errs[i] = err
			if err == nil {
				codes[i] = resp.QrCode
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]struct{}{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		_, dup := seen[codes[i]]
		require.False(t, dup, "duplicate code %s", codes[i])
		seen[codes[i]] = struct{}{}
	}
	assert.EqualValues(t, n, h.env.CountRows(t, "qr_codes", "1 = 1"))
}

func TestCreateBatchRejectsBatchedEvent(t *testing.T) {
	h := newHarness(t)
	event := h.env.SeedEvent(t, h.fixture, testutil.Epoch.Add(-time.Hour))
	h.createBatch(t, event)

	_, err := h.svc.Batch.CreateBatch(context.Background(), h.maker, domain.CreateRequest{
		SpeciesID:          snowflake.ID(h.fixture.Species.ID).String(),
		CollectionEventIDs: []string{snowflake.ID(event.ID).String()},
	})
	assert.ErrorIs(t, err, collectiondomain.ErrAlreadyBatched)
}

func TestCreateBatchRejectsUnknownEvent(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Batch.CreateBatch(context.Background(), h.maker, domain.CreateRequest{
		SpeciesID:          snowflake.ID(h.fixture.Species.ID).String(),
		CollectionEventIDs: []string{"12345"},
	})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestCreateBatchRequiresPermission(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Batch.CreateBatch(context.Background(), h.env.Actor(actor.RoleConsumer), domain.CreateRequest{
		SpeciesID: snowflake.ID(h.fixture.Species.ID).String(),
	})
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestUpdateStatusRecordsOneStepPerTransition(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)

	path := []domain.Status{
		domain.StatusInTransit,
		domain.StatusProcessing,
		domain.StatusQualityCheck,
		domain.StatusPackaged,
	}
	for _, status := range path {
		h.env.Clock.Advance(time.Hour)
		resp := h.move(t, batch.ID, status)
		assert.Equal(t, status, resp.Status)
	}

	steps, err := h.svc.Batch.ListProcessingSteps(context.Background(), h.maker, batch.ID)
	require.NoError(t, err)
	require.Len(t, steps, len(path))
	prev := domain.StatusCollected
	for i, step := range steps {
		assert.Equal(t, domain.StepStatusChange, step.StepType)
		assert.Equal(t, string(prev), step.Conditions["from"])
		assert.Equal(t, string(path[i]), step.Conditions["to"])
		prev = path[i]
	}
}

func TestUpdateStatusAcceptsAnyKnownStatus(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)

	path := []domain.Status{
		domain.StatusProcessing,
		domain.StatusInTransit,
		domain.StatusCollected,
		domain.StatusCollected,
		domain.StatusDelivered,
	}
	for _, status := range path {
		resp := h.move(t, batch.ID, status)
		assert.Equal(t, status, resp.Status)
	}

	_, err := h.svc.Batch.UpdateStatus(context.Background(), h.maker, batch.ID, domain.UpdateStatusRequest{Status: "LOST"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	kind, _ := apperror.KindOf(err)
	assert.Equal(t, apperror.KindInvalidStatus, kind)

	assert.Equal(t, len(path), countSteps(t, h, batch.ID, domain.StepStatusChange))
}

func TestUpdateStatusRejectsRecalledStatus(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)

	_, err := h.svc.Batch.UpdateStatus(context.Background(), h.maker, batch.ID, domain.UpdateStatusRequest{Status: "RECALLED"})
	assert.ErrorIs(t, err, domain.ErrUseRecall)

	_, err = h.svc.Batch.UpdateStatus(context.Background(), h.maker, batch.ID, domain.UpdateStatusRequest{Status: "LOST"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdateStatusMovesLocation(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)
	where := "Indore drying yard"

	resp, err := h.svc.Batch.UpdateStatus(context.Background(), h.maker, batch.ID, domain.UpdateStatusRequest{
		Status:   "in_transit",
		Location: &where,
	})
	require.NoError(t, err)
	assert.Equal(t, where, resp.CurrentLocation)
}

func TestUpdateStatusUnknownBatch(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Batch.UpdateStatus(context.Background(), h.maker, "987654321", domain.UpdateStatusRequest{Status: "IN_TRANSIT"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.Batch.UpdateStatus(context.Background(), h.maker, "not-an-id", domain.UpdateStatusRequest{Status: "IN_TRANSIT"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUpdateStatusWrapsLockFailure(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)
	id, err := snowflake.ParseString(batch.ID)
	require.NoError(t, err)

	unlock, err := h.env.Locker.Lock(context.Background(), lock.BatchKey(id))
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.svc.Batch.UpdateStatus(ctx, h.maker, batch.ID, domain.UpdateStatusRequest{Status: "IN_TRANSIT"})
	require.Error(t, err)
	kind, ok := apperror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindStorage, kind)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAddProcessingStepRejectsReservedTypes(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)

	for _, stepType := range []string{"RECALL", "status_change", "quality_recall"} {
		_, err := h.svc.Batch.AddProcessingStep(context.Background(), h.maker, batch.ID, domain.AddStepRequest{StepType: stepType})
		assert.ErrorIs(t, err, domain.ErrInvalidStepType, stepType)
	}

	step, err := h.svc.Batch.AddProcessingStep(context.Background(), h.maker, batch.ID, domain.AddStepRequest{
		StepType:   "DRYING",
		Conditions: map[string]any{"temperature_c": 45.0},
		FacilityID: snowflake.ID(h.fixture.Facility.ID).String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "DRYING", step.StepType)
	require.NotNil(t, step.FacilityID)
	assert.Equal(t, snowflake.ID(h.fixture.Facility.ID).String(), *step.FacilityID)
	require.NotNil(t, step.OperatorID)
	assert.Equal(t, h.maker.ID.String(), *step.OperatorID)
}

func TestRecallCascadesToEveryProduct(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)
	h.move(t, batch.ID, domain.StatusPackaged)
	for _, sku := range []string{"ASH-100", "ASH-250", "ASH-500"} {
		h.addProduct(t, batch.ID, sku)
	}

	resp, err := h.svc.Batch.SetRecallFlag(context.Background(), h.maker, batch.ID, domain.RecallRequest{
		Reason:   "lead above limit",
		Severity: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRecalled, resp.Status)
	assert.True(t, resp.RecallFlag)
	require.NotNil(t, resp.RecallReason)
	assert.Equal(t, "lead above limit", *resp.RecallReason)
	require.NotNil(t, resp.RecallSeverity)
	assert.Equal(t, domain.SeverityHigh, *resp.RecallSeverity)
	require.NotNil(t, resp.RecallDate)
	assert.True(t, resp.RecallDate.Equal(h.env.Clock.Now()))

	products, err := h.svc.Product.ListByBatch(context.Background(), h.maker, batch.ID)
	require.NoError(t, err)
	require.Len(t, products, 3)
	for _, p := range products {
		assert.True(t, p.RecallFlag)
		assert.Equal(t, productdomain.StatusRecalled, p.Status)
		require.NotNil(t, p.RecallReason)
		assert.Equal(t, "lead above limit", *p.RecallReason)
	}

	assert.Equal(t, 1, countSteps(t, h, batch.ID, domain.StepRecall))
}

func TestRecallIsIdempotent(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)
	h.addProduct(t, batch.ID, "ASH-100")

	first, err := h.svc.Batch.SetRecallFlag(context.Background(), h.maker, batch.ID, domain.RecallRequest{Reason: "adulteration", Severity: "CRITICAL"})
	require.NoError(t, err)

	h.env.Clock.Advance(24 * time.Hour)
	second, err := h.svc.Batch.SetRecallFlag(context.Background(), h.maker, batch.ID, domain.RecallRequest{Reason: "second notice", Severity: "LOW"})
	require.NoError(t, err)

	assert.Equal(t, *first.RecallReason, *second.RecallReason)
	assert.Equal(t, domain.SeverityCritical, *second.RecallSeverity)
	assert.True(t, first.RecallDate.Equal(*second.RecallDate))
	assert.Equal(t, 1, countSteps(t, h, batch.ID, domain.StepRecall))
}

func TestConcurrentStepsAreAllAppended(t *testing.T) {
	h := newHarness(t)
	h.env.SerializeWrites(t)
	batch := h.createBatch(t)
	const n = 20

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Batch.AddProcessingStep(context.Background(), h.maker, batch.ID, domain.AddStepRequest{
				StepType:   "SORTING",
				Conditions: map[string]any{"lot": i},
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := h.svc.Batch.Get(context.Background(), h.maker, batch.ID)
	require.NoError(t, err)
	assert.Len(t, got.ProcessingStepIDs, n)
	assert.Equal(t, n, countSteps(t, h, batch.ID, "SORTING"))
}

func TestConcurrentRecallWritesOneStep(t *testing.T) {
	h := newHarness(t)
	h.env.SerializeWrites(t)
	batch := h.createBatch(t)
	h.addProduct(t, batch.ID, "ASH-100")
	h.addProduct(t, batch.ID, "ASH-250")
	const n = 10

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Batch.SetRecallFlag(context.Background(), h.maker, batch.ID, domain.RecallRequest{
				Reason:   "contamination",
				Severity: "CRITICAL",
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, countSteps(t, h, batch.ID, domain.StepRecall))
	got, err := h.svc.Batch.Get(context.Background(), h.maker, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRecalled, got.Status)
	assert.Len(t, got.ProcessingStepIDs, 1)

	products, err := h.svc.Product.ListByBatch(context.Background(), h.maker, batch.ID)
	require.NoError(t, err)
	for _, p := range products {
		assert.True(t, p.RecallFlag)
	}
}

func TestRecalledBatchIsFrozen(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)
	_, err := h.svc.Batch.SetRecallFlag(context.Background(), h.maker, batch.ID, domain.RecallRequest{Reason: "mislabelled", Severity: "MEDIUM"})
	require.NoError(t, err)

	_, err = h.svc.Batch.UpdateStatus(context.Background(), h.maker, batch.ID, domain.UpdateStatusRequest{Status: "IN_TRANSIT"})
	assert.ErrorIs(t, err, domain.ErrBatchRecalled)

	_, err = h.svc.Batch.AddProcessingStep(context.Background(), h.maker, batch.ID, domain.AddStepRequest{StepType: "GRINDING"})
	assert.ErrorIs(t, err, domain.ErrBatchRecalled)

	_, err = h.svc.Product.Create(context.Background(), h.maker, productdomain.CreateRequest{BatchID: batch.ID, Name: "Late pack", SKU: "ASH-LATE"})
	assert.ErrorIs(t, err, productdomain.ErrBatchRecalled)
}

func TestRecallRejectsUnknownSeverity(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)
	_, err := h.svc.Batch.SetRecallFlag(context.Background(), h.maker, batch.ID, domain.RecallRequest{Reason: "x", Severity: "SEVERE"})
	assert.ErrorIs(t, err, domain.ErrInvalidSeverity)
}

func TestRecallRequiresManufacturer(t *testing.T) {
	h := newHarness(t)
	batch := h.createBatch(t)
	_, err := h.svc.Batch.SetRecallFlag(context.Background(), h.env.Actor(actor.RoleFarmerUnion), batch.ID, domain.RecallRequest{Reason: "x", Severity: "LOW"})
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestListFiltersByStatusAndRecall(t *testing.T) {
	h := newHarness(t)
	collected := h.createBatch(t)
	h.env.Clock.Advance(time.Minute)
	moving := h.createBatch(t)
	h.move(t, moving.ID, domain.StatusInTransit)
	h.env.Clock.Advance(time.Minute)
	recalled := h.createBatch(t)
	_, err := h.svc.Batch.SetRecallFlag(context.Background(), h.maker, recalled.ID, domain.RecallRequest{Reason: "x", Severity: "LOW"})
	require.NoError(t, err)

	list, err := h.svc.Batch.List(context.Background(), h.maker, domain.ListRequest{Status: "in_transit"})
	require.NoError(t, err)
	require.Len(t, list.Batches, 1)
	assert.Equal(t, moving.ID, list.Batches[0].ID)

	flag := true
	list, err = h.svc.Batch.List(context.Background(), h.maker, domain.ListRequest{RecallFlag: &flag})
	require.NoError(t, err)
	require.Len(t, list.Batches, 1)
	assert.Equal(t, recalled.ID, list.Batches[0].ID)

	flag = false
	list, err = h.svc.Batch.List(context.Background(), h.maker, domain.ListRequest{RecallFlag: &flag})
	require.NoError(t, err)
	ids := []string{}
	for _, b := range list.Batches {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []string{collected.ID, moving.ID}, ids)
}

func countSteps(t *testing.T, h *harness, batchID string, stepType string) int {
	t.Helper()
	steps, err := h.svc.Batch.ListProcessingSteps(context.Background(), h.maker, batchID)
	require.NoError(t, err)
	n := 0
	for _, step := range steps {
		if step.StepType == stepType {
			n++
		}
	}
	return n
}
