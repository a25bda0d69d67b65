package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/collection/domain"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/ayurtrace/ayurtrace/internal/testutil"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	env    *testutil.Env
	svc    *testutil.Services
	farmer actor.Actor

	species   *registrydomain.Species
	coop      *registrydomain.Cooperative
	collector *registrydomain.Collector
}

// newHarness registers a species harvested October to March with a
// 100 kg quota and a cooperative limited to one zone around Neemuch.
func newHarness(t *testing.T) *harness {
	t.Helper()
	env := testutil.New(t)
	svc := env.Services(t)
	farmer := env.Actor(actor.RoleFarmerUnion)
	ctx := context.Background()

	species, err := svc.Registry.CreateSpecies(ctx, farmer, registrydomain.CreateSpeciesRequest{
		BotanicalName:      "Bacopa monnieri",
		CommonName:         "Brahmi",
		ConservationStatus: registrydomain.ConservationLeastConcern,
		HarvestSeasons:     []registrydomain.SeasonWindow{{StartMonth: 10, EndMonth: 3}},
		AnnualQuotaKg:      100,
	})
	require.NoError(t, err)
	coop, err := svc.Registry.CreateCooperative(ctx, farmer, registrydomain.CreateCooperativeRequest{
		Name:          "Malwa Herb Collective",
		LicenseNumber: "COOP-MALWA-01",
		Region:        "Madhya Pradesh",
		ApprovedZones: []registrydomain.GeoBox{{MinLatitude: 24, MaxLatitude: 25, MinLongitude: 74, MaxLongitude: 75.5}},
	})
	require.NoError(t, err)
	collector, err := svc.Registry.CreateCollector(ctx, farmer, registrydomain.CreateCollectorRequest{
		Name:          "Sunita Bai",
		LicenseNumber: "COL-MALWA-07",
		CooperativeID: snowflake.ID(coop.ID).String(),
	})
	require.NoError(t, err)

	return &harness{env: env, svc: svc, farmer: farmer, species: species, coop: coop, collector: collector}
}

func (h *harness) request(lat, lng, kg float64) domain.RecordRequest {
	return domain.RecordRequest{
		CollectorID:    snowflake.ID(h.collector.ID).String(),
		CooperativeID:  snowflake.ID(h.coop.ID).String(),
		SpeciesID:      snowflake.ID(h.species.ID).String(),
		Latitude:       &lat,
		Longitude:      &lng,
		HarvestMethod:  "HAND_PICKED",
		QuantityKg:     kg,
		QualityMetrics: map[string]any{"moisture": 11.0},
	}
}

func TestRecordCompliantHarvest(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Collection.Record(context.Background(), h.farmer, h.request(24.47, 74.87, 40))
	require.NoError(t, err)

	require.NotNil(t, resp.Compliance)
	assert.True(t, resp.Compliance.Compliant)
	assert.True(t, resp.Compliance.WithinApprovedZone)
	assert.True(t, resp.Compliance.SeasonalWindowMet)
	assert.True(t, resp.Compliance.QuotaRespected)
	assert.Empty(t, resp.Compliance.Notes)
	assert.Nil(t, resp.BatchID)
	assert.True(t, resp.CollectedAt.Equal(testutil.Epoch))
	assert.EqualValues(t, 1, h.env.CountRows(t, "sustainability_compliances", ""))
}

func TestRecordFlagsOutOfZoneAndQuota(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Collection.Record(ctx, h.farmer, h.request(24.5, 74.9, 80))
	require.NoError(t, err)

	resp, err := h.svc.Collection.Record(ctx, h.farmer, h.request(28.6, 77.2, 30))
	require.NoError(t, err)
	require.NotNil(t, resp.Compliance)
	assert.False(t, resp.Compliance.Compliant)
	assert.False(t, resp.Compliance.WithinApprovedZone)
	assert.False(t, resp.Compliance.QuotaRespected)
	assert.Len(t, resp.Compliance.Notes, 2)
}

func TestRecordOutOfSeason(t *testing.T) {
	h := newHarness(t)
	h.env.Clock.Set(time.Date(2026, time.July, 15, 6, 0, 0, 0, time.UTC))

	resp, err := h.svc.Collection.Record(context.Background(), h.farmer, h.request(24.5, 74.9, 5))
	require.NoError(t, err)
	assert.False(t, resp.Compliance.SeasonalWindowMet)
	assert.False(t, resp.Compliance.Compliant)
}

func TestRecordRejectsInvalidRequests(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	future := h.env.Clock.Now().Add(2 * time.Hour)
	req := h.request(24.5, 74.9, 5)
	req.CollectedAt = &future
	_, err := h.svc.Collection.Record(ctx, h.farmer, req)
	assert.ErrorIs(t, err, domain.ErrCollectedInFuture)

	other, err := h.svc.Registry.CreateCooperative(ctx, h.farmer, registrydomain.CreateCooperativeRequest{
		Name:          "Kutch Gum Gatherers",
		LicenseNumber: "COOP-KUTCH-02",
		Region:        "Gujarat",
	})
	require.NoError(t, err)
	req = h.request(24.5, 74.9, 5)
	req.CooperativeID = snowflake.ID(other.ID).String()
	_, err = h.svc.Collection.Record(ctx, h.farmer, req)
	assert.ErrorIs(t, err, domain.ErrCollectorNotMember)

	req = h.request(120, 74.9, 5)
	_, err = h.svc.Collection.Record(ctx, h.farmer, req)
	var verr *validation.Errors
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "latitude", verr.Fields[0].Field)

	req = h.request(24.5, 74.9, 5)
	req.SpeciesID = "777"
	_, err = h.svc.Collection.Record(ctx, h.farmer, req)
	assert.ErrorIs(t, err, registrydomain.ErrSpeciesNotFound)

	_, err = h.svc.Collection.Record(ctx, h.env.Actor(actor.RoleLaboratory), h.request(24.5, 74.9, 5))
	kind, _ := apperror.KindOf(err)
	assert.Equal(t, apperror.KindForbidden, kind)
}

func TestUpdateKeepsImmutableFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	event, err := h.svc.Collection.Record(ctx, h.farmer, h.request(24.5, 74.9, 5))
	require.NoError(t, err)

	moved := 24.6
	_, err = h.svc.Collection.Update(ctx, h.farmer, event.ID, domain.UpdateRequest{Latitude: &moved})
	var verr *validation.Errors
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "immutable", verr.Fields[0].Code)

	same := 24.5
	kg := 7.25
	method := "ROOT_DIGGING"
	resp, err := h.svc.Collection.Update(ctx, h.farmer, event.ID, domain.UpdateRequest{
		Latitude:      &same,
		QuantityKg:    &kg,
		HarvestMethod: &method,
	})
	require.NoError(t, err)
	assert.Equal(t, 7.25, resp.QuantityKg)
	assert.Equal(t, "ROOT_DIGGING", resp.HarvestMethod)
	require.NotNil(t, resp.Compliance)

	_, err = h.svc.Collection.Update(ctx, h.farmer, "31337", domain.UpdateRequest{QuantityKg: &kg})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListUnbatched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first, err := h.svc.Collection.Record(ctx, h.farmer, h.request(24.5, 74.9, 5))
	require.NoError(t, err)
	h.env.Clock.Advance(time.Hour)
	second, err := h.svc.Collection.Record(ctx, h.farmer, h.request(24.5, 74.9, 5))
	require.NoError(t, err)

	_, err = h.svc.Batch.CreateBatch(ctx, h.env.Actor(actor.RoleManufacturer), batchdomain.CreateRequest{
		SpeciesID:          snowflake.ID(h.species.ID).String(),
		CollectionEventIDs: []string{first.ID},
	})
	require.NoError(t, err)

	all, err := h.svc.Collection.List(ctx, h.farmer, domain.ListRequest{SpeciesID: snowflake.ID(h.species.ID).String()})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	require.NotNil(t, all[1].BatchID)

	open, err := h.svc.Collection.List(ctx, h.farmer, domain.ListRequest{Unbatched: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)
}
