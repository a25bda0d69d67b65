package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/custody/domain"
	"github.com/ayurtrace/ayurtrace/internal/testutil"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHandoversInOrder(t *testing.T) {
	env := testutil.New(t)
	svc := env.Services(t)
	fixture := env.SeedRegistry(t)
	farmer := env.Actor(actor.RoleFarmerUnion)
	maker := env.Actor(actor.RoleManufacturer)
	ctx := context.Background()

	batch, err := svc.Batch.CreateBatch(ctx, farmer, batchdomain.CreateRequest{SpeciesID: snowflake.ID(fixture.Species.ID).String()})
	require.NoError(t, err)

	later := env.Clock.Now().Add(48 * time.Hour)
	second, err := svc.Custody.Record(ctx, maker, domain.RecordRequest{
		BatchID:      batch.ID,
		ToActorID:    "900",
		Location:     "Jaipur distribution hub",
		HandedOverAt: &later,
	})
	require.NoError(t, err)
	assert.Equal(t, maker.ID.String(), second.FromActorID)

	first, err := svc.Custody.Record(ctx, farmer, domain.RecordRequest{
		BatchID:   batch.ID,
		ToActorID: maker.ID.String(),
		Location:  "Neemuch mandi",
	})
	require.NoError(t, err)

	chain, err := svc.Custody.ListByBatch(ctx, maker, batch.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, first.ID, chain[0].ID)
	assert.Equal(t, second.ID, chain[1].ID)
}

func TestRecordRejectsSelfHandoverAndUnknownBatch(t *testing.T) {
	env := testutil.New(t)
	svc := env.Services(t)
	maker := env.Actor(actor.RoleManufacturer)
	ctx := context.Background()

	_, err := svc.Custody.Record(ctx, maker, domain.RecordRequest{
		BatchID:   "123",
		ToActorID: maker.ID.String(),
		Location:  "Warehouse",
	})
	assert.ErrorIs(t, err, domain.ErrSameParty)

	_, err = svc.Custody.Record(ctx, maker, domain.RecordRequest{
		BatchID:   "123",
		ToActorID: "456",
		Location:  "Warehouse",
	})
	assert.ErrorIs(t, err, batchdomain.ErrNotFound)
}
