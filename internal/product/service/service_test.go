package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/product/domain"
	"github.com/ayurtrace/ayurtrace/internal/testutil"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatch(t *testing.T, env *testutil.Env, svc *testutil.Services, who actor.Actor) string {
	t.Helper()
	fixture := env.SeedRegistry(t)
	batch, err := svc.Batch.CreateBatch(context.Background(), who, batchdomain.CreateRequest{
		SpeciesID: snowflake.ID(fixture.Species.ID).String(),
	})
	require.NoError(t, err)
	return batch.ID
}

func TestCreateProduct(t *testing.T) {
	env := testutil.New(t)
	svc := env.Services(t)
	maker := env.Actor(actor.RoleManufacturer)
	batchID := newBatch(t, env, svc, maker)
	expiry := testutil.Epoch.AddDate(2, 0, 0)
	shop := "Jaipur Ayurveda Store"

	resp, err := svc.Product.Create(context.Background(), maker, domain.CreateRequest{
		BatchID:        batchID,
		Name:           "Ashwagandha Churna",
		SKU:            "ash-churna-100",
		ExpiryDate:     &expiry,
		RetailLocation: &shop,
	})
	require.NoError(t, err)
	assert.Equal(t, "ASH-CHURNA-100", resp.SKU)
	assert.Equal(t, domain.StatusActive, resp.Status)
	assert.False(t, resp.RecallFlag)
	assert.True(t, resp.PackagingDate.Equal(testutil.Epoch))

	got, err := svc.Product.Get(context.Background(), env.Actor(actor.RoleConsumer), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)
}

func TestCreateProductRejects(t *testing.T) {
	env := testutil.New(t)
	svc := env.Services(t)
	maker := env.Actor(actor.RoleManufacturer)
	batchID := newBatch(t, env, svc, maker)
	ctx := context.Background()

	_, err := svc.Product.Create(ctx, maker, domain.CreateRequest{BatchID: batchID, Name: "A", SKU: "SKU-1"})
	require.NoError(t, err)
	_, err = svc.Product.Create(ctx, maker, domain.CreateRequest{BatchID: batchID, Name: "B", SKU: "sku-1"})
	assert.ErrorIs(t, err, domain.ErrSKUExists)

	_, err = svc.Product.Create(ctx, maker, domain.CreateRequest{BatchID: "8080", Name: "C", SKU: "SKU-2"})
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)

	packaged := testutil.Epoch
	expiry := packaged.Add(-time.Hour)
	_, err = svc.Product.Create(ctx, maker, domain.CreateRequest{BatchID: batchID, Name: "D", SKU: "SKU-3", PackagingDate: &packaged, ExpiryDate: &expiry})
	assert.ErrorIs(t, err, domain.ErrInvalidExpiry)

	_, err = svc.Product.Get(ctx, maker, "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
