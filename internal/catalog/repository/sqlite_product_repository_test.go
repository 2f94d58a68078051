package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/possync/internal/catalog/domain"
	"github.com/allisson/possync/internal/testutil"
)

func productFixture(id, name, sku string, priceCents int64, active bool) *domain.Product {
	return &domain.Product{
		ID:         id,
		Name:       name,
		SKU:        sku,
		PriceCents: priceCents,
		Active:     active,
		UpdatedAt:  time.Now().UTC(),
	}
}

func TestSQLiteProductRepository_Upsert(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	products := []*domain.Product{
		productFixture("prod-1", "Espresso", "ESP-01", 350, true),
		productFixture("prod-2", "Croissant", "CRO-01", 280, true),
	}
	require.NoError(t, repo.Upsert(ctx, "workspace-1", products))

	got, err := repo.List(ctx, "workspace-1", false)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by name.
	assert.Equal(t, "Croissant", got[0].Name)
	assert.Equal(t, "Espresso", got[1].Name)
	assert.Equal(t, int64(350), got[1].PriceCents)
	assert.Equal(t, "workspace-1", got[0].WorkspaceID)

	// A second upsert with the same id replaces the row.
	updated := productFixture("prod-1", "Double Espresso", "ESP-01", 450, false)
	require.NoError(t, repo.Upsert(ctx, "workspace-1", []*domain.Product{updated}))

	got, err = repo.List(ctx, "workspace-1", false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Double Espresso", got[1].Name)
	assert.Equal(t, int64(450), got[1].PriceCents)
	assert.False(t, got[1].Active)
}

func TestSQLiteProductRepository_List_ActiveOnly(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "workspace-1", []*domain.Product{
		productFixture("prod-1", "Espresso", "ESP-01", 350, true),
		productFixture("prod-2", "Discontinued Mug", "MUG-01", 900, false),
	}))

	active, err := repo.List(ctx, "workspace-1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Espresso", active[0].Name)

	all, err := repo.List(ctx, "workspace-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteProductRepository_DeleteAll(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "workspace-1", []*domain.Product{
		productFixture("prod-1", "Espresso", "ESP-01", 350, true),
		productFixture("prod-2", "Croissant", "CRO-01", 280, true),
	}))
	require.NoError(t, repo.Upsert(ctx, "workspace-2", []*domain.Product{
		productFixture("prod-3", "Bagel", "BAG-01", 300, true),
	}))

	require.NoError(t, repo.DeleteAll(ctx, "workspace-1"))

	got, err := repo.List(ctx, "workspace-1", false)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Other workspaces keep their mirror.
	other, err := repo.List(ctx, "workspace-2", false)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSQLiteProductRepository_Watermark(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	// No watermark before the first completed pull.
	watermark, err := repo.Watermark(ctx)
	require.NoError(t, err)
	assert.Nil(t, watermark)

	first := time.Date(2026, 3, 14, 10, 30, 0, 123456000, time.UTC)
	require.NoError(t, repo.SetWatermark(ctx, first))

	watermark, err = repo.Watermark(ctx)
	require.NoError(t, err)
	require.NotNil(t, watermark)
	assert.True(t, watermark.Equal(first))

	// Advancing overwrites in place.
	second := first.Add(time.Hour)
	require.NoError(t, repo.SetWatermark(ctx, second))

	watermark, err = repo.Watermark(ctx)
	require.NoError(t, err)
	require.NotNil(t, watermark)
	assert.True(t, watermark.Equal(second))
}

func TestSQLiteProductRepository_ClearWatermark(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SetWatermark(ctx, time.Now().UTC()))
	require.NoError(t, repo.ClearWatermark(ctx))

	watermark, err := repo.Watermark(ctx)
	require.NoError(t, err)
	assert.Nil(t, watermark)

	// Clearing an absent watermark is harmless.
	require.NoError(t, repo.ClearWatermark(ctx))
}
