package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/possync/internal/errors"
	"github.com/allisson/possync/internal/pos/domain"
	"github.com/allisson/possync/internal/testutil"
)

func createSale(t *testing.T, repo *SQLiteSaleRepository, workspaceID string, shiftID *uuid.UUID) *domain.Sale {
	t.Helper()

	sale, err := domain.NewSale(workspaceID, shiftID, []domain.SaleLine{
		{ProductID: "prod-1", Quantity: 2, PriceCents: 500},
	}, 1000, "cash", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), sale))

	return sale
}

func TestSQLiteSaleRepository_CreateAndGetByID(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteSaleRepository(db)
	ctx := context.Background()

	sale := createSale(t, repo, "workspace-1", nil)

	got, err := repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)

	assert.Equal(t, sale.ID, got.ID)
	assert.Equal(t, "workspace-1", got.WorkspaceID)
	assert.Nil(t, got.ShiftID)
	assert.Equal(t, sale.Lines, got.Lines)
	assert.Equal(t, int64(1000), got.TotalCents)
	assert.Equal(t, "cash", got.PaymentMethod)
	assert.Equal(t, domain.SyncStatusPendingSync, got.SyncStatus)
	assert.Nil(t, got.ServerInvoiceID)
	assert.Nil(t, got.SyncError)
}

func TestSQLiteSaleRepository_CreateWithShiftID(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteSaleRepository(db)

	shiftID := uuid.New()
	sale := createSale(t, repo, "workspace-1", &shiftID)

	got, err := repo.GetByID(context.Background(), sale.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ShiftID)
	assert.Equal(t, shiftID, *got.ShiftID)
}

func TestSQLiteSaleRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteSaleRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSQLiteSaleRepository_ListByWorkspace(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteSaleRepository(db)

	first := createSale(t, repo, "workspace-1", nil)
	second := createSale(t, repo, "workspace-1", nil)
	createSale(t, repo, "workspace-2", nil)

	sales, err := repo.ListByWorkspace(context.Background(), "workspace-1", 10)
	require.NoError(t, err)

	// Newest first.
	require.Len(t, sales, 2)
	assert.Equal(t, second.ID, sales[0].ID)
	assert.Equal(t, first.ID, sales[1].ID)
}

func TestSQLiteSaleRepository_SetSynced(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteSaleRepository(db)
	ctx := context.Background()

	sale := createSale(t, repo, "workspace-1", nil)

	require.NoError(t, repo.SetSynced(ctx, sale.ID, "inv-1", "pay-1"))

	got, err := repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSynced, got.SyncStatus)
	require.NotNil(t, got.ServerInvoiceID)
	assert.Equal(t, "inv-1", *got.ServerInvoiceID)
	require.NotNil(t, got.ServerPaymentID)
	assert.Equal(t, "pay-1", *got.ServerPaymentID)
	assert.Nil(t, got.SyncError)
}

func TestSQLiteSaleRepository_SetSyncOutcome(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteSaleRepository(db)
	ctx := context.Background()

	sale := createSale(t, repo, "workspace-1", nil)

	require.NoError(t, repo.SetSyncOutcome(ctx, sale.ID, domain.SyncStatusFailed, "negative quantity"))

	got, err := repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusFailed, got.SyncStatus)
	assert.Equal(t, 1, got.SyncAttempts)
	require.NotNil(t, got.SyncError)
	assert.Equal(t, "negative quantity", *got.SyncError)
}

func TestSQLiteSaleRepository_IncrementSyncAttempts(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteSaleRepository(db)
	ctx := context.Background()

	sale := createSale(t, repo, "workspace-1", nil)

	require.NoError(t, repo.IncrementSyncAttempts(ctx, sale.ID))
	require.NoError(t, repo.IncrementSyncAttempts(ctx, sale.ID))

	got, err := repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SyncAttempts)
	// Status stays pending while attempts accumulate.
	assert.Equal(t, domain.SyncStatusPendingSync, got.SyncStatus)
}

func TestSQLiteSaleRepository_UpdateUnknownSale(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := NewSQLiteSaleRepository(db)

	err := repo.SetSynced(context.Background(), uuid.New(), "inv-1", "pay-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
