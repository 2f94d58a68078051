package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/possync/internal/errors"
	outboxDomain "github.com/allisson/possync/internal/outbox/domain"
	"github.com/allisson/possync/internal/pos/domain"
)

func TestProjectSynced(t *testing.T) {
	t.Run("sale", func(t *testing.T) {
		saleRepo := newFakeSaleRepo()
		projector := NewProjector(saleRepo, newFakeShiftRepo())
		entityID := uuid.New()

		refs := &outboxDomain.ServerRefs{InvoiceID: "inv-1", PaymentID: "pay-1"}
		require.NoError(t, projector.ProjectSynced(context.Background(), outboxDomain.EntityKindSale, entityID, refs))

		require.Len(t, saleRepo.outcomes, 1)
		assert.Equal(t, "SetSynced", saleRepo.outcomes[0].method)
		assert.Equal(t, entityID, saleRepo.outcomes[0].entityID)
		assert.Equal(t, []string{"inv-1", "pay-1"}, saleRepo.outcomes[0].refs)
	})

	t.Run("shift", func(t *testing.T) {
		shiftRepo := newFakeShiftRepo()
		projector := NewProjector(newFakeSaleRepo(), shiftRepo)
		entityID := uuid.New()

		refs := &outboxDomain.ServerRefs{ShiftID: "srv-shift-1"}
		require.NoError(t, projector.ProjectSynced(context.Background(), outboxDomain.EntityKindShift, entityID, refs))

		require.Len(t, shiftRepo.outcomes, 1)
		assert.Equal(t, "SetShiftSynced", shiftRepo.outcomes[0].method)
		assert.Equal(t, []string{"srv-shift-1"}, shiftRepo.outcomes[0].refs)
	})

	t.Run("cash event", func(t *testing.T) {
		shiftRepo := newFakeShiftRepo()
		projector := NewProjector(newFakeSaleRepo(), shiftRepo)

		refs := &outboxDomain.ServerRefs{CashEventID: "srv-evt-1"}
		require.NoError(t, projector.ProjectSynced(context.Background(), outboxDomain.EntityKindCashEvent, uuid.New(), refs))

		require.Len(t, shiftRepo.outcomes, 1)
		assert.Equal(t, "SetCashEventSynced", shiftRepo.outcomes[0].method)
	})

	t.Run("nil refs", func(t *testing.T) {
		saleRepo := newFakeSaleRepo()
		projector := NewProjector(saleRepo, newFakeShiftRepo())

		require.NoError(t, projector.ProjectSynced(context.Background(), outboxDomain.EntityKindSale, uuid.New(), nil))

		require.Len(t, saleRepo.outcomes, 1)
		assert.Equal(t, []string{"", ""}, saleRepo.outcomes[0].refs)
	})

	t.Run("unknown kind", func(t *testing.T) {
		projector := NewProjector(newFakeSaleRepo(), newFakeShiftRepo())

		err := projector.ProjectSynced(context.Background(), outboxDomain.EntityKind("product"), uuid.New(), nil)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestProjectFailed(t *testing.T) {
	saleRepo := newFakeSaleRepo()
	shiftRepo := newFakeShiftRepo()
	projector := NewProjector(saleRepo, shiftRepo)
	entityID := uuid.New()

	require.NoError(t, projector.ProjectFailed(context.Background(), outboxDomain.EntityKindSale, entityID, "negative quantity"))

	require.Len(t, saleRepo.outcomes, 1)
	assert.Equal(t, "SetSyncOutcome", saleRepo.outcomes[0].method)
	assert.Equal(t, domain.SyncStatusFailed, saleRepo.outcomes[0].status)
	assert.Equal(t, "negative quantity", saleRepo.outcomes[0].detail)

	require.NoError(t, projector.ProjectFailed(context.Background(), outboxDomain.EntityKindShift, entityID, "boom"))
	require.Len(t, shiftRepo.outcomes, 1)
	assert.Equal(t, "SetShiftSyncOutcome", shiftRepo.outcomes[0].method)
}

func TestProjectConflict(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	projector := NewProjector(newFakeSaleRepo(), shiftRepo)
	entityID := uuid.New()

	require.NoError(t, projector.ProjectConflict(context.Background(), outboxDomain.EntityKindShift, entityID, "shift already closed"))

	require.Len(t, shiftRepo.outcomes, 1)
	assert.Equal(t, "SetShiftSyncOutcome", shiftRepo.outcomes[0].method)
	assert.Equal(t, domain.SyncStatusConflict, shiftRepo.outcomes[0].status)
	assert.Equal(t, "shift already closed", shiftRepo.outcomes[0].detail)
}

func TestProjectDeferred(t *testing.T) {
	saleRepo := newFakeSaleRepo()
	shiftRepo := newFakeShiftRepo()
	projector := NewProjector(saleRepo, shiftRepo)

	require.NoError(t, projector.ProjectDeferred(context.Background(), outboxDomain.EntityKindSale, uuid.New()))
	require.Len(t, saleRepo.outcomes, 1)
	assert.Equal(t, "IncrementSyncAttempts", saleRepo.outcomes[0].method)

	require.NoError(t, projector.ProjectDeferred(context.Background(), outboxDomain.EntityKindCashEvent, uuid.New()))
	require.Len(t, shiftRepo.outcomes, 1)
	assert.Equal(t, "IncrementCashEventSyncAttempts", shiftRepo.outcomes[0].method)

	err := projector.ProjectDeferred(context.Background(), outboxDomain.EntityKind("product"), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}
