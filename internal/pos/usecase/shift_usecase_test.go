package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/possync/internal/errors"
	outboxDomain "github.com/allisson/possync/internal/outbox/domain"
	"github.com/allisson/possync/internal/pos/domain"
)

func newShiftService(shiftRepo *fakeShiftRepo, outbox *fakeOutbox) *ShiftService {
	return NewShiftService("workspace-1", "till-01", &passthroughTxManager{}, shiftRepo, outbox, nil)
}

func openShiftFixture(t *testing.T) *domain.ShiftSession {
	t.Helper()

	shift, err := domain.NewShiftSession("workspace-1", "till-01", 10000, time.Now().UTC())
	require.NoError(t, err)
	return shift
}

func TestOpenShift(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	outbox := &fakeOutbox{}
	service := newShiftService(shiftRepo, outbox)

	shift, err := service.OpenShift(context.Background(), 10000)
	require.NoError(t, err)

	assert.Equal(t, "workspace-1", shift.WorkspaceID)
	assert.Equal(t, "till-01", shift.DeviceID)
	assert.Equal(t, int64(10000), shift.OpeningFloatCents)
	assert.True(t, shift.Open())
	assert.Contains(t, shiftRepo.shifts, shift.ID)

	require.Len(t, outbox.commands, 1)
	cmd := outbox.commands[0]
	assert.Equal(t, outboxDomain.CommandTypeOpenShift, cmd.Type)
	assert.Equal(t, outboxDomain.EntityKindShift, cmd.EntityKind)
	assert.Equal(t, shift.ID, cmd.EntityID)

	decoded, err := outboxDomain.DecodePayload(cmd)
	require.NoError(t, err)
	payload, ok := decoded.(*outboxDomain.OpenShiftPayload)
	require.True(t, ok)
	assert.Equal(t, shift.ID, payload.ShiftID)
	assert.Equal(t, "till-01", payload.DeviceID)
}

func TestOpenShift_ConflictWhenAlreadyOpen(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	shiftRepo.openShift = openShiftFixture(t)
	outbox := &fakeOutbox{}
	service := newShiftService(shiftRepo, outbox)

	_, err := service.OpenShift(context.Background(), 10000)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Empty(t, outbox.commands)
}

func TestOpenShift_LookupFailurePropagates(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	shiftRepo.openShiftErr = assert.AnError
	service := newShiftService(shiftRepo, &fakeOutbox{})

	_, err := service.OpenShift(context.Background(), 10000)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCloseShift(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	shiftRepo.openShift = openShiftFixture(t)
	outbox := &fakeOutbox{}
	service := newShiftService(shiftRepo, outbox)

	shift, err := service.CloseShift(context.Background(), 42500)
	require.NoError(t, err)

	require.NotNil(t, shift.ClosedAt)
	require.NotNil(t, shift.ClosingAmountCents)
	assert.Equal(t, int64(42500), *shift.ClosingAmountCents)
	assert.False(t, shift.Open())
	assert.Equal(t, domain.SyncStatusPendingSync, shift.SyncStatus)

	require.Len(t, outbox.commands, 1)
	cmd := outbox.commands[0]
	assert.Equal(t, outboxDomain.CommandTypeCloseShift, cmd.Type)
	assert.Equal(t, shift.ID, cmd.EntityID)
}

func TestCloseShift_NoOpenShift(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	outbox := &fakeOutbox{}
	service := newShiftService(shiftRepo, outbox)

	_, err := service.CloseShift(context.Background(), 42500)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, outbox.commands)
}

func TestCloseShift_StoreFailureEnqueuesNothing(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	shiftRepo.openShift = openShiftFixture(t)
	shiftRepo.closeShiftErr = assert.AnError
	outbox := &fakeOutbox{}
	service := newShiftService(shiftRepo, outbox)

	_, err := service.CloseShift(context.Background(), 42500)
	assert.Error(t, err)
	assert.Empty(t, outbox.commands)
}

func TestRecordCashEvent(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	shiftRepo.openShift = openShiftFixture(t)
	outbox := &fakeOutbox{}
	service := newShiftService(shiftRepo, outbox)

	event, err := service.RecordCashEvent(context.Background(), &RecordCashEventInput{
		Kind:        domain.CashEventKindPaidOut,
		AmountCents: 2500,
		Note:        "supplier cash payment",
	})
	require.NoError(t, err)

	assert.Equal(t, shiftRepo.openShift.ID, event.ShiftID)
	assert.Equal(t, domain.CashEventKindPaidOut, event.Kind)
	assert.Equal(t, int64(2500), event.AmountCents)
	assert.Contains(t, shiftRepo.events, event.ID)

	require.Len(t, outbox.commands, 1)
	cmd := outbox.commands[0]
	assert.Equal(t, outboxDomain.CommandTypeRecordCashEvent, cmd.Type)
	assert.Equal(t, outboxDomain.EntityKindCashEvent, cmd.EntityKind)
	assert.Equal(t, event.ID, cmd.EntityID)
}

func TestRecordCashEvent_NoOpenShift(t *testing.T) {
	service := newShiftService(newFakeShiftRepo(), &fakeOutbox{})

	_, err := service.RecordCashEvent(context.Background(), &RecordCashEventInput{
		Kind:        domain.CashEventKindPaidIn,
		AmountCents: 1000,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCurrentShift(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	shiftRepo.openShift = openShiftFixture(t)
	service := newShiftService(shiftRepo, &fakeOutbox{})

	shift, err := service.CurrentShift(context.Background())
	require.NoError(t, err)
	assert.Equal(t, shiftRepo.openShift.ID, shift.ID)
}

func TestListCashEvents(t *testing.T) {
	shiftRepo := newFakeShiftRepo()
	shiftRepo.openShift = openShiftFixture(t)
	service := newShiftService(shiftRepo, &fakeOutbox{})

	_, err := service.RecordCashEvent(context.Background(), &RecordCashEventInput{
		Kind:        domain.CashEventKindPaidIn,
		AmountCents: 1000,
	})
	require.NoError(t, err)

	events, err := service.ListCashEvents(context.Background(), shiftRepo.openShift.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
