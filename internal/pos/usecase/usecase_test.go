package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/possync/internal/errors"
	outboxDomain "github.com/allisson/possync/internal/outbox/domain"
	"github.com/allisson/possync/internal/pos/domain"
)

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct {
	beginErr error
}

func (m *passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	return fn(ctx)
}

type fakeOutbox struct {
	commands  []*outboxDomain.Command
	createErr error
}

func (o *fakeOutbox) Create(ctx context.Context, cmd *outboxDomain.Command) error {
	if o.createErr != nil {
		return o.createErr
	}
	o.commands = append(o.commands, cmd)
	return nil
}

type outcomeCall struct {
	method   string
	entityID uuid.UUID
	status   domain.SyncStatus
	detail   string
	refs     []string
}

type fakeSaleRepo struct {
	sales     map[uuid.UUID]*domain.Sale
	createErr error
	outcomes  []outcomeCall
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*domain.Sale)}
}

func (r *fakeSaleRepo) Create(ctx context.Context, sale *domain.Sale) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, ok := r.sales[id]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "sale not found")
	}
	return sale, nil
}

func (r *fakeSaleRepo) ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*domain.Sale, error) {
	var sales []*domain.Sale
	for _, sale := range r.sales {
		sales = append(sales, sale)
	}
	return sales, nil
}

func (r *fakeSaleRepo) SetSynced(ctx context.Context, id uuid.UUID, invoiceID, paymentID string) error {
	r.outcomes = append(r.outcomes, outcomeCall{method: "SetSynced", entityID: id, refs: []string{invoiceID, paymentID}})
	return nil
}

func (r *fakeSaleRepo) SetSyncOutcome(ctx context.Context, id uuid.UUID, status domain.SyncStatus, detail string) error {
	r.outcomes = append(r.outcomes, outcomeCall{method: "SetSyncOutcome", entityID: id, status: status, detail: detail})
	return nil
}

func (r *fakeSaleRepo) IncrementSyncAttempts(ctx context.Context, id uuid.UUID) error {
	r.outcomes = append(r.outcomes, outcomeCall{method: "IncrementSyncAttempts", entityID: id})
	return nil
}

type fakeShiftRepo struct {
	openShift      *domain.ShiftSession
	openShiftErr   error
	shifts         map[uuid.UUID]*domain.ShiftSession
	events         map[uuid.UUID]*domain.ShiftCashEvent
	createShiftErr error
	closeShiftErr  error
	createEventErr error
	outcomes       []outcomeCall
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{
		shifts: make(map[uuid.UUID]*domain.ShiftSession),
		events: make(map[uuid.UUID]*domain.ShiftCashEvent),
	}
}

func (r *fakeShiftRepo) CreateShift(ctx context.Context, shift *domain.ShiftSession) error {
	if r.createShiftErr != nil {
		return r.createShiftErr
	}
	r.shifts[shift.ID] = shift
	return nil
}

func (r *fakeShiftRepo) GetShiftByID(ctx context.Context, id uuid.UUID) (*domain.ShiftSession, error) {
	shift, ok := r.shifts[id]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "shift not found")
	}
	return shift, nil
}

func (r *fakeShiftRepo) GetOpenShift(ctx context.Context, workspaceID string) (*domain.ShiftSession, error) {
	if r.openShiftErr != nil {
		return nil, r.openShiftErr
	}
	if r.openShift == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "no open shift")
	}
	return r.openShift, nil
}

func (r *fakeShiftRepo) CloseShift(ctx context.Context, id uuid.UUID, closingAmountCents int64, closedAt time.Time) error {
	return r.closeShiftErr
}

func (r *fakeShiftRepo) SetShiftSynced(ctx context.Context, id uuid.UUID, serverShiftID string) error {
	r.outcomes = append(r.outcomes, outcomeCall{method: "SetShiftSynced", entityID: id, refs: []string{serverShiftID}})
	return nil
}

func (r *fakeShiftRepo) SetShiftSyncOutcome(ctx context.Context, id uuid.UUID, status domain.SyncStatus, detail string) error {
	r.outcomes = append(r.outcomes, outcomeCall{method: "SetShiftSyncOutcome", entityID: id, status: status, detail: detail})
	return nil
}

func (r *fakeShiftRepo) IncrementShiftSyncAttempts(ctx context.Context, id uuid.UUID) error {
	r.outcomes = append(r.outcomes, outcomeCall{method: "IncrementShiftSyncAttempts", entityID: id})
	return nil
}

func (r *fakeShiftRepo) CreateCashEvent(ctx context.Context, event *domain.ShiftCashEvent) error {
	if r.createEventErr != nil {
		return r.createEventErr
	}
	r.events[event.ID] = event
	return nil
}

func (r *fakeShiftRepo) ListCashEventsByShift(ctx context.Context, shiftID uuid.UUID) ([]*domain.ShiftCashEvent, error) {
	var events []*domain.ShiftCashEvent
	for _, event := range r.events {
		if event.ShiftID == shiftID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (r *fakeShiftRepo) SetCashEventSynced(ctx context.Context, id uuid.UUID, serverEventID string) error {
	r.outcomes = append(r.outcomes, outcomeCall{method: "SetCashEventSynced", entityID: id, refs: []string{serverEventID}})
	return nil
}

func (r *fakeShiftRepo) SetCashEventSyncOutcome(ctx context.Context, id uuid.UUID, status domain.SyncStatus, detail string) error {
	r.outcomes = append(r.outcomes, outcomeCall{method: "SetCashEventSyncOutcome", entityID: id, status: status, detail: detail})
	return nil
}

func (r *fakeShiftRepo) IncrementCashEventSyncAttempts(ctx context.Context, id uuid.UUID) error {
	r.outcomes = append(r.outcomes, outcomeCall{method: "IncrementCashEventSyncAttempts", entityID: id})
	return nil
}
