package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/allisson/possync/internal/errors"
	outboxDomain "github.com/allisson/possync/internal/outbox/domain"
	"github.com/allisson/possync/internal/pos/domain"
)

// Projector mirrors dispatcher outcomes onto the POS entities a command
// references. It is the sole writer of entity sync fields, which keeps the
// command status and the entity status from drifting apart.
type Projector struct {
	saleRepo  SaleRepository
	shiftRepo ShiftRepository
}

// NewProjector creates a new Projector.
func NewProjector(saleRepo SaleRepository, shiftRepo ShiftRepository) *Projector {
	return &Projector{
		saleRepo:  saleRepo,
		shiftRepo: shiftRepo,
	}
}

// ProjectSynced records the confirmed outcome and server identifiers.
func (p *Projector) ProjectSynced(ctx context.Context, kind outboxDomain.EntityKind, entityID uuid.UUID, refs *outboxDomain.ServerRefs) error {
	if refs == nil {
		refs = &outboxDomain.ServerRefs{}
	}

	switch kind {
	case outboxDomain.EntityKindSale:
		return p.saleRepo.SetSynced(ctx, entityID, refs.InvoiceID, refs.PaymentID)
	case outboxDomain.EntityKindShift:
		return p.shiftRepo.SetShiftSynced(ctx, entityID, refs.ShiftID)
	case outboxDomain.EntityKindCashEvent:
		return p.shiftRepo.SetCashEventSynced(ctx, entityID, refs.CashEventID)
	default:
		return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown entity kind %q", kind))
	}
}

// ProjectFailed records a permanent failure and its user-facing detail.
func (p *Projector) ProjectFailed(ctx context.Context, kind outboxDomain.EntityKind, entityID uuid.UUID, detail string) error {
	return p.setOutcome(ctx, kind, entityID, domain.SyncStatusFailed, detail)
}

// ProjectConflict records a state divergence needing manual resolution.
func (p *Projector) ProjectConflict(ctx context.Context, kind outboxDomain.EntityKind, entityID uuid.UUID, detail string) error {
	return p.setOutcome(ctx, kind, entityID, domain.SyncStatusConflict, detail)
}

// ProjectDeferred counts a transient delivery attempt; the entity stays
// pending sync.
func (p *Projector) ProjectDeferred(ctx context.Context, kind outboxDomain.EntityKind, entityID uuid.UUID) error {
	switch kind {
	case outboxDomain.EntityKindSale:
		return p.saleRepo.IncrementSyncAttempts(ctx, entityID)
	case outboxDomain.EntityKindShift:
		return p.shiftRepo.IncrementShiftSyncAttempts(ctx, entityID)
	case outboxDomain.EntityKindCashEvent:
		return p.shiftRepo.IncrementCashEventSyncAttempts(ctx, entityID)
	default:
		return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown entity kind %q", kind))
	}
}

// setOutcome routes a failed/conflicted outcome to the right repository.
func (p *Projector) setOutcome(ctx context.Context, kind outboxDomain.EntityKind, entityID uuid.UUID, status domain.SyncStatus, detail string) error {
	switch kind {
	case outboxDomain.EntityKindSale:
		return p.saleRepo.SetSyncOutcome(ctx, entityID, status, detail)
	case outboxDomain.EntityKindShift:
		return p.shiftRepo.SetShiftSyncOutcome(ctx, entityID, status, detail)
	case outboxDomain.EntityKindCashEvent:
		return p.shiftRepo.SetCashEventSyncOutcome(ctx, entityID, status, detail)
	default:
		return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown entity kind %q", kind))
	}
}
