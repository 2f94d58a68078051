// Package usecase implements the point-of-sale business actions. Every action
// that must reach the central server writes its domain row and its outbox
// command inside one local transaction: either both persist or neither does.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/possync/internal/database"
	apperrors "github.com/allisson/possync/internal/errors"
	outboxDomain "github.com/allisson/possync/internal/outbox/domain"
	"github.com/allisson/possync/internal/pos/domain"
)

// SaleRepository defines sale persistence operations.
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*domain.Sale, error)
	SetSynced(ctx context.Context, id uuid.UUID, invoiceID, paymentID string) error
	SetSyncOutcome(ctx context.Context, id uuid.UUID, status domain.SyncStatus, detail string) error
	IncrementSyncAttempts(ctx context.Context, id uuid.UUID) error
}

// OutboxWriter is the slice of the outbox repository the POS use cases need:
// appending a command inside the caller's transaction.
type OutboxWriter interface {
	Create(ctx context.Context, cmd *outboxDomain.Command) error
}

// CreateSaleInput contains the parameters for ringing up a sale.
type CreateSaleInput struct {
	ShiftID       *uuid.UUID
	Lines         []domain.SaleLine
	TotalCents    int64
	PaymentMethod string
	OccurredAt    time.Time
}

// SaleUseCase defines the interface for sale operations.
type SaleUseCase interface {
	CreateSale(ctx context.Context, input *CreateSaleInput) (*domain.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ListSales(ctx context.Context, limit int) ([]*domain.Sale, error)
}

// SaleService implements business logic for sales.
type SaleService struct {
	workspaceID string
	txManager   database.TxManager
	saleRepo    SaleRepository
	outbox      OutboxWriter
	logger      *slog.Logger
}

// NewSaleService creates a new SaleService.
func NewSaleService(
	workspaceID string,
	txManager database.TxManager,
	saleRepo SaleRepository,
	outbox OutboxWriter,
	logger *slog.Logger,
) *SaleService {
	return &SaleService{
		workspaceID: workspaceID,
		txManager:   txManager,
		saleRepo:    saleRepo,
		outbox:      outbox,
		logger:      logger,
	}
}

// CreateSale persists the sale and enqueues its sync command atomically.
// A local-store failure is reported to the caller immediately and nothing is
// queued; the caller sees a local error, never a silent later sync failure.
func (s *SaleService) CreateSale(ctx context.Context, input *CreateSaleInput) (*domain.Sale, error) {
	if len(input.Lines) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "a sale requires at least one line")
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	sale, err := domain.NewSale(s.workspaceID, input.ShiftID, input.Lines, input.TotalCents,
		input.PaymentMethod, occurredAt)
	if err != nil {
		return nil, err
	}

	payload, err := outboxDomain.EncodePayload(&outboxDomain.SyncSalePayload{
		SaleID:        sale.ID,
		ShiftID:       sale.ShiftID,
		Lines:         saleLinesToPayload(sale.Lines),
		TotalCents:    sale.TotalCents,
		PaymentMethod: sale.PaymentMethod,
		OccurredAt:    sale.OccurredAt,
	})
	if err != nil {
		return nil, err
	}

	cmd, err := outboxDomain.New(s.workspaceID, outboxDomain.CommandTypeSyncSale,
		outboxDomain.EntityKindSale, sale.ID, payload)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.saleRepo.Create(ctx, sale); err != nil {
			return err
		}
		return s.outbox.Create(ctx, cmd)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to record sale")
	}

	if s.logger != nil {
		s.logger.Info("sale recorded",
			slog.String("sale_id", sale.ID.String()),
			slog.String("command_id", cmd.ID.String()),
			slog.Int64("total_cents", sale.TotalCents),
		)
	}

	return sale, nil
}

// GetSale retrieves a single sale.
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	return s.saleRepo.GetByID(ctx, id)
}

// ListSales returns the workspace's sales, newest first.
func (s *SaleService) ListSales(ctx context.Context, limit int) ([]*domain.Sale, error) {
	return s.saleRepo.ListByWorkspace(ctx, s.workspaceID, limit)
}

// saleLinesToPayload converts domain lines to their wire shape.
func saleLinesToPayload(lines []domain.SaleLine) []outboxDomain.SaleLine {
	out := make([]outboxDomain.SaleLine, len(lines))
	for i, line := range lines {
		out[i] = outboxDomain.SaleLine{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			PriceCents: line.PriceCents,
		}
	}
	return out
}
