// Package repository provides data persistence implementations for POS entities.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/possync/internal/database"
	apperrors "github.com/allisson/possync/internal/errors"
	"github.com/allisson/possync/internal/pos/domain"
)

// SQLiteSaleRepository handles sale persistence in the local store.
type SQLiteSaleRepository struct {
	db *sql.DB
}

// NewSQLiteSaleRepository creates a new SQLiteSaleRepository.
func NewSQLiteSaleRepository(db *sql.DB) *SQLiteSaleRepository {
	return &SQLiteSaleRepository{
		db: db,
	}
}

const saleColumns = `id, workspace_id, shift_id, lines, total_cents, payment_method, occurred_at,
	server_invoice_id, server_payment_id, sync_status, sync_attempts, sync_error, created_at, updated_at`

// Create inserts a new sale. It participates in any transaction carried by the
// context so the sale and its outbox command commit atomically.
func (r *SQLiteSaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	querier := database.GetTx(ctx, r.db)

	lines, err := json.Marshal(sale.Lines)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode sale lines")
	}

	query := `INSERT INTO sales (id, workspace_id, shift_id, lines, total_cents, payment_method,
			  occurred_at, server_invoice_id, server_payment_id, sync_status, sync_attempts,
			  sync_error, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	_, err = querier.ExecContext(ctx, query, sale.ID.String(), sale.WorkspaceID, uuidPtrToString(sale.ShiftID),
		string(lines), sale.TotalCents, sale.PaymentMethod, sale.OccurredAt, sale.ServerInvoiceID,
		sale.ServerPaymentID, sale.SyncStatus, sale.SyncAttempts, sale.SyncError, now, now)

	return err
}

// GetByID retrieves a single sale.
func (r *SQLiteSaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = ?`

	sale, err := scanSale(querier.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "sale not found")
	}
	if err != nil {
		return nil, err
	}

	return sale, nil
}

// ListByWorkspace returns sales for the workspace, newest first.
func (r *SQLiteSaleRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*domain.Sale, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + saleColumns + `
			  FROM sales
			  WHERE workspace_id = ?
			  ORDER BY created_at DESC, id DESC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, workspaceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var sales []*domain.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

// SetSynced projects a confirmed sync outcome onto the sale.
func (r *SQLiteSaleRepository) SetSynced(ctx context.Context, id uuid.UUID, invoiceID, paymentID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE sales
			  SET sync_status = ?, server_invoice_id = ?, server_payment_id = ?, sync_error = NULL, updated_at = ?
			  WHERE id = ?`

	return execForOne(ctx, querier, query, domain.SyncStatusSynced, nullable(invoiceID), nullable(paymentID),
		time.Now().UTC(), id.String())
}

// SetSyncOutcome projects a failed/conflicted outcome and its detail.
func (r *SQLiteSaleRepository) SetSyncOutcome(ctx context.Context, id uuid.UUID, status domain.SyncStatus, detail string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE sales
			  SET sync_status = ?, sync_attempts = sync_attempts + 1, sync_error = ?, updated_at = ?
			  WHERE id = ?`

	return execForOne(ctx, querier, query, status, detail, time.Now().UTC(), id.String())
}

// IncrementSyncAttempts counts a deferred delivery without changing status.
func (r *SQLiteSaleRepository) IncrementSyncAttempts(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE sales SET sync_attempts = sync_attempts + 1, updated_at = ? WHERE id = ?`

	return execForOne(ctx, querier, query, time.Now().UTC(), id.String())
}

// scanSale scans one sale row.
func scanSale(row rowScanner) (*domain.Sale, error) {
	var sale domain.Sale
	var id string
	var shiftID sql.NullString
	var lines string

	err := row.Scan(&id, &sale.WorkspaceID, &shiftID, &lines, &sale.TotalCents, &sale.PaymentMethod,
		&sale.OccurredAt, &sale.ServerInvoiceID, &sale.ServerPaymentID, &sale.SyncStatus,
		&sale.SyncAttempts, &sale.SyncError, &sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sale.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	if shiftID.Valid {
		parsed, err := uuid.Parse(shiftID.String)
		if err != nil {
			return nil, err
		}
		sale.ShiftID = &parsed
	}

	if err := json.Unmarshal([]byte(lines), &sale.Lines); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode sale lines")
	}

	return &sale, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// execForOne runs an update expected to touch exactly one row.
func execForOne(ctx context.Context, querier database.Querier, query string, args ...any) error {
	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "row not found")
	}

	return nil
}

// nullable converts an empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// uuidPtrToString converts an optional UUID for storage.
func uuidPtrToString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
