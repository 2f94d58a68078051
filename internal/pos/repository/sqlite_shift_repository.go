package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/possync/internal/database"
	apperrors "github.com/allisson/possync/internal/errors"
	"github.com/allisson/possync/internal/pos/domain"
)

// SQLiteShiftRepository handles shift session and cash event persistence.
type SQLiteShiftRepository struct {
	db *sql.DB
}

// NewSQLiteShiftRepository creates a new SQLiteShiftRepository.
func NewSQLiteShiftRepository(db *sql.DB) *SQLiteShiftRepository {
	return &SQLiteShiftRepository{
		db: db,
	}
}

const shiftColumns = `id, workspace_id, device_id, opened_at, closed_at, opening_float_cents,
	closing_amount_cents, server_shift_id, sync_status, sync_attempts, sync_error, created_at, updated_at`

const cashEventColumns = `id, workspace_id, shift_id, kind, amount_cents, note, occurred_at,
	server_event_id, sync_status, sync_attempts, sync_error, created_at, updated_at`

// CreateShift inserts a new shift session.
func (r *SQLiteShiftRepository) CreateShift(ctx context.Context, shift *domain.ShiftSession) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO shift_sessions (id, workspace_id, device_id, opened_at, closed_at,
			  opening_float_cents, closing_amount_cents, server_shift_id, sync_status,
			  sync_attempts, sync_error, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	_, err := querier.ExecContext(ctx, query, shift.ID.String(), shift.WorkspaceID, shift.DeviceID,
		shift.OpenedAt, shift.ClosedAt, shift.OpeningFloatCents, shift.ClosingAmountCents,
		shift.ServerShiftID, shift.SyncStatus, shift.SyncAttempts, shift.SyncError, now, now)

	return err
}

// GetShiftByID retrieves a single shift session.
func (r *SQLiteShiftRepository) GetShiftByID(ctx context.Context, id uuid.UUID) (*domain.ShiftSession, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + shiftColumns + ` FROM shift_sessions WHERE id = ?`

	shift, err := scanShift(querier.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "shift not found")
	}
	if err != nil {
		return nil, err
	}

	return shift, nil
}

// GetOpenShift returns the workspace's currently open shift, if any.
func (r *SQLiteShiftRepository) GetOpenShift(ctx context.Context, workspaceID string) (*domain.ShiftSession, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + shiftColumns + `
			  FROM shift_sessions
			  WHERE workspace_id = ? AND closed_at IS NULL
			  ORDER BY opened_at DESC
			  LIMIT 1`

	shift, err := scanShift(querier.QueryRowContext(ctx, query, workspaceID))
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "no open shift")
	}
	if err != nil {
		return nil, err
	}

	return shift, nil
}

// CloseShift records the closing of an open shift and resets it to pending
// sync for the close command's delivery.
func (r *SQLiteShiftRepository) CloseShift(ctx context.Context, id uuid.UUID, closingAmountCents int64, closedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE shift_sessions
			  SET closed_at = ?, closing_amount_cents = ?, sync_status = ?, updated_at = ?
			  WHERE id = ? AND closed_at IS NULL`

	return execForOne(ctx, querier, query, closedAt, closingAmountCents, domain.SyncStatusPendingSync,
		time.Now().UTC(), id.String())
}

// SetShiftSynced projects a confirmed sync outcome onto the shift.
func (r *SQLiteShiftRepository) SetShiftSynced(ctx context.Context, id uuid.UUID, serverShiftID string) error {
	querier := database.GetTx(ctx, r.db)

	// The open and close commands share the shift row; a confirmed close must
	// not erase the server id the open already recorded.
	query := `UPDATE shift_sessions
			  SET sync_status = ?, server_shift_id = COALESCE(?, server_shift_id), sync_error = NULL, updated_at = ?
			  WHERE id = ?`

	return execForOne(ctx, querier, query, domain.SyncStatusSynced, nullable(serverShiftID),
		time.Now().UTC(), id.String())
}

// SetShiftSyncOutcome projects a failed/conflicted outcome and its detail.
func (r *SQLiteShiftRepository) SetShiftSyncOutcome(ctx context.Context, id uuid.UUID, status domain.SyncStatus, detail string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE shift_sessions
			  SET sync_status = ?, sync_attempts = sync_attempts + 1, sync_error = ?, updated_at = ?
			  WHERE id = ?`

	return execForOne(ctx, querier, query, status, detail, time.Now().UTC(), id.String())
}

// IncrementShiftSyncAttempts counts a deferred delivery without changing status.
func (r *SQLiteShiftRepository) IncrementShiftSyncAttempts(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE shift_sessions SET sync_attempts = sync_attempts + 1, updated_at = ? WHERE id = ?`

	return execForOne(ctx, querier, query, time.Now().UTC(), id.String())
}

// CreateCashEvent inserts a new cash drawer event.
func (r *SQLiteShiftRepository) CreateCashEvent(ctx context.Context, event *domain.ShiftCashEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO shift_cash_events (id, workspace_id, shift_id, kind, amount_cents, note,
			  occurred_at, server_event_id, sync_status, sync_attempts, sync_error, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	_, err := querier.ExecContext(ctx, query, event.ID.String(), event.WorkspaceID, event.ShiftID.String(),
		event.Kind, event.AmountCents, event.Note, event.OccurredAt, event.ServerEventID,
		event.SyncStatus, event.SyncAttempts, event.SyncError, now, now)

	return err
}

// ListCashEventsByShift returns a shift's cash events in occurrence order.
func (r *SQLiteShiftRepository) ListCashEventsByShift(ctx context.Context, shiftID uuid.UUID) ([]*domain.ShiftCashEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + cashEventColumns + `
			  FROM shift_cash_events
			  WHERE shift_id = ?
			  ORDER BY occurred_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, shiftID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.ShiftCashEvent
	for rows.Next() {
		event, err := scanCashEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// SetCashEventSynced projects a confirmed sync outcome onto the cash event.
func (r *SQLiteShiftRepository) SetCashEventSynced(ctx context.Context, id uuid.UUID, serverEventID string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE shift_cash_events
			  SET sync_status = ?, server_event_id = ?, sync_error = NULL, updated_at = ?
			  WHERE id = ?`

	return execForOne(ctx, querier, query, domain.SyncStatusSynced, nullable(serverEventID),
		time.Now().UTC(), id.String())
}

// SetCashEventSyncOutcome projects a failed/conflicted outcome and its detail.
func (r *SQLiteShiftRepository) SetCashEventSyncOutcome(ctx context.Context, id uuid.UUID, status domain.SyncStatus, detail string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE shift_cash_events
			  SET sync_status = ?, sync_attempts = sync_attempts + 1, sync_error = ?, updated_at = ?
			  WHERE id = ?`

	return execForOne(ctx, querier, query, status, detail, time.Now().UTC(), id.String())
}

// IncrementCashEventSyncAttempts counts a deferred delivery without changing status.
func (r *SQLiteShiftRepository) IncrementCashEventSyncAttempts(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE shift_cash_events SET sync_attempts = sync_attempts + 1, updated_at = ? WHERE id = ?`

	return execForOne(ctx, querier, query, time.Now().UTC(), id.String())
}

// scanShift scans one shift session row.
func scanShift(row rowScanner) (*domain.ShiftSession, error) {
	var shift domain.ShiftSession
	var id string

	err := row.Scan(&id, &shift.WorkspaceID, &shift.DeviceID, &shift.OpenedAt, &shift.ClosedAt,
		&shift.OpeningFloatCents, &shift.ClosingAmountCents, &shift.ServerShiftID, &shift.SyncStatus,
		&shift.SyncAttempts, &shift.SyncError, &shift.CreatedAt, &shift.UpdatedAt)
	if err != nil {
		return nil, err
	}

	shift.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	return &shift, nil
}

// scanCashEvent scans one cash event row.
func scanCashEvent(row rowScanner) (*domain.ShiftCashEvent, error) {
	var event domain.ShiftCashEvent
	var id, shiftID string

	err := row.Scan(&id, &event.WorkspaceID, &shiftID, &event.Kind, &event.AmountCents, &event.Note,
		&event.OccurredAt, &event.ServerEventID, &event.SyncStatus, &event.SyncAttempts,
		&event.SyncError, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, err
	}

	event.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	event.ShiftID, err = uuid.Parse(shiftID)
	if err != nil {
		return nil, err
	}

	return &event, nil
}
