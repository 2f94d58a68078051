// Package repository provides data persistence implementations for outbox commands.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/possync/internal/database"
	"github.com/allisson/possync/internal/outbox/domain"
	apperrors "github.com/allisson/possync/internal/errors"
)

// SQLiteCommandRepository handles outbox command persistence in the local store.
type SQLiteCommandRepository struct {
	db *sql.DB
}

// NewSQLiteCommandRepository creates a new SQLiteCommandRepository.
func NewSQLiteCommandRepository(db *sql.DB) *SQLiteCommandRepository {
	return &SQLiteCommandRepository{
		db: db,
	}
}

const commandColumns = `id, workspace_id, command_type, payload, idempotency_key, status,
	attempts, last_error, entity_kind, entity_id, created_at, updated_at`

// Create inserts a new outbox command. It participates in any transaction
// carried by the context, which is how entity and command commit atomically.
func (r *SQLiteCommandRepository) Create(ctx context.Context, cmd *domain.Command) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_commands (id, workspace_id, command_type, payload, idempotency_key,
			  status, attempts, last_error, entity_kind, entity_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	_, err := querier.ExecContext(ctx, query, cmd.ID.String(), cmd.WorkspaceID, cmd.Type, cmd.Payload,
		cmd.IdempotencyKey, cmd.Status, cmd.Attempts, cmd.LastError, cmd.EntityKind,
		cmd.EntityID.String(), now, now)

	return err
}

// GetByID retrieves a single command.
func (r *SQLiteCommandRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Command, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + commandColumns + ` FROM outbox_commands WHERE id = ?`

	cmd, err := scanCommand(querier.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "outbox command not found")
	}
	if err != nil {
		return nil, err
	}

	return cmd, nil
}

// FindPending returns pending commands for the workspace in creation order
// (FIFO), up to limit. Ordering is load-bearing: commands against the same
// entity must be delivered in the order they were created.
func (r *SQLiteCommandRepository) FindPending(
	ctx context.Context,
	workspaceID string,
	limit int,
) ([]*domain.Command, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + commandColumns + `
			  FROM outbox_commands
			  WHERE workspace_id = ? AND status = ?
			  ORDER BY created_at ASC, id ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, workspaceID, domain.CommandStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var commands []*domain.Command
	for rows.Next() {
		cmd, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return commands, nil
}

// MarkInFlight transitions a pending command to in_flight.
func (r *SQLiteCommandRepository) MarkInFlight(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, domain.CommandStatusInFlight, nil, false)
}

// MarkSynced finalizes a command after the server confirmed its effect.
func (r *SQLiteCommandRepository) MarkSynced(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, domain.CommandStatusSynced, nil, false)
}

// MarkFailed records a permanent failure with its human-readable detail
// and counts the delivery attempt.
func (r *SQLiteCommandRepository) MarkFailed(ctx context.Context, id uuid.UUID, detail string) error {
	return r.setStatus(ctx, id, domain.CommandStatusFailed, &detail, true)
}

// MarkConflict records a state divergence that needs manual resolution.
func (r *SQLiteCommandRepository) MarkConflict(ctx context.Context, id uuid.UUID, detail string) error {
	return r.setStatus(ctx, id, domain.CommandStatusConflict, &detail, true)
}

// ReturnToPending puts a command back in the queue after a transient network
// failure, counting the attempt. The idempotency key is untouched, so the
// eventual redelivery cannot double-apply.
func (r *SQLiteCommandRepository) ReturnToPending(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, domain.CommandStatusPending, nil, true)
}

// MarkForRetry resets a failed or conflicted command to pending for a fresh
// manual attempt cycle, clearing the stored error.
func (r *SQLiteCommandRepository) MarkForRetry(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_commands
			  SET status = ?, last_error = NULL, updated_at = ?
			  WHERE id = ? AND status IN (?, ?)`

	result, err := querier.ExecContext(ctx, query, domain.CommandStatusPending, time.Now().UTC(),
		id.String(), domain.CommandStatusFailed, domain.CommandStatusConflict)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "no failed or conflicted command to retry")
	}

	return nil
}

// RequeueInFlight returns leftover in_flight commands to pending. Called on
// startup: a crash mid-delivery must not strand commands, and the unchanged
// idempotency key makes the redelivery safe.
func (r *SQLiteCommandRepository) RequeueInFlight(ctx context.Context, workspaceID string) (int, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_commands
			  SET status = ?, updated_at = ?
			  WHERE workspace_id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query, domain.CommandStatusPending, time.Now().UTC(),
		workspaceID, domain.CommandStatusInFlight)
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

// Stats returns the queue counters for the workspace.
func (r *SQLiteCommandRepository) Stats(ctx context.Context, workspaceID string) (*domain.Stats, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT
			  COUNT(CASE WHEN status IN (?, ?) THEN 1 END),
			  COUNT(CASE WHEN status = ? THEN 1 END),
			  COUNT(CASE WHEN status = ? THEN 1 END)
			  FROM outbox_commands
			  WHERE workspace_id = ?`

	var stats domain.Stats
	err := querier.QueryRowContext(ctx, query,
		domain.CommandStatusPending, domain.CommandStatusInFlight,
		domain.CommandStatusFailed,
		domain.CommandStatusConflict,
		workspaceID,
	).Scan(&stats.Pending, &stats.Failed, &stats.Conflicts)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// setStatus updates a command's status, optionally recording an error detail
// and counting the delivery attempt.
func (r *SQLiteCommandRepository) setStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.CommandStatus,
	detail *string,
	countAttempt bool,
) error {
	querier := database.GetTx(ctx, r.db)

	attemptDelta := 0
	if countAttempt {
		attemptDelta = 1
	}

	var query string
	var args []any
	if detail != nil {
		query = `UPDATE outbox_commands
				 SET status = ?, attempts = attempts + ?, last_error = ?, updated_at = ?
				 WHERE id = ?`
		args = []any{status, attemptDelta, *detail, time.Now().UTC(), id.String()}
	} else {
		query = `UPDATE outbox_commands
				 SET status = ?, attempts = attempts + ?, updated_at = ?
				 WHERE id = ?`
		args = []any{status, attemptDelta, time.Now().UTC(), id.String()}
	}

	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "outbox command not found")
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCommand scans one outbox command row.
func scanCommand(row rowScanner) (*domain.Command, error) {
	var cmd domain.Command
	var id, entityID string

	err := row.Scan(&id, &cmd.WorkspaceID, &cmd.Type, &cmd.Payload, &cmd.IdempotencyKey,
		&cmd.Status, &cmd.Attempts, &cmd.LastError, &cmd.EntityKind, &entityID,
		&cmd.CreatedAt, &cmd.UpdatedAt)
	if err != nil {
		return nil, err
	}

	cmd.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	cmd.EntityID, err = uuid.Parse(entityID)
	if err != nil {
		return nil, err
	}

	return &cmd, nil
}
