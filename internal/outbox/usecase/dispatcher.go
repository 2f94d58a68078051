// Package usecase implements the sync engine: it drains the outbox against the
// central server, enforcing single-flight per workspace, strict FIFO delivery,
// retry classification, one-shot auth recovery and backoff between drains.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/allisson/possync/internal/errors"
	"github.com/allisson/possync/internal/metrics"
	"github.com/allisson/possync/internal/outbox/domain"
)

// Config holds dispatcher configuration.
type Config struct {
	// BatchSize is the maximum number of commands fetched per drain.
	BatchSize int
	// MaxAttempts is the number of transient delivery failures after which a
	// command is reclassified as permanently failed instead of retried forever.
	MaxAttempts int
	// InitialBackoff is the first inter-drain delay after a network failure.
	InitialBackoff time.Duration
	// MaxBackoff caps the exponential inter-drain delay.
	MaxBackoff time.Duration
}

// CommandRepository defines outbox command persistence operations.
type CommandRepository interface {
	Create(ctx context.Context, cmd *domain.Command) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Command, error)
	FindPending(ctx context.Context, workspaceID string, limit int) ([]*domain.Command, error)
	MarkInFlight(ctx context.Context, id uuid.UUID) error
	MarkSynced(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, detail string) error
	MarkConflict(ctx context.Context, id uuid.UUID, detail string) error
	ReturnToPending(ctx context.Context, id uuid.UUID) error
	MarkForRetry(ctx context.Context, id uuid.UUID) error
	RequeueInFlight(ctx context.Context, workspaceID string) (int, error)
	Stats(ctx context.Context, workspaceID string) (*domain.Stats, error)
}

// CommandSender delivers one command to the central server, attaching the
// command's idempotency key. It returns the server-assigned identifiers on
// success, a *errors.RemoteError for a rejected delivery, an error wrapping
// errors.ErrInvalidInput for a command that cannot be put on the wire, or an
// error wrapping errors.ErrUnreachable for network failures and timeouts.
type CommandSender interface {
	Send(ctx context.Context, cmd *domain.Command, accessToken string) (*domain.ServerRefs, error)
}

// TokenSource provides access tokens for the central server. The dispatcher
// requests exactly one refresh per drain when the server answers 401.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// OutcomeProjector mirrors a command outcome onto the local domain entity the
// command references. It is the only writer of entity sync fields.
type OutcomeProjector interface {
	ProjectSynced(ctx context.Context, kind domain.EntityKind, entityID uuid.UUID, refs *domain.ServerRefs) error
	ProjectFailed(ctx context.Context, kind domain.EntityKind, entityID uuid.UUID, detail string) error
	ProjectConflict(ctx context.Context, kind domain.EntityKind, entityID uuid.UUID, detail string) error
	ProjectDeferred(ctx context.Context, kind domain.EntityKind, entityID uuid.UUID) error
}

// UseCase defines the interface for the sync engine.
type UseCase interface {
	ProcessQueue(ctx context.Context, workspaceID string) error
	RecoverInFlight(ctx context.Context, workspaceID string) (int, error)
	RetryCommand(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, workspaceID string) (*domain.Stats, error)
}

// workspaceState holds the per-workspace drain guard and backoff window.
type workspaceState struct {
	sem         *semaphore.Weighted
	bo          *backoff.ExponentialBackOff
	nextAttempt time.Time
}

// Dispatcher implements the sync engine over the outbox queue.
type Dispatcher struct {
	config    Config
	repo      CommandRepository
	sender    CommandSender
	tokens    TokenSource
	projector OutcomeProjector
	metrics   metrics.BusinessMetrics
	logger    *slog.Logger

	mu         sync.Mutex
	workspaces map[string]*workspaceState

	// now is replaceable in tests.
	now func() time.Time
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	config Config,
	repo CommandRepository,
	sender CommandSender,
	tokens TokenSource,
	projector OutcomeProjector,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *Dispatcher {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &Dispatcher{
		config:     config,
		repo:       repo,
		sender:     sender,
		tokens:     tokens,
		projector:  projector,
		metrics:    businessMetrics,
		logger:     logger,
		workspaces: make(map[string]*workspaceState),
		now:        time.Now,
	}
}

// deliveryResult classifies what a single delivery means for the rest of the pass.
type deliveryResult int

const (
	// deliveryContinue means the next command can be attempted.
	deliveryContinue deliveryResult = iota
	// deliveryHaltAuth stops the pass after an unrecoverable auth failure,
	// so one stale session surfaces once instead of failing every command.
	deliveryHaltAuth
	// deliveryHaltNetwork stops the pass on a transient failure; subsequent
	// commands would very likely fail the same way offline.
	deliveryHaltNetwork
	// deliveryHaltStore stops the pass because the local store errored.
	deliveryHaltStore
)

// ProcessQueue drains pending commands for one workspace, strictly in creation
// order. At most one drain runs per workspace at any instant: a concurrent call
// is a no-op. A drain inside the workspace's backoff window is also a no-op.
// Per-command failures never propagate out of ProcessQueue; each outcome is
// recorded on its own row.
func (d *Dispatcher) ProcessQueue(ctx context.Context, workspaceID string) error {
	state := d.workspace(workspaceID)

	if !state.sem.TryAcquire(1) {
		// A drain for this workspace is already running.
		return nil
	}
	defer state.sem.Release(1)

	if wait := d.backoffRemaining(state); wait > 0 {
		if d.logger != nil {
			d.logger.Debug("drain deferred by backoff",
				slog.String("workspace_id", workspaceID),
				slog.Duration("remaining", wait),
			)
		}
		return nil
	}

	start := d.now()

	commands, err := d.repo.FindPending(ctx, workspaceID, d.config.BatchSize)
	if err != nil {
		return apperrors.Wrap(err, "failed to fetch pending commands")
	}

	if len(commands) == 0 {
		d.resetBackoff(state)
		return nil
	}

	if d.logger != nil {
		d.logger.Info("draining outbox",
			slog.String("workspace_id", workspaceID),
			slog.Int("count", len(commands)),
		)
	}

	networkHalted := false
	for _, cmd := range commands {
		result := d.deliver(ctx, cmd)
		if result == deliveryContinue {
			continue
		}
		networkHalted = result == deliveryHaltNetwork
		break
	}

	if networkHalted {
		d.recordNetworkFailure(state)
	} else {
		d.resetBackoff(state)
	}

	outcome := "completed"
	if networkHalted {
		outcome = "deferred"
	}
	d.metrics.RecordDuration(ctx, "outbox", "drain", d.now().Sub(start), outcome)

	return nil
}

// deliver sends one command and records its outcome on both the outbox row and
// the local domain entity.
func (d *Dispatcher) deliver(ctx context.Context, cmd *domain.Command) deliveryResult {
	if err := d.repo.MarkInFlight(ctx, cmd.ID); err != nil {
		d.logError("failed to mark command in flight", cmd, err)
		return deliveryHaltStore
	}

	token, err := d.tokens.AccessToken(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnreachable) {
			return d.recordDeferred(ctx, cmd, err)
		}
		return d.recordAuthFailure(ctx, cmd, err)
	}

	refs, err := d.sender.Send(ctx, cmd, token)
	if err == nil {
		return d.recordSynced(ctx, cmd, refs)
	}

	var remoteErr *apperrors.RemoteError
	switch {
	case apperrors.As(err, &remoteErr) && remoteErr.Unauthorized():
		return d.refreshAndResend(ctx, cmd)

	case apperrors.As(err, &remoteErr) && remoteErr.Conflict():
		return d.recordConflict(ctx, cmd, remoteErr)

	case apperrors.As(err, &remoteErr) && remoteErr.Permanent():
		return d.recordFailed(ctx, cmd, remoteErr.Message)

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		// An unroutable type or undecodable payload will never deliver.
		return d.recordFailed(ctx, cmd, err.Error())

	default:
		// Network failure, timeout, or a 5xx: transient.
		return d.recordDeferred(ctx, cmd, err)
	}
}

// refreshAndResend performs the single refresh-and-retry cycle allowed for a
// 401. The resend reuses the same command and idempotency key. A second
// failure of any kind is recorded as an auth failure and halts the pass.
func (d *Dispatcher) refreshAndResend(ctx context.Context, cmd *domain.Command) deliveryResult {
	token, err := d.tokens.Refresh(ctx)
	if err != nil {
		return d.recordAuthFailure(ctx, cmd, err)
	}

	refs, err := d.sender.Send(ctx, cmd, token)
	if err != nil {
		return d.recordAuthFailure(ctx, cmd, err)
	}

	return d.recordSynced(ctx, cmd, refs)
}

// recordSynced finalizes a confirmed command and projects the server
// identifiers onto the local entity.
func (d *Dispatcher) recordSynced(ctx context.Context, cmd *domain.Command, refs *domain.ServerRefs) deliveryResult {
	if err := d.repo.MarkSynced(ctx, cmd.ID); err != nil {
		d.logError("failed to mark command synced", cmd, err)
		return deliveryHaltStore
	}
	if err := d.projector.ProjectSynced(ctx, cmd.EntityKind, cmd.EntityID, refs); err != nil {
		d.logError("failed to project synced outcome", cmd, err)
	}

	d.metrics.RecordOperation(ctx, "outbox", string(cmd.Type), "synced")
	return deliveryContinue
}

// recordFailed records a permanent validation/business rejection. One bad
// command must not block its siblings, so the pass continues.
func (d *Dispatcher) recordFailed(ctx context.Context, cmd *domain.Command, detail string) deliveryResult {
	if err := d.repo.MarkFailed(ctx, cmd.ID, detail); err != nil {
		d.logError("failed to mark command failed", cmd, err)
		return deliveryHaltStore
	}
	if err := d.projector.ProjectFailed(ctx, cmd.EntityKind, cmd.EntityID, detail); err != nil {
		d.logError("failed to project failed outcome", cmd, err)
	}

	d.metrics.RecordOperation(ctx, "outbox", string(cmd.Type), "failed")
	return deliveryContinue
}

// recordConflict records a state divergence for manual resolution.
func (d *Dispatcher) recordConflict(ctx context.Context, cmd *domain.Command, remoteErr *apperrors.RemoteError) deliveryResult {
	if err := d.repo.MarkConflict(ctx, cmd.ID, remoteErr.Message); err != nil {
		d.logError("failed to mark command conflicted", cmd, err)
		return deliveryHaltStore
	}
	if err := d.projector.ProjectConflict(ctx, cmd.EntityKind, cmd.EntityID, remoteErr.Message); err != nil {
		d.logError("failed to project conflict outcome", cmd, err)
	}

	d.metrics.RecordOperation(ctx, "outbox", string(cmd.Type), "conflict")
	return deliveryContinue
}

// recordAuthFailure marks the command failed with an auth detail and halts the
// pass: a stale session should surface once, not fail every queued command.
func (d *Dispatcher) recordAuthFailure(ctx context.Context, cmd *domain.Command, cause error) deliveryResult {
	detail := fmt.Sprintf("authentication failed: %v", cause)

	if err := d.repo.MarkFailed(ctx, cmd.ID, detail); err != nil {
		d.logError("failed to mark command failed", cmd, err)
		return deliveryHaltStore
	}
	if err := d.projector.ProjectFailed(ctx, cmd.EntityKind, cmd.EntityID, detail); err != nil {
		d.logError("failed to project failed outcome", cmd, err)
	}

	d.metrics.RecordOperation(ctx, "outbox", string(cmd.Type), "auth_failed")
	return deliveryHaltAuth
}

// recordDeferred handles a transient failure: the command goes back to pending
// with the attempt counted, and the pass halts until connectivity returns.
// Once the attempt cap is reached the command is reclassified as permanently
// failed so the queue does not retry forever.
func (d *Dispatcher) recordDeferred(ctx context.Context, cmd *domain.Command, cause error) deliveryResult {
	if cmd.Attempts+1 >= d.config.MaxAttempts {
		detail := fmt.Sprintf("gave up after %d delivery attempts: %v", cmd.Attempts+1, cause)
		if err := d.repo.MarkFailed(ctx, cmd.ID, detail); err != nil {
			d.logError("failed to mark command failed", cmd, err)
			return deliveryHaltStore
		}
		if err := d.projector.ProjectFailed(ctx, cmd.EntityKind, cmd.EntityID, detail); err != nil {
			d.logError("failed to project failed outcome", cmd, err)
		}

		d.metrics.RecordOperation(ctx, "outbox", string(cmd.Type), "exhausted")
		return deliveryHaltNetwork
	}

	if err := d.repo.ReturnToPending(ctx, cmd.ID); err != nil {
		d.logError("failed to return command to pending", cmd, err)
		return deliveryHaltStore
	}
	if err := d.projector.ProjectDeferred(ctx, cmd.EntityKind, cmd.EntityID); err != nil {
		d.logError("failed to project deferred outcome", cmd, err)
	}

	if d.logger != nil {
		d.logger.Warn("command delivery deferred",
			slog.String("command_id", cmd.ID.String()),
			slog.String("command_type", string(cmd.Type)),
			slog.Int("attempts", cmd.Attempts+1),
			slog.Any("error", cause),
		)
	}

	d.metrics.RecordOperation(ctx, "outbox", string(cmd.Type), "deferred")
	return deliveryHaltNetwork
}

// RecoverInFlight requeues commands left in_flight by a crash or forced quit.
// Called by the composition root before the first drain. Safe because the
// idempotency key guarantees the server will not double-apply a redelivery.
func (d *Dispatcher) RecoverInFlight(ctx context.Context, workspaceID string) (int, error) {
	count, err := d.repo.RequeueInFlight(ctx, workspaceID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to requeue in-flight commands")
	}

	if count > 0 && d.logger != nil {
		d.logger.Info("requeued in-flight commands from previous run",
			slog.String("workspace_id", workspaceID),
			slog.Int("count", count),
		)
	}

	return count, nil
}

// RetryCommand resets a failed or conflicted command to pending for a fresh
// manual attempt cycle.
func (d *Dispatcher) RetryCommand(ctx context.Context, id uuid.UUID) error {
	return d.repo.MarkForRetry(ctx, id)
}

// Stats returns the queue counters for the workspace.
func (d *Dispatcher) Stats(ctx context.Context, workspaceID string) (*domain.Stats, error) {
	return d.repo.Stats(ctx, workspaceID)
}

// workspace returns (creating if needed) the per-workspace drain state.
func (d *Dispatcher) workspace(workspaceID string) *workspaceState {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, ok := d.workspaces[workspaceID]
	if !ok {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = d.config.InitialBackoff
		bo.MaxInterval = d.config.MaxBackoff
		bo.MaxElapsedTime = 0
		bo.Reset()

		state = &workspaceState{
			sem: semaphore.NewWeighted(1),
			bo:  bo,
		}
		d.workspaces[workspaceID] = state
	}

	return state
}

// backoffRemaining returns how long until the workspace may drain again.
func (d *Dispatcher) backoffRemaining(state *workspaceState) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if state.nextAttempt.IsZero() {
		return 0
	}
	return state.nextAttempt.Sub(d.now())
}

// recordNetworkFailure grows the workspace's backoff window.
func (d *Dispatcher) recordNetworkFailure(state *workspaceState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state.nextAttempt = d.now().Add(state.bo.NextBackOff())
}

// resetBackoff clears the backoff window after a drain that did not end in a
// network failure.
func (d *Dispatcher) resetBackoff(state *workspaceState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state.bo.Reset()
	state.nextAttempt = time.Time{}
}

// logError logs a local-store error for a command without aborting the caller.
func (d *Dispatcher) logError(message string, cmd *domain.Command, err error) {
	if d.logger == nil {
		return
	}
	d.logger.Error(message,
		slog.String("command_id", cmd.ID.String()),
		slog.String("command_type", string(cmd.Type)),
		slog.Any("error", err),
	)
}
