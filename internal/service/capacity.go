// Package service implements the application, partnership, and project
// workflow engines.
package service

import (
	"context"
	"errors"

	"capmatch/internal/models"
	"capmatch/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// txAttempts bounds the retry budget for transactions that hit a commit
// conflict before surfacing TRANSIENT_CONFLICT to the caller.
const txAttempts = 3

// runInTx executes fn inside a database transaction, retrying the whole
// read-validate-write cycle on serialization conflicts. All multi-document
// mutations in the workflow engine go through here; correctness under
// concurrency is delegated to the store, not to in-process locks.
func runInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var lastErr error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err := db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if !isRetryableTxError(err) {
			return err
		}
		observability.TransactionRetries.Inc()
		lastErr = err
	}
	return models.NewTransientConflictError(lastErr)
}

// isRetryableTxError reports whether the error is a Postgres serialization
// failure (40001) or deadlock (40P01), both safe to retry.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// CapacityLedger tracks supervisor capacity. Every mutation happens inside a
// transaction, against a row re-read under a FOR UPDATE lock, alongside the
// application or partnership status it backs.
type CapacityLedger struct {
	db *gorm.DB
}

// NewCapacityLedger returns a ledger bound to the given database.
func NewCapacityLedger(db *gorm.DB) *CapacityLedger {
	return &CapacityLedger{db: db}
}

// RunInTx runs fn as a capacity transaction with conflict retry.
func (l *CapacityLedger) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return runInTx(ctx, l.db, fn)
}

// lockSupervisor re-reads the supervisor row inside the transaction. Reading
// from any outer cache here would let two concurrent approvals both pass the
// capacity check.
func lockSupervisor(tx *gorm.DB, supervisorID uint) (*models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&supervisor, supervisorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Supervisor", supervisorID)
		}
		return nil, err
	}
	return &supervisor, nil
}

// checkedIncrement validates spare capacity and increments in memory.
func checkedIncrement(supervisor *models.Supervisor) error {
	if supervisor.CurrentCapacity >= supervisor.MaxCapacity {
		observability.CapacityRejections.Inc()
		return models.NewCapacityExceededError(supervisor.CurrentCapacity, supervisor.MaxCapacity)
	}
	supervisor.CurrentCapacity++
	return nil
}

// checkedDecrement decrements in memory, floored at zero so a double release
// can never drive the ledger negative.
func checkedDecrement(supervisor *models.Supervisor) {
	if supervisor.CurrentCapacity > 0 {
		supervisor.CurrentCapacity--
	}
}

// Reserve takes one unit of the supervisor's capacity inside tx. Fails with
// CAPACITY_EXCEEDED (including current/max) when the supervisor is full.
func (l *CapacityLedger) Reserve(tx *gorm.DB, supervisorID uint) (*models.Supervisor, error) {
	supervisor, err := lockSupervisor(tx, supervisorID)
	if err != nil {
		return nil, err
	}
	if err := checkedIncrement(supervisor); err != nil {
		return nil, err
	}
	if err := tx.Model(supervisor).Update("current_capacity", supervisor.CurrentCapacity).Error; err != nil {
		return nil, err
	}
	return supervisor, nil
}

// Release frees one unit of the supervisor's capacity inside tx.
func (l *CapacityLedger) Release(tx *gorm.DB, supervisorID uint) (*models.Supervisor, error) {
	supervisor, err := lockSupervisor(tx, supervisorID)
	if err != nil {
		return nil, err
	}
	checkedDecrement(supervisor)
	if err := tx.Model(supervisor).Update("current_capacity", supervisor.CurrentCapacity).Error; err != nil {
		return nil, err
	}
	return supervisor, nil
}
