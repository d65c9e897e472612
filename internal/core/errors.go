package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// The processor aborts the whole unit of work on any of these; there is no
// partial commit. Adapters map them to response codes with errors.As/Is.

// ValidationError rejects a request before any mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NoShelfAvailableError means a warehouse had no shelf to receive stock onto.
// Fatal to the enclosing transaction.
type NoShelfAvailableError struct {
	WarehouseCode string
}

func (e *NoShelfAvailableError) Error() string {
	return fmt.Sprintf("warehouse %s has no shelf available to receive stock", e.WarehouseCode)
}

// InsufficientBatchCoverageError means the batch ledger could not cover a
// consumption. Policy: fatal — the transaction is rejected rather than
// completing with partial cost attribution.
type InsufficientBatchCoverageError struct {
	ProductCode string
	Requested   int64
	Shortfall   int64
}

func (e *InsufficientBatchCoverageError) Error() string {
	return fmt.Sprintf("insufficient batch coverage for product %s: requested %d, short by %d",
		e.ProductCode, e.Requested, e.Shortfall)
}

// InsufficientStockError means an inventory row would go negative under a
// type that forbids it (SALE, TRANSFER).
type InsufficientStockError struct {
	ProductCode string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductCode, e.Available, e.Requested)
}

// ErrConcurrencyConflict surfaces a storage-layer serialization failure.
// The caller may retry the whole operation from scratch; retrying part of it
// is never safe.
var ErrConcurrencyConflict = errors.New("concurrent transaction conflict, retry the whole operation")

// translateStorageErr converts Postgres serialization failures (40001) and
// deadlocks (40P01) into ErrConcurrencyConflict and passes everything else
// through as the storage failure it is.
func translateStorageErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return fmt.Errorf("%w: %s", ErrConcurrencyConflict, pgErr.Message)
		}
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isBusinessRuleErr reports whether err is one of the domain error kinds, as
// opposed to a storage failure. Only business-rule failures get a CANCELLED
// audit record; storage failures leave no trace beyond the rollback.
func isBusinessRuleErr(err error) bool {
	var ve *ValidationError
	var ns *NoShelfAvailableError
	var ic *InsufficientBatchCoverageError
	var is *InsufficientStockError
	return errors.As(err, &ve) || errors.As(err, &ns) || errors.As(err, &ic) || errors.As(err, &is)
}
