package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionHistory reads the immutable transaction audit trail: which
// events moved stock, their line items, and which lots each line drew on.
type TransactionHistory struct {
	pool *pgxpool.Pool
}

func NewTransactionHistory(pool *pgxpool.Pool) *TransactionHistory {
	return &TransactionHistory{pool: pool}
}

// Get returns one transaction by reference, with items and batch usages.
func (h *TransactionHistory) Get(ctx context.Context, tenantCode, reference string) (*Transaction, error) {
	tenantID, err := resolveTenant(ctx, h.pool, tenantCode)
	if err != nil {
		return nil, err
	}
	txn, err := loadTransaction(ctx, h.pool, tenantID, reference)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, validationf("transaction %s not found", reference)
	}
	return txn, nil
}

// List returns a tenant's transactions newest first, optionally filtered by
// status, without line items (fetch one by reference for the full trail).
func (h *TransactionHistory) List(ctx context.Context, tenantCode string, status *TransactionStatus, limit, offset int) ([]Transaction, error) {
	tenantID, err := resolveTenant(ctx, h.pool, tenantCode)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, tenant_id, reference, type, status, source_warehouse_id, destination_warehouse_id,
		       notes, failure_reason, created_by, created_at, completed_at
		FROM transactions
		WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := h.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Reference, &t.Type, &t.Status,
			&t.SourceWarehouseID, &t.DestinationWarehouseID, &t.Notes, &t.FailureReason,
			&t.CreatedBy, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// loadTransaction assembles a transaction with its items and batch usages.
// Returns nil when no transaction matches.
func loadTransaction(ctx context.Context, pool *pgxpool.Pool, tenantID int, reference string) (*Transaction, error) {
	var t Transaction
	err := pool.QueryRow(ctx, `
		SELECT id, tenant_id, reference, type, status, source_warehouse_id, destination_warehouse_id,
		       notes, failure_reason, created_by, created_at, completed_at
		FROM transactions
		WHERE tenant_id = $1 AND reference = $2
	`, tenantID, reference).Scan(&t.ID, &t.TenantID, &t.Reference, &t.Type, &t.Status,
		&t.SourceWarehouseID, &t.DestinationWarehouseID, &t.Notes, &t.FailureReason,
		&t.CreatedBy, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load transaction %s: %w", reference, err)
	}

	itemRows, err := pool.Query(ctx, `
		SELECT id, transaction_id, product_id, shelf_id, line_no, quantity, unit_price, cogs
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY line_no
	`, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var it TransactionItem
		if err := itemRows.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.ShelfID,
			&it.LineNo, &it.Quantity, &it.UnitPrice, &it.COGS); err != nil {
			return nil, fmt.Errorf("failed to scan transaction item: %w", err)
		}
		t.Items = append(t.Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction items: %w", err)
	}

	total := decimal.Zero
	for i := range t.Items {
		it := &t.Items[i]
		usageRows, err := pool.Query(ctx, `
			SELECT u.stock_batch_id, b.batch_code, u.qty_used, u.cost_per_unit
			FROM transaction_item_batch_usages u
			JOIN stock_batches b ON b.id = u.stock_batch_id
			WHERE u.transaction_item_id = $1
			ORDER BY u.id
		`, it.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load batch usages: %w", err)
		}
		for usageRows.Next() {
			var u BatchUsage
			if err := usageRows.Scan(&u.BatchID, &u.BatchCode, &u.QtyUsed, &u.CostPerUnit); err != nil {
				usageRows.Close()
				return nil, fmt.Errorf("failed to scan batch usage: %w", err)
			}
			it.BatchUsages = append(it.BatchUsages, u)
		}
		usageRows.Close()
		if err := usageRows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating batch usages: %w", err)
		}

		// A line's cost basis is its resolved COGS when processing set one
		// (sales, transfers, drawdowns), otherwise its acquisition cost.
		if it.COGS != nil {
			total = total.Add(*it.COGS)
		} else {
			total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
		}
	}
	t.TotalCost = total

	return &t, nil
}
