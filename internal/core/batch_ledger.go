package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BatchLedger owns the cost side of the ledger: append-only lots with a
// remaining quantity and a per-unit acquisition cost. Lots are consumed
// oldest receipt first (FIFO), which keeps cost-of-goods-sold deterministic
// and reproducible without per-unit identity tracking.
type BatchLedger struct {
	pool *pgxpool.Pool
}

func NewBatchLedger(pool *pgxpool.Pool) *BatchLedger {
	return &BatchLedger{pool: pool}
}

// ReceiveParams describes one new lot.
type ReceiveParams struct {
	TenantID    int
	ProductID   int
	WarehouseID int
	Qty         int64
	CostPerUnit decimal.Decimal
	Source      BatchSource
	// ReferenceID links the lot back to the transaction that created it.
	ReferenceID string
	// BatchCode is generated when empty.
	BatchCode string
}

// ReceiveTx appends a new lot with qty_remaining = qty inside the caller's
// transaction.
func (l *BatchLedger) ReceiveTx(ctx context.Context, tx pgx.Tx, p ReceiveParams) (*StockBatch, error) {
	if p.Qty <= 0 {
		return nil, validationf("batch quantity must be positive, got %d", p.Qty)
	}
	if p.CostPerUnit.IsNegative() {
		return nil, validationf("batch cost per unit cannot be negative, got %s", p.CostPerUnit)
	}

	code := p.BatchCode
	if code == "" {
		code = "B-" + uuid.NewString()[:8]
	}

	var b StockBatch
	var refID *string
	if p.ReferenceID != "" {
		refID = &p.ReferenceID
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO stock_batches (tenant_id, product_id, warehouse_id, batch_code, source, qty_total, qty_remaining, cost_per_unit, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8)
		RETURNING id, tenant_id, product_id, warehouse_id, batch_code, source, qty_total, qty_remaining, cost_per_unit, reference_id, received_at
	`, p.TenantID, p.ProductID, p.WarehouseID, code, string(p.Source), p.Qty, p.CostPerUnit, refID).Scan(
		&b.ID, &b.TenantID, &b.ProductID, &b.WarehouseID, &b.BatchCode, &b.Source,
		&b.QtyTotal, &b.QtyRemaining, &b.CostPerUnit, &b.ReferenceID, &b.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert stock batch: %w", err)
	}
	return &b, nil
}

// ConsumeTx draws qty from the product's open lots in the warehouse, oldest
// received_at first, insertion id as tie-break. Candidate lots are locked
// FOR UPDATE before decrementing. Each lot touched produces one BatchUsage
// carrying the lot's cost at draw time.
//
// When the open lots cannot cover qty, everything available is still drawn
// down and the returned error is an *InsufficientBatchCoverageError carrying
// the shortfall — alongside the usages made so far. The caller decides
// whether that is fatal (SALE, TRANSFER) or tolerable (negative ADJUSTMENT).
func (l *BatchLedger) ConsumeTx(ctx context.Context, tx pgx.Tx, tenantID, productID, warehouseID int, qty int64, productCode string) ([]BatchUsage, error) {
	if qty <= 0 {
		return nil, validationf("consume quantity must be positive, got %d", qty)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, batch_code, qty_remaining, cost_per_unit
		FROM stock_batches
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3 AND qty_remaining > 0
		ORDER BY received_at, id
		FOR UPDATE
	`, tenantID, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock batches: %w", err)
	}

	type lot struct {
		id        int
		code      string
		remaining int64
		cost      decimal.Decimal
	}
	var lots []lot
	for rows.Next() {
		var b lot
		if err := rows.Scan(&b.id, &b.code, &b.remaining, &b.cost); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stock batch: %w", err)
		}
		lots = append(lots, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock batches: %w", err)
	}

	var usages []BatchUsage
	remaining := qty
	for _, b := range lots {
		if remaining == 0 {
			break
		}
		take := b.remaining
		if take > remaining {
			take = remaining
		}

		_, err = tx.Exec(ctx, `
			UPDATE stock_batches SET qty_remaining = qty_remaining - $1 WHERE id = $2
		`, take, b.id)
		if err != nil {
			return nil, fmt.Errorf("failed to draw down batch %s: %w", b.code, err)
		}

		usages = append(usages, BatchUsage{
			BatchID:     b.id,
			BatchCode:   b.code,
			QtyUsed:     take,
			CostPerUnit: b.cost,
		})
		remaining -= take
	}

	if remaining > 0 {
		return usages, &InsufficientBatchCoverageError{
			ProductCode: productCode,
			Requested:   qty,
			Shortfall:   remaining,
		}
	}
	return usages, nil
}

// RemainingQty sums qty_remaining across a product's open lots in one
// warehouse. Used by tests and reconciliation checks against the quantity
// cache.
func (l *BatchLedger) RemainingQty(ctx context.Context, tenantID, productID, warehouseID int) (int64, error) {
	var qty int64
	err := l.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(qty_remaining), 0) FROM stock_batches
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3
	`, tenantID, productID, warehouseID).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("failed to sum batch remainders: %w", err)
	}
	return qty, nil
}

// ListBatches returns a product's lots in a warehouse in receipt order,
// including exhausted ones; the batch ledger is the audit trail of how stock
// was acquired, so nothing is hidden.
func (l *BatchLedger) ListBatches(ctx context.Context, tenantID, productID, warehouseID int) ([]StockBatch, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, tenant_id, product_id, warehouse_id, batch_code, source, qty_total, qty_remaining, cost_per_unit, reference_id, received_at
		FROM stock_batches
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3
		ORDER BY received_at, id
	`, tenantID, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock batches: %w", err)
	}
	defer rows.Close()

	var batches []StockBatch
	for rows.Next() {
		var b StockBatch
		if err := rows.Scan(&b.ID, &b.TenantID, &b.ProductID, &b.WarehouseID, &b.BatchCode, &b.Source,
			&b.QtyTotal, &b.QtyRemaining, &b.CostPerUnit, &b.ReferenceID, &b.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
