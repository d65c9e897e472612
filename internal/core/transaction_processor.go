package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionProcessor applies a transaction request's line items to the
// inventory store and the batch ledger as one atomic unit of work, and
// records the immutable transaction + batch-usage audit trail.
//
// State machine: PENDING → COMPLETED on the normal path. Any failure rolls
// the whole unit of work back; business-rule failures additionally leave a
// CANCELLED transaction with the failure reason, written in a separate short
// transaction so the audit record survives the rollback. Storage-layer
// failures leave nothing behind. No other transitions exist.
type TransactionProcessor struct {
	pool    *pgxpool.Pool
	store   *InventoryStore
	ledger  *BatchLedger
	catalog Catalog
}

func NewTransactionProcessor(pool *pgxpool.Pool, store *InventoryStore, ledger *BatchLedger, catalog Catalog) *TransactionProcessor {
	return &TransactionProcessor{pool: pool, store: store, ledger: ledger, catalog: catalog}
}

// lineState carries one resolved line through processing.
type lineState struct {
	itemID  int
	product *Product
	shelfID *int
	input   TransactionLineInput
}

// Process validates and applies one transaction request. On success the
// returned transaction is COMPLETED with items, per-line COGS, and batch
// usages resolved. On failure the store is exactly as if the request had
// never been submitted, and the error is one of the domain kinds
// (ValidationError, NoShelfAvailableError, InsufficientStockError,
// InsufficientBatchCoverageError, ErrConcurrencyConflict) or a wrapped
// storage failure.
func (p *TransactionProcessor) Process(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	reference := "TX-" + uuid.NewString()[:13]
	tenantID, txn, err := p.run(ctx, req, reference)
	if err != nil {
		err = translateStorageErr(err)
		if isBusinessRuleErr(err) && tenantID != 0 {
			p.recordCancelled(ctx, tenantID, req, reference, err)
		}
		return nil, err
	}
	return txn, nil
}

// run executes the unit of work proper. It returns the resolved tenant id
// even on failure so the caller can record the cancellation.
func (p *TransactionProcessor) run(ctx context.Context, req TransactionRequest, reference string) (int, *Transaction, error) {
	tenantID, err := resolveTenant(ctx, p.pool, req.TenantCode)
	if err != nil {
		return 0, nil, err
	}

	// Items are resolved through the catalog boundary before the unit of
	// work opens; products are read-mostly reference data.
	lines := make([]*lineState, len(req.Items))
	for i, in := range req.Items {
		product, err := p.catalog.ResolveProduct(ctx, tenantID, in.ProductCode)
		if err != nil {
			return tenantID, nil, err
		}
		if product == nil {
			return tenantID, nil, validationf("unknown item %s", in.ProductCode)
		}
		lines[i] = &lineState{product: product, input: in}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return tenantID, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sourceID, err := resolveWarehouseTx(ctx, tx, tenantID, req.SourceWarehouseCode)
	if err != nil {
		return tenantID, nil, err
	}
	var destID *int
	if req.Type == TransactionTransfer {
		id, err := resolveWarehouseTx(ctx, tx, tenantID, req.DestinationWarehouseCode)
		if err != nil {
			return tenantID, nil, err
		}
		destID = &id
	}

	// Explicit shelves always refer to the source warehouse; the destination
	// side of a transfer lands on the destination's default shelf.
	for _, ln := range lines {
		if ln.input.ShelfCode != "" {
			shelfID, err := p.store.resolveShelfTx(ctx, tx, tenantID, sourceID, ln.input.ShelfCode)
			if err != nil {
				return tenantID, nil, err
			}
			ln.shelfID = &shelfID
		}
	}

	var txnID int
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (tenant_id, reference, type, status, source_warehouse_id, destination_warehouse_id, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, tenantID, reference, string(req.Type), string(StatusPending), sourceID, destID, req.Notes, req.CreatedBy).Scan(&txnID)
	if err != nil {
		return tenantID, nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	for i, ln := range lines {
		err = tx.QueryRow(ctx, `
			INSERT INTO transaction_items (transaction_id, product_id, shelf_id, line_no, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, txnID, ln.product.ID, ln.shelfID, i+1, ln.input.Quantity, ln.input.UnitPrice).Scan(&ln.itemID)
		if err != nil {
			return tenantID, nil, fmt.Errorf("failed to insert transaction item: %w", err)
		}
	}

	// Line items apply in list order; when the same item appears twice the
	// cumulative effect must come from sequential application.
	for _, ln := range lines {
		switch req.Type {
		case TransactionPurchase:
			err = p.applyPurchase(ctx, tx, tenantID, sourceID, reference, ln)
		case TransactionSale:
			err = p.applySale(ctx, tx, tenantID, sourceID, ln)
		case TransactionTransfer:
			err = p.applyTransfer(ctx, tx, tenantID, sourceID, *destID, reference, ln)
		case TransactionAdjustment:
			err = p.applyAdjustment(ctx, tx, tenantID, sourceID, reference, ln)
		}
		if err != nil {
			return tenantID, nil, err
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE transactions SET status = $1, completed_at = NOW() WHERE id = $2
	`, string(StatusCompleted), txnID)
	if err != nil {
		return tenantID, nil, fmt.Errorf("failed to complete transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return tenantID, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	txn, err := loadTransaction(ctx, p.pool, tenantID, reference)
	if err != nil {
		return tenantID, nil, fmt.Errorf("failed to load completed transaction: %w", err)
	}
	return tenantID, txn, nil
}

func (p *TransactionProcessor) applyPurchase(ctx context.Context, tx pgx.Tx, tenantID, warehouseID int, reference string, ln *lineState) error {
	if _, err := p.store.AdjustTx(ctx, tx, tenantID, ln.product.ID, warehouseID, ln.shelfID, ln.input.Quantity); err != nil {
		return err
	}
	_, err := p.ledger.ReceiveTx(ctx, tx, ReceiveParams{
		TenantID:    tenantID,
		ProductID:   ln.product.ID,
		WarehouseID: warehouseID,
		Qty:         ln.input.Quantity,
		CostPerUnit: ln.input.UnitPrice,
		Source:      BatchSourcePurchase,
		ReferenceID: reference,
	})
	return err
}

func (p *TransactionProcessor) applySale(ctx context.Context, tx pgx.Tx, tenantID, warehouseID int, ln *lineState) error {
	newQty, err := p.store.AdjustTx(ctx, tx, tenantID, ln.product.ID, warehouseID, ln.shelfID, -ln.input.Quantity)
	if err != nil {
		return err
	}
	if newQty < 0 {
		return &InsufficientStockError{
			ProductCode: ln.product.Code,
			Available:   newQty + ln.input.Quantity,
			Requested:   ln.input.Quantity,
		}
	}

	// A sale without matching lots must not silently book zero cost, so a
	// coverage shortfall is fatal here.
	usages, err := p.ledger.ConsumeTx(ctx, tx, tenantID, ln.product.ID, warehouseID, ln.input.Quantity, ln.product.Code)
	if err != nil {
		return err
	}
	return p.writeUsages(ctx, tx, ln.itemID, usages, true)
}

func (p *TransactionProcessor) applyTransfer(ctx context.Context, tx pgx.Tx, tenantID, sourceID, destID int, reference string, ln *lineState) error {
	newQty, err := p.store.AdjustTx(ctx, tx, tenantID, ln.product.ID, sourceID, ln.shelfID, -ln.input.Quantity)
	if err != nil {
		return err
	}
	if newQty < 0 {
		return &InsufficientStockError{
			ProductCode: ln.product.Code,
			Available:   newQty + ln.input.Quantity,
			Requested:   ln.input.Quantity,
		}
	}

	usages, err := p.ledger.ConsumeTx(ctx, tx, tenantID, ln.product.ID, sourceID, ln.input.Quantity, ln.product.Code)
	if err != nil {
		return err
	}
	if err := p.writeUsages(ctx, tx, ln.itemID, usages, true); err != nil {
		return err
	}

	// Transfers are never re-costed: each consumed draw is mirrored as a lot
	// at the destination preserving its cost_per_unit.
	for _, u := range usages {
		_, err := p.ledger.ReceiveTx(ctx, tx, ReceiveParams{
			TenantID:    tenantID,
			ProductID:   ln.product.ID,
			WarehouseID: destID,
			Qty:         u.QtyUsed,
			CostPerUnit: u.CostPerUnit,
			Source:      BatchSourceTransfer,
			ReferenceID: reference,
			BatchCode:   u.BatchCode,
		})
		if err != nil {
			return err
		}
	}

	_, err = p.store.AdjustTx(ctx, tx, tenantID, ln.product.ID, destID, nil, ln.input.Quantity)
	return err
}

func (p *TransactionProcessor) applyAdjustment(ctx context.Context, tx pgx.Tx, tenantID, warehouseID int, reference string, ln *lineState) error {
	delta := ln.input.Quantity
	if _, err := p.store.AdjustTx(ctx, tx, tenantID, ln.product.ID, warehouseID, ln.shelfID, delta); err != nil {
		return err
	}

	if delta > 0 {
		// Keep the two ledgers reconciled: a positive correction receives a
		// lot at the supplied cost, falling back to the product's reference
		// cost.
		cost := ln.input.UnitPrice
		if cost.IsZero() && ln.product.Cost != nil {
			cost = *ln.product.Cost
		}
		_, err := p.ledger.ReceiveTx(ctx, tx, ReceiveParams{
			TenantID:    tenantID,
			ProductID:   ln.product.ID,
			WarehouseID: warehouseID,
			Qty:         delta,
			CostPerUnit: cost,
			Source:      BatchSourceAdjustment,
			ReferenceID: reference,
		})
		return err
	}

	// Negative corrections drain lots best-effort. Adjustments exist to fix
	// discrepancies, so a coverage shortfall is tolerated: the quantity row
	// has already moved by the full delta.
	usages, err := p.ledger.ConsumeTx(ctx, tx, tenantID, ln.product.ID, warehouseID, -delta, ln.product.Code)
	if err != nil {
		var coverage *InsufficientBatchCoverageError
		if !errors.As(err, &coverage) {
			return err
		}
	}
	return p.writeUsages(ctx, tx, ln.itemID, usages, true)
}

// writeUsages persists a line's batch draws and, when resolveCOGS is set,
// writes the summed draw cost back onto the transaction item.
func (p *TransactionProcessor) writeUsages(ctx context.Context, tx pgx.Tx, itemID int, usages []BatchUsage, resolveCOGS bool) error {
	total := decimal.Zero
	for _, u := range usages {
		_, err := tx.Exec(ctx, `
			INSERT INTO transaction_item_batch_usages (transaction_item_id, stock_batch_id, qty_used, cost_per_unit)
			VALUES ($1, $2, $3, $4)
		`, itemID, u.BatchID, u.QtyUsed, u.CostPerUnit)
		if err != nil {
			return fmt.Errorf("failed to insert batch usage: %w", err)
		}
		total = total.Add(u.Cost())
	}

	if resolveCOGS {
		_, err := tx.Exec(ctx, "UPDATE transaction_items SET cogs = $1 WHERE id = $2", total, itemID)
		if err != nil {
			return fmt.Errorf("failed to write line COGS: %w", err)
		}
	}
	return nil
}

// recordCancelled writes the terminal CANCELLED record after the unit of
// work rolled back. Failures here are swallowed: the cancellation record is
// an audit convenience, and the caller already holds the real error.
func (p *TransactionProcessor) recordCancelled(ctx context.Context, tenantID int, req TransactionRequest, reference string, cause error) {
	var sourceID int
	err := p.pool.QueryRow(ctx,
		"SELECT id FROM warehouses WHERE tenant_id = $1 AND code = $2",
		tenantID, req.SourceWarehouseCode,
	).Scan(&sourceID)
	if err != nil {
		return
	}

	reason := cause.Error()
	_, _ = p.pool.Exec(ctx, `
		INSERT INTO transactions (tenant_id, reference, type, status, source_warehouse_id, notes, failure_reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, tenantID, reference, string(req.Type), string(StatusCancelled), sourceID, req.Notes, reason, req.CreatedBy)
}

func validateRequest(req TransactionRequest) error {
	if req.TenantCode == "" {
		return validationf("tenant code is required")
	}
	if !req.Type.Valid() {
		return validationf("unknown transaction type %q", req.Type)
	}
	if req.SourceWarehouseCode == "" {
		return validationf("source warehouse is required")
	}
	if len(req.Items) == 0 {
		return validationf("transaction requires at least one line item")
	}

	switch req.Type {
	case TransactionTransfer:
		if req.DestinationWarehouseCode == "" {
			return validationf("transfer requires a destination warehouse")
		}
		if req.DestinationWarehouseCode == req.SourceWarehouseCode {
			return validationf("transfer source and destination must differ")
		}
	default:
		if req.DestinationWarehouseCode != "" {
			return validationf("%s does not take a destination warehouse", req.Type)
		}
	}

	for i, item := range req.Items {
		if item.ProductCode == "" {
			return validationf("line %d: item is required", i+1)
		}
		if req.Type == TransactionAdjustment {
			if item.Quantity == 0 {
				return validationf("line %d: adjustment quantity cannot be zero", i+1)
			}
		} else if item.Quantity <= 0 {
			return validationf("line %d: quantity must be positive, got %d", i+1, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return validationf("line %d: unit price cannot be negative", i+1)
		}
	}
	return nil
}

func resolveWarehouseTx(ctx context.Context, tx pgx.Tx, tenantID int, code string) (int, error) {
	var id int
	err := tx.QueryRow(ctx,
		"SELECT id FROM warehouses WHERE tenant_id = $1 AND code = $2 AND is_active = true",
		tenantID, code,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, validationf("warehouse %s not found", code)
		}
		return 0, fmt.Errorf("failed to resolve warehouse %s: %w", code, err)
	}
	return id, nil
}
