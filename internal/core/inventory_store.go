package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryStore owns the per-(product, shelf) quantity rows. Reads run
// against the pool; AdjustTx must run inside the caller's unit of work, so a
// failed transaction leaves no quantity change behind.
//
// The store performs no sufficiency check. Whether a row may go negative
// depends on the transaction type (an ADJUSTMENT may deliberately correct a
// negative discrepancy), so that policy lives in the TransactionProcessor.
type InventoryStore struct {
	pool *pgxpool.Pool
}

func NewInventoryStore(pool *pgxpool.Pool) *InventoryStore {
	return &InventoryStore{pool: pool}
}

// Quantity returns the quantity of a product on one shelf. A missing row
// means zero stock, never an error.
func (s *InventoryStore) Quantity(ctx context.Context, tenantID, productID, shelfID int) (int64, error) {
	var qty int64
	err := s.pool.QueryRow(ctx, `
		SELECT quantity FROM inventory_rows
		WHERE tenant_id = $1 AND product_id = $2 AND shelf_id = $3
	`, tenantID, productID, shelfID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read inventory row: %w", err)
	}
	return qty, nil
}

// WarehouseQuantity aggregates a product's quantity across all shelves of a
// warehouse.
func (s *InventoryStore) WarehouseQuantity(ctx context.Context, tenantID, productID, warehouseID int) (int64, error) {
	var qty int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM inventory_rows
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3
	`, tenantID, productID, warehouseID).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate inventory rows: %w", err)
	}
	return qty, nil
}

// TenantQuantity aggregates a product's quantity across every warehouse.
func (s *InventoryStore) TenantQuantity(ctx context.Context, tenantID, productID int) (int64, error) {
	var qty int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM inventory_rows
		WHERE tenant_id = $1 AND product_id = $2
	`, tenantID, productID).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate inventory rows: %w", err)
	}
	return qty, nil
}

// ShelfQuantities lists the stocked rows of a warehouse joined with product
// and shelf codes, for listing pages and dashboards.
func (s *InventoryStore) ShelfQuantities(ctx context.Context, tenantID, warehouseID int) ([]ShelfQuantity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ir.product_id, p.code, ir.shelf_id, sh.code, ir.quantity, ir.last_updated
		FROM inventory_rows ir
		JOIN products p ON p.id = ir.product_id
		JOIN shelves sh ON sh.id = ir.shelf_id
		WHERE ir.tenant_id = $1 AND ir.warehouse_id = $2
		ORDER BY p.code, sh.code
	`, tenantID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory rows: %w", err)
	}
	defer rows.Close()

	var out []ShelfQuantity
	for rows.Next() {
		var sq ShelfQuantity
		if err := rows.Scan(&sq.ProductID, &sq.ProductCode, &sq.ShelfID, &sq.ShelfCode, &sq.Quantity, &sq.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		out = append(out, sq)
	}
	return out, rows.Err()
}

// AdjustTx applies a signed quantity delta to the (product, shelf) row inside
// the caller's transaction, creating the row lazily on first receipt. When
// shelfID is nil the warehouse's default-shelf policy applies. The row is
// locked FOR UPDATE before the delta lands, so two concurrent units of work
// on the same row serialize instead of losing an update. Returns the new
// quantity; the caller judges whether a negative result is acceptable.
func (s *InventoryStore) AdjustTx(ctx context.Context, tx pgx.Tx, tenantID, productID, warehouseID int, shelfID *int, delta int64) (int64, error) {
	var resolvedShelf int
	if shelfID != nil {
		resolvedShelf = *shelfID
	} else {
		var err error
		resolvedShelf, err = s.defaultShelfTx(ctx, tx, tenantID, warehouseID)
		if err != nil {
			return 0, err
		}
	}

	// Upsert so a first-ever receipt has a row to lock, then lock it.
	var rowID int64
	err := tx.QueryRow(ctx, `
		INSERT INTO inventory_rows (tenant_id, product_id, warehouse_id, shelf_id, quantity)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (tenant_id, product_id, shelf_id) DO UPDATE SET last_updated = NOW()
		RETURNING id
	`, tenantID, productID, warehouseID, resolvedShelf).Scan(&rowID)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert inventory row: %w", err)
	}

	var current int64
	err = tx.QueryRow(ctx,
		"SELECT quantity FROM inventory_rows WHERE id = $1 FOR UPDATE",
		rowID,
	).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("failed to lock inventory row: %w", err)
	}

	newQty := current + delta
	_, err = tx.Exec(ctx, `
		UPDATE inventory_rows SET quantity = $1, last_updated = NOW() WHERE id = $2
	`, newQty, rowID)
	if err != nil {
		return 0, fmt.Errorf("failed to update inventory row: %w", err)
	}
	return newQty, nil
}

// resolveShelfTx maps an explicit shelf code to its id within the warehouse.
func (s *InventoryStore) resolveShelfTx(ctx context.Context, tx pgx.Tx, tenantID, warehouseID int, shelfCode string) (int, error) {
	var shelfID int
	err := tx.QueryRow(ctx, `
		SELECT id FROM shelves
		WHERE tenant_id = $1 AND warehouse_id = $2 AND code = $3 AND is_active = true
	`, tenantID, warehouseID, shelfCode).Scan(&shelfID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, validationf("shelf %s not found in warehouse", shelfCode)
		}
		return 0, fmt.Errorf("failed to resolve shelf %s: %w", shelfCode, err)
	}
	return shelfID, nil
}

// defaultShelfTx picks the shelf stock lands on when a line names none. The
// policy is deterministic: the warehouse's configured default shelf if set
// and active, otherwise the active shelf with the lowest id. A warehouse with
// zero active shelves cannot receive stock at all.
func (s *InventoryStore) defaultShelfTx(ctx context.Context, tx pgx.Tx, tenantID, warehouseID int) (int, error) {
	var shelfID int
	err := tx.QueryRow(ctx, `
		SELECT sh.id
		FROM warehouses w
		JOIN shelves sh ON sh.id = w.default_shelf_id AND sh.is_active = true
		WHERE w.id = $1
	`, warehouseID).Scan(&shelfID)
	if err == nil {
		return shelfID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to read default shelf: %w", err)
	}

	err = tx.QueryRow(ctx, `
		SELECT id FROM shelves
		WHERE tenant_id = $1 AND warehouse_id = $2 AND is_active = true
		ORDER BY id
		LIMIT 1
	`, tenantID, warehouseID).Scan(&shelfID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var code string
			if qerr := tx.QueryRow(ctx, "SELECT code FROM warehouses WHERE id = $1", warehouseID).Scan(&code); qerr != nil {
				code = fmt.Sprintf("#%d", warehouseID)
			}
			return 0, &NoShelfAvailableError{WarehouseCode: code}
		}
		return 0, fmt.Errorf("failed to pick default shelf: %w", err)
	}
	return shelfID, nil
}
