package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LowStockMonitor flags products whose warehouse-wide quantity sits below
// their configured minimum level. Read-only; it never mutates the store.
type LowStockMonitor struct {
	pool *pgxpool.Pool
}

func NewLowStockMonitor(pool *pgxpool.Pool) *LowStockMonitor {
	return &LowStockMonitor{pool: pool}
}

// ListBelowMinimum aggregates each product's inventory rows across the
// warehouse's shelves and compares against min_stock_level. Products with no
// rows at all count as zero stock, so a never-stocked product with a minimum
// configured still surfaces. An unknown warehouse is a validation failure,
// not an empty report.
func (m *LowStockMonitor) ListBelowMinimum(ctx context.Context, tenantCode, warehouseCode string) ([]LowStockItem, error) {
	tenantID, err := resolveTenant(ctx, m.pool, tenantCode)
	if err != nil {
		return nil, err
	}

	var warehouseID int
	err = m.pool.QueryRow(ctx,
		"SELECT id FROM warehouses WHERE tenant_id = $1 AND code = $2",
		tenantID, warehouseCode,
	).Scan(&warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationf("warehouse %s not found", warehouseCode)
		}
		return nil, fmt.Errorf("failed to resolve warehouse %s: %w", warehouseCode, err)
	}

	rows, err := m.pool.Query(ctx, `
		SELECT p.id, p.code, p.name, COALESCE(SUM(ir.quantity), 0) AS current_qty, p.min_stock_level
		FROM products p
		LEFT JOIN inventory_rows ir ON ir.product_id = p.id AND ir.warehouse_id = $2
		WHERE p.tenant_id = $1 AND p.is_active = true AND p.min_stock_level > 0
		GROUP BY p.id, p.code, p.name, p.min_stock_level
		HAVING COALESCE(SUM(ir.quantity), 0) < p.min_stock_level
		ORDER BY p.code
	`, tenantID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	defer rows.Close()

	var items []LowStockItem
	for rows.Next() {
		var it LowStockItem
		if err := rows.Scan(&it.ProductID, &it.ProductCode, &it.ProductName, &it.CurrentQty, &it.MinQty); err != nil {
			return nil, fmt.Errorf("failed to scan low stock row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
