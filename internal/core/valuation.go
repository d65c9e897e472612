package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ValuationService computes aggregate stock value. The batch-based figure
// (open lot remainders × their recorded acquisition cost) is the source of
// truth; the product-cost figure is a denormalized estimate that drifts
// whenever products.cost goes stale, and is exposed only as such.
type ValuationService struct {
	pool *pgxpool.Pool
}

func NewValuationService(pool *pgxpool.Pool) *ValuationService {
	return &ValuationService{pool: pool}
}

// TotalValue returns both valuation views, tenant-wide or scoped to one
// warehouse when warehouseCode is non-empty.
func (v *ValuationService) TotalValue(ctx context.Context, tenantCode, warehouseCode string) (*StockValuation, error) {
	tenantID, err := resolveTenant(ctx, v.pool, tenantCode)
	if err != nil {
		return nil, err
	}

	var warehouseID *int
	if warehouseCode != "" {
		var id int
		err := v.pool.QueryRow(ctx,
			"SELECT id FROM warehouses WHERE tenant_id = $1 AND code = $2",
			tenantID, warehouseCode,
		).Scan(&id)
		if err != nil {
			return nil, validationf("warehouse %s not found", warehouseCode)
		}
		warehouseID = &id
	}

	var val StockValuation
	err = v.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(qty_remaining * cost_per_unit), 0)
		FROM stock_batches
		WHERE tenant_id = $1 AND ($2::int IS NULL OR warehouse_id = $2)
	`, tenantID, warehouseID).Scan(&val.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to compute batch valuation: %w", err)
	}

	err = v.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(ir.quantity * p.cost), 0)
		FROM inventory_rows ir
		JOIN products p ON p.id = ir.product_id
		WHERE ir.tenant_id = $1 AND p.cost IS NOT NULL
		  AND ($2::int IS NULL OR ir.warehouse_id = $2)
	`, tenantID, warehouseID).Scan(&val.EstimatedValue)
	if err != nil {
		return nil, fmt.Errorf("failed to compute estimated valuation: %w", err)
	}

	return &val, nil
}

// RefreshProductCosts recomputes products.cost from open lot data as the
// weighted average of each product's remaining batch cost. products.cost is
// treated everywhere as an estimate refreshed from the batch ledger, never
// the other way around.
func (v *ValuationService) RefreshProductCosts(ctx context.Context, tenantCode string) (int, error) {
	tenantID, err := resolveTenant(ctx, v.pool, tenantCode)
	if err != nil {
		return 0, err
	}

	tag, err := v.pool.Exec(ctx, `
		UPDATE products p
		SET cost = sub.avg_cost
		FROM (
			SELECT product_id,
			       SUM(qty_remaining * cost_per_unit) / SUM(qty_remaining) AS avg_cost
			FROM stock_batches
			WHERE tenant_id = $1 AND qty_remaining > 0
			GROUP BY product_id
		) sub
		WHERE p.id = sub.product_id AND p.tenant_id = $1
	`, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh product costs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
