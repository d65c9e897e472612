package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Catalog resolves stock-keeping items for the ledger. It is the boundary to
// the catalog collaborator: the ledger only needs to know whether an item
// exists and what its minimum level and reference cost are. The default
// implementation reads the shared products table; a remote catalog client can
// replace it without touching the processor.
type Catalog interface {
	// ResolveProduct returns the product for (tenant, code), or nil if no
	// active product matches. Absence is not an error here; the caller
	// decides what an unknown item means.
	ResolveProduct(ctx context.Context, tenantID int, productCode string) (*Product, error)
	// ListProducts returns all active products for a tenant.
	ListProducts(ctx context.Context, tenantID int) ([]Product, error)
}

type pgCatalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) Catalog {
	return &pgCatalog{pool: pool}
}

func (c *pgCatalog) ResolveProduct(ctx context.Context, tenantID int, productCode string) (*Product, error) {
	var p Product
	err := c.pool.QueryRow(ctx, `
		SELECT id, tenant_id, code, name, min_stock_level, cost, is_active, created_at
		FROM products
		WHERE tenant_id = $1 AND code = $2 AND is_active = true
	`, tenantID, productCode).Scan(&p.ID, &p.TenantID, &p.Code, &p.Name, &p.MinStockLevel, &p.Cost, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve product %s: %w", productCode, err)
	}
	return &p, nil
}

func (c *pgCatalog) ListProducts(ctx context.Context, tenantID int) ([]Product, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, tenant_id, code, name, min_stock_level, cost, is_active, created_at
		FROM products
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY code
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Code, &p.Name, &p.MinStockLevel, &p.Cost, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
