package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WarehouseService reads and maintains the warehouse/shelf reference data the
// ledger operates over. Warehouses are created by operators and essentially
// never mutated; the service deliberately has no delete.
type WarehouseService interface {
	GetWarehouses(ctx context.Context, tenantCode string) ([]Warehouse, error)
	GetShelves(ctx context.Context, tenantCode, warehouseCode string) ([]Shelf, error)
	CreateWarehouse(ctx context.Context, tenantCode, code, name string) (*Warehouse, error)
	CreateShelf(ctx context.Context, tenantCode, warehouseCode, shelfCode, area string, capacity *int) (*Shelf, error)
	// SetDefaultShelf pins the deterministic default-shelf policy for a
	// warehouse. Receipts without an explicit shelf land here.
	SetDefaultShelf(ctx context.Context, tenantCode, warehouseCode, shelfCode string) error
}

type warehouseService struct {
	pool *pgxpool.Pool
}

func NewWarehouseService(pool *pgxpool.Pool) WarehouseService {
	return &warehouseService{pool: pool}
}

// resolveTenant maps a tenant code to its id. Unknown tenants are a
// validation failure: every boundary operation is scoped by this identifier.
func resolveTenant(ctx context.Context, pool *pgxpool.Pool, tenantCode string) (int, error) {
	var tenantID int
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE tenant_code = $1", tenantCode).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, validationf("tenant %s not found", tenantCode)
		}
		return 0, fmt.Errorf("failed to resolve tenant: %w", err)
	}
	return tenantID, nil
}

func (s *warehouseService) GetWarehouses(ctx context.Context, tenantCode string) ([]Warehouse, error) {
	tenantID, err := resolveTenant(ctx, s.pool, tenantCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, code, name, default_shelf_id, is_active, created_at
		FROM warehouses
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY code
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.TenantID, &w.Code, &w.Name, &w.DefaultShelfID, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (s *warehouseService) GetShelves(ctx context.Context, tenantCode, warehouseCode string) ([]Shelf, error) {
	tenantID, err := resolveTenant(ctx, s.pool, tenantCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sh.id, sh.tenant_id, sh.warehouse_id, sh.code, sh.area, sh.capacity, sh.is_active, sh.created_at
		FROM shelves sh
		JOIN warehouses w ON w.id = sh.warehouse_id
		WHERE sh.tenant_id = $1 AND w.code = $2
		ORDER BY sh.area, sh.code
	`, tenantID, warehouseCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query shelves: %w", err)
	}
	defer rows.Close()

	var shelves []Shelf
	for rows.Next() {
		var sh Shelf
		if err := rows.Scan(&sh.ID, &sh.TenantID, &sh.WarehouseID, &sh.Code, &sh.Area, &sh.Capacity, &sh.IsActive, &sh.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shelf: %w", err)
		}
		shelves = append(shelves, sh)
	}
	return shelves, rows.Err()
}

func (s *warehouseService) CreateWarehouse(ctx context.Context, tenantCode, code, name string) (*Warehouse, error) {
	if code == "" || name == "" {
		return nil, validationf("warehouse code and name are required")
	}
	tenantID, err := resolveTenant(ctx, s.pool, tenantCode)
	if err != nil {
		return nil, err
	}

	var w Warehouse
	err = s.pool.QueryRow(ctx, `
		INSERT INTO warehouses (tenant_id, code, name)
		VALUES ($1, $2, $3)
		RETURNING id, tenant_id, code, name, default_shelf_id, is_active, created_at
	`, tenantID, code, name).Scan(&w.ID, &w.TenantID, &w.Code, &w.Name, &w.DefaultShelfID, &w.IsActive, &w.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, validationf("warehouse %s already exists", code)
		}
		return nil, fmt.Errorf("failed to create warehouse %s: %w", code, err)
	}
	return &w, nil
}

func (s *warehouseService) CreateShelf(ctx context.Context, tenantCode, warehouseCode, shelfCode, area string, capacity *int) (*Shelf, error) {
	if shelfCode == "" {
		return nil, validationf("shelf code is required")
	}
	tenantID, err := resolveTenant(ctx, s.pool, tenantCode)
	if err != nil {
		return nil, err
	}

	var warehouseID int
	err = s.pool.QueryRow(ctx,
		"SELECT id FROM warehouses WHERE tenant_id = $1 AND code = $2 AND is_active = true",
		tenantID, warehouseCode,
	).Scan(&warehouseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationf("warehouse %s not found", warehouseCode)
		}
		return nil, fmt.Errorf("failed to resolve warehouse: %w", err)
	}

	var sh Shelf
	err = s.pool.QueryRow(ctx, `
		INSERT INTO shelves (tenant_id, warehouse_id, code, area, capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tenant_id, warehouse_id, code, area, capacity, is_active, created_at
	`, tenantID, warehouseID, shelfCode, area, capacity).Scan(
		&sh.ID, &sh.TenantID, &sh.WarehouseID, &sh.Code, &sh.Area, &sh.Capacity, &sh.IsActive, &sh.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, validationf("shelf %s already exists in warehouse %s", shelfCode, warehouseCode)
		}
		return nil, fmt.Errorf("failed to create shelf %s in %s: %w", shelfCode, warehouseCode, err)
	}
	return &sh, nil
}

func (s *warehouseService) SetDefaultShelf(ctx context.Context, tenantCode, warehouseCode, shelfCode string) error {
	tenantID, err := resolveTenant(ctx, s.pool, tenantCode)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE warehouses w
		SET default_shelf_id = sh.id
		FROM shelves sh
		WHERE w.tenant_id = $1 AND w.code = $2
		  AND sh.warehouse_id = w.id AND sh.code = $3 AND sh.is_active = true
	`, tenantID, warehouseCode, shelfCode)
	if err != nil {
		return fmt.Errorf("failed to set default shelf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return validationf("shelf %s not found in warehouse %s", shelfCode, warehouseCode)
	}
	return nil
}
