package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tenant struct {
	ID         int       `json:"id"`
	TenantCode string    `json:"tenant_code"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

type Warehouse struct {
	ID             int       `json:"id"`
	TenantID       int       `json:"tenant_id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	DefaultShelfID *int      `json:"default_shelf_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type Shelf struct {
	ID          int       `json:"id"`
	TenantID    int       `json:"tenant_id"`
	WarehouseID int       `json:"warehouse_id"`
	Code        string    `json:"code"`
	Area        string    `json:"area"`
	Capacity    *int      `json:"capacity,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is the ledger's view of a catalog item: the stock-keeping identity
// plus the two fields the ledger actually reads (minimum level and reference
// cost). Catalog CRUD is owned by an external collaborator.
type Product struct {
	ID            int              `json:"id"`
	TenantID      int              `json:"tenant_id"`
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	MinStockLevel int64            `json:"min_stock_level"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	IsActive      bool             `json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
}
