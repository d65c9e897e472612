package app

import (
	"context"
)

// ApplicationService is the single interface transport adapters call. It
// decouples presentation from the ledger engine. Implementations must contain
// no display logic of any kind.
type ApplicationService interface {
	// ProcessTransaction applies one stock-moving event atomically and
	// returns the completed transaction with resolved COGS and batch usages.
	ProcessTransaction(ctx context.Context, req ProcessTransactionRequest) (*TransactionResult, error)

	// GetTransaction returns one transaction by reference with its full
	// item and batch-usage audit trail.
	GetTransaction(ctx context.Context, tenantCode, reference string) (*TransactionResult, error)

	// ListTransactions returns a tenant's transactions newest first,
	// optionally filtered by status.
	ListTransactions(ctx context.Context, req ListTransactionsRequest) (*TransactionListResult, error)

	// GetInventory returns an item's quantity, tenant-wide or scoped to one
	// warehouse when WarehouseCode is set.
	GetInventory(ctx context.Context, req GetInventoryRequest) (*InventoryResult, error)

	// GetWarehouseStock lists a warehouse's stocked rows per shelf.
	GetWarehouseStock(ctx context.Context, tenantCode, warehouseCode string) (*WarehouseStockResult, error)

	// ListLowStock returns products under their configured minimum level in
	// one warehouse.
	ListLowStock(ctx context.Context, tenantCode, warehouseCode string) (*LowStockResult, error)

	// GetStockValue returns the aggregate stock valuation, tenant-wide or
	// for one warehouse. The batch-based figure is authoritative.
	GetStockValue(ctx context.Context, tenantCode, warehouseCode string) (*StockValueResult, error)

	// ListBatches returns an item's lots in a warehouse in receipt order.
	ListBatches(ctx context.Context, tenantCode, warehouseCode, productCode string) (*BatchListResult, error)

	// ListWarehouses returns all active warehouses for a tenant.
	ListWarehouses(ctx context.Context, tenantCode string) (*WarehouseListResult, error)

	// ListShelves returns a warehouse's shelves.
	ListShelves(ctx context.Context, tenantCode, warehouseCode string) (*ShelfListResult, error)

	// CreateWarehouse registers a new warehouse.
	CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*WarehouseResult, error)

	// CreateShelf registers a new shelf in a warehouse.
	CreateShelf(ctx context.Context, req CreateShelfRequest) (*ShelfResult, error)

	// SetDefaultShelf configures the warehouse's deterministic default-shelf
	// policy.
	SetDefaultShelf(ctx context.Context, tenantCode, warehouseCode, shelfCode string) error

	// ListProducts returns the tenant's active catalog items.
	ListProducts(ctx context.Context, tenantCode string) (*ProductListResult, error)

	// RefreshProductCosts recomputes denormalized product costs from the
	// batch ledger and returns how many products were updated.
	RefreshProductCosts(ctx context.Context, tenantCode string) (int, error)
}
