package app

import (
	"stockledger/internal/core"

	"github.com/shopspring/decimal"
)

// TransactionResult is returned by transaction operations.
type TransactionResult struct {
	Transaction *core.Transaction
}

// TransactionListResult is returned by ListTransactions.
type TransactionListResult struct {
	Transactions []core.Transaction
	TenantCode   string
}

// InventoryResult is returned by GetInventory.
type InventoryResult struct {
	ProductCode   string
	WarehouseCode string // empty when tenant-wide
	Quantity      int64
}

// WarehouseStockResult is returned by GetWarehouseStock.
type WarehouseStockResult struct {
	WarehouseCode string
	Rows          []core.ShelfQuantity
}

// LowStockResult is returned by ListLowStock.
type LowStockResult struct {
	WarehouseCode string
	Items         []core.LowStockItem
}

// StockValueResult is returned by GetStockValue. Value is the batch-accurate
// figure; EstimatedValue is the product-cost estimate.
type StockValueResult struct {
	WarehouseCode  string // empty when tenant-wide
	Value          decimal.Decimal
	EstimatedValue decimal.Decimal
}

// BatchListResult is returned by ListBatches.
type BatchListResult struct {
	ProductCode   string
	WarehouseCode string
	Batches       []core.StockBatch
}

// WarehouseResult is returned by CreateWarehouse.
type WarehouseResult struct {
	Warehouse *core.Warehouse
}

// WarehouseListResult is returned by ListWarehouses.
type WarehouseListResult struct {
	Warehouses []core.Warehouse
}

// ShelfResult is returned by CreateShelf.
type ShelfResult struct {
	Shelf *core.Shelf
}

// ShelfListResult is returned by ListShelves.
type ShelfListResult struct {
	Shelves []core.Shelf
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product
}
