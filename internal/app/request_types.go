package app

import (
	"github.com/shopspring/decimal"
)

// ProcessTransactionRequest is the input for ProcessTransaction.
type ProcessTransactionRequest struct {
	TenantCode               string
	Type                     string
	SourceWarehouseCode      string
	DestinationWarehouseCode string
	Notes                    string
	CreatedBy                string
	Items                    []TransactionLine
}

// TransactionLine is a single line within a ProcessTransactionRequest.
// ShelfCode is optional; the warehouse default-shelf policy applies when it
// is empty. Quantity is signed for adjustments, positive otherwise.
type TransactionLine struct {
	ProductCode string
	ShelfCode   string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// ListTransactionsRequest filters ListTransactions.
type ListTransactionsRequest struct {
	TenantCode string
	Status     string // empty means all
	Limit      int
	Offset     int
}

// GetInventoryRequest identifies an item for a quantity read.
type GetInventoryRequest struct {
	TenantCode    string
	ProductCode   string
	WarehouseCode string // empty means tenant-wide
}

// CreateWarehouseRequest is the input for CreateWarehouse.
type CreateWarehouseRequest struct {
	TenantCode string
	Code       string
	Name       string
}

// CreateShelfRequest is the input for CreateShelf.
type CreateShelfRequest struct {
	TenantCode    string
	WarehouseCode string
	ShelfCode     string
	Area          string
	Capacity      *int
}
