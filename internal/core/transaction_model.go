package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionPurchase   TransactionType = "PURCHASE"
	TransactionSale       TransactionType = "SALE"
	TransactionTransfer   TransactionType = "TRANSFER"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionPurchase, TransactionSale, TransactionTransfer, TransactionAdjustment:
		return true
	}
	return false
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction is the immutable record of one stock-moving event. Status moves
// PENDING → COMPLETED or PENDING → CANCELLED and never again after that.
type Transaction struct {
	ID                     int               `json:"id"`
	TenantID               int               `json:"tenant_id"`
	Reference              string            `json:"reference"`
	Type                   TransactionType   `json:"type"`
	Status                 TransactionStatus `json:"status"`
	SourceWarehouseID      int               `json:"source_warehouse_id"`
	DestinationWarehouseID *int              `json:"destination_warehouse_id,omitempty"`
	Notes                  string            `json:"notes"`
	FailureReason          *string           `json:"failure_reason,omitempty"`
	CreatedBy              string            `json:"created_by"`
	CreatedAt              time.Time         `json:"created_at"`
	CompletedAt            *time.Time        `json:"completed_at,omitempty"`
	Items                  []TransactionItem `json:"items"`
	TotalCost              decimal.Decimal   `json:"total_cost"`
}

// TransactionItem is one line of a transaction. COGS is resolved during
// processing for cost-consuming types and left nil otherwise.
type TransactionItem struct {
	ID            int              `json:"id"`
	TransactionID int              `json:"transaction_id"`
	ProductID     int              `json:"product_id"`
	ShelfID       *int             `json:"shelf_id,omitempty"`
	LineNo        int              `json:"line_no"`
	Quantity      int64            `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	COGS          *decimal.Decimal `json:"cogs,omitempty"`
	BatchUsages   []BatchUsage     `json:"batch_usages,omitempty"`
}

// TransactionLineInput is one requested line item. Shelf is optional; when
// empty the warehouse's default-shelf policy applies.
type TransactionLineInput struct {
	ProductCode string          `json:"product_code"`
	ShelfCode   string          `json:"shelf_code,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// TransactionRequest is the full request handed to the processor.
type TransactionRequest struct {
	TenantCode               string                 `json:"tenant_code"`
	Type                     TransactionType        `json:"type"`
	SourceWarehouseCode      string                 `json:"source_warehouse_code"`
	DestinationWarehouseCode string                 `json:"destination_warehouse_code,omitempty"`
	Items                    []TransactionLineInput `json:"items"`
	Notes                    string                 `json:"notes,omitempty"`
	CreatedBy                string                 `json:"created_by"`
}
