package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRow caches how much of one product currently sits on one shelf.
// It is mutated only by the TransactionProcessor, inside a unit of work.
type InventoryRow struct {
	ID          int       `json:"id"`
	TenantID    int       `json:"tenant_id"`
	ProductID   int       `json:"product_id"`
	WarehouseID int       `json:"warehouse_id"`
	ShelfID     int       `json:"shelf_id"`
	Quantity    int64     `json:"quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

type BatchSource string

const (
	BatchSourcePurchase   BatchSource = "PURCHASE"
	BatchSourceProduction BatchSource = "PRODUCTION"
	BatchSourceAdjustment BatchSource = "ADJUSTMENT"
	BatchSourceTransfer   BatchSource = "TRANSFER"
)

// StockBatch is one cost-bearing lot. QtyTotal and CostPerUnit are immutable
// after insert; QtyRemaining only ever decreases. Insertion id is the FIFO
// tie-break for lots sharing a ReceivedAt.
type StockBatch struct {
	ID           int             `json:"id"`
	TenantID     int             `json:"tenant_id"`
	ProductID    int             `json:"product_id"`
	WarehouseID  int             `json:"warehouse_id"`
	BatchCode    string          `json:"batch_code"`
	Source       BatchSource     `json:"source"`
	QtyTotal     int64           `json:"qty_total"`
	QtyRemaining int64           `json:"qty_remaining"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	ReferenceID  *string         `json:"reference_id,omitempty"`
	ReceivedAt   time.Time       `json:"received_at"`
}

// BatchUsage records one draw against one lot: how much was taken and the
// lot's cost at consumption time. The cost is captured here, never recomputed.
type BatchUsage struct {
	BatchID     int             `json:"batch_id"`
	BatchCode   string          `json:"batch_code"`
	QtyUsed     int64           `json:"qty_used"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
}

// Cost returns QtyUsed × CostPerUnit.
func (u BatchUsage) Cost() decimal.Decimal {
	return u.CostPerUnit.Mul(decimal.NewFromInt(u.QtyUsed))
}

// ShelfQuantity is a read view of an inventory row joined with its shelf.
type ShelfQuantity struct {
	ProductID   int       `json:"product_id"`
	ProductCode string    `json:"product_code"`
	ShelfID     int       `json:"shelf_id"`
	ShelfCode   string    `json:"shelf_code"`
	Quantity    int64     `json:"quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

// LowStockItem is one product whose warehouse-wide quantity sits below its
// configured minimum level.
type LowStockItem struct {
	ProductID   int    `json:"product_id"`
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	CurrentQty  int64  `json:"current_qty"`
	MinQty      int64  `json:"min_qty"`
}

// StockValuation carries both valuation views. Value is batch-accurate
// (SUM qty_remaining × cost_per_unit) and is the source of truth;
// EstimatedValue is the denormalized product-cost figure.
type StockValuation struct {
	Value          decimal.Decimal `json:"value"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
}
