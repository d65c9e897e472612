package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stockledger/internal/core"

	"github.com/shopspring/decimal"
)

// Request validation runs before any connection is touched, so a processor
// with no pool exercises it directly.
func TestProcessor_RequestValidation(t *testing.T) {
	processor := core.NewTransactionProcessor(nil, nil, nil, nil)
	ctx := context.Background()

	line := func(qty int64) []core.TransactionLineInput {
		return []core.TransactionLineInput{{ProductCode: "P001", Quantity: qty}}
	}

	tests := []struct {
		name    string
		req     core.TransactionRequest
		wantMsg string
	}{
		{
			name:    "missing tenant",
			req:     core.TransactionRequest{Type: core.TransactionPurchase, SourceWarehouseCode: "MAIN", Items: line(1)},
			wantMsg: "tenant code is required",
		},
		{
			name:    "unknown type",
			req:     core.TransactionRequest{TenantCode: "ACME", Type: "REFUND", SourceWarehouseCode: "MAIN", Items: line(1)},
			wantMsg: "unknown transaction type",
		},
		{
			name:    "missing source warehouse",
			req:     core.TransactionRequest{TenantCode: "ACME", Type: core.TransactionSale, Items: line(1)},
			wantMsg: "source warehouse is required",
		},
		{
			name:    "no line items",
			req:     core.TransactionRequest{TenantCode: "ACME", Type: core.TransactionSale, SourceWarehouseCode: "MAIN"},
			wantMsg: "at least one line item",
		},
		{
			name: "transfer without destination",
			req: core.TransactionRequest{
				TenantCode: "ACME", Type: core.TransactionTransfer,
				SourceWarehouseCode: "MAIN", Items: line(1),
			},
			wantMsg: "destination warehouse",
		},
		{
			name: "transfer to itself",
			req: core.TransactionRequest{
				TenantCode: "ACME", Type: core.TransactionTransfer,
				SourceWarehouseCode: "MAIN", DestinationWarehouseCode: "MAIN", Items: line(1),
			},
			wantMsg: "must differ",
		},
		{
			name: "sale with destination",
			req: core.TransactionRequest{
				TenantCode: "ACME", Type: core.TransactionSale,
				SourceWarehouseCode: "MAIN", DestinationWarehouseCode: "EAST", Items: line(1),
			},
			wantMsg: "does not take a destination",
		},
		{
			name: "zero quantity",
			req: core.TransactionRequest{
				TenantCode: "ACME", Type: core.TransactionPurchase,
				SourceWarehouseCode: "MAIN", Items: line(0),
			},
			wantMsg: "quantity must be positive",
		},
		{
			name: "negative quantity on sale",
			req: core.TransactionRequest{
				TenantCode: "ACME", Type: core.TransactionSale,
				SourceWarehouseCode: "MAIN", Items: line(-3),
			},
			wantMsg: "quantity must be positive",
		},
		{
			name: "zero adjustment",
			req: core.TransactionRequest{
				TenantCode: "ACME", Type: core.TransactionAdjustment,
				SourceWarehouseCode: "MAIN", Items: line(0),
			},
			wantMsg: "cannot be zero",
		},
		{
			name: "missing product code",
			req: core.TransactionRequest{
				TenantCode: "ACME", Type: core.TransactionPurchase, SourceWarehouseCode: "MAIN",
				Items: []core.TransactionLineInput{{Quantity: 5}},
			},
			wantMsg: "item is required",
		},
		{
			name: "negative unit price",
			req: core.TransactionRequest{
				TenantCode: "ACME", Type: core.TransactionPurchase, SourceWarehouseCode: "MAIN",
				Items: []core.TransactionLineInput{
					{ProductCode: "P001", Quantity: 5, UnitPrice: decimal.NewFromInt(-10)},
				},
			},
			wantMsg: "unit price cannot be negative",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := processor.Process(ctx, tc.req)
			var v *core.ValidationError
			if !errors.As(err, &v) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if !strings.Contains(v.Reason, tc.wantMsg) {
				t.Errorf("Expected reason containing %q, got %q", tc.wantMsg, v.Reason)
			}
		})
	}
}

// A negative ADJUSTMENT line is valid: adjustments correct discrepancies in
// either direction.
func TestProcessor_NegativeAdjustmentPassesValidation(t *testing.T) {
	processor := core.NewTransactionProcessor(nil, nil, nil, nil)

	// The nil pool panics the moment validation passes and the unit of work
	// starts, which is exactly the signal wanted here.
	defer func() { _ = recover() }()
	_, err := processor.Process(context.Background(), core.TransactionRequest{
		TenantCode: "ACME", Type: core.TransactionAdjustment,
		SourceWarehouseCode: "MAIN",
		Items:               []core.TransactionLineInput{{ProductCode: "P001", Quantity: -5}},
	})
	var v *core.ValidationError
	if errors.As(err, &v) {
		t.Errorf("Negative adjustment should pass validation, got %v", err)
	}
}

func TestDomainErrors_Messages(t *testing.T) {
	stock := &core.InsufficientStockError{ProductCode: "P001", Available: 3, Requested: 10}
	if !strings.Contains(stock.Error(), "available 3, requested 10") {
		t.Errorf("Unexpected message: %s", stock.Error())
	}

	coverage := &core.InsufficientBatchCoverageError{ProductCode: "P001", Requested: 10, Shortfall: 4}
	if !strings.Contains(coverage.Error(), "short by 4") {
		t.Errorf("Unexpected message: %s", coverage.Error())
	}

	shelf := &core.NoShelfAvailableError{WarehouseCode: "MAIN"}
	if !strings.Contains(shelf.Error(), "MAIN") {
		t.Errorf("Unexpected message: %s", shelf.Error())
	}
}

func TestBatchUsage_Cost(t *testing.T) {
	u := core.BatchUsage{QtyUsed: 7, CostPerUnit: decimal.NewFromFloat(12.5)}
	if !u.Cost().Equal(decimal.NewFromFloat(87.5)) {
		t.Errorf("Expected 87.5, got %s", u.Cost())
	}
}
