package core_test

import (
	"context"
	"errors"
	"testing"

	"stockledger/internal/core"

	"github.com/shopspring/decimal"
)

func TestTransactionHistory_GetAndList(t *testing.T) {
	pool, processor, _, _, ctx := setupProcessor(t)
	history := core.NewTransactionHistory(pool)

	purchase(t, ctx, processor, "P001", 10, 100)
	sale, err := processor.Process(ctx, core.TransactionRequest{
		TenantCode:          "ACME",
		Type:                core.TransactionSale,
		SourceWarehouseCode: "MAIN",
		Items: []core.TransactionLineInput{
			{ProductCode: "P001", Quantity: 4, UnitPrice: decimal.NewFromInt(150)},
		},
		CreatedBy: "test",
	})
	if err != nil {
		t.Fatalf("Sale failed: %v", err)
	}

	// Fetch by reference: the full trail, items and lot draws included.
	got, err := history.Get(ctx, "ACME", sale.Reference)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != core.StatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", got.Status)
	}
	if len(got.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(got.Items))
	}
	if len(got.Items[0].BatchUsages) != 1 {
		t.Errorf("Expected 1 batch usage on the sale line, got %d", len(got.Items[0].BatchUsages))
	}
	// Cost basis of the sale is its COGS: 4 × 100.
	if !got.TotalCost.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected total cost 400, got %s", got.TotalCost)
	}

	_, err = history.Get(ctx, "ACME", "TX-does-not-exist")
	var v *core.ValidationError
	if !errors.As(err, &v) {
		t.Errorf("Expected ValidationError for unknown reference, got %v", err)
	}

	// List: newest first, both completed events present.
	txns, err := history.List(ctx, "ACME", nil, 0, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txns))
	}
	if txns[0].Reference != sale.Reference {
		t.Errorf("Expected newest transaction first, got %s", txns[0].Reference)
	}
	if len(txns[0].Items) != 0 {
		t.Error("List must not hydrate line items")
	}

	// Status filter.
	completed := core.StatusCompleted
	txns, err = history.List(ctx, "ACME", &completed, 0, 0)
	if err != nil {
		t.Fatalf("Filtered List failed: %v", err)
	}
	if len(txns) != 2 {
		t.Errorf("Expected 2 COMPLETED transactions, got %d", len(txns))
	}
	cancelled := core.StatusCancelled
	txns, err = history.List(ctx, "ACME", &cancelled, 0, 0)
	if err != nil {
		t.Fatalf("Filtered List failed: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("Expected no CANCELLED transactions, got %d", len(txns))
	}
}

func TestLowStockMonitor_ListBelowMinimum(t *testing.T) {
	pool, processor, _, _, ctx := setupProcessor(t)
	monitor := core.NewLowStockMonitor(pool)

	// P001 has min_stock_level 20; stock it to 5. P003 has a minimum but was
	// never stocked, which must still surface with quantity 0.
	_, err := pool.Exec(ctx, `
		INSERT INTO products (tenant_id, code, name, min_stock_level) VALUES (1, 'P003', 'Gadget C', 10)
	`)
	if err != nil {
		t.Fatalf("Failed to seed P003: %v", err)
	}
	purchase(t, ctx, processor, "P001", 5, 100)

	items, err := monitor.ListBelowMinimum(ctx, "ACME", "MAIN")
	if err != nil {
		t.Fatalf("ListBelowMinimum failed: %v", err)
	}

	byCode := make(map[string]core.LowStockItem)
	for _, it := range items {
		byCode[it.ProductCode] = it
	}
	if it, ok := byCode["P001"]; !ok {
		t.Error("P001 (5 of min 20) should be reported")
	} else if it.CurrentQty != 5 || it.MinQty != 20 {
		t.Errorf("P001: expected current=5 min=20, got current=%d min=%d", it.CurrentQty, it.MinQty)
	}
	if it, ok := byCode["P003"]; !ok {
		t.Error("Never-stocked P003 with a minimum should be reported")
	} else if it.CurrentQty != 0 {
		t.Errorf("P003: expected current=0, got %d", it.CurrentQty)
	}
	if _, ok := byCode["P002"]; ok {
		t.Error("P002 has no minimum and must not be reported")
	}

	// An unknown warehouse is rejected, not reported as empty.
	_, err = monitor.ListBelowMinimum(ctx, "ACME", "NOWHERE")
	var v *core.ValidationError
	if !errors.As(err, &v) {
		t.Errorf("Expected ValidationError for unknown warehouse, got %v", err)
	}

	// Restock P001 above its minimum; it drops off the report.
	purchase(t, ctx, processor, "P001", 30, 100)
	items, err = monitor.ListBelowMinimum(ctx, "ACME", "MAIN")
	if err != nil {
		t.Fatalf("ListBelowMinimum after restock failed: %v", err)
	}
	for _, it := range items {
		if it.ProductCode == "P001" {
			t.Errorf("P001 at 35 of min 20 must not be reported, got current=%d", it.CurrentQty)
		}
	}
}

func TestValuationService_TotalValueAndRefresh(t *testing.T) {
	pool, processor, _, _, ctx := setupProcessor(t)
	valuation := core.NewValuationService(pool)

	// 10 @ 100 + 5 @ 200 = 2000 on the lot ledger.
	purchase(t, ctx, processor, "P001", 10, 100)
	purchase(t, ctx, processor, "P001", 5, 200)

	val, err := valuation.TotalValue(ctx, "ACME", "")
	if err != nil {
		t.Fatalf("TotalValue failed: %v", err)
	}
	if !val.Value.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("Expected batch value 2000, got %s", val.Value)
	}
	// The estimate uses the stale seeded product cost: 15 × 250 = 3750.
	if !val.EstimatedValue.Equal(decimal.NewFromInt(3750)) {
		t.Errorf("Expected estimated value 3750, got %s", val.EstimatedValue)
	}

	// Warehouse scoping: everything sits in MAIN, EAST holds nothing.
	val, err = valuation.TotalValue(ctx, "ACME", "EAST")
	if err != nil {
		t.Fatalf("Scoped TotalValue failed: %v", err)
	}
	if !val.Value.IsZero() {
		t.Errorf("Expected zero value in EAST, got %s", val.Value)
	}

	_, err = valuation.TotalValue(ctx, "ACME", "NOWHERE")
	var v *core.ValidationError
	if !errors.As(err, &v) {
		t.Errorf("Expected ValidationError for unknown warehouse, got %v", err)
	}

	// Refresh pulls products.cost back to the open-lot weighted average:
	// 2000 / 15.
	n, err := valuation.RefreshProductCosts(ctx, "ACME")
	if err != nil {
		t.Fatalf("RefreshProductCosts failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 product refreshed, got %d", n)
	}
	var cost decimal.Decimal
	if err := pool.QueryRow(ctx, "SELECT cost FROM products WHERE code = 'P001'").Scan(&cost); err != nil {
		t.Fatalf("Failed to read refreshed cost: %v", err)
	}
	want := decimal.NewFromInt(2000).Div(decimal.NewFromInt(15)).Round(4)
	if !cost.Round(4).Equal(want) {
		t.Errorf("Expected refreshed cost %s, got %s", want, cost)
	}
}

func TestWarehouseService_Lifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewWarehouseService(pool)

	wh, err := svc.CreateWarehouse(ctx, "ACME", "SOUTH", "South Depot")
	if err != nil {
		t.Fatalf("CreateWarehouse failed: %v", err)
	}
	if wh.Code != "SOUTH" || wh.DefaultShelfID != nil {
		t.Errorf("New warehouse should have no default shelf, got %+v", wh)
	}

	_, err = svc.CreateWarehouse(ctx, "ACME", "SOUTH", "South Again")
	var v *core.ValidationError
	if !errors.As(err, &v) {
		t.Errorf("Expected ValidationError on duplicate warehouse code, got %v", err)
	}

	shelf, err := svc.CreateShelf(ctx, "ACME", "SOUTH", "S-01", "S", nil)
	if err != nil {
		t.Fatalf("CreateShelf failed: %v", err)
	}
	if !shelf.IsActive {
		t.Error("New shelf should be active")
	}

	if err := svc.SetDefaultShelf(ctx, "ACME", "SOUTH", "S-01"); err != nil {
		t.Fatalf("SetDefaultShelf failed: %v", err)
	}
	warehouses, err := svc.GetWarehouses(ctx, "ACME")
	if err != nil {
		t.Fatalf("GetWarehouses failed: %v", err)
	}
	found := false
	for _, w := range warehouses {
		if w.Code == "SOUTH" {
			found = true
			if w.DefaultShelfID == nil || *w.DefaultShelfID != shelf.ID {
				t.Errorf("Expected default shelf %d on SOUTH, got %v", shelf.ID, w.DefaultShelfID)
			}
		}
	}
	if !found {
		t.Fatal("SOUTH missing from GetWarehouses")
	}

	shelves, err := svc.GetShelves(ctx, "ACME", "SOUTH")
	if err != nil {
		t.Fatalf("GetShelves failed: %v", err)
	}
	if len(shelves) != 1 || shelves[0].Code != "S-01" {
		t.Errorf("Expected single shelf S-01, got %+v", shelves)
	}

	_, err = svc.GetShelves(ctx, "NOTENANT", "SOUTH")
	if !errors.As(err, &v) {
		t.Errorf("Expected ValidationError for unknown tenant, got %v", err)
	}
}

func TestCatalog_ResolveAndList(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	catalog := core.NewCatalog(pool)

	p, err := catalog.ResolveProduct(ctx, 1, "P001")
	if err != nil {
		t.Fatalf("ResolveProduct failed: %v", err)
	}
	if p == nil || p.Code != "P001" || p.MinStockLevel != 20 {
		t.Errorf("Unexpected product: %+v", p)
	}
	if p.Cost == nil || !p.Cost.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected seeded cost 250, got %v", p.Cost)
	}

	// Absence is nil, nil — not an error.
	p, err = catalog.ResolveProduct(ctx, 1, "MISSING")
	if err != nil {
		t.Fatalf("ResolveProduct for missing code errored: %v", err)
	}
	if p != nil {
		t.Errorf("Expected nil for missing product, got %+v", p)
	}

	products, err := catalog.ListProducts(ctx, 1)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("Expected 2 seeded products, got %d", len(products))
	}
}
