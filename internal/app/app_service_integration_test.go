package app_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"stockledger/internal/app"
	"stockledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupAppService(t *testing.T) (app.ApplicationService, context.Context) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE transaction_item_batch_usages, transaction_items, transactions,
			stock_batches, inventory_rows, products, shelves, warehouses, tenants
			RESTART IDENTITY CASCADE;

		INSERT INTO tenants (id, tenant_code, name) VALUES (1, 'ACME', 'Acme Trading');
		INSERT INTO warehouses (tenant_id, code, name) VALUES (1, 'MAIN', 'Main Warehouse');
		INSERT INTO products (tenant_id, code, name) VALUES (1, 'P001', 'Widget A');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	store := core.NewInventoryStore(pool)
	ledger := core.NewBatchLedger(pool)
	catalog := core.NewCatalog(pool)
	processor := core.NewTransactionProcessor(pool, store, ledger, catalog)
	history := core.NewTransactionHistory(pool)
	warehouses := core.NewWarehouseService(pool)
	lowStock := core.NewLowStockMonitor(pool)
	valuation := core.NewValuationService(pool)

	return app.NewAppService(pool, processor, store, ledger, history, warehouses, catalog, lowStock, valuation), ctx
}

// Lookup misses on the read paths are caller mistakes and must surface as the
// validation kind, not as opaque storage failures.
func TestAppService_ReadPathLookupMisses(t *testing.T) {
	svc, ctx := setupAppService(t)

	var v *core.ValidationError

	_, err := svc.GetInventory(ctx, app.GetInventoryRequest{TenantCode: "NOPE", ProductCode: "P001"})
	if !errors.As(err, &v) {
		t.Errorf("Unknown tenant: expected ValidationError, got %v", err)
	}

	_, err = svc.GetInventory(ctx, app.GetInventoryRequest{TenantCode: "ACME", ProductCode: "MISSING"})
	if !errors.As(err, &v) {
		t.Errorf("Unknown product: expected ValidationError, got %v", err)
	}

	_, err = svc.GetInventory(ctx, app.GetInventoryRequest{TenantCode: "ACME", ProductCode: "P001", WarehouseCode: "NOWHERE"})
	if !errors.As(err, &v) {
		t.Errorf("Unknown warehouse: expected ValidationError, got %v", err)
	}

	_, err = svc.ListBatches(ctx, "ACME", "NOWHERE", "P001")
	if !errors.As(err, &v) {
		t.Errorf("ListBatches with unknown warehouse: expected ValidationError, got %v", err)
	}

	// The happy path still resolves.
	res, err := svc.GetInventory(ctx, app.GetInventoryRequest{TenantCode: "ACME", ProductCode: "P001", WarehouseCode: "MAIN"})
	if err != nil {
		t.Fatalf("GetInventory failed: %v", err)
	}
	if res.Quantity != 0 {
		t.Errorf("Expected zero stock, got %d", res.Quantity)
	}
}
