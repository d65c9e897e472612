// verify-db checks that the ledger schema is present and that the two
// bookkeeping views of stock agree: the sum of open batch remainders for a
// product in a warehouse must equal the sum of its inventory rows there.
//
// Usage: go run ./cmd/verify-db
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"stockledger/internal/db"

	"github.com/joho/godotenv"
)

var requiredTables = []string{
	"tenants",
	"warehouses",
	"shelves",
	"products",
	"inventory_rows",
	"stock_batches",
	"transactions",
	"transaction_items",
	"transaction_item_batch_usages",
}

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	missing := 0
	for _, table := range requiredTables {
		var exists bool
		err := pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)
		`, table).Scan(&exists)
		if err != nil {
			log.Fatalf("Failed to check table %s: %v", table, err)
		}
		if exists {
			fmt.Printf("  ok      %s\n", table)
		} else {
			fmt.Printf("  MISSING %s\n", table)
			missing++
		}
	}
	if missing > 0 {
		log.Fatalf("%d required table(s) missing; run migrations/apply_schema.go first", missing)
	}

	// Reconciliation: open batch remainders vs inventory row quantities,
	// per tenant/product/warehouse. Drift here means a write path bypassed
	// the transaction processor.
	rows, err := pool.Query(ctx, `
		WITH batch_totals AS (
			SELECT tenant_id, product_id, warehouse_id, SUM(qty_remaining) AS qty
			FROM stock_batches
			WHERE qty_remaining > 0
			GROUP BY tenant_id, product_id, warehouse_id
		),
		row_totals AS (
			SELECT tenant_id, product_id, warehouse_id, SUM(quantity) AS qty
			FROM inventory_rows
			GROUP BY tenant_id, product_id, warehouse_id
		)
		SELECT t.tenant_code, p.code, w.code,
		       COALESCE(b.qty, 0), COALESCE(r.qty, 0)
		FROM batch_totals b
		FULL OUTER JOIN row_totals r USING (tenant_id, product_id, warehouse_id)
		JOIN tenants t ON t.id = COALESCE(b.tenant_id, r.tenant_id)
		JOIN products p ON p.id = COALESCE(b.product_id, r.product_id)
		JOIN warehouses w ON w.id = COALESCE(b.warehouse_id, r.warehouse_id)
		WHERE COALESCE(b.qty, 0) <> COALESCE(r.qty, 0)
		ORDER BY t.tenant_code, p.code, w.code
	`)
	if err != nil {
		log.Fatalf("Failed to run reconciliation query: %v", err)
	}
	defer rows.Close()

	drift := 0
	for rows.Next() {
		var tenant, product, warehouse string
		var batchQty, rowQty int64
		if err := rows.Scan(&tenant, &product, &warehouse, &batchQty, &rowQty); err != nil {
			log.Fatalf("Failed to scan reconciliation row: %v", err)
		}
		fmt.Printf("  DRIFT   %s/%s @ %s: batches=%d rows=%d\n", tenant, product, warehouse, batchQty, rowQty)
		drift++
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Reconciliation read failed: %v", err)
	}

	if drift > 0 {
		fmt.Printf("Found %d reconciliation mismatch(es).\n", drift)
		os.Exit(1)
	}
	fmt.Println("Schema present, ledgers reconciled.")
}
