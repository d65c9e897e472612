// seed-demo is a one-shot tool that seeds a demo tenant with warehouses,
// shelves, and catalog products, so the ledger can be exercised immediately
// after the schema is applied.
//
// Usage: go run ./cmd/seed-demo
package main

import (
	"context"
	"log"

	"stockledger/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding demo tenant...")
	_, err = tx.Exec(ctx, `
		INSERT INTO tenants (tenant_code, name)
		VALUES ('DEMO', 'Demo Trading Co')
		ON CONFLICT (tenant_code) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed tenant: %v", err)
	}

	log.Println("Seeding warehouses and shelves...")
	_, err = tx.Exec(ctx, `
		INSERT INTO warehouses (tenant_id, code, name)
		SELECT t.id, w.code, w.name
		FROM tenants t,
		     (VALUES ('MAIN', 'Main Warehouse'), ('EAST', 'East Depot')) AS w(code, name)
		WHERE t.tenant_code = 'DEMO'
		ON CONFLICT (tenant_id, code) DO NOTHING;

		INSERT INTO shelves (tenant_id, warehouse_id, code, area)
		SELECT w.tenant_id, w.id, s.code, s.area
		FROM warehouses w
		JOIN tenants t ON t.id = w.tenant_id AND t.tenant_code = 'DEMO',
		     (VALUES ('A-01', 'A'), ('A-02', 'A'), ('B-01', 'B')) AS s(code, area)
		ON CONFLICT (warehouse_id, code) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed warehouses: %v", err)
	}

	log.Println("Pinning default shelves...")
	_, err = tx.Exec(ctx, `
		UPDATE warehouses w
		SET default_shelf_id = (
			SELECT id FROM shelves sh
			WHERE sh.warehouse_id = w.id AND sh.code = 'A-01'
		)
		WHERE w.tenant_id = (SELECT id FROM tenants WHERE tenant_code = 'DEMO')
		  AND w.default_shelf_id IS NULL;
	`)
	if err != nil {
		log.Fatalf("Failed to pin default shelves: %v", err)
	}

	log.Println("Seeding products...")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (tenant_id, code, name, min_stock_level, cost)
		SELECT t.id, p.code, p.name, p.min_level, p.cost
		FROM tenants t,
		     (VALUES
		        ('P001', 'Widget A',  20, 250.0000),
		        ('P002', 'Widget B',  10, 1200.0000),
		        ('P003', 'Gadget C',   0, NULL)
		     ) AS p(code, name, min_level, cost)
		WHERE t.tenant_code = 'DEMO'
		ON CONFLICT (tenant_id, code) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit seed: %v", err)
	}
	log.Println("Demo seed complete.")
}
