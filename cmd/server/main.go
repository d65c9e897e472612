package main

import (
	"context"
	"net/http"
	"os"

	webAdapter "stockledger/internal/adapters/web"
	"stockledger/internal/app"
	"stockledger/internal/core"
	"stockledger/internal/db"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	store := core.NewInventoryStore(pool)
	ledger := core.NewBatchLedger(pool)
	catalog := core.NewCatalog(pool)
	processor := core.NewTransactionProcessor(pool, store, ledger, catalog)
	history := core.NewTransactionHistory(pool)
	warehouses := core.NewWarehouseService(pool)
	lowStock := core.NewLowStockMonitor(pool)
	valuation := core.NewValuationService(pool)

	svc := app.NewAppService(pool, processor, store, ledger, history, warehouses, catalog, lowStock, valuation)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, log, allowedOrigins)

	log.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
