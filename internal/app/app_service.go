package app

import (
	"context"
	"errors"
	"fmt"

	"stockledger/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool       *pgxpool.Pool
	processor  *core.TransactionProcessor
	store      *core.InventoryStore
	ledger     *core.BatchLedger
	history    *core.TransactionHistory
	warehouses core.WarehouseService
	catalog    core.Catalog
	lowStock   *core.LowStockMonitor
	valuation  *core.ValuationService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	processor *core.TransactionProcessor,
	store *core.InventoryStore,
	ledger *core.BatchLedger,
	history *core.TransactionHistory,
	warehouses core.WarehouseService,
	catalog core.Catalog,
	lowStock *core.LowStockMonitor,
	valuation *core.ValuationService,
) ApplicationService {
	return &appService{
		pool:       pool,
		processor:  processor,
		store:      store,
		ledger:     ledger,
		history:    history,
		warehouses: warehouses,
		catalog:    catalog,
		lowStock:   lowStock,
		valuation:  valuation,
	}
}

func (s *appService) ProcessTransaction(ctx context.Context, req ProcessTransactionRequest) (*TransactionResult, error) {
	items := make([]core.TransactionLineInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = core.TransactionLineInput{
			ProductCode: it.ProductCode,
			ShelfCode:   it.ShelfCode,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}

	txn, err := s.processor.Process(ctx, core.TransactionRequest{
		TenantCode:               req.TenantCode,
		Type:                     core.TransactionType(req.Type),
		SourceWarehouseCode:      req.SourceWarehouseCode,
		DestinationWarehouseCode: req.DestinationWarehouseCode,
		Items:                    items,
		Notes:                    req.Notes,
		CreatedBy:                req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	return &TransactionResult{Transaction: txn}, nil
}

func (s *appService) GetTransaction(ctx context.Context, tenantCode, reference string) (*TransactionResult, error) {
	txn, err := s.history.Get(ctx, tenantCode, reference)
	if err != nil {
		return nil, err
	}
	return &TransactionResult{Transaction: txn}, nil
}

func (s *appService) ListTransactions(ctx context.Context, req ListTransactionsRequest) (*TransactionListResult, error) {
	var status *core.TransactionStatus
	if req.Status != "" {
		st := core.TransactionStatus(req.Status)
		status = &st
	}
	txns, err := s.history.List(ctx, req.TenantCode, status, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}
	return &TransactionListResult{Transactions: txns, TenantCode: req.TenantCode}, nil
}

// resolveScope maps (tenant, product, warehouse) codes to ids for the read
// paths. warehouseCode may be empty, in which case warehouseID comes back 0.
func (s *appService) resolveScope(ctx context.Context, tenantCode, productCode, warehouseCode string) (tenantID, productID, warehouseID int, err error) {
	if err = s.pool.QueryRow(ctx,
		"SELECT id FROM tenants WHERE tenant_code = $1", tenantCode,
	).Scan(&tenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, 0, &core.ValidationError{Reason: fmt.Sprintf("tenant %s not found", tenantCode)}
		}
		return 0, 0, 0, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	if productCode != "" {
		product, perr := s.catalog.ResolveProduct(ctx, tenantID, productCode)
		if perr != nil {
			return 0, 0, 0, perr
		}
		if product == nil {
			return 0, 0, 0, &core.ValidationError{Reason: fmt.Sprintf("product %s not found", productCode)}
		}
		productID = product.ID
	}

	if warehouseCode != "" {
		if err = s.pool.QueryRow(ctx,
			"SELECT id FROM warehouses WHERE tenant_id = $1 AND code = $2",
			tenantID, warehouseCode,
		).Scan(&warehouseID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, 0, 0, &core.ValidationError{Reason: fmt.Sprintf("warehouse %s not found", warehouseCode)}
			}
			return 0, 0, 0, fmt.Errorf("failed to resolve warehouse: %w", err)
		}
	}
	return tenantID, productID, warehouseID, nil
}

func (s *appService) GetInventory(ctx context.Context, req GetInventoryRequest) (*InventoryResult, error) {
	tenantID, productID, warehouseID, err := s.resolveScope(ctx, req.TenantCode, req.ProductCode, req.WarehouseCode)
	if err != nil {
		return nil, err
	}

	var qty int64
	if req.WarehouseCode != "" {
		qty, err = s.store.WarehouseQuantity(ctx, tenantID, productID, warehouseID)
	} else {
		qty, err = s.store.TenantQuantity(ctx, tenantID, productID)
	}
	if err != nil {
		return nil, err
	}
	return &InventoryResult{
		ProductCode:   req.ProductCode,
		WarehouseCode: req.WarehouseCode,
		Quantity:      qty,
	}, nil
}

func (s *appService) GetWarehouseStock(ctx context.Context, tenantCode, warehouseCode string) (*WarehouseStockResult, error) {
	tenantID, _, warehouseID, err := s.resolveScope(ctx, tenantCode, "", warehouseCode)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ShelfQuantities(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &WarehouseStockResult{WarehouseCode: warehouseCode, Rows: rows}, nil
}

func (s *appService) ListLowStock(ctx context.Context, tenantCode, warehouseCode string) (*LowStockResult, error) {
	items, err := s.lowStock.ListBelowMinimum(ctx, tenantCode, warehouseCode)
	if err != nil {
		return nil, err
	}
	return &LowStockResult{WarehouseCode: warehouseCode, Items: items}, nil
}

func (s *appService) GetStockValue(ctx context.Context, tenantCode, warehouseCode string) (*StockValueResult, error) {
	val, err := s.valuation.TotalValue(ctx, tenantCode, warehouseCode)
	if err != nil {
		return nil, err
	}
	return &StockValueResult{
		WarehouseCode:  warehouseCode,
		Value:          val.Value,
		EstimatedValue: val.EstimatedValue,
	}, nil
}

func (s *appService) ListBatches(ctx context.Context, tenantCode, warehouseCode, productCode string) (*BatchListResult, error) {
	tenantID, productID, warehouseID, err := s.resolveScope(ctx, tenantCode, productCode, warehouseCode)
	if err != nil {
		return nil, err
	}
	batches, err := s.ledger.ListBatches(ctx, tenantID, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &BatchListResult{ProductCode: productCode, WarehouseCode: warehouseCode, Batches: batches}, nil
}

func (s *appService) ListWarehouses(ctx context.Context, tenantCode string) (*WarehouseListResult, error) {
	warehouses, err := s.warehouses.GetWarehouses(ctx, tenantCode)
	if err != nil {
		return nil, err
	}
	return &WarehouseListResult{Warehouses: warehouses}, nil
}

func (s *appService) ListShelves(ctx context.Context, tenantCode, warehouseCode string) (*ShelfListResult, error) {
	shelves, err := s.warehouses.GetShelves(ctx, tenantCode, warehouseCode)
	if err != nil {
		return nil, err
	}
	return &ShelfListResult{Shelves: shelves}, nil
}

func (s *appService) CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*WarehouseResult, error) {
	w, err := s.warehouses.CreateWarehouse(ctx, req.TenantCode, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	return &WarehouseResult{Warehouse: w}, nil
}

func (s *appService) CreateShelf(ctx context.Context, req CreateShelfRequest) (*ShelfResult, error) {
	sh, err := s.warehouses.CreateShelf(ctx, req.TenantCode, req.WarehouseCode, req.ShelfCode, req.Area, req.Capacity)
	if err != nil {
		return nil, err
	}
	return &ShelfResult{Shelf: sh}, nil
}

func (s *appService) SetDefaultShelf(ctx context.Context, tenantCode, warehouseCode, shelfCode string) error {
	return s.warehouses.SetDefaultShelf(ctx, tenantCode, warehouseCode, shelfCode)
}

func (s *appService) ListProducts(ctx context.Context, tenantCode string) (*ProductListResult, error) {
	tenantID, _, _, err := s.resolveScope(ctx, tenantCode, "", "")
	if err != nil {
		return nil, err
	}
	products, err := s.catalog.ListProducts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) RefreshProductCosts(ctx context.Context, tenantCode string) (int, error) {
	return s.valuation.RefreshProductCosts(ctx, tenantCode)
}
