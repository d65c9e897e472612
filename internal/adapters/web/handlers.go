package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"stockledger/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
	log    *zap.Logger
}

// NewHandler creates and wires the chi router with all routes. The tenant
// code in the path is the opaque scoping identifier supplied by the caller's
// auth layer; the ledger itself performs no authentication.
func NewHandler(svc app.ApplicationService, log *zap.Logger, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(splitAndTrim(allowedOrigins)))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	r.Route("/api/tenants/{tenant}", func(r chi.Router) {
		r.Post("/transactions", h.processTransaction)
		r.Get("/transactions", h.listTransactions)
		r.Get("/transactions/{reference}", h.getTransaction)

		r.Get("/inventory/{product}", h.getInventory)
		r.Get("/stock-value", h.getStockValue)

		r.Get("/warehouses", h.listWarehouses)
		r.Post("/warehouses", h.createWarehouse)
		r.Get("/warehouses/{warehouse}/shelves", h.listShelves)
		r.Post("/warehouses/{warehouse}/shelves", h.createShelf)
		r.Put("/warehouses/{warehouse}/default-shelf", h.setDefaultShelf)
		r.Get("/warehouses/{warehouse}/stock", h.getWarehouseStock)
		r.Get("/warehouses/{warehouse}/low-stock", h.listLowStock)
		r.Get("/warehouses/{warehouse}/batches/{product}", h.listBatches)

		r.Get("/products", h.listProducts)
		r.Post("/products/refresh-costs", h.refreshProductCosts)
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type transactionLinePayload struct {
	Product   string          `json:"product"`
	Shelf     string          `json:"shelf,omitempty"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type processTransactionPayload struct {
	Type                 string                   `json:"type"`
	SourceWarehouse      string                   `json:"source_warehouse"`
	DestinationWarehouse string                   `json:"destination_warehouse,omitempty"`
	Notes                string                   `json:"notes,omitempty"`
	CreatedBy            string                   `json:"created_by"`
	Items                []transactionLinePayload `json:"items"`
}

func (h *Handler) processTransaction(w http.ResponseWriter, r *http.Request) {
	var body processTransactionPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	req := app.ProcessTransactionRequest{
		TenantCode:               chi.URLParam(r, "tenant"),
		Type:                     body.Type,
		SourceWarehouseCode:      body.SourceWarehouse,
		DestinationWarehouseCode: body.DestinationWarehouse,
		Notes:                    body.Notes,
		CreatedBy:                body.CreatedBy,
	}
	for _, it := range body.Items {
		req.Items = append(req.Items, app.TransactionLine{
			ProductCode: it.Product,
			ShelfCode:   it.Shelf,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}

	res, err := h.svc.ProcessTransaction(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(res.Transaction)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetTransaction(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "reference"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res.Transaction)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	res, err := h.svc.ListTransactions(r.Context(), app.ListTransactionsRequest{
		TenantCode: chi.URLParam(r, "tenant"),
		Status:     r.URL.Query().Get("status"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getInventory(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetInventory(r.Context(), app.GetInventoryRequest{
		TenantCode:    chi.URLParam(r, "tenant"),
		ProductCode:   chi.URLParam(r, "product"),
		WarehouseCode: r.URL.Query().Get("warehouse"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getStockValue(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetStockValue(r.Context(), chi.URLParam(r, "tenant"), r.URL.Query().Get("warehouse"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListWarehouses(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

type createWarehousePayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var body createWarehousePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	res, err := h.svc.CreateWarehouse(r.Context(), app.CreateWarehouseRequest{
		TenantCode: chi.URLParam(r, "tenant"),
		Code:       body.Code,
		Name:       body.Name,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(res.Warehouse)
}

func (h *Handler) listShelves(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListShelves(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "warehouse"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

type createShelfPayload struct {
	Code     string `json:"code"`
	Area     string `json:"area,omitempty"`
	Capacity *int   `json:"capacity,omitempty"`
}

func (h *Handler) createShelf(w http.ResponseWriter, r *http.Request) {
	var body createShelfPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	res, err := h.svc.CreateShelf(r.Context(), app.CreateShelfRequest{
		TenantCode:    chi.URLParam(r, "tenant"),
		WarehouseCode: chi.URLParam(r, "warehouse"),
		ShelfCode:     body.Code,
		Area:          body.Area,
		Capacity:      body.Capacity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(res.Shelf)
}

type setDefaultShelfPayload struct {
	Shelf string `json:"shelf"`
}

func (h *Handler) setDefaultShelf(w http.ResponseWriter, r *http.Request) {
	var body setDefaultShelfPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	err := h.svc.SetDefaultShelf(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "warehouse"), body.Shelf)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) getWarehouseStock(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetWarehouseStock(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "warehouse"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListLowStock(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "warehouse"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) listBatches(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListBatches(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "warehouse"), chi.URLParam(r, "product"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListProducts(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) refreshProductCosts(w http.ResponseWriter, r *http.Request) {
	updated, err := h.svc.RefreshProductCosts(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]int{"updated": updated})
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
