package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockledger/internal/app"
	"stockledger/internal/core"

	"go.uber.org/zap"
)

func TestWriteDomainError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation error",
			err:        &core.ValidationError{Reason: "tenant NOPE not found"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "wrapped validation error",
			err:        fmt.Errorf("resolving scope: %w", &core.ValidationError{Reason: "warehouse NOPE not found"}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "no shelf available",
			err:        &core.NoShelfAvailableError{WarehouseCode: "MAIN"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "NO_SHELF_AVAILABLE",
		},
		{
			name:       "insufficient stock",
			err:        &core.InsufficientStockError{ProductCode: "P001", Available: 2, Requested: 5},
			wantStatus: http.StatusConflict,
			wantCode:   "INSUFFICIENT_STOCK",
		},
		{
			name:       "insufficient batch coverage",
			err:        &core.InsufficientBatchCoverageError{ProductCode: "P001", Requested: 5, Shortfall: 3},
			wantStatus: http.StatusConflict,
			wantCode:   "INSUFFICIENT_BATCH_COVERAGE",
		},
		{
			name:       "concurrency conflict",
			err:        fmt.Errorf("%w: deadlock detected", core.ErrConcurrencyConflict),
			wantStatus: http.StatusConflict,
			wantCode:   "CONCURRENCY_CONFLICT",
		},
		{
			name:       "opaque storage failure",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "STORAGE_FAILURE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/tenants/ACME/inventory/P001", nil)

			writeDomainError(rec, req, tc.err)

			if rec.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode error body: %v", err)
			}
			if body.Code != tc.wantCode {
				t.Errorf("Expected code %s, got %s", tc.wantCode, body.Code)
			}
			if body.Error == "" {
				t.Error("Error body must carry a message")
			}
		})
	}
}

// stubService overrides only the methods a test exercises; anything else
// panics through the embedded nil interface.
type stubService struct {
	app.ApplicationService
	getInventoryErr error
}

func (s *stubService) GetInventory(ctx context.Context, req app.GetInventoryRequest) (*app.InventoryResult, error) {
	if s.getInventoryErr != nil {
		return nil, s.getInventoryErr
	}
	return &app.InventoryResult{ProductCode: req.ProductCode}, nil
}

// A lookup miss on a read endpoint is the caller's mistake and must come back
// as 400 with the human-readable reason, never a 500.
func TestHandler_ReadLookupMissIsBadRequest(t *testing.T) {
	svc := &stubService{
		getInventoryErr: &core.ValidationError{Reason: "tenant NOPE not found"},
	}
	handler := NewHandler(svc, zap.NewNop(), "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tenants/NOPE/inventory/P001", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if body.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR, got %s", body.Code)
	}
	if body.Error != "validation failed: tenant NOPE not found" {
		t.Errorf("Expected the validation reason to reach the caller, got %q", body.Error)
	}
}
