package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/quayside/stockflow/pkg/application/services"
	"github.com/quayside/stockflow/pkg/infrastructure/recordstore/memory"
	storerepo "github.com/quayside/stockflow/pkg/infrastructure/repositories/store"
	"github.com/quayside/stockflow/pkg/recordstore"
)

func testRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	svc := services.NewWarehouseService(services.Deps{
		Units:       storerepo.NewStockUnitRepository(store),
		Items:       storerepo.NewItemRepository(store),
		Locations:   storerepo.NewLocationRepository(store),
		Receipts:    storerepo.NewReceiptRepository(store),
		Demands:     storerepo.NewDemandRepository(store),
		Allocations: storerepo.NewAllocationRepository(store),
		Movements:   storerepo.NewMovementRepository(store),
	})
	return NewRouter(NewHandler(svc, nil)), store
}

func seed(t *testing.T, store *memory.Store, entity recordstore.EntityType, rec recordstore.Record) {
	t.Helper()
	if _, err := store.Create(context.Background(), entity, rec); err != nil {
		t.Fatalf("seed %s: %v", entity, err)
	}
}

func seedReceiving(t *testing.T, store *memory.Store) {
	t.Helper()
	seed(t, store, recordstore.EntityItems, recordstore.Record{
		"id": "ITEM-1", "code": "SKU-1", "unit_of_measure": "EA",
	})
	seed(t, store, recordstore.EntityLocations, recordstore.Record{
		"id": "LOC-STAGE", "warehouse_id": "WH-1", "code": "STAGING-01", "class": "staging",
	})
	seed(t, store, recordstore.EntityLocations, recordstore.Record{
		"id": "LOC-A", "warehouse_id": "WH-1", "code": "A-01-01", "class": "storage",
	})
	seed(t, store, recordstore.EntityReceiptHeaders, recordstore.Record{
		"id": "RCPT-1", "warehouse_id": "WH-1", "status": "Received",
	})
	seed(t, store, recordstore.EntityReceiptLines, recordstore.Record{
		"id": "RL-1", "receipt_header_id": "RCPT-1", "item_id": "ITEM-1", "item_code": "SKU-1",
		"expected_quantity": decimal.NewFromInt(10), "received_quantity": decimal.NewFromInt(10),
		"batch_number": "B-1", "weight_kg": decimal.Zero, "put_away": false,
	})
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_Health(t *testing.T) {
	router, _ := testRouter(t)
	w := do(t, router, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", w.Code)
	}
}

func TestHandler_Putaway(t *testing.T) {
	router, store := testRouter(t)
	seedReceiving(t, store)

	w := do(t, router, http.MethodPost, "/putaway", `{
		"receipt_line_id": "RL-1",
		"splits": [{"quantity": "10", "target_location_id": "LOC-A", "disposition": "good"}]
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /putaway = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		AllOK     bool                `json:"all_ok"`
		PalletIDs map[string][]string `json:"pallet_ids"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.AllOK || len(resp.PalletIDs["good"]) != 1 {
		t.Errorf("response = %+v, want one good pallet", resp)
	}
}

func TestHandler_PutawayQuantityMismatch(t *testing.T) {
	router, store := testRouter(t)
	seedReceiving(t, store)

	w := do(t, router, http.MethodPost, "/putaway", `{
		"receipt_line_id": "RL-1",
		"splits": [{"quantity": "7", "target_location_id": "LOC-A", "disposition": "good"}]
	}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("POST /putaway = %d, want 422, body %s", w.Code, w.Body.String())
	}
}

func TestHandler_PutawayUnknownLine(t *testing.T) {
	router, store := testRouter(t)
	seedReceiving(t, store)

	w := do(t, router, http.MethodPost, "/putaway", `{
		"receipt_line_id": "RL-MISSING",
		"splits": [{"quantity": "10", "target_location_id": "LOC-A", "disposition": "good"}]
	}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("POST /putaway = %d, want 404, body %s", w.Code, w.Body.String())
	}
}

func TestHandler_MalformedBody(t *testing.T) {
	router, _ := testRouter(t)

	w := do(t, router, http.MethodPost, "/allocate", `{"demand_line_id": 42}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("POST /allocate = %d, want 400", w.Code)
	}
}

func TestHandler_ShipStateGate(t *testing.T) {
	router, store := testRouter(t)
	seed(t, store, recordstore.EntityDemandHeaders, recordstore.Record{
		"id": "DMD-1", "warehouse_id": "WH-1", "status": "Allocated",
	})

	w := do(t, router, http.MethodPost, "/ship", `{"demand_header_id": "DMD-1"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("POST /ship = %d, want 409, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "confirm picks first") {
		t.Errorf("body = %s, want pick guidance", w.Body.String())
	}
}
