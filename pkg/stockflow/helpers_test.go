package stockflow

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/infrastructure/recordstore/memory"
	storerepo "github.com/quayside/stockflow/pkg/infrastructure/repositories/store"
	"github.com/quayside/stockflow/pkg/recordstore"
)

// fixture wires the full engine stack over an in-memory record store
type fixture struct {
	t   *testing.T
	ctx context.Context

	store       *memory.Store
	units       *storerepo.StockUnitRepository
	allocations *storerepo.AllocationRepository
	movements   *storerepo.MovementRepository
	items       *storerepo.ItemRepository
	locations   *storerepo.LocationRepository
	receipts    *storerepo.ReceiptRepository
	demands     *storerepo.DemandRepository

	classifier *LocationClassifier
	recorder   *Recorder
	ledger     *Ledger

	putaway    *PutawayEngine
	allocation *AllocationEngine
	picking    *PickingEngine
	shipment   *ShipmentEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		t:           t,
		ctx:         context.Background(),
		store:       store,
		units:       storerepo.NewStockUnitRepository(store),
		allocations: storerepo.NewAllocationRepository(store),
		movements:   storerepo.NewMovementRepository(store),
		items:       storerepo.NewItemRepository(store),
		locations:   storerepo.NewLocationRepository(store),
		receipts:    storerepo.NewReceiptRepository(store),
		demands:     storerepo.NewDemandRepository(store),
	}
	f.classifier = NewLocationClassifier(nil)
	f.recorder = NewRecorder(f.movements)
	f.ledger = NewLedger(f.units, f.locations, f.classifier, f.recorder, nil)
	f.putaway = NewPutawayEngine(f.units, f.items, f.locations, f.receipts, f.ledger, f.recorder, f.classifier, nil)
	f.allocation = NewAllocationEngine(f.units, f.allocations, f.demands, f.ledger, nil)
	f.picking = NewPickingEngine(f.allocations, f.demands, f.locations, f.ledger, f.classifier, nil)
	f.shipment = NewShipmentEngine(f.units, f.allocations, f.demands, f.ledger, nil)
	return f
}

func (f *fixture) seed(entity recordstore.EntityType, rec recordstore.Record) {
	f.t.Helper()
	if _, err := f.store.Create(f.ctx, entity, rec); err != nil {
		f.t.Fatalf("seed %s: %v", entity, err)
	}
}

func (f *fixture) seedItem(id, code string) {
	f.seed(recordstore.EntityItems, recordstore.Record{
		"id": id, "code": code, "description": code, "unit_of_measure": "EA",
	})
}

func (f *fixture) seedLocation(id, warehouseID, code string, class entities.LocationClass) {
	f.seed(recordstore.EntityLocations, recordstore.Record{
		"id": id, "warehouse_id": warehouseID, "code": code, "name": code, "class": string(class),
	})
}

func (f *fixture) seedReceipt(headerID, warehouseID string, status entities.ReceiptStatus) {
	f.seed(recordstore.EntityReceiptHeaders, recordstore.Record{
		"id": headerID, "code": headerID, "warehouse_id": warehouseID, "status": string(status),
	})
}

func (f *fixture) seedReceiptLine(id, headerID, itemID, batch string, received decimal.Decimal) {
	f.seed(recordstore.EntityReceiptLines, recordstore.Record{
		"id":                id,
		"receipt_header_id": headerID,
		"item_id":           itemID,
		"item_code":         itemID,
		"expected_quantity": received,
		"received_quantity": received,
		"batch_number":      batch,
		"weight_kg":         decimal.Zero,
		"put_away":          false,
	})
}

func (f *fixture) seedDemand(headerID, warehouseID string, status entities.DemandStatus) {
	f.seed(recordstore.EntityDemandHeaders, recordstore.Record{
		"id": headerID, "code": headerID, "warehouse_id": warehouseID, "status": string(status),
	})
}

func (f *fixture) seedDemandLine(id, headerID, itemID string, ordered decimal.Decimal, lineNo int) {
	f.seed(recordstore.EntityDemandLines, recordstore.Record{
		"id":               id,
		"demand_header_id": headerID,
		"item_id":          itemID,
		"ordered_quantity": ordered,
		"line_no":          int64(lineNo),
	})
}

func (f *fixture) seedUnit(u *entities.StockUnit) *entities.StockUnit {
	f.t.Helper()
	created, err := f.units.Create(f.ctx, u)
	if err != nil {
		f.t.Fatalf("seed stock unit: %v", err)
	}
	return created
}

func (f *fixture) unit(id string) *entities.StockUnit {
	f.t.Helper()
	u, err := f.units.Get(f.ctx, id)
	if err != nil {
		f.t.Fatalf("get stock unit %s: %v", id, err)
	}
	return u
}

func (f *fixture) lineAllocations(demandLineID string) []*entities.Allocation {
	f.t.Helper()
	allocs, err := f.allocations.FindByDemandLine(f.ctx, demandLineID)
	if err != nil {
		f.t.Fatalf("find allocations for %s: %v", demandLineID, err)
	}
	return allocs
}

func (f *fixture) demandStatus(headerID string) entities.DemandStatus {
	f.t.Helper()
	header, err := f.demands.GetHeader(f.ctx, headerID)
	if err != nil {
		f.t.Fatalf("get demand header %s: %v", headerID, err)
	}
	return header.Status
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *time.Time {
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &ts
}

func wantDec(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
