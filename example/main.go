// A self-contained walkthrough of the quantity lifecycle: one receipt is put
// away, allocated to an outbound demand, picked and shipped, all over the
// in-memory record store.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/quayside/stockflow/pkg/application/services"
	"github.com/quayside/stockflow/pkg/infrastructure/recordstore/memory"
	storerepo "github.com/quayside/stockflow/pkg/infrastructure/repositories/store"
	"github.com/quayside/stockflow/pkg/recordstore"
	"github.com/quayside/stockflow/pkg/stockflow"
)

func main() {
	ctx := context.Background()
	store := memory.NewStore()
	seedWarehouse(ctx, store)

	allocations := storerepo.NewAllocationRepository(store)
	svc := services.NewWarehouseService(services.Deps{
		Units:       storerepo.NewStockUnitRepository(store),
		Items:       storerepo.NewItemRepository(store),
		Locations:   storerepo.NewLocationRepository(store),
		Receipts:    storerepo.NewReceiptRepository(store),
		Demands:     storerepo.NewDemandRepository(store),
		Allocations: allocations,
		Movements:   storerepo.NewMovementRepository(store),
	})

	fmt.Println("Putting away 100 units: 80 good, 15 damaged, 5 missing")
	putaway, err := svc.Putaway(ctx, "RL-1", []stockflow.Split{
		{Quantity: dec("80"), TargetLocationID: "LOC-A", Disposition: stockflow.DispositionGood},
		{Quantity: dec("15"), TargetLocationID: "LOC-DMG", Disposition: stockflow.DispositionDamage},
		{Quantity: dec("5"), TargetLocationID: "LOC-DMG", Disposition: stockflow.DispositionMissing},
	}, "demo")
	if err != nil {
		log.Fatalf("putaway: %v", err)
	}
	for disposition, pallets := range putaway.PalletIDs {
		fmt.Printf("  %s pallets: %v\n", disposition, pallets)
	}

	fmt.Println("Allocating 60 units to demand DMD-1")
	allocated, err := svc.Allocate(ctx, "DL-1", dec("60"), "demo")
	if err != nil {
		log.Fatalf("allocate: %v", err)
	}
	fmt.Printf("  allocated %s, shortage %s\n", allocated.AllocatedQuantity, allocated.Shortage)

	allocs, err := allocations.FindByDemandLine(ctx, "DL-1")
	if err != nil {
		log.Fatalf("find allocations: %v", err)
	}
	confirmations := make([]stockflow.PickConfirmation, 0, len(allocs))
	for _, a := range allocs {
		confirmations = append(confirmations, stockflow.PickConfirmation{
			AllocationID:   a.ID,
			QuantityPicked: a.QuantityAllocated,
		})
	}

	fmt.Println("Confirming picks")
	picks, err := svc.ConfirmPicks(ctx, "DMD-1", confirmations, "demo")
	if err != nil {
		log.Fatalf("confirm picks: %v", err)
	}
	fmt.Printf("  picked %d allocation(s)\n", picks.PickedCount)

	fmt.Println("Shipping")
	shipped, err := svc.Ship(ctx, "DMD-1", "demo")
	if err != nil {
		log.Fatalf("ship: %v", err)
	}
	for _, d := range shipped.Deductions {
		fmt.Printf("  item %s: shipped %s of %s (shortage %s)\n", d.ItemID, d.Shipped, d.Ordered, d.Shortage)
	}

	rollup, err := svc.Rollup(ctx, "ITEM-1")
	if err != nil {
		log.Fatalf("rollup: %v", err)
	}
	fmt.Printf("Final rollup: on-hand %s, allocated %s, available %s, shipped %s\n",
		rollup.OnHand, rollup.Allocated, rollup.Available, rollup.Shipped)
}

func seedWarehouse(ctx context.Context, store *memory.Store) {
	records := map[recordstore.EntityType][]recordstore.Record{
		recordstore.EntityItems: {
			{"id": "ITEM-1", "code": "SKU-1", "description": "Widget", "unit_of_measure": "EA"},
		},
		recordstore.EntityLocations: {
			{"id": "LOC-STAGE", "warehouse_id": "WH-1", "code": "STAGING-01", "name": "Inbound staging", "class": "staging"},
			{"id": "LOC-A", "warehouse_id": "WH-1", "code": "A-01-01", "name": "Rack A", "class": "storage"},
			{"id": "LOC-DMG", "warehouse_id": "WH-1", "code": "DAMAGE-01", "name": "Damage cage", "class": "disposition"},
		},
		recordstore.EntityReceiptHeaders: {
			{"id": "RCPT-1", "code": "RCPT-1", "warehouse_id": "WH-1", "status": "Received"},
		},
		recordstore.EntityReceiptLines: {
			{
				"id": "RL-1", "receipt_header_id": "RCPT-1", "item_id": "ITEM-1", "item_code": "SKU-1",
				"expected_quantity": dec("100"), "received_quantity": dec("100"),
				"batch_number": "B-2026-08", "weight_kg": dec("250"), "put_away": false,
			},
		},
		recordstore.EntityDemandHeaders: {
			{"id": "DMD-1", "code": "DMD-1", "warehouse_id": "WH-1", "status": "New"},
		},
		recordstore.EntityDemandLines: {
			{"id": "DL-1", "demand_header_id": "DMD-1", "item_id": "ITEM-1", "ordered_quantity": dec("60"), "line_no": int64(1)},
		},
	}
	for entity, recs := range records {
		for _, rec := range recs {
			if _, err := store.Create(ctx, entity, rec); err != nil {
				log.Fatalf("seed %s: %v", entity, err)
			}
		}
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
