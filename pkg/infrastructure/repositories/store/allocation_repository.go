package store

import (
	"context"
	"fmt"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
	"github.com/quayside/stockflow/pkg/recordstore"
)

// AllocationRepository persists allocations through the record store
type AllocationRepository struct {
	store recordstore.Store
}

// NewAllocationRepository creates a store-backed allocation repository
func NewAllocationRepository(store recordstore.Store) *AllocationRepository {
	return &AllocationRepository{store: store}
}

// Verify interface compliance
var _ repositories.AllocationRepository = (*AllocationRepository)(nil)

// Get loads one allocation by id
func (r *AllocationRepository) Get(ctx context.Context, id string) (*entities.Allocation, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityAllocations, recordstore.Where(recordstore.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("allocation %s: %w", id, recordstore.ErrNotFound)
	}
	return decodeAllocation(recs[0])
}

// FindByDemandLine returns the surviving allocations for a demand line,
// ordered by stock unit id for deterministic walks
func (r *AllocationRepository) FindByDemandLine(ctx context.Context, demandLineID string) ([]*entities.Allocation, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityAllocations, recordstore.Query{
		Predicates: []recordstore.Predicate{recordstore.Eq("so_line_id", demandLineID)},
		OrderBy:    []recordstore.Order{{Field: "stock_unit_id"}, {Field: "id"}},
	})
	if err != nil {
		return nil, err
	}
	allocs := make([]*entities.Allocation, 0, len(recs))
	for _, rec := range recs {
		alloc, err := decodeAllocation(rec)
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, alloc)
	}
	return allocs, nil
}

// Create inserts a new allocation
func (r *AllocationRepository) Create(ctx context.Context, alloc *entities.Allocation) (*entities.Allocation, error) {
	rec, err := r.store.Create(ctx, recordstore.EntityAllocations, encodeAllocation(alloc))
	if err != nil {
		return nil, err
	}
	return decodeAllocation(rec)
}

// Update writes the allocation back
func (r *AllocationRepository) Update(ctx context.Context, alloc *entities.Allocation) (*entities.Allocation, error) {
	rec, err := r.store.Update(ctx, recordstore.EntityAllocations, alloc.ID, encodeAllocation(alloc))
	if err != nil {
		return nil, err
	}
	return decodeAllocation(rec)
}

func encodeAllocation(a *entities.Allocation) recordstore.Record {
	return recordstore.Record{
		"id":                 a.ID,
		"so_line_id":         a.DemandLineID,
		"stock_unit_id":      a.StockUnitID,
		"item_id":            a.ItemID,
		"location_id":        a.LocationID,
		"pallet_id":          a.PalletID,
		"batch_number":       a.BatchNumber,
		"quantity_allocated": a.QuantityAllocated,
		"quantity_picked":    a.QuantityPicked,
		"quantity_shipped":   a.QuantityShipped,
		"status":             string(a.Status),
	}
}

func decodeAllocation(rec recordstore.Record) (*entities.Allocation, error) {
	allocated, err := asDecimal(rec, "quantity_allocated")
	if err != nil {
		return nil, err
	}
	picked, err := asDecimal(rec, "quantity_picked")
	if err != nil {
		return nil, err
	}
	shipped, err := asDecimal(rec, "quantity_shipped")
	if err != nil {
		return nil, err
	}

	return &entities.Allocation{
		ID:                rec.ID(),
		DemandLineID:      asString(rec, "so_line_id"),
		StockUnitID:       asString(rec, "stock_unit_id"),
		ItemID:            asString(rec, "item_id"),
		LocationID:        asString(rec, "location_id"),
		PalletID:          asString(rec, "pallet_id"),
		BatchNumber:       asString(rec, "batch_number"),
		QuantityAllocated: allocated,
		QuantityPicked:    picked,
		QuantityShipped:   shipped,
		Status:            entities.AllocationStatus(asString(rec, "status")),
	}, nil
}
