package store

import (
	"context"
	"fmt"
	"time"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
	"github.com/quayside/stockflow/pkg/recordstore"
)

// StockUnitRepository persists stock units through the record store
type StockUnitRepository struct {
	store recordstore.Store
}

// NewStockUnitRepository creates a store-backed stock unit repository
func NewStockUnitRepository(store recordstore.Store) *StockUnitRepository {
	return &StockUnitRepository{store: store}
}

// Verify interface compliance
var _ repositories.StockUnitRepository = (*StockUnitRepository)(nil)

// Get loads one stock unit by id
func (r *StockUnitRepository) Get(ctx context.Context, id string) (*entities.StockUnit, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityStockUnits, recordstore.Where(recordstore.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("stock unit %s: %w", id, recordstore.ErrNotFound)
	}
	return decodeStockUnit(recs[0])
}

// FindByItem returns every stock unit of an item, ordered by id
func (r *StockUnitRepository) FindByItem(ctx context.Context, itemID string) ([]*entities.StockUnit, error) {
	return r.find(ctx, recordstore.Query{
		Predicates: []recordstore.Predicate{recordstore.Eq("item_id", itemID)},
		OrderBy:    []recordstore.Order{{Field: "id"}},
	})
}

// FindByItemAndPallet returns the stock units for an item on a pallet
func (r *StockUnitRepository) FindByItemAndPallet(ctx context.Context, itemID, palletID string) ([]*entities.StockUnit, error) {
	return r.find(ctx, recordstore.Query{
		Predicates: []recordstore.Predicate{
			recordstore.Eq("item_id", itemID),
			recordstore.Eq("pallet_id", palletID),
		},
		OrderBy: []recordstore.Order{{Field: "id"}},
	})
}

// FindByItemAndWarehouse returns the stock units for an item in a warehouse
func (r *StockUnitRepository) FindByItemAndWarehouse(ctx context.Context, itemID, warehouseID string) ([]*entities.StockUnit, error) {
	return r.find(ctx, recordstore.Query{
		Predicates: []recordstore.Predicate{
			recordstore.Eq("item_id", itemID),
			recordstore.Eq("warehouse_id", warehouseID),
		},
		OrderBy: []recordstore.Order{{Field: "id"}},
	})
}

func (r *StockUnitRepository) find(ctx context.Context, q recordstore.Query) ([]*entities.StockUnit, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityStockUnits, q)
	if err != nil {
		return nil, err
	}
	units := make([]*entities.StockUnit, 0, len(recs))
	for _, rec := range recs {
		unit, err := decodeStockUnit(rec)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}

// Create inserts a new stock unit at version 1
func (r *StockUnitRepository) Create(ctx context.Context, unit *entities.StockUnit) (*entities.StockUnit, error) {
	unit.Version = 1
	unit.CreatedAt = time.Now().UTC()
	unit.UpdatedAt = unit.CreatedAt
	rec, err := r.store.Create(ctx, recordstore.EntityStockUnits, encodeStockUnit(unit))
	if err != nil {
		return nil, err
	}
	return decodeStockUnit(rec)
}

// Update writes the unit conditionally on the version it was read at.
// Returns recordstore.ErrConflict when another writer got there first.
func (r *StockUnitRepository) Update(ctx context.Context, unit *entities.StockUnit) (*entities.StockUnit, error) {
	readVersion := unit.Version
	unit.Version = readVersion + 1
	unit.UpdatedAt = time.Now().UTC()

	rec, err := r.store.Update(ctx, recordstore.EntityStockUnits, unit.ID,
		encodeStockUnit(unit), recordstore.Eq("version", readVersion))
	if err != nil {
		unit.Version = readVersion
		return nil, err
	}
	return decodeStockUnit(rec)
}

func encodeStockUnit(u *entities.StockUnit) recordstore.Record {
	return recordstore.Record{
		"id":                 u.ID,
		"item_id":            u.ItemID,
		"location_id":        u.LocationID,
		"warehouse_id":       u.WarehouseID,
		"pallet_id":          u.PalletID,
		"batch_number":       u.BatchNumber,
		"manufacturing_date": timeValue(u.ManufacturingDate),
		"expiry_date":        timeValue(u.ExpiryDate),
		"on_hand_quantity":   u.OnHandQuantity,
		"allocated_quantity": u.AllocatedQuantity,
		"available_quantity": u.AvailableQuantity,
		"shipped_quantity":   u.ShippedQuantity,
		"weight_kg":          u.WeightKg,
		"inventory_status":   string(u.Status),
		"version":            u.Version,
		"created_at":         u.CreatedAt,
		"updated_at":         u.UpdatedAt,
	}
}

func decodeStockUnit(rec recordstore.Record) (*entities.StockUnit, error) {
	onHand, err := asDecimal(rec, "on_hand_quantity")
	if err != nil {
		return nil, err
	}
	allocated, err := asDecimal(rec, "allocated_quantity")
	if err != nil {
		return nil, err
	}
	available, err := asDecimal(rec, "available_quantity")
	if err != nil {
		return nil, err
	}
	shipped, err := asDecimal(rec, "shipped_quantity")
	if err != nil {
		return nil, err
	}
	weight, err := asDecimal(rec, "weight_kg")
	if err != nil {
		return nil, err
	}
	mfg, err := asTimePtr(rec, "manufacturing_date")
	if err != nil {
		return nil, err
	}
	expiry, err := asTimePtr(rec, "expiry_date")
	if err != nil {
		return nil, err
	}
	createdAt, err := asTime(rec, "created_at")
	if err != nil {
		return nil, err
	}
	updatedAt, err := asTime(rec, "updated_at")
	if err != nil {
		return nil, err
	}

	return &entities.StockUnit{
		ID:                rec.ID(),
		ItemID:            asString(rec, "item_id"),
		LocationID:        asString(rec, "location_id"),
		WarehouseID:       asString(rec, "warehouse_id"),
		PalletID:          asString(rec, "pallet_id"),
		BatchNumber:       asString(rec, "batch_number"),
		ManufacturingDate: mfg,
		ExpiryDate:        expiry,
		OnHandQuantity:    onHand,
		AllocatedQuantity: allocated,
		AvailableQuantity: available,
		ShippedQuantity:   shipped,
		WeightKg:          weight,
		Status:            entities.InventoryStatus(asString(rec, "inventory_status")),
		Version:           asInt64(rec, "version"),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}, nil
}
