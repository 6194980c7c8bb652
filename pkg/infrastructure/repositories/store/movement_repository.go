package store

import (
	"context"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
	"github.com/quayside/stockflow/pkg/recordstore"
)

// MovementRepository appends movement audit entries through the record store.
// Movements are append-only: there is no update or delete path.
type MovementRepository struct {
	store recordstore.Store
}

// NewMovementRepository creates a store-backed movement repository
func NewMovementRepository(store recordstore.Store) *MovementRepository {
	return &MovementRepository{store: store}
}

// Verify interface compliance
var _ repositories.MovementRepository = (*MovementRepository)(nil)

// Append inserts one audit entry
func (r *MovementRepository) Append(ctx context.Context, rec *entities.MovementRecord) error {
	fields := recordstore.Record{
		"id":               rec.ID,
		"item_id":          rec.ItemID,
		"stock_unit_id":    rec.StockUnitID,
		"from_location_id": nullableString(rec.FromLocationID),
		"to_location_id":   rec.ToLocationID,
		"quantity_moved":   rec.QuantityMoved,
		"movement_type":    string(rec.MovementType),
		"timestamp":        rec.Timestamp,
		"actor":            rec.Actor,
	}
	_, err := r.store.Create(ctx, recordstore.EntityMovements, fields)
	return err
}

// FindByStockUnit returns the audit trail of one stock unit in time order
func (r *MovementRepository) FindByStockUnit(ctx context.Context, stockUnitID string) ([]*entities.MovementRecord, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityMovements, recordstore.Query{
		Predicates: []recordstore.Predicate{recordstore.Eq("stock_unit_id", stockUnitID)},
		OrderBy:    []recordstore.Order{{Field: "timestamp"}},
	})
	if err != nil {
		return nil, err
	}

	out := make([]*entities.MovementRecord, 0, len(recs))
	for _, rec := range recs {
		moved, err := asDecimal(rec, "quantity_moved")
		if err != nil {
			return nil, err
		}
		ts, err := asTime(rec, "timestamp")
		if err != nil {
			return nil, err
		}
		out = append(out, &entities.MovementRecord{
			ID:             rec.ID(),
			ItemID:         asString(rec, "item_id"),
			StockUnitID:    asString(rec, "stock_unit_id"),
			FromLocationID: asString(rec, "from_location_id"),
			ToLocationID:   asString(rec, "to_location_id"),
			QuantityMoved:  moved,
			MovementType:   entities.MovementType(asString(rec, "movement_type")),
			Timestamp:      ts,
			Actor:          asString(rec, "actor"),
		})
	}
	return out, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
