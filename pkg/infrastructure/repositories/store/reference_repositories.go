package store

import (
	"context"
	"fmt"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
	"github.com/quayside/stockflow/pkg/recordstore"
)

// ItemRepository reads the item master through the record store
type ItemRepository struct {
	store recordstore.Store
}

// NewItemRepository creates a store-backed item repository
func NewItemRepository(store recordstore.Store) *ItemRepository {
	return &ItemRepository{store: store}
}

// Verify interface compliance
var _ repositories.ItemRepository = (*ItemRepository)(nil)

// Get loads one item by id
func (r *ItemRepository) Get(ctx context.Context, id string) (*entities.Item, error) {
	return r.one(ctx, recordstore.Eq("id", id), "item "+id)
}

// GetByCode loads one item by its code
func (r *ItemRepository) GetByCode(ctx context.Context, code string) (*entities.Item, error) {
	return r.one(ctx, recordstore.Eq("code", code), "item code "+code)
}

func (r *ItemRepository) one(ctx context.Context, pred recordstore.Predicate, what string) (*entities.Item, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityItems, recordstore.Where(pred))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s: %w", what, recordstore.ErrNotFound)
	}
	rec := recs[0]
	return &entities.Item{
		ID:            rec.ID(),
		Code:          asString(rec, "code"),
		Description:   asString(rec, "description"),
		UnitOfMeasure: asString(rec, "unit_of_measure"),
	}, nil
}

// LocationRepository reads warehouse locations through the record store
type LocationRepository struct {
	store recordstore.Store
}

// NewLocationRepository creates a store-backed location repository
func NewLocationRepository(store recordstore.Store) *LocationRepository {
	return &LocationRepository{store: store}
}

// Verify interface compliance
var _ repositories.LocationRepository = (*LocationRepository)(nil)

// Get loads one location by id
func (r *LocationRepository) Get(ctx context.Context, id string) (*entities.Location, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityLocations, recordstore.Where(recordstore.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("location %s: %w", id, recordstore.ErrNotFound)
	}
	return decodeLocation(recs[0]), nil
}

// FindByWarehouse returns a warehouse's locations ordered by code
func (r *LocationRepository) FindByWarehouse(ctx context.Context, warehouseID string) ([]*entities.Location, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityLocations, recordstore.Query{
		Predicates: []recordstore.Predicate{recordstore.Eq("warehouse_id", warehouseID)},
		OrderBy:    []recordstore.Order{{Field: "code"}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Location, 0, len(recs))
	for _, rec := range recs {
		out = append(out, decodeLocation(rec))
	}
	return out, nil
}

func decodeLocation(rec recordstore.Record) *entities.Location {
	return &entities.Location{
		ID:          rec.ID(),
		WarehouseID: asString(rec, "warehouse_id"),
		Code:        asString(rec, "code"),
		Name:        asString(rec, "name"),
		Class:       entities.LocationClass(asString(rec, "class")),
	}
}

// ReceiptRepository reads and updates receipt headers and lines
type ReceiptRepository struct {
	store recordstore.Store
}

// NewReceiptRepository creates a store-backed receipt repository
func NewReceiptRepository(store recordstore.Store) *ReceiptRepository {
	return &ReceiptRepository{store: store}
}

// Verify interface compliance
var _ repositories.ReceiptRepository = (*ReceiptRepository)(nil)

// GetHeader loads one receipt header by id
func (r *ReceiptRepository) GetHeader(ctx context.Context, id string) (*entities.ReceiptHeader, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityReceiptHeaders, recordstore.Where(recordstore.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("receipt header %s: %w", id, recordstore.ErrNotFound)
	}
	rec := recs[0]
	return &entities.ReceiptHeader{
		ID:          rec.ID(),
		Code:        asString(rec, "code"),
		WarehouseID: asString(rec, "warehouse_id"),
		Status:      entities.ReceiptStatus(asString(rec, "status")),
	}, nil
}

// UpdateHeader writes the header status back
func (r *ReceiptRepository) UpdateHeader(ctx context.Context, header *entities.ReceiptHeader) error {
	_, err := r.store.Update(ctx, recordstore.EntityReceiptHeaders, header.ID, recordstore.Record{
		"status": string(header.Status),
	})
	return err
}

// GetLine loads one receipt line by id
func (r *ReceiptRepository) GetLine(ctx context.Context, id string) (*entities.ReceiptLine, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityReceiptLines, recordstore.Where(recordstore.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("receipt line %s: %w", id, recordstore.ErrNotFound)
	}
	return decodeReceiptLine(recs[0])
}

// UpdateLine writes a line's putaway marker back. Received quantities are
// immutable; only the progress flag changes after receipt.
func (r *ReceiptRepository) UpdateLine(ctx context.Context, line *entities.ReceiptLine) error {
	_, err := r.store.Update(ctx, recordstore.EntityReceiptLines, line.ID, recordstore.Record{
		"put_away": line.PutAway,
	})
	return err
}

// FindLinesByHeader returns a header's lines
func (r *ReceiptRepository) FindLinesByHeader(ctx context.Context, headerID string) ([]*entities.ReceiptLine, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityReceiptLines, recordstore.Query{
		Predicates: []recordstore.Predicate{recordstore.Eq("receipt_header_id", headerID)},
		OrderBy:    []recordstore.Order{{Field: "id"}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]*entities.ReceiptLine, 0, len(recs))
	for _, rec := range recs {
		line, err := decodeReceiptLine(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func decodeReceiptLine(rec recordstore.Record) (*entities.ReceiptLine, error) {
	expected, err := asDecimal(rec, "expected_quantity")
	if err != nil {
		return nil, err
	}
	received, err := asDecimal(rec, "received_quantity")
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

	return &entities.ReceiptLine{
		ID:                rec.ID(),
		ReceiptHeaderID:   asString(rec, "receipt_header_id"),
		ItemID:            asString(rec, "item_id"),
		ItemCode:          asString(rec, "item_code"),
		ExpectedQuantity:  expected,
		ReceivedQuantity:  received,
		BatchNumber:       asString(rec, "batch_number"),
		ManufacturingDate: mfg,
		ExpiryDate:        expiry,
		WeightKg:          weight,
		PutAway:           asBool(rec, "put_away"),
	}, nil
}

// DemandRepository reads and updates demand headers and lines
type DemandRepository struct {
	store recordstore.Store
}

// NewDemandRepository creates a store-backed demand repository
func NewDemandRepository(store recordstore.Store) *DemandRepository {
	return &DemandRepository{store: store}
}

// Verify interface compliance
var _ repositories.DemandRepository = (*DemandRepository)(nil)

// GetHeader loads one demand header by id
func (r *DemandRepository) GetHeader(ctx context.Context, id string) (*entities.DemandHeader, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityDemandHeaders, recordstore.Where(recordstore.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("demand header %s: %w", id, recordstore.ErrNotFound)
	}
	rec := recs[0]
	return &entities.DemandHeader{
		ID:          rec.ID(),
		Code:        asString(rec, "code"),
		WarehouseID: asString(rec, "warehouse_id"),
		Status:      entities.DemandStatus(asString(rec, "status")),
	}, nil
}

// UpdateHeader writes the header status back
func (r *DemandRepository) UpdateHeader(ctx context.Context, header *entities.DemandHeader) error {
	_, err := r.store.Update(ctx, recordstore.EntityDemandHeaders, header.ID, recordstore.Record{
		"status": string(header.Status),
	})
	return err
}

// GetLine loads one demand line by id
func (r *DemandRepository) GetLine(ctx context.Context, id string) (*entities.DemandLine, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityDemandLines, recordstore.Where(recordstore.Eq("id", id)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("demand line %s: %w", id, recordstore.ErrNotFound)
	}
	return decodeDemandLine(recs[0])
}

// FindLinesByHeader returns a header's lines in line number order
func (r *DemandRepository) FindLinesByHeader(ctx context.Context, headerID string) ([]*entities.DemandLine, error) {
	recs, err := r.store.Find(ctx, recordstore.EntityDemandLines, recordstore.Query{
		Predicates: []recordstore.Predicate{recordstore.Eq("demand_header_id", headerID)},
		OrderBy:    []recordstore.Order{{Field: "line_no"}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]*entities.DemandLine, 0, len(recs))
	for _, rec := range recs {
		line, err := decodeDemandLine(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func decodeDemandLine(rec recordstore.Record) (*entities.DemandLine, error) {
	ordered, err := asDecimal(rec, "ordered_quantity")
	if err != nil {
		return nil, err
	}
	return &entities.DemandLine{
		ID:              rec.ID(),
		DemandHeaderID:  asString(rec, "demand_header_id"),
		ItemID:          asString(rec, "item_id"),
		OrderedQuantity: ordered,
		LineNo:          int(asInt64(rec, "line_no")),
	}, nil
}
