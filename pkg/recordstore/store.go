// Package recordstore defines the boundary to the external entity store:
// filtered reads, inserts, conditional updates and deletes over generic
// records. Adapters implement Store; typed repositories are layered on top.
package recordstore

import "context"

// EntityType names an entity collection in the external store
type EntityType string

const (
	EntityItems          EntityType = "items"
	EntityLocations      EntityType = "locations"
	EntityStockUnits     EntityType = "stock_units"
	EntityAllocations    EntityType = "allocations"
	EntityMovements      EntityType = "movements"
	EntityReceiptHeaders EntityType = "receipt_headers"
	EntityReceiptLines   EntityType = "receipt_lines"
	EntityDemandHeaders  EntityType = "demand_headers"
	EntityDemandLines    EntityType = "demand_lines"
)

// Record is a generic field map for one stored entity. Every record carries
// an "id" field assigned by the store on create.
type Record map[string]any

// ID returns the record's identifier, or an empty string
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Store is the generic entity store the core consumes. Implementations must
// treat Update guards as a conditional write and fail with ErrConflict when
// the guard no longer holds.
type Store interface {
	Find(ctx context.Context, entity EntityType, query Query) ([]Record, error)
	Create(ctx context.Context, entity EntityType, fields Record) (Record, error)
	Update(ctx context.Context, entity EntityType, id string, fields Record, guards ...Predicate) (Record, error)
	Delete(ctx context.Context, entity EntityType, query Query) error
}
