package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InventoryStatus tracks where a stock unit is in its life cycle
type InventoryStatus string

const (
	StatusReceived  InventoryStatus = "received"
	StatusPutaway   InventoryStatus = "putaway"
	StatusAllocated InventoryStatus = "allocated"
	StatusPicked    InventoryStatus = "picked"
	StatusShipped   InventoryStatus = "shipped"
)

// StockUnit is a physically distinguishable lot of one item at one location.
// Quantities are reconciled by the quantity ledger; Available is derived and
// must never be written directly by callers.
type StockUnit struct {
	ID                string
	ItemID            string
	LocationID        string
	WarehouseID       string
	PalletID          string // empty = no pallet grouping
	BatchNumber       string
	ManufacturingDate *time.Time
	ExpiryDate        *time.Time
	OnHandQuantity    decimal.Decimal
	AllocatedQuantity decimal.Decimal
	AvailableQuantity decimal.Decimal
	ShippedQuantity   decimal.Decimal
	WeightKg          decimal.Decimal
	Status            InventoryStatus
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewStockUnit creates a validated StockUnit
func NewStockUnit(id, itemID, locationID, warehouseID string, onHand decimal.Decimal, status InventoryStatus) (*StockUnit, error) {
	if id == "" {
		return nil, fmt.Errorf("stock unit id cannot be empty")
	}
	if itemID == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if locationID == "" {
		return nil, fmt.Errorf("location id cannot be empty")
	}
	if onHand.IsNegative() {
		return nil, fmt.Errorf("on-hand quantity cannot be negative, got %s", onHand)
	}

	now := time.Now().UTC()
	return &StockUnit{
		ID:             id,
		ItemID:         itemID,
		LocationID:     locationID,
		WarehouseID:    warehouseID,
		OnHandQuantity: onHand,
		Status:         status,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CheckQuantities verifies the hard quantity invariants:
// on_hand >= 0 and allocated <= on_hand.
func (u *StockUnit) CheckQuantities() error {
	if u.OnHandQuantity.IsNegative() {
		return fmt.Errorf("on-hand quantity is negative: %s", u.OnHandQuantity)
	}
	if u.AllocatedQuantity.IsNegative() {
		return fmt.Errorf("allocated quantity is negative: %s", u.AllocatedQuantity)
	}
	if u.AllocatedQuantity.GreaterThan(u.OnHandQuantity) {
		return fmt.Errorf("allocated quantity %s exceeds on-hand %s", u.AllocatedQuantity, u.OnHandQuantity)
	}
	return nil
}

// RecomputeAvailable derives the available quantity. A unit contributes to
// the available pool only while it is put away at an allocatable location;
// otherwise its availability is zero regardless of on-hand.
func (u *StockUnit) RecomputeAvailable(eligible bool) {
	if !eligible || u.Status != StatusPutaway {
		u.AvailableQuantity = decimal.Zero
		return
	}
	avail := u.OnHandQuantity.Sub(u.AllocatedQuantity)
	if avail.IsNegative() {
		avail = decimal.Zero
	}
	u.AvailableQuantity = avail
}
