package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AllocationStatus tracks how far a reservation has progressed
type AllocationStatus string

const (
	AllocationAllocated AllocationStatus = "allocated"
	AllocationPicked    AllocationStatus = "picked"
	AllocationShipped   AllocationStatus = "shipped"
)

// Allocation is a reservation linking a demand line to exactly one stock
// unit. One stock unit may back multiple allocations.
type Allocation struct {
	ID                string
	DemandLineID      string
	StockUnitID       string
	ItemID            string
	LocationID        string
	PalletID          string
	BatchNumber       string
	QuantityAllocated decimal.Decimal
	QuantityPicked    decimal.Decimal
	QuantityShipped   decimal.Decimal
	Status            AllocationStatus
}

// NewAllocation creates a validated Allocation
func NewAllocation(id, demandLineID, stockUnitID, itemID, locationID string, allocated decimal.Decimal) (*Allocation, error) {
	if id == "" {
		return nil, fmt.Errorf("allocation id cannot be empty")
	}
	if demandLineID == "" {
		return nil, fmt.Errorf("demand line id cannot be empty")
	}
	if stockUnitID == "" {
		return nil, fmt.Errorf("stock unit id cannot be empty")
	}
	if !allocated.IsPositive() {
		return nil, fmt.Errorf("allocated quantity must be positive, got %s", allocated)
	}

	return &Allocation{
		ID:                id,
		DemandLineID:      demandLineID,
		StockUnitID:       stockUnitID,
		ItemID:            itemID,
		LocationID:        locationID,
		QuantityAllocated: allocated,
		Status:            AllocationAllocated,
	}, nil
}
