package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType categorizes a physical stock movement
type MovementType string

const (
	MovementPutaway    MovementType = "putaway"
	MovementPicking    MovementType = "picking"
	MovementShipment   MovementType = "shipment"
	MovementTransfer   MovementType = "transfer"
	MovementAdjustment MovementType = "adjustment"
)

// MovementRecord is an append-only audit entry for a physical relocation.
// FromLocationID is empty when the movement is a creation.
type MovementRecord struct {
	ID             string
	ItemID         string
	StockUnitID    string
	FromLocationID string
	ToLocationID   string
	QuantityMoved  decimal.Decimal
	MovementType   MovementType
	Timestamp      time.Time
	Actor          string
}

// NewMovementRecord creates a validated MovementRecord
func NewMovementRecord(id, itemID, stockUnitID, fromLocationID, toLocationID string, quantity decimal.Decimal, movementType MovementType, timestamp time.Time, actor string) (*MovementRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("movement id cannot be empty")
	}
	if itemID == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if toLocationID == "" {
		return nil, fmt.Errorf("to location cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("moved quantity cannot be negative, got %s", quantity)
	}
	if actor == "" {
		actor = "system"
	}

	return &MovementRecord{
		ID:             id,
		ItemID:         itemID,
		StockUnitID:    stockUnitID,
		FromLocationID: fromLocationID,
		ToLocationID:   toLocationID,
		QuantityMoved:  quantity,
		MovementType:   movementType,
		Timestamp:      timestamp,
		Actor:          actor,
	}, nil
}
