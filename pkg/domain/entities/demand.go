package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DemandStatus is the coarse state of an outbound demand
type DemandStatus string

const (
	DemandNew       DemandStatus = "New"
	DemandAllocated DemandStatus = "Allocated"
	DemandPicked    DemandStatus = "Picked"
	DemandShipped   DemandStatus = "Shipped"
)

// DemandHeader is the coarse status record for an outbound demand.
// Its status gates which engine may act on the demand's lines.
type DemandHeader struct {
	ID          string
	Code        string
	WarehouseID string
	Status      DemandStatus
}

// DemandLine is a single item requirement on a demand
type DemandLine struct {
	ID              string
	DemandHeaderID  string
	ItemID          string
	OrderedQuantity decimal.Decimal
	LineNo          int
}

// NewDemandLine creates a validated DemandLine
func NewDemandLine(id, headerID, itemID string, ordered decimal.Decimal, lineNo int) (*DemandLine, error) {
	if id == "" {
		return nil, fmt.Errorf("demand line id cannot be empty")
	}
	if headerID == "" {
		return nil, fmt.Errorf("demand header id cannot be empty")
	}
	if itemID == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if !ordered.IsPositive() {
		return nil, fmt.Errorf("ordered quantity must be positive, got %s", ordered)
	}

	return &DemandLine{
		ID:              id,
		DemandHeaderID:  headerID,
		ItemID:          itemID,
		OrderedQuantity: ordered,
		LineNo:          lineNo,
	}, nil
}
