package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptStatus is the coarse state of an inbound receipt
type ReceiptStatus string

const (
	ReceiptNew      ReceiptStatus = "New"
	ReceiptReceived ReceiptStatus = "Received"
	ReceiptPutAway  ReceiptStatus = "PutAway"
	ReceiptComplete ReceiptStatus = "Complete"
)

// ReceiptHeader is the coarse status record for an inbound notice
type ReceiptHeader struct {
	ID          string
	Code        string
	WarehouseID string
	Status      ReceiptStatus
}

// ReceiptLine is one expected/received line from an inbound notice.
// Immutable once received; the source of truth for putaway splits.
type ReceiptLine struct {
	ID                string
	ReceiptHeaderID   string
	ItemID            string // may be empty; resolved via ItemCode
	ItemCode          string
	ExpectedQuantity  decimal.Decimal
	ReceivedQuantity  decimal.Decimal
	BatchNumber       string
	ManufacturingDate *time.Time
	ExpiryDate        *time.Time
	WeightKg          decimal.Decimal
	PutAway           bool
}

// NewReceiptLine creates a validated ReceiptLine
func NewReceiptLine(id, headerID, itemCode string, expected, received decimal.Decimal) (*ReceiptLine, error) {
	if id == "" {
		return nil, fmt.Errorf("receipt line id cannot be empty")
	}
	if headerID == "" {
		return nil, fmt.Errorf("receipt header id cannot be empty")
	}
	if itemCode == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}
	if received.IsNegative() {
		return nil, fmt.Errorf("received quantity cannot be negative, got %s", received)
	}

	return &ReceiptLine{
		ID:               id,
		ReceiptHeaderID:  headerID,
		ItemCode:         itemCode,
		ExpectedQuantity: expected,
		ReceivedQuantity: received,
	}, nil
}
