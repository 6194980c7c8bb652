package entities

import "fmt"

// LocationClass classifies what a warehouse location is used for.
// Storage locations hold allocatable stock; staging and disposition
// locations are excluded from the available pool.
type LocationClass string

const (
	ClassUnknown     LocationClass = ""
	ClassStorage     LocationClass = "storage"
	ClassStaging     LocationClass = "staging"
	ClassDisposition LocationClass = "disposition"
	ClassDock        LocationClass = "dock"
)

// Location represents a physical warehouse location
type Location struct {
	ID          string
	WarehouseID string
	Code        string
	Name        string
	Class       LocationClass
}

// NewLocation creates a validated Location
func NewLocation(id, warehouseID, code, name string, class LocationClass) (*Location, error) {
	if id == "" {
		return nil, fmt.Errorf("location id cannot be empty")
	}
	if warehouseID == "" {
		return nil, fmt.Errorf("warehouse id cannot be empty")
	}
	if code == "" {
		return nil, fmt.Errorf("location code cannot be empty")
	}

	return &Location{
		ID:          id,
		WarehouseID: warehouseID,
		Code:        code,
		Name:        name,
		Class:       class,
	}, nil
}
