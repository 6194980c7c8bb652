package entities

import "fmt"

// Item represents an article in the item master
type Item struct {
	ID            string
	Code          string
	Description   string
	UnitOfMeasure string
}

// NewItem creates a validated Item
func NewItem(id, code, description, unitOfMeasure string) (*Item, error) {
	if id == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if code == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}
	if unitOfMeasure == "" {
		unitOfMeasure = "EA"
	}

	return &Item{
		ID:            id,
		Code:          code,
		Description:   description,
		UnitOfMeasure: unitOfMeasure,
	}, nil
}
