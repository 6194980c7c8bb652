package repositories

import (
	"context"

	"github.com/quayside/stockflow/pkg/domain/entities"
)

// ItemRepository provides access to the item master
type ItemRepository interface {
	Get(ctx context.Context, id string) (*entities.Item, error)
	GetByCode(ctx context.Context, code string) (*entities.Item, error)
}

// LocationRepository provides access to warehouse locations
type LocationRepository interface {
	Get(ctx context.Context, id string) (*entities.Location, error)
	FindByWarehouse(ctx context.Context, warehouseID string) ([]*entities.Location, error)
}

// ReceiptRepository provides access to inbound receipt headers and lines
type ReceiptRepository interface {
	GetHeader(ctx context.Context, id string) (*entities.ReceiptHeader, error)
	UpdateHeader(ctx context.Context, header *entities.ReceiptHeader) error
	GetLine(ctx context.Context, id string) (*entities.ReceiptLine, error)
	UpdateLine(ctx context.Context, line *entities.ReceiptLine) error
	FindLinesByHeader(ctx context.Context, headerID string) ([]*entities.ReceiptLine, error)
}

// DemandRepository provides access to outbound demand headers and lines
type DemandRepository interface {
	GetHeader(ctx context.Context, id string) (*entities.DemandHeader, error)
	UpdateHeader(ctx context.Context, header *entities.DemandHeader) error
	GetLine(ctx context.Context, id string) (*entities.DemandLine, error)
	FindLinesByHeader(ctx context.Context, headerID string) ([]*entities.DemandLine, error)
}
