package repositories

import (
	"context"

	"github.com/quayside/stockflow/pkg/domain/entities"
)

// StockUnitRepository provides access to stock unit records. Update is a
// conditional write on the version the unit was read at and bumps the
// version on success.
type StockUnitRepository interface {
	Get(ctx context.Context, id string) (*entities.StockUnit, error)
	FindByItem(ctx context.Context, itemID string) ([]*entities.StockUnit, error)
	FindByItemAndPallet(ctx context.Context, itemID, palletID string) ([]*entities.StockUnit, error)
	FindByItemAndWarehouse(ctx context.Context, itemID, warehouseID string) ([]*entities.StockUnit, error)
	Create(ctx context.Context, unit *entities.StockUnit) (*entities.StockUnit, error)
	Update(ctx context.Context, unit *entities.StockUnit) (*entities.StockUnit, error)
}
