package repositories

import (
	"context"

	"github.com/quayside/stockflow/pkg/domain/entities"
)

// MovementRepository appends to the immutable movement audit trail
type MovementRepository interface {
	Append(ctx context.Context, rec *entities.MovementRecord) error
	FindByStockUnit(ctx context.Context, stockUnitID string) ([]*entities.MovementRecord, error)
}
