package repositories

import (
	"context"

	"github.com/quayside/stockflow/pkg/domain/entities"
)

// AllocationRepository provides access to allocation records
type AllocationRepository interface {
	Get(ctx context.Context, id string) (*entities.Allocation, error)
	FindByDemandLine(ctx context.Context, demandLineID string) ([]*entities.Allocation, error)
	Create(ctx context.Context, alloc *entities.Allocation) (*entities.Allocation, error)
	Update(ctx context.Context, alloc *entities.Allocation) (*entities.Allocation, error)
}
