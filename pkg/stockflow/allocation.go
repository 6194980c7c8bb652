package stockflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
)

// AllocationResult reports the outcome of one allocation call. Shortage is
// the requested quantity left uncovered after the walk; it is a fact, not
// a failure.
type AllocationResult struct {
	DemandLineID      string
	RequestedQuantity decimal.Decimal
	AllocatedQuantity decimal.Decimal
	Shortage          decimal.Decimal
	Outcomes          []Outcome
}

// AllocationEngine reserves available stock against demand lines. Candidate
// units are walked in FEFO order: earliest expiry first with null expiries
// last, then earliest manufacturing date, then unit id for determinism.
type AllocationEngine struct {
	units       repositories.StockUnitRepository
	allocations repositories.AllocationRepository
	demands     repositories.DemandRepository
	ledger      *Ledger
	logger      *zap.Logger
}

// NewAllocationEngine creates an allocation engine
func NewAllocationEngine(
	units repositories.StockUnitRepository,
	allocations repositories.AllocationRepository,
	demands repositories.DemandRepository,
	ledger *Ledger,
	logger *zap.Logger,
) *AllocationEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationEngine{
		units:       units,
		allocations: allocations,
		demands:     demands,
		ledger:      ledger,
		logger:      logger,
	}
}

// Allocate covers a demand line's requested quantity from available stock.
// The requested quantity is the line's total demand: re-running the call
// against an already covered line reserves nothing and reports the overlap
// as shortage zero, so allocation never double-books a unit.
func (e *AllocationEngine) Allocate(ctx context.Context, demandLineID string, requested decimal.Decimal, actor string) (*AllocationResult, error) {
	if !requested.IsPositive() {
		return nil, fmt.Errorf("%w: requested quantity %s must be positive", ErrQuantityMismatch, requested)
	}

	line, err := e.demands.GetLine(ctx, demandLineID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	header, err := e.demands.GetHeader(ctx, line.DemandHeaderID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	if header.Status != entities.DemandNew && header.Status != entities.DemandAllocated {
		return nil, fmt.Errorf("%w: demand %s is %s, cannot allocate", ErrInvalidStateTransition, header.ID, header.Status)
	}

	existing, err := e.allocations.FindByDemandLine(ctx, demandLineID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	remaining := requested
	for _, alloc := range existing {
		remaining = remaining.Sub(alloc.QuantityAllocated)
	}

	result := &AllocationResult{
		DemandLineID:      demandLineID,
		RequestedQuantity: requested,
		AllocatedQuantity: decimal.Zero,
	}
	if !remaining.IsPositive() {
		result.Shortage = decimal.Zero
		return result, nil
	}

	candidates, err := e.candidates(ctx, line.ItemID, header.WarehouseID)
	if err != nil {
		return nil, err
	}

	for _, unit := range candidates {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, unit.AvailableQuantity)
		if !take.IsPositive() {
			continue
		}

		reserved, err := e.ledger.Reserve(ctx, unit.ID, take)
		if err != nil {
			e.logger.Warn("reservation failed",
				zap.String("demand_line_id", demandLineID),
				zap.String("stock_unit_id", unit.ID),
				zap.Error(err))
			result.Outcomes = append(result.Outcomes, Outcome{Ref: unit.ID, Err: err})
			continue
		}
		if err := e.upsertAllocation(ctx, line, existing, reserved, take); err != nil {
			result.Outcomes = append(result.Outcomes, Outcome{Ref: unit.ID, Err: err})
			continue
		}
		remaining = remaining.Sub(take)
		result.AllocatedQuantity = result.AllocatedQuantity.Add(take)
		result.Outcomes = append(result.Outcomes, Outcome{Ref: unit.ID})
	}
	result.Shortage = remaining

	if err := e.advanceHeader(ctx, header); err != nil {
		e.logger.Warn("failed to advance demand status",
			zap.String("demand_header_id", header.ID),
			zap.Error(err))
	}
	return result, nil
}

// candidates returns the item's allocatable units in FEFO order. Eligibility
// is re-checked against the current location classification, not just the
// stored availability, so an override added since the unit's last write
// takes effect immediately.
func (e *AllocationEngine) candidates(ctx context.Context, itemID, warehouseID string) ([]*entities.StockUnit, error) {
	units, err := e.units.FindByItemAndWarehouse(ctx, itemID, warehouseID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	candidates := units[:0]
	for _, u := range units {
		if !u.AvailableQuantity.IsPositive() {
			continue
		}
		eligible, err := e.ledger.Eligible(ctx, u)
		if err != nil {
			return nil, err
		}
		if eligible {
			candidates = append(candidates, u)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if c := compareDatesNullsLast(candidates[i].ExpiryDate, candidates[j].ExpiryDate); c != 0 {
			return c < 0
		}
		if c := compareDatesNullsLast(candidates[i].ManufacturingDate, candidates[j].ManufacturingDate); c != 0 {
			return c < 0
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates, nil
}

// upsertAllocation extends the line's allocation against the same unit when
// one exists, otherwise creates a fresh one
func (e *AllocationEngine) upsertAllocation(ctx context.Context, line *entities.DemandLine, existing []*entities.Allocation, unit *entities.StockUnit, qty decimal.Decimal) error {
	for _, alloc := range existing {
		if alloc.StockUnitID == unit.ID && alloc.Status == entities.AllocationAllocated {
			alloc.QuantityAllocated = alloc.QuantityAllocated.Add(qty)
			if _, err := e.allocations.Update(ctx, alloc); err != nil {
				return classifyStoreErr(err)
			}
			return nil
		}
	}

	alloc, err := entities.NewAllocation(uuid.NewString(), line.ID, unit.ID, unit.ItemID, unit.LocationID, qty)
	if err != nil {
		return err
	}
	alloc.PalletID = unit.PalletID
	alloc.BatchNumber = unit.BatchNumber
	if _, err := e.allocations.Create(ctx, alloc); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

// advanceHeader flips the demand to Allocated once every line is fully
// covered by surviving allocations
func (e *AllocationEngine) advanceHeader(ctx context.Context, header *entities.DemandHeader) error {
	lines, err := e.demands.FindLinesByHeader(ctx, header.ID)
	if err != nil {
		return classifyStoreErr(err)
	}
	for _, line := range lines {
		allocs, err := e.allocations.FindByDemandLine(ctx, line.ID)
		if err != nil {
			return classifyStoreErr(err)
		}
		covered := decimal.Zero
		for _, alloc := range allocs {
			covered = covered.Add(alloc.QuantityAllocated)
		}
		if covered.LessThan(line.OrderedQuantity) {
			return nil
		}
	}
	if header.Status == entities.DemandAllocated {
		return nil
	}
	header.Status = entities.DemandAllocated
	if err := e.demands.UpdateHeader(ctx, header); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

// compareDatesNullsLast orders timestamps ascending with nil after any value
func compareDatesNullsLast(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	default:
		return 0
	}
}
