package stockflow

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
)

// PickConfirmation reports the physically picked quantity for one allocation
type PickConfirmation struct {
	AllocationID   string
	QuantityPicked decimal.Decimal
}

// PickResult is the aggregate outcome of one confirmation batch
type PickResult struct {
	DemandHeaderID string
	PickedCount    int
	Outcomes       []Outcome
}

// AllOK reports whether every confirmation was processed
func (r *PickResult) AllOK() bool { return allOK(r.Outcomes) }

// PickingEngine confirms physical picks against allocations, relocating the
// backing units to the warehouse staging location. A confirmation claiming
// more than its allocation blocks the whole batch before any write.
type PickingEngine struct {
	allocations repositories.AllocationRepository
	demands     repositories.DemandRepository
	locations   repositories.LocationRepository
	ledger      *Ledger
	classifier  *LocationClassifier
	logger      *zap.Logger
}

// NewPickingEngine creates a picking engine
func NewPickingEngine(
	allocations repositories.AllocationRepository,
	demands repositories.DemandRepository,
	locations repositories.LocationRepository,
	ledger *Ledger,
	classifier *LocationClassifier,
	logger *zap.Logger,
) *PickingEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PickingEngine{
		allocations: allocations,
		demands:     demands,
		locations:   locations,
		ledger:      ledger,
		classifier:  classifier,
		logger:      logger,
	}
}

// ConfirmPicks processes a batch of pick confirmations for one demand. The
// demand must be Allocated. Confirmations are applied sequentially; a failed
// confirmation is reported in its outcome and does not undo the others.
func (e *PickingEngine) ConfirmPicks(ctx context.Context, demandHeaderID string, confirmations []PickConfirmation, actor string) (*PickResult, error) {
	header, err := e.demands.GetHeader(ctx, demandHeaderID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	if header.Status != entities.DemandAllocated {
		return nil, fmt.Errorf("%w: demand %s is %s, picking requires Allocated",
			ErrInvalidStateTransition, demandHeaderID, header.Status)
	}
	if len(confirmations) == 0 {
		return nil, fmt.Errorf("%w: no confirmations supplied", ErrQuantityMismatch)
	}

	allocs, err := e.loadConfirmations(ctx, confirmations)
	if err != nil {
		return nil, err
	}
	staging, err := e.resolveStaging(ctx, header.WarehouseID)
	if err != nil {
		return nil, err
	}

	result := &PickResult{DemandHeaderID: demandHeaderID}
	for i, conf := range confirmations {
		if err := e.confirmOne(ctx, allocs[i], conf, staging, actor); err != nil {
			e.logger.Warn("pick confirmation failed",
				zap.String("allocation_id", conf.AllocationID),
				zap.Error(err))
			result.Outcomes = append(result.Outcomes, Outcome{Ref: conf.AllocationID, Err: err})
			continue
		}
		result.PickedCount++
		result.Outcomes = append(result.Outcomes, Outcome{Ref: conf.AllocationID})
	}

	if err := e.advanceHeader(ctx, header); err != nil {
		e.logger.Warn("failed to advance demand status",
			zap.String("demand_header_id", demandHeaderID),
			zap.Error(err))
	}
	return result, nil
}

// loadConfirmations resolves every allocation up front and rejects the batch
// whole when any confirmation exceeds its allocation
func (e *PickingEngine) loadConfirmations(ctx context.Context, confirmations []PickConfirmation) ([]*entities.Allocation, error) {
	allocs := make([]*entities.Allocation, len(confirmations))
	for i, conf := range confirmations {
		if !conf.QuantityPicked.IsPositive() {
			return nil, fmt.Errorf("%w: confirmation for %s has non-positive quantity %s",
				ErrQuantityMismatch, conf.AllocationID, conf.QuantityPicked)
		}
		alloc, err := e.allocations.Get(ctx, conf.AllocationID)
		if err != nil {
			return nil, classifyStoreErr(err)
		}
		if conf.QuantityPicked.GreaterThan(alloc.QuantityAllocated) {
			return nil, fmt.Errorf("%w: confirmation for %s picks %s of %s allocated",
				ErrQuantityMismatch, conf.AllocationID, conf.QuantityPicked, alloc.QuantityAllocated)
		}
		allocs[i] = alloc
	}
	return allocs, nil
}

func (e *PickingEngine) resolveStaging(ctx context.Context, warehouseID string) (*entities.Location, error) {
	locs, err := e.locations.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	for _, loc := range locs {
		if e.classifier.IsStaging(loc) {
			return loc, nil
		}
	}
	return nil, fmt.Errorf("%w: warehouse %s", ErrNoStagingLocation, warehouseID)
}

// confirmOne marks the allocation picked, flips its backing unit out of the
// available pool and stages it for shipment
func (e *PickingEngine) confirmOne(ctx context.Context, alloc *entities.Allocation, conf PickConfirmation, staging *entities.Location, actor string) error {
	if alloc.Status == entities.AllocationPicked {
		return nil
	}
	if alloc.Status != entities.AllocationAllocated {
		return fmt.Errorf("%w: allocation %s is %s", ErrInvalidStateTransition, alloc.ID, alloc.Status)
	}

	if _, err := e.ledger.ConfirmPick(ctx, alloc.StockUnitID); err != nil {
		return err
	}
	if _, err := e.ledger.Relocate(ctx, alloc.StockUnitID, staging.ID, "", entities.MovementPicking, actor); err != nil {
		return err
	}

	alloc.QuantityPicked = conf.QuantityPicked
	alloc.Status = entities.AllocationPicked
	if _, err := e.allocations.Update(ctx, alloc); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

// advanceHeader flips the demand to Picked once every allocation on every
// line is picked
func (e *PickingEngine) advanceHeader(ctx context.Context, header *entities.DemandHeader) error {
	lines, err := e.demands.FindLinesByHeader(ctx, header.ID)
	if err != nil {
		return classifyStoreErr(err)
	}
	for _, line := range lines {
		allocs, err := e.allocations.FindByDemandLine(ctx, line.ID)
		if err != nil {
			return classifyStoreErr(err)
		}
		if len(allocs) == 0 {
			return nil
		}
		for _, alloc := range allocs {
			if alloc.Status == entities.AllocationAllocated {
				return nil
			}
		}
	}
	header.Status = entities.DemandPicked
	if err := e.demands.UpdateHeader(ctx, header); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}
