package stockflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
)

// ItemDeduction summarizes what shipped for one item of the demand
type ItemDeduction struct {
	ItemID   string
	Ordered  decimal.Decimal
	Shipped  decimal.Decimal
	Shortage decimal.Decimal
}

// ShipmentResult is the aggregate outcome of one shipment call
type ShipmentResult struct {
	DemandHeaderID string
	Deductions     []ItemDeduction
	Outcomes       []Outcome
}

// AllOK reports whether every deduction was processed
func (r *ShipmentResult) AllOK() bool { return allOK(r.Outcomes) }

// ShipmentEngine consumes picked stock: per item of the demand it walks the
// units backing the demand's allocations in unit id order and deducts until
// the ordered quantity is covered or the pool runs dry. Shortage never aborts
// the walk, but it counts as a failed outcome for that item, so a short
// demand stays Picked and can be shipped again once stock arrives.
type ShipmentEngine struct {
	units       repositories.StockUnitRepository
	allocations repositories.AllocationRepository
	demands     repositories.DemandRepository
	ledger      *Ledger
	logger      *zap.Logger
}

// NewShipmentEngine creates a shipment engine
func NewShipmentEngine(
	units repositories.StockUnitRepository,
	allocations repositories.AllocationRepository,
	demands repositories.DemandRepository,
	ledger *Ledger,
	logger *zap.Logger,
) *ShipmentEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentEngine{
		units:       units,
		allocations: allocations,
		demands:     demands,
		ledger:      ledger,
		logger:      logger,
	}
}

// Ship deducts the demand's picked stock. The demand must be Picked; an
// Allocated demand is rejected with guidance to confirm picks first. The
// header advances to Shipped only when at least one deduction succeeded and
// none failed.
func (e *ShipmentEngine) Ship(ctx context.Context, demandHeaderID string, actor string) (*ShipmentResult, error) {
	header, err := e.demands.GetHeader(ctx, demandHeaderID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	switch header.Status {
	case entities.DemandPicked:
	case entities.DemandAllocated:
		return nil, fmt.Errorf("%w: demand %s has unconfirmed picks, confirm picks first",
			ErrInvalidStateTransition, demandHeaderID)
	default:
		return nil, fmt.Errorf("%w: demand %s is %s, shipment requires Picked",
			ErrInvalidStateTransition, demandHeaderID, header.Status)
	}

	lines, err := e.demands.FindLinesByHeader(ctx, demandHeaderID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}

	ordered := make(map[string]decimal.Decimal)
	allocsByItem := make(map[string][]*entities.Allocation)
	for _, line := range lines {
		ordered[line.ItemID] = ordered[line.ItemID].Add(line.OrderedQuantity)
		allocs, err := e.allocations.FindByDemandLine(ctx, line.ID)
		if err != nil {
			return nil, classifyStoreErr(err)
		}
		allocsByItem[line.ItemID] = append(allocsByItem[line.ItemID], allocs...)
	}

	itemIDs := make([]string, 0, len(ordered))
	for itemID := range ordered {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Strings(itemIDs)

	result := &ShipmentResult{DemandHeaderID: demandHeaderID}
	for _, itemID := range itemIDs {
		deduction := e.shipItem(ctx, itemID, ordered[itemID], allocsByItem[itemID], result)
		result.Deductions = append(result.Deductions, deduction)
		if deduction.Shortage.IsPositive() {
			result.Outcomes = append(result.Outcomes, Outcome{
				Ref: itemID,
				Err: fmt.Errorf("%w: item %s short %s of ordered %s",
					ErrInsufficientQuantity, itemID, deduction.Shortage, deduction.Ordered),
			})
		}
	}

	if result.AllOK() && countOK(result.Outcomes) > 0 {
		header.Status = entities.DemandShipped
		if err := e.demands.UpdateHeader(ctx, header); err != nil {
			e.logger.Warn("failed to advance demand status",
				zap.String("demand_header_id", demandHeaderID),
				zap.Error(err))
		}
	}
	return result, nil
}

// shipItem walks one item's allocations in stock unit id order, deducting
// min(remaining, on-hand) per unit until the ordered quantity is covered
func (e *ShipmentEngine) shipItem(ctx context.Context, itemID string, orderedQty decimal.Decimal, allocs []*entities.Allocation, result *ShipmentResult) ItemDeduction {
	sort.SliceStable(allocs, func(i, j int) bool {
		if allocs[i].StockUnitID != allocs[j].StockUnitID {
			return allocs[i].StockUnitID < allocs[j].StockUnitID
		}
		return allocs[i].ID < allocs[j].ID
	})

	deduction := ItemDeduction{ItemID: itemID, Ordered: orderedQty, Shipped: decimal.Zero}
	remaining := orderedQty
	for _, alloc := range allocs {
		if !remaining.IsPositive() {
			break
		}
		if alloc.Status == entities.AllocationShipped {
			remaining = remaining.Sub(alloc.QuantityShipped)
			continue
		}

		shipped, err := e.deductAllocation(ctx, alloc, remaining)
		if err != nil {
			e.logger.Warn("shipment deduction failed",
				zap.String("allocation_id", alloc.ID),
				zap.String("stock_unit_id", alloc.StockUnitID),
				zap.Error(err))
			result.Outcomes = append(result.Outcomes, Outcome{Ref: alloc.StockUnitID, Err: err})
			continue
		}
		remaining = remaining.Sub(shipped)
		deduction.Shipped = deduction.Shipped.Add(shipped)
		result.Outcomes = append(result.Outcomes, Outcome{Ref: alloc.StockUnitID})
	}
	if remaining.IsPositive() {
		deduction.Shortage = remaining
	} else {
		deduction.Shortage = decimal.Zero
	}
	return deduction
}

// deductAllocation ships one allocation's portion and marks it shipped
func (e *ShipmentEngine) deductAllocation(ctx context.Context, alloc *entities.Allocation, remaining decimal.Decimal) (decimal.Decimal, error) {
	unit, err := e.units.Get(ctx, alloc.StockUnitID)
	if err != nil {
		return decimal.Zero, classifyStoreErr(err)
	}
	take := decimal.Min(remaining, unit.OnHandQuantity)
	if !take.IsPositive() {
		return decimal.Zero, nil
	}

	if _, err := e.ledger.ShipDeduct(ctx, unit.ID, take); err != nil {
		return decimal.Zero, err
	}

	alloc.QuantityShipped = take
	alloc.Status = entities.AllocationShipped
	if _, err := e.allocations.Update(ctx, alloc); err != nil {
		return decimal.Zero, classifyStoreErr(err)
	}
	return take, nil
}
