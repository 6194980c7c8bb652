package stockflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
	"github.com/quayside/stockflow/pkg/recordstore"
)

// defaultWriteRetries bounds the version-conflict retry loop
const defaultWriteRetries = 3

// Ledger owns the quantity arithmetic of a stock unit: every reserve,
// release, pick, deduction and relocation goes through here so the derived
// available quantity and the hard invariants hold after each write.
//
// There is no transaction spanning the engines' multi-step sequences; each
// write is conditional on the version the unit was read at and retried on
// conflict.
type Ledger struct {
	units      repositories.StockUnitRepository
	locations  repositories.LocationRepository
	classifier *LocationClassifier
	recorder   *Recorder
	logger     *zap.Logger
	retries    int
}

// NewLedger creates a quantity ledger
func NewLedger(units repositories.StockUnitRepository, locations repositories.LocationRepository, classifier *LocationClassifier, recorder *Recorder, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		units:      units,
		locations:  locations,
		classifier: classifier,
		retries:    defaultWriteRetries,
		recorder:   recorder,
		logger:     logger,
	}
}

// Eligible reports whether the unit contributes to the available pool
func (l *Ledger) Eligible(ctx context.Context, unit *entities.StockUnit) (bool, error) {
	if unit.Status != entities.StatusPutaway {
		return false, nil
	}
	loc, err := l.locations.Get(ctx, unit.LocationID)
	if err != nil {
		return false, classifyStoreErr(err)
	}
	return l.classifier.Allocatable(loc), nil
}

// apply re-reads the unit, runs the mutation, recomputes availability and
// writes back conditionally on the read version, retrying on conflict.
func (l *Ledger) apply(ctx context.Context, unitID string, mutate func(*entities.StockUnit) error) (*entities.StockUnit, error) {
	var lastErr error
	for attempt := 0; attempt < l.retries; attempt++ {
		unit, err := l.units.Get(ctx, unitID)
		if err != nil {
			return nil, classifyStoreErr(err)
		}

		if err := mutate(unit); err != nil {
			return nil, err
		}
		if err := unit.CheckQuantities(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientQuantity, err)
		}
		eligible, err := l.Eligible(ctx, unit)
		if err != nil {
			return nil, err
		}
		unit.RecomputeAvailable(eligible)

		updated, err := l.units.Update(ctx, unit)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, recordstore.ErrConflict) {
			return nil, classifyStoreErr(err)
		}
		lastErr = err
		l.logger.Debug("stock unit version conflict, retrying",
			zap.String("stock_unit_id", unitID),
			zap.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("%w: stock unit %s: %v", ErrUpstreamUnavailable, unitID, lastErr)
}

// Receive registers a new stock unit with the ledger, deriving its initial
// availability before the first write
func (l *Ledger) Receive(ctx context.Context, unit *entities.StockUnit) (*entities.StockUnit, error) {
	if err := unit.CheckQuantities(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientQuantity, err)
	}
	eligible, err := l.Eligible(ctx, unit)
	if err != nil {
		return nil, err
	}
	unit.RecomputeAvailable(eligible)

	created, err := l.units.Create(ctx, unit)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return created, nil
}

// Reserve increases the allocated quantity against available on-hand.
// No movement record: a reservation is not a physical relocation.
func (l *Ledger) Reserve(ctx context.Context, unitID string, qty decimal.Decimal) (*entities.StockUnit, error) {
	return l.apply(ctx, unitID, func(u *entities.StockUnit) error {
		next := u.AllocatedQuantity.Add(qty)
		if next.GreaterThan(u.OnHandQuantity) {
			return fmt.Errorf("%w: reserve %s would allocate %s of %s on hand",
				ErrInsufficientQuantity, qty, next, u.OnHandQuantity)
		}
		u.AllocatedQuantity = next
		return nil
	})
}

// Release gives reserved quantity back to the pool
func (l *Ledger) Release(ctx context.Context, unitID string, qty decimal.Decimal) (*entities.StockUnit, error) {
	return l.apply(ctx, unitID, func(u *entities.StockUnit) error {
		if qty.GreaterThan(u.AllocatedQuantity) {
			return fmt.Errorf("%w: release %s exceeds allocated %s",
				ErrInsufficientQuantity, qty, u.AllocatedQuantity)
		}
		u.AllocatedQuantity = u.AllocatedQuantity.Sub(qty)
		return nil
	})
}

// ConfirmPick marks the unit physically picked. Availability drops to zero
// via eligibility; quantities are untouched until shipment.
func (l *Ledger) ConfirmPick(ctx context.Context, unitID string) (*entities.StockUnit, error) {
	return l.apply(ctx, unitID, func(u *entities.StockUnit) error {
		u.Status = entities.StatusPicked
		return nil
	})
}

// ShipDeduct consumes physical stock and releases the matching reservation
// in one write: on-hand and allocated both drop by qty, shipped grows by
// qty. Ship-in-place, so no movement record.
func (l *Ledger) ShipDeduct(ctx context.Context, unitID string, qty decimal.Decimal) (*entities.StockUnit, error) {
	return l.apply(ctx, unitID, func(u *entities.StockUnit) error {
		if qty.GreaterThan(u.OnHandQuantity) {
			return fmt.Errorf("%w: ship %s exceeds on-hand %s",
				ErrInsufficientQuantity, qty, u.OnHandQuantity)
		}
		u.OnHandQuantity = u.OnHandQuantity.Sub(qty)
		released := decimal.Min(qty, u.AllocatedQuantity)
		u.AllocatedQuantity = u.AllocatedQuantity.Sub(released)
		u.ShippedQuantity = u.ShippedQuantity.Add(qty)
		if u.OnHandQuantity.IsZero() {
			u.Status = entities.StatusShipped
		}
		return nil
	})
}

// Relocate moves the unit to another location and records the movement.
// Relocating to the unit's current location is a no-op that still returns
// the unit unchanged.
func (l *Ledger) Relocate(ctx context.Context, unitID, toLocationID string, status entities.InventoryStatus, movementType entities.MovementType, actor string) (*entities.StockUnit, error) {
	var fromLocationID string
	unit, err := l.apply(ctx, unitID, func(u *entities.StockUnit) error {
		fromLocationID = u.LocationID
		u.LocationID = toLocationID
		if status != "" {
			u.Status = status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if fromLocationID == toLocationID {
		return unit, nil
	}
	if err := l.recorder.Record(ctx, unit, fromLocationID, toLocationID, unit.OnHandQuantity, movementType, actor); err != nil {
		return nil, err
	}
	return unit, nil
}

// PutawayRelocate moves a staging unit to its final storage location,
// fixing its on-hand to the good portion of the receipt split (the other
// portions become their own units). A relocation to the current location is
// a no-op apart from the quantity fix.
func (l *Ledger) PutawayRelocate(ctx context.Context, unitID, toLocationID string, qty decimal.Decimal, actor string) (*entities.StockUnit, error) {
	var fromLocationID string
	unit, err := l.apply(ctx, unitID, func(u *entities.StockUnit) error {
		if qty.IsNegative() {
			return fmt.Errorf("%w: putaway quantity %s is negative", ErrQuantityMismatch, qty)
		}
		fromLocationID = u.LocationID
		u.LocationID = toLocationID
		u.OnHandQuantity = qty
		u.Status = entities.StatusPutaway
		return nil
	})
	if err != nil {
		return nil, err
	}
	if fromLocationID == toLocationID {
		return unit, nil
	}
	if err := l.recorder.Record(ctx, unit, fromLocationID, toLocationID, qty, entities.MovementPutaway, actor); err != nil {
		return nil, err
	}
	return unit, nil
}

// Adjust applies a signed on-hand correction and records an adjustment
// movement at the unit's current location
func (l *Ledger) Adjust(ctx context.Context, unitID string, delta decimal.Decimal, actor string) (*entities.StockUnit, error) {
	unit, err := l.apply(ctx, unitID, func(u *entities.StockUnit) error {
		next := u.OnHandQuantity.Add(delta)
		if next.IsNegative() {
			return fmt.Errorf("%w: adjustment %s would drive on-hand below zero", ErrInsufficientQuantity, delta)
		}
		if u.AllocatedQuantity.GreaterThan(next) {
			return fmt.Errorf("%w: adjustment %s would leave allocated %s above on-hand %s",
				ErrInsufficientQuantity, delta, u.AllocatedQuantity, next)
		}
		u.OnHandQuantity = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := l.recorder.Record(ctx, unit, unit.LocationID, unit.LocationID, delta.Abs(), entities.MovementAdjustment, actor); err != nil {
		return nil, err
	}
	return unit, nil
}

// ItemRollup aggregates the derived quantities of an item, optionally per
// location. Rollups are computed reads, never stored.
type ItemRollup struct {
	ItemID     string
	OnHand     decimal.Decimal
	Allocated  decimal.Decimal
	Available  decimal.Decimal
	Shipped    decimal.Decimal
	ByLocation map[string]decimal.Decimal // location id -> available
}

// Rollup sums an item's quantities across all of its stock units
func (l *Ledger) Rollup(ctx context.Context, itemID string) (*ItemRollup, error) {
	units, err := l.units.FindByItem(ctx, itemID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	rollup := &ItemRollup{
		ItemID:     itemID,
		OnHand:     decimal.Zero,
		Allocated:  decimal.Zero,
		Available:  decimal.Zero,
		Shipped:    decimal.Zero,
		ByLocation: make(map[string]decimal.Decimal),
	}
	for _, u := range units {
		rollup.OnHand = rollup.OnHand.Add(u.OnHandQuantity)
		rollup.Allocated = rollup.Allocated.Add(u.AllocatedQuantity)
		rollup.Available = rollup.Available.Add(u.AvailableQuantity)
		rollup.Shipped = rollup.Shipped.Add(u.ShippedQuantity)
		rollup.ByLocation[u.LocationID] = rollup.ByLocation[u.LocationID].Add(u.AvailableQuantity)
	}
	return rollup, nil
}
