package stockflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quayside/stockflow/pkg/domain/entities"
	"github.com/quayside/stockflow/pkg/domain/repositories"
)

// Disposition classifies a received quantity split
type Disposition string

const (
	DispositionGood      Disposition = "good"
	DispositionDamage    Disposition = "damage"
	DispositionMissing   Disposition = "missing"
	DispositionDefective Disposition = "defective"
)

// palletPrefixes maps a disposition to its synthetic pallet id prefix
var palletPrefixes = map[Disposition]string{
	DispositionGood:      "PAL-",
	DispositionDamage:    "DAM-",
	DispositionMissing:   "MIS-",
	DispositionDefective: "DEF-",
}

// Valid reports whether the disposition is one of the four known values
func (d Disposition) Valid() bool {
	_, ok := palletPrefixes[d]
	return ok
}

// Split is one (quantity, target location, disposition) portion of a
// received line. PalletID is optional; when empty a synthetic
// disposition-prefixed pallet id is generated.
type Split struct {
	Quantity         decimal.Decimal
	TargetLocationID string
	Disposition      Disposition
	PalletID         string
}

// PutawayResult reports the aggregate outcome of one putaway call
type PutawayResult struct {
	ReceiptLineID string
	PalletIDs     map[Disposition][]string
	Outcomes      []Outcome
}

// AllOK reports whether every split was processed
func (r *PutawayResult) AllOK() bool { return allOK(r.Outcomes) }

// PutawayEngine consumes a received line and a set of disposition splits,
// relocating the staging stock unit for the good portion and creating new
// units for everything else. Quantity is conserved: the splits must sum to
// the received quantity, and re-submitting the same split set does not
// double-count.
type PutawayEngine struct {
	units      repositories.StockUnitRepository
	items      repositories.ItemRepository
	locations  repositories.LocationRepository
	receipts   repositories.ReceiptRepository
	ledger     *Ledger
	recorder   *Recorder
	classifier *LocationClassifier
	logger     *zap.Logger
	now        func() time.Time
}

// NewPutawayEngine creates a putaway engine
func NewPutawayEngine(
	units repositories.StockUnitRepository,
	items repositories.ItemRepository,
	locations repositories.LocationRepository,
	receipts repositories.ReceiptRepository,
	ledger *Ledger,
	recorder *Recorder,
	classifier *LocationClassifier,
	logger *zap.Logger,
) *PutawayEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PutawayEngine{
		units:      units,
		items:      items,
		locations:  locations,
		receipts:   receipts,
		ledger:     ledger,
		recorder:   recorder,
		classifier: classifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Putaway processes the splits of one receipt line sequentially. A failed
// split is reported in its outcome and does not undo or block the others.
func (e *PutawayEngine) Putaway(ctx context.Context, receiptLineID string, splits []Split, actor string) (*PutawayResult, error) {
	line, err := e.receipts.GetLine(ctx, receiptLineID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	if err := validateSplits(line, splits); err != nil {
		return nil, err
	}

	header, err := e.receipts.GetHeader(ctx, line.ReceiptHeaderID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	item, err := e.resolveItem(ctx, line)
	if err != nil {
		return nil, err
	}
	staging, err := e.resolveStaging(ctx, header.WarehouseID)
	if err != nil {
		return nil, err
	}

	result := &PutawayResult{
		ReceiptLineID: receiptLineID,
		PalletIDs:     make(map[Disposition][]string),
	}

	goodHandled := false
	for i, split := range splits {
		ref := fmt.Sprintf("split[%d]", i)
		if split.Quantity.IsZero() {
			result.Outcomes = append(result.Outcomes, Outcome{Ref: ref})
			continue
		}

		var palletID string
		if split.Disposition == DispositionGood && !goodHandled {
			palletID, err = e.relocateGood(ctx, item, line, header.WarehouseID, staging, split, actor)
			goodHandled = err == nil
		} else {
			palletID, err = e.createSplitUnit(ctx, item, line, header.WarehouseID, staging, split, actor)
		}
		if err != nil {
			e.logger.Warn("putaway split failed",
				zap.String("receipt_line_id", receiptLineID),
				zap.Int("split", i),
				zap.Error(err))
			result.Outcomes = append(result.Outcomes, Outcome{Ref: ref, Err: err})
			continue
		}
		result.PalletIDs[split.Disposition] = append(result.PalletIDs[split.Disposition], palletID)
		result.Outcomes = append(result.Outcomes, Outcome{Ref: ref})
	}

	if result.AllOK() {
		if err := e.markLinePutAway(ctx, line, header); err != nil {
			e.logger.Warn("failed to advance receipt status",
				zap.String("receipt_line_id", receiptLineID),
				zap.Error(err))
		}
	}
	return result, nil
}

// validateSplits enforces the conservation precondition: every quantity is
// non-negative and the sum equals the received quantity. Terminal on
// violation, never retried.
func validateSplits(line *entities.ReceiptLine, splits []Split) error {
	if len(splits) == 0 {
		return fmt.Errorf("%w: no splits supplied", ErrQuantityMismatch)
	}
	total := decimal.Zero
	for i, split := range splits {
		if !split.Disposition.Valid() {
			return fmt.Errorf("%w: split[%d] has unknown disposition %q", ErrQuantityMismatch, i, split.Disposition)
		}
		if split.Quantity.IsNegative() {
			return fmt.Errorf("%w: split[%d] quantity %s is negative", ErrQuantityMismatch, i, split.Quantity)
		}
		if split.TargetLocationID == "" {
			return fmt.Errorf("%w: split[%d] has no target location", ErrQuantityMismatch, i)
		}
		total = total.Add(split.Quantity)
	}
	if !total.Equal(line.ReceivedQuantity) {
		return fmt.Errorf("%w: splits sum to %s, received quantity is %s",
			ErrQuantityMismatch, total, line.ReceivedQuantity)
	}
	return nil
}

func (e *PutawayEngine) resolveItem(ctx context.Context, line *entities.ReceiptLine) (*entities.Item, error) {
	if line.ItemID != "" {
		item, err := e.items.Get(ctx, line.ItemID)
		if err != nil {
			return nil, classifyStoreErr(err)
		}
		return item, nil
	}
	item, err := e.items.GetByCode(ctx, line.ItemCode)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return item, nil
}

// resolveStaging finds the warehouse's staging location. The legacy system
// substituted a hardcoded location id when this lookup failed; resolving
// nothing is now a hard failure.
func (e *PutawayEngine) resolveStaging(ctx context.Context, warehouseID string) (*entities.Location, error) {
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

// relocateGood moves the staging unit of the good portion to its final
// location, creating the staging unit first when upstream receiving never
// materialized it.
func (e *PutawayEngine) relocateGood(ctx context.Context, item *entities.Item, line *entities.ReceiptLine, warehouseID string, staging *entities.Location, split Split, actor string) (string, error) {
	unit, err := e.findStagingUnit(ctx, item.ID, warehouseID, staging.ID, line.BatchNumber, split)
	if err != nil {
		return "", err
	}
	if unit == nil {
		unit, err = e.createUnit(ctx, item, line, warehouseID, staging.ID, split, entities.StatusReceived, "", actor)
		if err != nil {
			return "", err
		}
	}
	if _, err := e.ledger.PutawayRelocate(ctx, unit.ID, split.TargetLocationID, split.Quantity, actor); err != nil {
		return "", err
	}
	return unit.PalletID, nil
}

// findStagingUnit searches for the staging-resident unit of the receipt:
// by item and pallet first, falling back to item and warehouse when no
// pallet was supplied.
func (e *PutawayEngine) findStagingUnit(ctx context.Context, itemID, warehouseID, stagingLocationID, batchNumber string, split Split) (*entities.StockUnit, error) {
	var units []*entities.StockUnit
	var err error
	if split.PalletID != "" {
		units, err = e.units.FindByItemAndPallet(ctx, itemID, split.PalletID)
	} else {
		units, err = e.units.FindByItemAndWarehouse(ctx, itemID, warehouseID)
	}
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	for _, unit := range units {
		if unit.LocationID == stagingLocationID && unit.Status == entities.StatusReceived && unit.BatchNumber == batchNumber {
			return unit, nil
		}
	}
	// A prior submission may already have moved the unit off staging;
	// finding it at the target keeps the retry idempotent.
	for _, unit := range units {
		if unit.Status == entities.StatusPutaway && unit.LocationID == split.TargetLocationID && unit.BatchNumber == batchNumber {
			return unit, nil
		}
	}
	return nil, nil
}

// createSplitUnit creates the stock unit for a non-good split (or an extra
// good split beyond the first). Re-submitting the same split finds the
// previously created unit instead of double-counting.
func (e *PutawayEngine) createSplitUnit(ctx context.Context, item *entities.Item, line *entities.ReceiptLine, warehouseID string, staging *entities.Location, split Split, actor string) (string, error) {
	existing, err := e.findExistingSplitUnit(ctx, item.ID, line.BatchNumber, split)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.PalletID, nil
	}

	unit, err := e.createUnit(ctx, item, line, warehouseID, split.TargetLocationID, split, entities.StatusPutaway, staging.ID, actor)
	if err != nil {
		return "", err
	}
	return unit.PalletID, nil
}

// findExistingSplitUnit looks for a unit a prior submission already created
// for this split: same item, batch, target and quantity, with the caller's
// pallet or a synthetic pallet carrying the disposition's prefix. A pallet
// hit with a different batch or quantity belongs to another receipt line,
// not a prior submission of this one.
func (e *PutawayEngine) findExistingSplitUnit(ctx context.Context, itemID, batchNumber string, split Split) (*entities.StockUnit, error) {
	if split.PalletID != "" {
		units, err := e.units.FindByItemAndPallet(ctx, itemID, split.PalletID)
		if err != nil {
			return nil, classifyStoreErr(err)
		}
		for _, unit := range units {
			if unit.LocationID == split.TargetLocationID &&
				unit.BatchNumber == batchNumber &&
				unit.OnHandQuantity.Equal(split.Quantity) {
				return unit, nil
			}
		}
		return nil, nil
	}

	units, err := e.units.FindByItem(ctx, itemID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	prefix := palletPrefixes[split.Disposition]
	for _, unit := range units {
		if unit.LocationID == split.TargetLocationID &&
			unit.BatchNumber == batchNumber &&
			len(unit.PalletID) >= len(prefix) && unit.PalletID[:len(prefix)] == prefix &&
			unit.OnHandQuantity.Equal(split.Quantity) {
			return unit, nil
		}
	}
	return nil, nil
}

func (e *PutawayEngine) createUnit(ctx context.Context, item *entities.Item, line *entities.ReceiptLine, warehouseID, locationID string, split Split, status entities.InventoryStatus, fromLocationID, actor string) (*entities.StockUnit, error) {
	palletID := split.PalletID
	if palletID == "" {
		palletID = fmt.Sprintf("%s%d", palletPrefixes[split.Disposition], e.now().UnixMilli())
	}

	created, err := e.ledger.Receive(ctx, &entities.StockUnit{
		ItemID:            item.ID,
		LocationID:        locationID,
		WarehouseID:       warehouseID,
		PalletID:          palletID,
		BatchNumber:       line.BatchNumber,
		ManufacturingDate: line.ManufacturingDate,
		ExpiryDate:        line.ExpiryDate,
		OnHandQuantity:    split.Quantity,
		WeightKg:          line.WeightKg,
		Status:            status,
	})
	if err != nil {
		return nil, err
	}
	if err := e.recorder.Record(ctx, created, fromLocationID, locationID, split.Quantity, entities.MovementPutaway, actor); err != nil {
		return nil, err
	}
	return created, nil
}

// markLinePutAway flags the line done and advances the receipt header when
// every line of the receipt is put away
func (e *PutawayEngine) markLinePutAway(ctx context.Context, line *entities.ReceiptLine, header *entities.ReceiptHeader) error {
	line.PutAway = true
	if err := e.receipts.UpdateLine(ctx, line); err != nil {
		return classifyStoreErr(err)
	}

	lines, err := e.receipts.FindLinesByHeader(ctx, header.ID)
	if err != nil {
		return classifyStoreErr(err)
	}
	for _, l := range lines {
		if !l.PutAway {
			return nil
		}
	}
	header.Status = entities.ReceiptPutAway
	if err := e.receipts.UpdateHeader(ctx, header); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}
