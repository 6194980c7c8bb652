package stockflow

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quayside/stockflow/pkg/domain/entities"
)

func allocationFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.seedItem("ITEM-1", "SKU-1")
	f.seedLocation("LOC-A", "WH-1", "A-01-01", entities.ClassStorage)
	f.seedLocation("LOC-B", "WH-1", "A-01-02", entities.ClassStorage)
	f.seedLocation("LOC-STAGE", "WH-1", "STAGING-01", entities.ClassStaging)
	f.seedDemand("DMD-1", "WH-1", entities.DemandNew)
	return f
}

func (f *fixture) seedAvailableUnit(id, locationID string, onHand decimal.Decimal, expiry, mfg string) *entities.StockUnit {
	f.t.Helper()
	u := &entities.StockUnit{
		ID:             id,
		ItemID:         "ITEM-1",
		LocationID:     locationID,
		WarehouseID:    "WH-1",
		BatchNumber:    "BATCH-" + id,
		OnHandQuantity: onHand,
		Status:         entities.StatusPutaway,
	}
	if expiry != "" {
		u.ExpiryDate = datePtr(expiry)
	}
	if mfg != "" {
		u.ManufacturingDate = datePtr(mfg)
	}
	u.RecomputeAvailable(true)
	return f.seedUnit(u)
}

func TestAllocate_FEFOOrder(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("25"), 1)

	// Seeded out of order on purpose: the walk must sort by expiry with
	// null expiries last.
	f.seedAvailableUnit("SU-JUN", "LOC-A", dec("10"), "2025-06-01", "")
	f.seedAvailableUnit("SU-JAN", "LOC-B", dec("10"), "2025-01-01", "")
	f.seedAvailableUnit("SU-NULL", "LOC-A", dec("10"), "", "")

	result, err := f.allocation.Allocate(f.ctx, "DL-1", dec("25"), "tester")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	wantDec(t, "allocated", result.AllocatedQuantity, dec("25"))
	wantDec(t, "shortage", result.Shortage, decimal.Zero)

	wantDec(t, "SU-JAN allocated", f.unit("SU-JAN").AllocatedQuantity, dec("10"))
	wantDec(t, "SU-JUN allocated", f.unit("SU-JUN").AllocatedQuantity, dec("10"))
	wantDec(t, "SU-NULL allocated", f.unit("SU-NULL").AllocatedQuantity, dec("5"))
	wantDec(t, "SU-NULL available", f.unit("SU-NULL").AvailableQuantity, dec("5"))

	if got := f.demandStatus("DMD-1"); got != entities.DemandAllocated {
		t.Errorf("demand status = %s, want Allocated", got)
	}
}

func TestAllocate_ManufacturingDateBreaksExpiryTies(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("10"), 1)

	f.seedAvailableUnit("SU-NEWER", "LOC-A", dec("10"), "2025-06-01", "2025-03-01")
	f.seedAvailableUnit("SU-OLDER", "LOC-B", dec("10"), "2025-06-01", "2025-01-01")

	result, err := f.allocation.Allocate(f.ctx, "DL-1", dec("10"), "tester")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	wantDec(t, "allocated", result.AllocatedQuantity, dec("10"))
	wantDec(t, "SU-OLDER allocated", f.unit("SU-OLDER").AllocatedQuantity, dec("10"))
	wantDec(t, "SU-NEWER allocated", f.unit("SU-NEWER").AllocatedQuantity, decimal.Zero)
}

func TestAllocate_NoDoubleReservation(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("10"), 1)
	f.seedAvailableUnit("SU-1", "LOC-A", dec("10"), "", "")

	first, err := f.allocation.Allocate(f.ctx, "DL-1", dec("10"), "tester")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	wantDec(t, "first allocated", first.AllocatedQuantity, dec("10"))
	wantDec(t, "first shortage", first.Shortage, decimal.Zero)

	second, err := f.allocation.Allocate(f.ctx, "DL-1", dec("15"), "tester")
	if err != nil {
		t.Fatalf("Allocate() second error = %v", err)
	}
	wantDec(t, "second allocated", second.AllocatedQuantity, decimal.Zero)
	wantDec(t, "second shortage", second.Shortage, dec("5"))

	wantDec(t, "unit allocated", f.unit("SU-1").AllocatedQuantity, dec("10"))
	wantDec(t, "unit available", f.unit("SU-1").AvailableQuantity, decimal.Zero)
}

func TestAllocate_ShortageIsNotAnError(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("30"), 1)
	f.seedAvailableUnit("SU-1", "LOC-A", dec("10"), "", "")

	result, err := f.allocation.Allocate(f.ctx, "DL-1", dec("30"), "tester")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	wantDec(t, "allocated", result.AllocatedQuantity, dec("10"))
	wantDec(t, "shortage", result.Shortage, dec("20"))

	if got := f.demandStatus("DMD-1"); got != entities.DemandNew {
		t.Errorf("demand status = %s, want New while uncovered", got)
	}
}

func TestAllocate_SkipsIneligibleUnits(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("10"), 1)

	// Staged and received stock never carries availability.
	staged := &entities.StockUnit{
		ID:             "SU-STAGED",
		ItemID:         "ITEM-1",
		LocationID:     "LOC-STAGE",
		WarehouseID:    "WH-1",
		OnHandQuantity: dec("50"),
		Status:         entities.StatusReceived,
	}
	staged.RecomputeAvailable(false)
	f.seedUnit(staged)
	f.seedAvailableUnit("SU-GOOD", "LOC-A", dec("4"), "", "")

	result, err := f.allocation.Allocate(f.ctx, "DL-1", dec("10"), "tester")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	wantDec(t, "allocated", result.AllocatedQuantity, dec("4"))
	wantDec(t, "shortage", result.Shortage, dec("6"))
	wantDec(t, "staged allocated", f.unit("SU-STAGED").AllocatedQuantity, decimal.Zero)
}

func TestAllocate_FreshOverrideBlocksStaleAvailability(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("10"), 1)
	f.seedAvailableUnit("SU-1", "LOC-A", dec("10"), "", "")

	// Pin the location non-allocatable after the unit's availability was
	// last written. The stored quantity is now stale and must not be used.
	f.classifier.overrides["LOC-A"] = struct{}{}

	result, err := f.allocation.Allocate(f.ctx, "DL-1", dec("10"), "tester")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	wantDec(t, "allocated", result.AllocatedQuantity, decimal.Zero)
	wantDec(t, "shortage", result.Shortage, dec("10"))
	wantDec(t, "unit allocated", f.unit("SU-1").AllocatedQuantity, decimal.Zero)
}

func TestAllocate_StateGate(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemand("DMD-PICKED", "WH-1", entities.DemandPicked)
	f.seedDemandLine("DL-P", "DMD-PICKED", "ITEM-1", dec("10"), 1)

	_, err := f.allocation.Allocate(f.ctx, "DL-P", dec("10"), "tester")
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Allocate() error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestAllocate_RejectsNonPositiveRequest(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("10"), 1)

	_, err := f.allocation.Allocate(f.ctx, "DL-1", decimal.Zero, "tester")
	if !errors.Is(err, ErrQuantityMismatch) {
		t.Fatalf("Allocate() error = %v, want ErrQuantityMismatch", err)
	}
}
