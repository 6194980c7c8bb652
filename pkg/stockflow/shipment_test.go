package stockflow

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quayside/stockflow/pkg/domain/entities"
)

// shipmentFixture builds a picked demand: one line of 40 backed by a unit
// holding 100 on hand with 40 reserved.
func shipmentFixture(t *testing.T) *fixture {
	t.Helper()
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("40"), 1)
	f.seedAvailableUnit("SU-1", "LOC-A", dec("100"), "", "")

	if _, err := f.allocation.Allocate(f.ctx, "DL-1", dec("40"), "tester"); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	alloc := f.lineAllocations("DL-1")[0]
	if _, err := f.picking.ConfirmPicks(f.ctx, "DMD-1", []PickConfirmation{
		{AllocationID: alloc.ID, QuantityPicked: dec("40")},
	}, "tester"); err != nil {
		t.Fatalf("ConfirmPicks() error = %v", err)
	}
	if got := f.demandStatus("DMD-1"); got != entities.DemandPicked {
		t.Fatalf("demand status = %s, want Picked", got)
	}
	return f
}

func TestShip_DeductsPickedStock(t *testing.T) {
	f := shipmentFixture(t)

	result, err := f.shipment.Ship(f.ctx, "DMD-1", "tester")
	if err != nil {
		t.Fatalf("Ship() error = %v", err)
	}
	if !result.AllOK() {
		t.Fatalf("Ship() outcomes = %+v, want all ok", result.Outcomes)
	}
	if len(result.Deductions) != 1 {
		t.Fatalf("deduction count = %d, want 1", len(result.Deductions))
	}
	d := result.Deductions[0]
	wantDec(t, "deducted", d.Shipped, dec("40"))
	wantDec(t, "shortage", d.Shortage, decimal.Zero)

	u := f.unit("SU-1")
	wantDec(t, "on-hand", u.OnHandQuantity, dec("60"))
	wantDec(t, "allocated", u.AllocatedQuantity, decimal.Zero)
	wantDec(t, "shipped", u.ShippedQuantity, dec("40"))

	alloc := f.lineAllocations("DL-1")[0]
	if alloc.Status != entities.AllocationShipped {
		t.Errorf("allocation status = %s, want shipped", alloc.Status)
	}
	wantDec(t, "allocation shipped", alloc.QuantityShipped, dec("40"))

	if got := f.demandStatus("DMD-1"); got != entities.DemandShipped {
		t.Errorf("demand status = %s, want Shipped", got)
	}
}

func TestShip_AllocatedDemandNeedsPicksFirst(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("10"), 1)
	f.seedAvailableUnit("SU-1", "LOC-A", dec("10"), "", "")
	if _, err := f.allocation.Allocate(f.ctx, "DL-1", dec("10"), "tester"); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	_, err := f.shipment.Ship(f.ctx, "DMD-1", "tester")
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Ship() error = %v, want ErrInvalidStateTransition", err)
	}
	if !strings.Contains(err.Error(), "confirm picks first") {
		t.Errorf("Ship() error = %q, want pick guidance", err)
	}

	// The rejected shipment must not touch any quantity.
	u := f.unit("SU-1")
	wantDec(t, "on-hand", u.OnHandQuantity, dec("10"))
	wantDec(t, "allocated", u.AllocatedQuantity, dec("10"))
	wantDec(t, "shipped", u.ShippedQuantity, decimal.Zero)
}

func TestShip_NewDemandRejected(t *testing.T) {
	f := allocationFixture(t)

	_, err := f.shipment.Ship(f.ctx, "DMD-1", "tester")
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Ship() error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestShip_ShortageAccumulatesPerItem(t *testing.T) {
	f := allocationFixture(t)
	f.seedDemandLine("DL-1", "DMD-1", "ITEM-1", dec("50"), 1)
	f.seedAvailableUnit("SU-1", "LOC-A", dec("40"), "", "")
	if _, err := f.allocation.Allocate(f.ctx, "DL-1", dec("50"), "tester"); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	// Force the demand onward despite the shortage, as a supervisor would.
	header, err := f.demands.GetHeader(f.ctx, "DMD-1")
	if err != nil {
		t.Fatalf("GetHeader() error = %v", err)
	}
	header.Status = entities.DemandAllocated
	if err := f.demands.UpdateHeader(f.ctx, header); err != nil {
		t.Fatalf("UpdateHeader() error = %v", err)
	}
	alloc := f.lineAllocations("DL-1")[0]
	if _, err := f.picking.ConfirmPicks(f.ctx, "DMD-1", []PickConfirmation{
		{AllocationID: alloc.ID, QuantityPicked: dec("40")},
	}, "tester"); err != nil {
		t.Fatalf("ConfirmPicks() error = %v", err)
	}

	result, err := f.shipment.Ship(f.ctx, "DMD-1", "tester")
	if err != nil {
		t.Fatalf("Ship() error = %v", err)
	}
	d := result.Deductions[0]
	wantDec(t, "deducted", d.Shipped, dec("40"))
	wantDec(t, "shortage", d.Shortage, dec("10"))

	// The shortage must surface as a failed outcome for the item so the
	// demand does not go terminal with 10 units still owed.
	if result.AllOK() {
		t.Fatalf("Ship() outcomes = %+v, want a shortage failure", result.Outcomes)
	}
	var shortErr error
	for _, o := range result.Outcomes {
		if o.Ref == "ITEM-1" && o.Err != nil {
			shortErr = o.Err
		}
	}
	if !errors.Is(shortErr, ErrInsufficientQuantity) {
		t.Errorf("shortage outcome error = %v, want ErrInsufficientQuantity", shortErr)
	}
	if got := f.demandStatus("DMD-1"); got != entities.DemandPicked {
		t.Errorf("demand status = %s, want Picked", got)
	}
}

func TestShip_Resubmission(t *testing.T) {
	f := shipmentFixture(t)

	if _, err := f.shipment.Ship(f.ctx, "DMD-1", "tester"); err != nil {
		t.Fatalf("Ship() error = %v", err)
	}
	// Shipped demands are terminal; replaying the call must not deduct again.
	_, err := f.shipment.Ship(f.ctx, "DMD-1", "tester")
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Ship() replay error = %v, want ErrInvalidStateTransition", err)
	}
	wantDec(t, "on-hand", f.unit("SU-1").OnHandQuantity, dec("60"))
}
