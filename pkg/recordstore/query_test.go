package recordstore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPredicate_Matches(t *testing.T) {
	rec := Record{
		"id":        "SU-1",
		"item_id":   "ITEM-1",
		"on_hand":   decimal.NewFromInt(50),
		"expiry":    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		"pallet_id": nil,
	}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{name: "eq_string", pred: Eq("item_id", "ITEM-1"), want: true},
		{name: "eq_string_miss", pred: Eq("item_id", "ITEM-2"), want: false},
		{name: "gt_decimal", pred: Gt("on_hand", decimal.NewFromInt(10)), want: true},
		{name: "gt_decimal_miss", pred: Gt("on_hand", decimal.NewFromInt(50)), want: false},
		{name: "gt_int_vs_decimal", pred: Gt("on_hand", 10), want: true},
		{name: "lt_time", pred: Lt("expiry", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), want: true},
		{name: "ne", pred: Ne("id", "SU-2"), want: true},
		{name: "is_null_nil_field", pred: IsNull("pallet_id"), want: true},
		{name: "is_null_absent_field", pred: IsNull("batch"), want: true},
		{name: "is_null_present", pred: IsNull("item_id"), want: false},
		{name: "not_null", pred: NotNull("item_id"), want: true},
		{name: "not_null_nil", pred: NotNull("pallet_id"), want: false},
		{name: "missing_field_never_matches", pred: Eq("warehouse", "WH1"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.Matches(rec); got != tt.want {
				t.Errorf("Expected %v for %s %s, got %v", tt.want, tt.pred.Field, tt.pred.Op, got)
			}
		})
	}
}

func TestQuery_Apply_OrderAndLimit(t *testing.T) {
	recs := []Record{
		{"id": "C", "qty": decimal.NewFromInt(3)},
		{"id": "A", "qty": decimal.NewFromInt(1)},
		{"id": "B", "qty": decimal.NewFromInt(2)},
	}

	q := Query{
		OrderBy: []Order{{Field: "qty"}},
		Limit:   2,
	}
	out := q.Apply(recs)

	if len(out) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(out))
	}
	if out[0].ID() != "A" || out[1].ID() != "B" {
		t.Errorf("Expected ascending qty order A,B got %s,%s", out[0].ID(), out[1].ID())
	}
}

func TestCompare_NumericStringsAgainstDecimals(t *testing.T) {
	// Wire adapters deliver decimals as JSON strings; comparisons must stay numeric.
	cmp, ok := Compare("10", decimal.NewFromInt(9))
	if !ok || cmp != 1 {
		t.Errorf("Expected \"10\" > 9, got cmp=%d ok=%v", cmp, ok)
	}
	if _, ok := Compare("BATCH-1", decimal.NewFromInt(9)); ok {
		t.Error("Expected non-numeric string and decimal to be incomparable")
	}
}
