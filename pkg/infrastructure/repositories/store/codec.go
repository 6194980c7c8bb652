// Package store implements the typed domain repositories on top of the
// generic record store boundary. Each repository owns the field mapping for
// its aggregate; the helpers here tolerate the value types different store
// adapters deliver (native Go values in memory, JSON scalars over the wire).
package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quayside/stockflow/pkg/recordstore"
)

func asString(rec recordstore.Record, field string) string {
	if v, ok := rec[field].(string); ok {
		return v
	}
	return ""
}

func asBool(rec recordstore.Record, field string) bool {
	if v, ok := rec[field].(bool); ok {
		return v
	}
	return false
}

func asInt64(rec recordstore.Record, field string) int64 {
	switch v := rec[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func asDecimal(rec recordstore.Record, field string) (decimal.Decimal, error) {
	switch v := rec[field].(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return v, nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %s: %w", field, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("field %s: unsupported quantity type %T", field, v)
	}
}

func asTime(rec recordstore.Record, field string) (time.Time, error) {
	switch v := rec[field].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts, nil
		}
		ts, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %s: %w", field, err)
		}
		return ts, nil
	default:
		return time.Time{}, fmt.Errorf("field %s: unsupported time type %T", field, v)
	}
}

func asTimePtr(rec recordstore.Record, field string) (*time.Time, error) {
	if rec[field] == nil {
		return nil, nil
	}
	ts, err := asTime(rec, field)
	if err != nil {
		return nil, err
	}
	if ts.IsZero() {
		return nil, nil
	}
	return &ts, nil
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
