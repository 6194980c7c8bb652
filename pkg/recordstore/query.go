package recordstore

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Op is a filter comparison operator
type Op string

const (
	OpEq      Op = "eq"
	OpNe      Op = "ne"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpIsNull  Op = "is_null"
	OpNotNull Op = "not_null"
)

// Predicate is a single field constraint
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Order sorts results by a field
type Order struct {
	Field string
	Desc  bool
}

// Query combines predicates, ordering and a result limit
type Query struct {
	Predicates []Predicate
	OrderBy    []Order
	Limit      int
}

// Eq builds an equality predicate
func Eq(field string, value any) Predicate { return Predicate{Field: field, Op: OpEq, Value: value} }

// Ne builds an inequality predicate
func Ne(field string, value any) Predicate { return Predicate{Field: field, Op: OpNe, Value: value} }

// Gt builds a greater-than predicate
func Gt(field string, value any) Predicate { return Predicate{Field: field, Op: OpGt, Value: value} }

// Lt builds a less-than predicate
func Lt(field string, value any) Predicate { return Predicate{Field: field, Op: OpLt, Value: value} }

// IsNull matches records with a missing or nil field
func IsNull(field string) Predicate { return Predicate{Field: field, Op: OpIsNull} }

// NotNull matches records with a present, non-nil field
func NotNull(field string) Predicate { return Predicate{Field: field, Op: OpNotNull} }

// Where is a convenience constructor for a predicate-only query
func Where(preds ...Predicate) Query { return Query{Predicates: preds} }

// Matches reports whether the record satisfies every predicate of the query
func (q Query) Matches(rec Record) bool {
	for _, p := range q.Predicates {
		if !p.Matches(rec) {
			return false
		}
	}
	return true
}

// Matches evaluates a single predicate against a record
func (p Predicate) Matches(rec Record) bool {
	val, present := rec[p.Field]
	switch p.Op {
	case OpIsNull:
		return !present || val == nil
	case OpNotNull:
		return present && val != nil
	}
	if !present || val == nil {
		return false
	}

	cmp, comparable := Compare(val, p.Value)
	if !comparable {
		return false
	}
	switch p.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}

// Apply evaluates the query against an in-memory record slice: filter,
// sort, limit. Used by adapters that cannot push the query down.
func (q Query) Apply(recs []Record) []Record {
	var out []Record
	for _, rec := range recs {
		if q.Matches(rec) {
			out = append(out, rec)
		}
	}

	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, ord := range q.OrderBy {
				cmp, ok := Compare(out[i][ord.Field], out[j][ord.Field])
				if !ok || cmp == 0 {
					continue
				}
				if ord.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Compare orders two record values. Numbers (including decimals carried as
// strings by wire adapters) compare numerically, times chronologically and
// everything else lexically. The second return is false when the values
// cannot be compared.
func Compare(a, b any) (int, bool) {
	if ad, ok := toDecimal(a); ok {
		if bd, ok := toDecimal(b); ok {
			return ad.Cmp(bd), true
		}
	}
	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Compare(bt), true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case ab == bb:
				return 0, true
			case !ab:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case float64:
		return decimal.NewFromFloat(t), true
	case string:
		if _, err := strconv.ParseFloat(t, 64); err != nil {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(t)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, true
		}
		if ts, err := time.Parse("2006-01-02", t); err == nil {
			return ts, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
