package pool

import (
	"fmt"
	"strings"

	"github.com/gridiron/gridiron/internal/schema"
	"github.com/gridiron/gridiron/pkg/types"
)

// Predicate is a single-column row filter. Predicates passed together
// to a scan combine conjunctively.
type Predicate struct {
	Column string
	match  func(types.Row) bool

	// eqInt64 carries the comparison value for int64 equality so scans
	// can prune partitions on identity columns. Nil for other shapes.
	eqInt64 *int64
}

// Matches reports whether the row passes the predicate. Rows where the
// column is null never match.
func (p Predicate) Matches(row types.Row) bool {
	return p.match(row)
}

// Int64Eq matches rows where col equals v.
func Int64Eq(col string, v int64) Predicate {
	return Predicate{
		Column:  col,
		eqInt64: &v,
		match: func(row types.Row) bool {
			got, ok := row.Int64(col)
			return ok && got == v
		},
	}
}

// Float64Eq matches rows where col equals v.
func Float64Eq(col string, v float64) Predicate {
	return Predicate{
		Column: col,
		match: func(row types.Row) bool {
			got, ok := row.Float64(col)
			return ok && got == v
		},
	}
}

// StringEq matches rows where col equals v.
func StringEq(col string, v string) Predicate {
	return Predicate{
		Column: col,
		match: func(row types.Row) bool {
			got, ok := row.String(col)
			return ok && got == v
		},
	}
}

// BoolEq matches rows where col equals v.
func BoolEq(col string, v bool) Predicate {
	return Predicate{
		Column: col,
		match: func(row types.Row) bool {
			raw, ok := row[col]
			if !ok || raw == nil {
				return false
			}
			got, ok := raw.(bool)
			return ok && got == v
		},
	}
}

// Fn builds a predicate from an arbitrary match function. Such
// predicates are never used for partition pruning.
func Fn(col string, match func(types.Row) bool) Predicate {
	return Predicate{Column: col, match: match}
}

// Parse parses a "column=value" expression against the schema, casting
// the value to the column's declared type.
func Parse(expr string, spec *schema.Spec) (Predicate, error) {
	name, value, found := strings.Cut(expr, "=")
	if !found {
		return Predicate{}, fmt.Errorf("pool: invalid filter %q (want column=value)", expr)
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	col, ok := spec.Column(name)
	if !ok {
		return Predicate{}, fmt.Errorf("pool: unknown filter column %q", name)
	}

	cast, err := schema.CastCell(value, col.DType)
	if err != nil {
		return Predicate{}, fmt.Errorf("pool: filter value %q is not a valid %s: %w", value, col.DType, err)
	}
	if cast == nil {
		return Predicate{}, fmt.Errorf("pool: filter value for %q must not be null", name)
	}

	switch v := cast.(type) {
	case int64:
		return Int64Eq(name, v), nil
	case float64:
		return Float64Eq(name, v), nil
	case bool:
		return BoolEq(name, v), nil
	case string:
		return StringEq(name, v), nil
	default:
		return Predicate{}, fmt.Errorf("pool: unsupported filter type %T", cast)
	}
}

// matchesAll reports whether the row passes every predicate.
func matchesAll(row types.Row, preds []Predicate) bool {
	for _, p := range preds {
		if !p.Matches(row) {
			return false
		}
	}
	return true
}

// gameIDBound extracts the gameId an equality predicate pins the scan
// to, if any.
func gameIDBound(preds []Predicate) (int64, bool) {
	for _, p := range preds {
		if p.Column == types.ColGameID && p.eqInt64 != nil {
			return *p.eqInt64, true
		}
	}
	return 0, false
}

// playIDBound extracts the playId an equality predicate pins the scan
// to, if any.
func playIDBound(preds []Predicate) (int64, bool) {
	for _, p := range preds {
		if p.Column == types.ColPlayID && p.eqInt64 != nil {
			return *p.eqInt64, true
		}
	}
	return 0, false
}
