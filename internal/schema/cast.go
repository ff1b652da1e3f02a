package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gridiron/gridiron/pkg/types"
)

// CastValue converts a config-supplied value (as decoded from YAML or
// JSON) into the Go representation of the dtype. Used for schema
// defaults, where a bad value is a config error rather than a cell-level
// cast failure.
func CastValue(v interface{}, dtype types.DType) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch dtype {
	case types.DTypeInt64:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case uint64:
			if n > math.MaxInt64 {
				return nil, fmt.Errorf("value %d overflows int64", n)
			}
			return int64(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("value %v is not an integer", n)
			}
			return int64(n), nil
		case string:
			return castIntCell(n)
		}
	case types.DTypeFloat64:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		case string:
			return strconv.ParseFloat(n, 64)
		}
	case types.DTypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", v), nil
	case types.DTypeBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
	}
	return nil, fmt.Errorf("cannot cast %T to %s", v, dtype)
}

// CastCell converts one raw CSV cell into the dtype's Go representation.
// Empty cells and conventional NA markers are null, not failures. A
// non-null cell that cannot convert returns an error; callers degrade it
// to null (permissive parsing) and count it.
func CastCell(cell string, dtype types.DType) (interface{}, error) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || trimmed == "NA" || trimmed == "N/A" || trimmed == "null" || trimmed == "NULL" {
		return nil, nil
	}

	switch dtype {
	case types.DTypeInt64:
		return castIntCell(trimmed)
	case types.DTypeFloat64:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("not a float: %q", cell)
		}
		return f, nil
	case types.DTypeString:
		return cell, nil
	case types.DTypeBool:
		b, err := strconv.ParseBool(strings.ToLower(trimmed))
		if err != nil {
			return nil, fmt.Errorf("not a bool: %q", cell)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown dtype %s", dtype)
}

// castIntCell parses an integer cell. Exports sometimes render integer
// identifiers in float form ("57.0" for nflId), so an integral float is
// accepted; a fractional one is a cast failure.
func castIntCell(s string) (interface{}, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}
