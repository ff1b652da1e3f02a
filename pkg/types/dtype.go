// Package types provides core data types for Gridiron.
package types

import "fmt"

// DType identifies the declared type of a schema column.
type DType string

const (
	// DTypeInt64 is a 64-bit signed integer column (e.g. gameId, frameId)
	DTypeInt64 DType = "int64"

	// DTypeFloat64 is a 64-bit float column (e.g. x, y, speed)
	DTypeFloat64 DType = "float64"

	// DTypeString is a UTF-8 string column (e.g. team, event, route)
	DTypeString DType = "string"

	// DTypeBool is a boolean column
	DTypeBool DType = "bool"
)

// ParseDType converts a schema config string into a DType.
func ParseDType(s string) (DType, error) {
	switch DType(s) {
	case DTypeInt64, DTypeFloat64, DTypeString, DTypeBool:
		return DType(s), nil
	}
	return "", fmt.Errorf("types: unknown dtype %q", s)
}
