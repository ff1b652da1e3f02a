package schema

import (
	"github.com/parquet-go/parquet-go"

	"github.com/gridiron/gridiron/pkg/types"
)

// ParquetSchema derives the parquet file schema from the column spec.
// Every column is optional: a required source column can still be
// skipped for one file (missing-required is recoverable), and partition
// files must stay union-compatible with files where it resolved.
func (s *Spec) ParquetSchema() *parquet.Schema {
	group := parquet.Group{}
	for _, col := range s.Columns {
		group[col.Name] = parquet.Optional(leafNode(col.DType))
	}
	return parquet.NewSchema("tracking", group)
}

func leafNode(dtype types.DType) parquet.Node {
	switch dtype {
	case types.DTypeInt64:
		return parquet.Int(64)
	case types.DTypeFloat64:
		return parquet.Leaf(parquet.DoubleType)
	case types.DTypeBool:
		return parquet.Leaf(parquet.BooleanType)
	default:
		return parquet.String()
	}
}
