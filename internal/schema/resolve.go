package schema

// ResolutionKind says how one schema column is produced for one raw file.
type ResolutionKind int

const (
	// ResolveSource maps a raw source column onto the canonical name.
	ResolveSource ResolutionKind = iota

	// ResolveDefault fills the column with the declared default constant.
	ResolveDefault

	// ResolveNull fills the column with nulls.
	ResolveNull

	// ResolveSkip omits the column from this file's output: no source
	// matched, no default, nulls not allowed. Recoverable per file.
	ResolveSkip
)

// Resolution is the per-file plan for one schema column.
type Resolution struct {
	Column *ColumnDef
	Kind   ResolutionKind

	// SourceIndex is the raw header index for ResolveSource.
	SourceIndex int

	// SourceName is the raw header name that matched (canonical name or
	// alias) for ResolveSource.
	SourceName string

	// Constant is the fill value for ResolveDefault.
	Constant interface{}
}

// Plan resolves every schema column against one raw file's header.
// Resolution policy per column, in strict priority order:
//
//	exact canonical-name match > alias match (declared order) >
//	default constant > null fill > skip (missing required)
//
// Matching is case-sensitive and exact; naming-era differences belong in
// the alias lists of the schema config, not in matching heuristics.
func (s *Spec) Plan(header []string) []Resolution {
	index := make(map[string]int, len(header))
	for i, name := range header {
		// First occurrence wins for duplicated raw headers.
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	plans := make([]Resolution, 0, len(s.Columns))
	for i := range s.Columns {
		col := &s.Columns[i]
		res := Resolution{Column: col, SourceIndex: -1}

		candidates := make([]string, 0, 1+len(col.Aliases))
		candidates = append(candidates, col.Name)
		candidates = append(candidates, col.Aliases...)

		matched := false
		for _, candidate := range candidates {
			if idx, ok := index[candidate]; ok {
				res.Kind = ResolveSource
				res.SourceIndex = idx
				res.SourceName = candidate
				matched = true
				break
			}
		}

		switch {
		case matched:
		case col.HasDefault():
			// Validated at Load time, cannot fail here.
			constant, _ := col.DefaultValue()
			res.Kind = ResolveDefault
			res.Constant = constant
		case col.AllowNull:
			res.Kind = ResolveNull
		default:
			res.Kind = ResolveSkip
		}

		plans = append(plans, res)
	}
	return plans
}
