package pool

import (
	"context"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/gridiron/gridiron/pkg/types"
)

// poolFromKeys materializes one single-frame row per play key and
// writes the result through the partition writer.
func poolFromKeys(t *testing.T, keys []types.PlayKey) *Pool {
	t.Helper()
	spec := testSpec(t)

	var rows []types.Row
	for _, key := range keys {
		rows = append(rows, testFrame(key.GameID, key.PlayID, 1, 0, "SF"))
	}
	return buildPool(t, spec, rows)
}

func genPlayKeys() gopter.Gen {
	genKey := gopter.CombineGens(
		gen.Int64Range(2022010100, 2022010104),
		gen.Int64Range(1, 40),
	).Map(func(vals []interface{}) types.PlayKey {
		return types.PlayKey{GameID: vals[0].(int64), PlayID: vals[1].(int64)}
	})
	return gen.SliceOf(genKey).Map(func(keys []types.PlayKey) []types.PlayKey {
		seen := make(map[types.PlayKey]struct{}, len(keys))
		var distinct []types.PlayKey
		for _, key := range keys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			distinct = append(distinct, key)
		}
		return distinct
	})
}

func TestSampleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	ctx := context.Background()

	properties.Property("sampled plays are a subset of the population of size min(n, available)",
		prop.ForAll(
			func(keys []types.PlayKey, n int, seed int64) bool {
				if len(keys) == 0 {
					return true
				}
				p := poolFromKeys(t, keys)

				table, report, err := p.SamplePlays(ctx, n, nil, seed)
				if err != nil {
					return false
				}

				population := make(map[types.PlayKey]struct{}, len(keys))
				for _, key := range keys {
					population[key] = struct{}{}
				}
				sampled := table.DistinctPlayKeys()
				for _, key := range sampled {
					if _, ok := population[key]; !ok {
						return false
					}
				}

				want := n
				if len(keys) < n {
					want = len(keys)
				}
				return len(sampled) == want &&
					report.Returned == want &&
					report.Undersupplied == (len(keys) < n)
			},
			genPlayKeys(),
			gen.IntRange(1, 12),
			gen.Int64(),
		))

	properties.Property("the same seed draws the same plays",
		prop.ForAll(
			func(keys []types.PlayKey, n int, seed int64) bool {
				if len(keys) == 0 {
					return true
				}
				p := poolFromKeys(t, keys)

				first, _, err := p.SamplePlays(ctx, n, nil, seed)
				if err != nil {
					return false
				}
				second, _, err := p.SamplePlays(ctx, n, nil, seed)
				if err != nil {
					return false
				}
				return reflect.DeepEqual(first.DistinctPlayKeys(), second.DistinctPlayKeys())
			},
			genPlayKeys(),
			gen.IntRange(1, 12),
			gen.Int64(),
		))

	properties.TestingRun(t)
}
