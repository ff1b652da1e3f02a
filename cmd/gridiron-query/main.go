// Package main implements the gridiron-query binary: play sampling,
// play key listing, single-play fetches, and CSV export over the pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridiron/gridiron/internal/config"
	"github.com/gridiron/gridiron/internal/pool"
	"github.com/gridiron/gridiron/internal/schema"
	"github.com/gridiron/gridiron/pkg/types"
)

const usage = `usage: gridiron-query <command> [flags]

commands:
  sample   draw n random plays (all frames) from the pool
  keys     list distinct (gameId, playId) pairs
  fetch    fetch one play's frames ordered by frameId
  export   sample plays and write them to a csv file
`

// filterFlags collects repeatable -filter column=value flags.
type filterFlags []string

func (f *filterFlags) String() string { return fmt.Sprint(*f) }

func (f *filterFlags) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "sample":
		runSample(ctx, args, false)
	case "export":
		runSample(ctx, args, true)
	case "keys":
		runKeys(ctx, args)
	case "fetch":
		runFetch(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runSample(ctx context.Context, args []string, requireOut bool) {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	n := fs.Int("n", 1, "Number of plays to sample")
	seed := fs.Int64("seed", 0, "Random seed (same seed, same plays)")
	out := fs.String("out", "", "Write the sampled frames to this csv file")
	var filters filterFlags
	fs.Var(&filters, "filter", "Row filter column=value (repeatable)")
	fs.Parse(args)

	p, spec := openPool(*configPath)
	preds := parseFilters(filters, spec)

	if requireOut && *out == "" {
		log.Fatalf("export requires -out <file.csv>")
	}

	table, report, err := p.SamplePlays(ctx, *n, preds, *seed)
	if err != nil {
		log.Fatalf("Sample failed: %v", err)
	}

	fmt.Printf("sampled %d of %d requested plays (%d available, seed %d): %d frames\n",
		report.Returned, report.Requested, report.AvailableKeys, report.Seed, table.NumRows())

	if *out != "" {
		writeCSV(*out, table)
	}
}

func runKeys(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	var filters filterFlags
	fs.Var(&filters, "filter", "Row filter column=value (repeatable)")
	fs.Parse(args)

	p, spec := openPool(*configPath)
	preds := parseFilters(filters, spec)

	keys, err := p.Lazy().Filter(preds...).DistinctPlayKeys(ctx)
	if err != nil {
		log.Fatalf("Key listing failed: %v", err)
	}

	for _, key := range keys {
		fmt.Printf("%d,%d\n", key.GameID, key.PlayID)
	}
	fmt.Fprintf(os.Stderr, "%d distinct plays\n", len(keys))
}

func runFetch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	gameID := fs.Int64("game", 0, "gameId of the play (required)")
	playID := fs.Int64("play", 0, "playId of the play (required)")
	out := fs.String("out", "", "Write frames to this csv file instead of stdout")
	fs.Parse(args)

	if *gameID == 0 || *playID == 0 {
		log.Fatalf("fetch requires -game and -play")
	}

	p, _ := openPool(*configPath)

	table, err := p.FetchPlay(ctx, *gameID, *playID)
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}
	if table.NumRows() == 0 {
		log.Fatalf("No frames found for gameId=%d playId=%d", *gameID, *playID)
	}

	if *out != "" {
		writeCSV(*out, table)
		return
	}
	if err := pool.ExportCSV(os.Stdout, table); err != nil {
		log.Fatalf("Failed to write csv: %v", err)
	}
}

func openPool(configPath string) (*pool.Pool, *schema.Spec) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	spec, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}

	p, err := pool.Open(cfg.PoolRoot, spec)
	if err != nil {
		log.Fatalf("Failed to open pool: %v", err)
	}
	return p, spec
}

func parseFilters(filters filterFlags, spec *schema.Spec) []pool.Predicate {
	var preds []pool.Predicate
	for _, expr := range filters {
		pred, err := pool.Parse(expr, spec)
		if err != nil {
			log.Fatalf("Invalid filter: %v", err)
		}
		preds = append(preds, pred)
	}
	return preds
}

func writeCSV(path string, table *types.Table) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := pool.ExportCSV(f, table); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	log.Printf("wrote %d rows to %s", table.NumRows(), path)
}

func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
