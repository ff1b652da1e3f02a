// Package pool implements the query side of the data lake: discovery
// of partition files under the pool root, filtered scans, deterministic
// play sampling, and single-play fetches with bloom pruning.
package pool

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gerrors "github.com/gridiron/gridiron/internal/errors"
	"github.com/gridiron/gridiron/internal/observability"
	"github.com/gridiron/gridiron/internal/partition"
	"github.com/gridiron/gridiron/internal/schema"
)

// PartitionFile is one discovered parquet file in the pool.
type PartitionFile struct {
	// Path is the absolute file path.
	Path string
	// RelPath is the path relative to the pool root, slash-separated.
	RelPath string
	// GameID is the id encoded in the partition directory name.
	// HasGameID is false for files outside the gameId=<id> convention;
	// they are still scanned, just never pruned by key.
	GameID    int64
	HasGameID bool
}

// Pool is a handle over the partition files under one root directory.
// The file list is captured at Open; call Refresh after new ingests.
type Pool struct {
	root  string
	spec  *schema.Spec
	stats *observability.ScanStats
	files []PartitionFile
}

// Open opens the pool rooted at root. A root that does not exist is an
// error; an existing root with no partition files is a valid empty pool.
func Open(root string, spec *schema.Spec) (*Pool, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, gerrors.NewPoolError(gerrors.CodePoolNotFound,
			fmt.Sprintf("pool root %s does not exist", root), err)
	}
	if !info.IsDir() {
		return nil, gerrors.NewPoolError(gerrors.CodePoolNotFound,
			fmt.Sprintf("pool root %s is not a directory", root), nil)
	}

	p := &Pool{
		root:  root,
		spec:  spec,
		stats: observability.NewScanStats(),
	}
	if err := p.Refresh(); err != nil {
		return nil, err
	}
	return p, nil
}

// Refresh rescans the root for partition files.
func (p *Pool) Refresh() error {
	var files []PartitionFile
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".parquet") {
			return nil
		}
		// In-flight writer temp files are dot-prefixed.
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return err
		}
		gameID, ok := partition.GameIDFromPath(path)
		files = append(files, PartitionFile{
			Path:      path,
			RelPath:   filepath.ToSlash(rel),
			GameID:    gameID,
			HasGameID: ok,
		})
		return nil
	})
	if err != nil {
		return gerrors.NewPoolError(gerrors.CodePoolNotFound,
			fmt.Sprintf("failed to scan pool root %s", p.root), err)
	}

	// Deterministic scan order regardless of directory iteration order.
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	p.files = files
	return nil
}

// Root returns the pool root directory.
func (p *Pool) Root() string { return p.root }

// Files returns the discovered partition files.
func (p *Pool) Files() []PartitionFile { return p.files }

// Schema returns the column spec the pool was opened with.
func (p *Pool) Schema() *schema.Spec { return p.spec }

// Stats returns the scan statistics tracker.
func (p *Pool) Stats() *observability.ScanStats { return p.stats }

// Lazy starts a filtered scan over the pool.
func (p *Pool) Lazy() *Scan {
	return &Scan{pool: p}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
