// Package observability provides scan statistics tracking for pool
// queries and ingestion diagnostics.
package observability

import (
	"sort"
	"sync"
	"time"
)

// ScanStats tracks per-operation pool scan counters. Queries record how
// many partition files they touched, pruned, and read rows from, so
// operators can see whether bloom pruning and filters are effective.
type ScanStats struct {
	mu  sync.RWMutex
	ops map[string]*OpStats
}

// OpStats holds cumulative counters for one operation name.
type OpStats struct {
	Op               string
	Calls            int64
	FilesScanned     int64
	PartitionsPruned int64
	RowsRead         int64
	RowsMatched      int64
	TotalDuration    time.Duration
	LastSeen         time.Time
}

// Scan is the record of a single operation, merged into the tracker
// via Record.
type Scan struct {
	Op               string
	FilesScanned     int64
	PartitionsPruned int64
	RowsRead         int64
	RowsMatched      int64
	Duration         time.Duration
}

// NewScanStats creates a scan statistics tracker.
func NewScanStats() *ScanStats {
	return &ScanStats{ops: make(map[string]*OpStats)}
}

// Record merges one finished scan into the tracker. O(1), thread-safe.
func (s *ScanStats) Record(scan Scan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, exists := s.ops[scan.Op]
	if !exists {
		stats = &OpStats{Op: scan.Op}
		s.ops[scan.Op] = stats
	}

	stats.Calls++
	stats.FilesScanned += scan.FilesScanned
	stats.PartitionsPruned += scan.PartitionsPruned
	stats.RowsRead += scan.RowsRead
	stats.RowsMatched += scan.RowsMatched
	stats.TotalDuration += scan.Duration
	stats.LastSeen = time.Now()
}

// Snapshot returns a copy of all operation stats sorted by name.
func (s *ScanStats) Snapshot() []OpStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]OpStats, 0, len(s.ops))
	for _, stats := range s.ops {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}

// Get returns the stats for one operation, zero-valued when unseen.
func (s *ScanStats) Get(op string) OpStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if stats, ok := s.ops[op]; ok {
		return *stats
	}
	return OpStats{Op: op}
}
