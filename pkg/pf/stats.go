package pf

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Counters are process-wide: every open file shares the same buffer
// pool and the same set of I/O counters. logical_reads increments on
// every pin call regardless of hit or miss; physical_reads/writes
// increment at the Block I/O chokepoint; header I/O is excluded.
var (
	logicalReads   atomic.Int64
	physicalReads  atomic.Int64
	physicalWrites atomic.Int64
)

// Stats is a snapshot of the process-wide I/O counters.
type Stats struct {
	LogicalReads   int64
	PhysicalReads  int64
	PhysicalWrites int64
}

// HitRate returns (logical - physical_reads) / logical, or 0 if no
// pins have occurred yet.
func (s Stats) HitRate() float64 {
	if s.LogicalReads == 0 {
		return 0
	}
	return float64(s.LogicalReads-s.PhysicalReads) / float64(s.LogicalReads)
}

// ResetStats zeroes all three counters.
func ResetStats() {
	logicalReads.Store(0)
	physicalReads.Store(0)
	physicalWrites.Store(0)
}

// GetStats reads the three counters.
func GetStats() Stats {
	return Stats{
		LogicalReads:   logicalReads.Load(),
		PhysicalReads:  physicalReads.Load(),
		PhysicalWrites: physicalWrites.Load(),
	}
}

// PrintStats writes a human-readable summary of the counters to w, for
// use by the debug console and by tests asserting on scenario output.
func PrintStats(w io.Writer) {
	s := GetStats()
	fmt.Fprintf(w, "logical_reads=%d physical_reads=%d physical_writes=%d hit_rate=%.3f\n",
		s.LogicalReads, s.PhysicalReads, s.PhysicalWrites, s.HitRate())
}
