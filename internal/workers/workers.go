package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count sizes a worker pool from the number of usable CPUs. GOMAXPROCS
// reflects container CPU quotas on Go 1.19+, so the result honors
// cgroup limits without extra plumbing.
//
// multiplier scales per-CPU parallelism: 1.0 for CPU-bound work, 2.0
// for I/O-bound work where goroutines spend most of their time blocked
// on disk or network. limit caps the result; 0 means uncapped.
//
// The INDEXER_WORKERS environment variable overrides the computed
// count (still subject to limit); invalid values are ignored.
func Count(multiplier float64, limit int) int {
	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if override := os.Getenv("INDEXER_WORKERS"); override != "" {
		if v, err := strconv.Atoi(override); err == nil && v > 0 {
			n = v
		}
	}

	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForCPU sizes a pool for CPU-bound work (one worker per CPU).
func ForCPU(limit int) int { return Count(1.0, limit) }

// ForIO sizes a pool for I/O-bound work (two workers per CPU).
func ForIO(limit int) int { return Count(2.0, limit) }

// ForMixed sizes a pool for work that alternates between CPU and I/O.
func ForMixed(limit int) int { return Count(1.5, limit) }
