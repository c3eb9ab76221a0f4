/*
Package workers provides utilities for determining optimal worker pool sizes
in containerized environments.

# Overview

When running Go applications in containers, the number of available CPUs may
be limited by cgroup constraints. While Go 1.19+ automatically sets GOMAXPROCS
based on container CPU limits, runtime.NumCPU() still returns the host
machine's CPU count. This package uses GOMAXPROCS to size worker pools for
different workload types, so indexing and thumbnail generation respect
container resource limits.

# Basic Usage

The package provides task-specific helper functions:

	import "photo-index/internal/workers"

	// For CPU-intensive tasks (image decoding, resizing)
	numWorkers := workers.ForCPU(8) // max 8 workers

	// For I/O-bound tasks (directory scanning, file reads)
	numWorkers := workers.ForIO(16) // max 16 workers

	// For mixed workloads (read file, decode, write thumbnail)
	numWorkers := workers.ForMixed(12) // max 12 workers

For fine-grained control, use the Count function directly:

	numWorkers := workers.Count(3.0, 24)

# Environment Variable Override

All functions respect the INDEXER_WORKERS environment variable, allowing
operators to override the automatic calculation:

	env:
	- name: INDEXER_WORKERS
	  value: "4"

This is useful for fine-tuning performance in specific environments or
temporarily limiting concurrency.

# Workload Types

CPU-bound tasks (multiplier 1.0) benefit from one worker per available CPU;
more would only add context switching. I/O-bound tasks (multiplier 2.0) can
run more workers than CPUs because workers spend most of their time waiting.
Mixed tasks (multiplier 1.5) sit in between.

All functions are safe for concurrent use.
*/
package workers
