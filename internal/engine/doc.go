// Package engine schedules workflow runs. Steps are partitioned into
// dependency levels and executed either one at a time or with bounded
// per-level concurrency; outputs flow to dependent steps as immutable
// per-step input snapshots
package engine
