// Package jobs defines the generation job state machine and its SQLite
// persistence. Every transition is written through a check-state-before-write
// guard so a cancelled or superseded job silently refuses further writes
// from a stale worker.
package jobs
