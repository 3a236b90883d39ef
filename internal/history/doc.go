// Package history persists a record of every pipeline run in SQLite.
//
// The store is append-mostly: a run is inserted when it starts and updated
// once when it reaches a terminal stage (or is cancelled). Runs left marked
// running by a process that exited mid-run are closed out as interrupted by
// CloseInterrupted, which the caller invokes only while it holds the
// workspace lock.
package history
