// Package events carries session and run progress to observers.
//
// Bus keeps a bounded, sequenced history (read incrementally with Since) and
// fans each published event out to live subscribers. The CLI progress
// renderer and the HTTP websocket stream both consume it.
package events
