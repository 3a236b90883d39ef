// Package session holds the single interactive session a captionmux process
// serves: the current inputs, the state of the run in flight, and the
// presented result.
//
// All mutations go through Session methods, which serialize on one mutex.
// A run executes on its own goroutine and reports back through a generation
// check, so a run cancelled by Reset can never write its state over the
// session that replaced it. Every observable change is published on the
// events bus.
package session
