// Package pipeline runs the captions-into-video state machine.
//
// A run moves Idle → Preparing → ConvertingFormat → Merging → Finalizing →
// Done, or to Failed from any working stage. Each stage reports an enter and
// a done percentage through the Observer; the values never decrease within a
// run.
//
// ConvertingFormat is the only stage that talks to the engine more than once.
// The primary recipe converts the caption file to an intermediate format and
// remuxes it as a mov_text track. If either command fails, a single fallback
// remuxes the original captions directly; the fallback's error is the one a
// failed run reports. Merging is bookkeeping only: the remux already merged
// the streams.
package pipeline
