// Package preflight provides readiness checks for the directories captionmux
// writes into.
//
// The CLI "captionmux deps" command prints every result, and the run command
// calls RunAll before touching the workspace so a full disk or a read-only
// mount fails before the engine starts.
package preflight
