// Package engine drives the external ffmpeg engine captionmux delegates all
// media work to.
//
// An Adapter exposes the engine's contract: write a named file into the
// workspace, execute an argument list against it, and read a named file back.
// Load walks an ordered list of providers and returns the first adapter that
// initializes; the local provider runs an ffmpeg binary directly, the
// container provider runs the same arguments inside an ffmpeg image.
//
// Adapters never retry. Every Execute call honours context cancellation by
// killing the engine's whole process group.
package engine
