// Package workspace implements the engine's file namespace.
//
// A Workspace is a directory holding the fixed-name entries of one pipeline
// run (input.mp4, captions.vtt, captions.srt, output.mp4). Because the names
// are fixed, two runs sharing a directory would overwrite each other, so
// Acquire takes an exclusive flock that also excludes other processes.
package workspace
