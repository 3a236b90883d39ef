// Package captions decodes and inspects caption text supplied by the user.
//
// Uploaded caption files arrive as UTF-8, UTF-8 with a BOM, or UTF-16 with a
// BOM; Decode normalizes all of them to UTF-8 text. Inspect recognizes
// WebVTT and SubRip content and counts cues for status display. Neither
// function validates timing: the engine remains the authority on whether a
// caption file converts.
package captions
