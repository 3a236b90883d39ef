// Package language maps configured caption languages to the code forms the
// engine and the presented track need: ISO 639-2 for stream metadata, ISO
// 639-1 for the display track, and an English display name for labels.
package language
