// Package services defines the error markers shared by the intake, session
// and pipeline packages.
//
// Key responsibilities:
//   - Sentinel markers plus the Wrap helper that tag failures with stage and
//     operation context.
//   - Classify, which maps an engine failure onto a user-facing category and
//     hint.
//
// Use these helpers when wiring new pipeline logic so failure reporting stays
// uniform across the CLI and the HTTP API.
package services
