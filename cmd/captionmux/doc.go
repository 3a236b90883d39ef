// Package main hosts the captionmux CLI.
//
// The Cobra command tree covers a one-shot run over local files, the HTTP
// server for the browser flow, dependency checks, run history and
// configuration scaffolding. Configuration is resolved once per invocation
// in commandContext; the work itself lives in the internal packages.
package main
