// Package app assembles a captionmux process from configuration: workspace,
// run history, presenter, session and media engine. The CLI's run and serve
// commands both start from Open.
package app
