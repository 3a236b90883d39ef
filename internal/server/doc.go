// Package server exposes the captionmux session over HTTP.
//
// The API is the browser-facing surface: uploads feed the session's intake,
// /api/run and /api/reset drive the pipeline, /api/status and the
// /api/events websocket report progress, and /api/result serves the
// presented video and its caption track. Routing uses gin; the event stream
// uses gorilla/websocket.
package server
