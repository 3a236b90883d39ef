// Package intake validates user inputs before they reach a pipeline run.
//
// A Validator turns uploaded video bytes and caption text or files into the
// values an InputSet holds. Rejections come back as *ValidationError and never
// touch the InputSet; the caller applies accepted values itself, so a set is
// only ever replaced wholesale per field (last write wins).
package intake
