// Package failure defines the error markers shared by the extraction
// pipeline and the helpers that classify them.
//
// Directory and index level problems (missing manifest, empty index, missing
// codec) end a job; copy and conversion problems are per item and are only
// counted. Wrap errors with one of the exported markers so callers can tell
// the two apart with errors.Is and report a stable Reason.
package failure
