// Package logs reads the mcsounds log file for the `logs` command.
//
// It returns the last N lines with bounded memory, resumes from byte offsets,
// and follows appended lines until the caller's context ends.
package logs
