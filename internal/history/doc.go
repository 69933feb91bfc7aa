// Package history persists a record of every extraction run in SQLite.
//
// Each finished job is stored with its roots, formats, outcome, counters, and
// the per-file failures it collected, so `mcsounds history` can show what a
// previous run did long after its terminal output scrolled away. The store
// owns schema creation and version checks and retries writes that hit a busy
// database.
package history
