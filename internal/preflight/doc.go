// Package preflight provides readiness checks for the Minecraft folder, the
// output folder, and the external codec that mcsounds depends on.
//
// These checks run in two contexts:
//   - `mcsounds extract` calls RunAll before starting a job and refuses to
//     start when a required check fails.
//   - `mcsounds status` renders every Result so problems are visible before
//     a long extraction.
//
// Codec checks are skipped when no output format is selected.
package preflight
