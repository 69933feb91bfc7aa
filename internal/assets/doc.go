// Package assets reads the asset index files that ship with a Minecraft
// installation.
//
// LocateManifest picks the newest index under assets/indexes by the numeric
// version in its filename; Load and ParseManifest decode the index and reduce
// it to a HashIndex that maps content hashes to the logical filenames the
// sounds are extracted under.
package assets
