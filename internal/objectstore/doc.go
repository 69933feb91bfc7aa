// Package objectstore enumerates the content-addressed object tree of a
// Minecraft installation and matches stored objects against a hash index.
//
// The walk does not assume the two-level hash-prefix layout: every regular
// file at any depth is considered, in lexical order, and keyed by its
// filename without extension.
package objectstore
