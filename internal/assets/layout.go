package assets

import "path/filepath"

const (
	// ManifestExtension is the suffix recognized for asset index files.
	ManifestExtension = ".json"
	// SoundExtension is the default target extension for extracted entries.
	SoundExtension = ".ogg"
)

// IndexesDir returns the directory holding asset index manifests.
func IndexesDir(root string) string {
	return filepath.Join(root, "assets", "indexes")
}

// ObjectsDir returns the root of the content-addressed object store.
func ObjectsDir(root string) string {
	return filepath.Join(root, "assets", "objects")
}
