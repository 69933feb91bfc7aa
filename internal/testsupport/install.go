package testsupport

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// Sound describes one sound asset in a fake Minecraft installation.
type Sound struct {
	Name string // logical key, e.g. "minecraft/sounds/music/calm1.ogg"
	Hash string
	Size int64
}

// WriteInstall lays out a Minecraft install under root with an asset index
// named <version>.json and one object file per sound.
func WriteInstall(t testing.TB, root, version string, sounds ...Sound) {
	t.Helper()

	objects := make(map[string]map[string]any, len(sounds))
	for _, sound := range sounds {
		objects[sound.Name] = map[string]any{"hash": sound.Hash, "size": sound.Size}
		WriteFile(t, ObjectPath(root, sound.Hash, ".ogg"), sound.Size)
	}
	payload, err := json.Marshal(map[string]any{"objects": objects})
	if err != nil {
		t.Fatalf("marshal asset index: %v", err)
	}
	WriteBytes(t, filepath.Join(root, "assets", "indexes", version+".json"), payload)
}

// ObjectPath returns where an object file for hash lives inside root.
func ObjectPath(root, hash, ext string) string {
	prefix := hash
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(root, "assets", "objects", strings.ToLower(prefix), hash+ext)
}
