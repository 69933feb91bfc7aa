package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mcsounds/internal/failure"
)

// Entry is one record of the manifest's objects collection, in document order.
type Entry struct {
	Key  string
	Hash string
	Size int64
}

type entryRecord struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Manifest is a decoded asset index. It is immutable once loaded.
type Manifest struct {
	Path    string
	Version string
	Entries []Entry
}

// HashIndex maps a lowercase content hash to the logical output filename.
type HashIndex map[string]string

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, failure.Wrap(failure.ErrParse, "parse", "open manifest", path, err)
	}
	defer file.Close()

	manifest, err := Decode(file)
	if err != nil {
		return nil, failure.Wrap(failure.ErrParse, "parse", "decode manifest", path, err)
	}
	manifest.Path = path
	manifest.Version = strings.TrimSuffix(filepath.Base(path), ManifestExtension)
	return manifest, nil
}

// Decode reads a manifest document. Entries of the objects collection keep
// their document order so later duplicates deterministically win.
func Decode(r io.Reader) (*Manifest, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	manifest := &Manifest{}
	found := false
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "objects" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			continue
		}
		if found {
			manifest.Entries = manifest.Entries[:0]
		}
		found = true
		if err := decodeObjects(dec, manifest); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(`missing "objects" field`)
	}
	return manifest, nil
}

func decodeObjects(dec *json.Decoder, manifest *Manifest) error {
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf(`"objects": %w`, err)
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return err
		}
		var record entryRecord
		if err := dec.Decode(&record); err != nil {
			return fmt.Errorf("object %q: %w", key, err)
		}
		manifest.Entries = append(manifest.Entries, Entry{
			Key:  key,
			Hash: strings.TrimSpace(record.Hash),
			Size: record.Size,
		})
	}
	return expectDelim(dec, '}')
}

// Index reduces the manifest to the entries whose key ends in ext. The last
// path segment becomes the output filename; a hash seen twice keeps the later
// filename. An entry without a hash fails the whole index.
func (m *Manifest) Index(ext string) (HashIndex, error) {
	index := make(HashIndex)
	if m == nil {
		return index, nil
	}
	for _, entry := range m.Entries {
		if !strings.HasSuffix(entry.Key, ext) {
			continue
		}
		if entry.Hash == "" {
			return HashIndex{}, failure.Wrap(failure.ErrParse, "parse", "index", fmt.Sprintf("object %q has no hash", entry.Key), nil)
		}
		name := path.Base(entry.Key)
		if name == "" || name == "/" || name == "." {
			continue
		}
		index[entry.Hash] = name
	}
	return index, nil
}

// Bytes sums the declared sizes of the entries whose key ends in ext.
func (m *Manifest) Bytes(ext string) int64 {
	if m == nil {
		return 0
	}
	var total int64
	for _, entry := range m.Entries {
		if strings.HasSuffix(entry.Key, ext) && entry.Size > 0 {
			total += entry.Size
		}
	}
	return total
}

// ParseManifest loads the manifest at path and returns its hash index for ext.
// On any failure the returned index is empty, never nil.
func ParseManifest(path, ext string) (HashIndex, error) {
	manifest, err := Load(path)
	if err != nil {
		return HashIndex{}, err
	}
	return manifest.Index(ext)
}

// Filenames returns the distinct logical filenames in the index.
func (h HashIndex) Filenames() map[string]struct{} {
	out := make(map[string]struct{}, len(h))
	for _, name := range h {
		out[name] = struct{}{}
	}
	return out
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
