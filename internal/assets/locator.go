package assets

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"mcsounds/internal/failure"
)

// Candidate is a manifest file found in the indexes directory.
type Candidate struct {
	Name     string
	Path     string
	Priority []int
}

// Version returns the filename without its manifest extension.
func (c Candidate) Version() string {
	return strings.TrimSuffix(c.Name, ManifestExtension)
}

// ListManifests returns every manifest candidate under root, highest priority first.
func ListManifests(root string) ([]Candidate, error) {
	dir := IndexesDir(root)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, failure.Wrap(failure.ErrNotFound, "locate", "read indexes", dir, err)
	}

	candidates := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ManifestExtension) {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:     entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Priority: priorityOf(entry.Name()),
		})
	}
	if len(candidates) == 0 {
		return nil, failure.Wrap(failure.ErrNotFound, "locate", "", "no "+ManifestExtension+" files in "+dir, nil)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if cmp := comparePriority(candidates[i].Priority, candidates[j].Priority); cmp != 0 {
			return cmp > 0
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates, nil
}

// LocateManifest returns the path of the manifest with the highest leading
// numeric filename segment.
func LocateManifest(root string) (string, error) {
	candidates, err := ListManifests(root)
	if err != nil {
		return "", err
	}
	return candidates[0].Path, nil
}

// priorityOf splits the filename on dots and parses every segment as a
// non-negative integer. Non-numeric segments rank lowest (-1); digit runs too
// large for an int rank highest.
func priorityOf(name string) []int {
	base := strings.TrimSuffix(name, ManifestExtension)
	parts := strings.Split(base, ".")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		out = append(out, parseSegment(part))
	}
	return out
}

func parseSegment(segment string) int {
	if segment == "" {
		return -1
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return -1
		}
	}
	value, err := strconv.Atoi(segment)
	if errors.Is(err, strconv.ErrRange) {
		// All digits but too long for an int: still newer than anything parseable.
		return math.MaxInt
	}
	if err != nil {
		return -1
	}
	return value
}

func comparePriority(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		av, bv := -1, -1
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		switch {
		case av > bv:
			return 1
		case av < bv:
			return -1
		}
	}
	return 0
}
