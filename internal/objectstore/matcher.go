package objectstore

import (
	"fmt"

	"mcsounds/internal/assets"
	"mcsounds/internal/failure"
)

// Match pairs a stored object with the logical filename it is extracted as.
type Match struct {
	Object
	Hash     string
	Filename string
}

// Matcher looks objects up in a hash index and rejects ambiguous hits within
// one scan: a second object with an already matched key, or a second hash
// claiming an already used filename.
type Matcher struct {
	index   assets.HashIndex
	keys    map[string]string
	claimed map[string]string
}

// NewMatcher constructs a matcher for index.
func NewMatcher(index assets.HashIndex) *Matcher {
	return &Matcher{
		index:   index,
		keys:    make(map[string]string, len(index)),
		claimed: make(map[string]string, len(index)),
	}
}

// Match reports whether obj is wanted. A duplicate returns ok=false together
// with an error tagged failure.ErrCopy.
func (m *Matcher) Match(obj Object) (Match, bool, error) {
	filename, ok := m.index[obj.Key]
	if !ok {
		return Match{}, false, nil
	}
	if prev, seen := m.keys[obj.Key]; seen {
		return Match{}, false, failure.Wrap(failure.ErrCopy, "copy", "duplicate key",
			fmt.Sprintf("%s already matched by %s", obj.Path, prev), nil)
	}
	if owner, taken := m.claimed[filename]; taken && owner != obj.Key {
		m.keys[obj.Key] = obj.Path
		return Match{}, false, failure.Wrap(failure.ErrCopy, "copy", "filename collision",
			fmt.Sprintf("%s maps to %s, already written for hash %s", obj.Path, filename, owner), nil)
	}
	m.keys[obj.Key] = obj.Path
	m.claimed[filename] = obj.Key
	return Match{Object: obj, Hash: obj.Key, Filename: filename}, true, nil
}

// Matched returns how many distinct objects have matched so far.
func (m *Matcher) Matched() int {
	return len(m.claimed)
}
