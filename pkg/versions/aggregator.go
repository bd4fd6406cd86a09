package versions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// MajorMinor identifies a release line. It is a plain comparable value and
// can be used directly as a map key.
type MajorMinor struct {
	Major uint64
	Minor uint64
}

// KeyOf returns the release line v belongs to.
func KeyOf(v *semver.Version) MajorMinor {
	return MajorMinor{Major: v.Major(), Minor: v.Minor()}
}

// Compare returns -1, 0 or 1 when k sorts before, equal to or after o.
// Major is compared first, then minor.
func (k MajorMinor) Compare(o MajorMinor) int {
	switch {
	case k.Major < o.Major:
		return -1
	case k.Major > o.Major:
		return 1
	case k.Minor < o.Minor:
		return -1
	case k.Minor > o.Minor:
		return 1
	default:
		return 0
	}
}

// Less reports whether k sorts before o.
func (k MajorMinor) Less(o MajorMinor) bool { return k.Compare(o) < 0 }

// String renders the key as "MAJOR.MINOR".
func (k MajorMinor) String() string {
	return fmt.Sprintf("%d.%d", k.Major, k.Minor)
}

// Aggregator keeps the greatest version seen for each release line.
//
// For every key present, the stored version belongs to that key and is
// greater than or equal to every version inserted under it. Entries are never
// removed. An Aggregator is not safe for concurrent use.
type Aggregator struct {
	best map[MajorMinor]*semver.Version
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{best: make(map[MajorMinor]*semver.Version)}
}

// Insert records v. When its release line already has a version, the greater
// of the two is kept; on a tie the stored version stays. Nil is ignored.
func (a *Aggregator) Insert(v *semver.Version) {
	if v == nil {
		return
	}
	k := KeyOf(v)
	if cur, ok := a.best[k]; !ok || v.Compare(cur) > 0 {
		a.best[k] = v
	}
}

// Len returns the number of release lines seen.
func (a *Aggregator) Len() int { return len(a.best) }

// Snapshot returns the current entries sorted by key ascending.
// Later inserts do not affect a snapshot already taken.
func (a *Aggregator) Snapshot() Snapshot {
	s := make(Snapshot, 0, len(a.best))
	for k, v := range a.best {
		s = append(s, Entry{Key: k, Version: v})
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Key.Less(s[j].Key) })
	return s
}

// Entry is one release line and its newest version.
type Entry struct {
	Key     MajorMinor
	Version *semver.Version
}

// Snapshot is an ordered view of an [Aggregator].
// It serializes as a mapping from "MAJOR.MINOR" to the canonical version
// string, keys in ascending (major, minor) order.
type Snapshot []Entry

// Len returns the number of entries.
func (s Snapshot) Len() int { return len(s) }

// Map returns the snapshot as a plain map. Key order is lost.
func (s Snapshot) Map() map[string]string {
	m := make(map[string]string, len(s))
	for _, e := range s {
		m[e.Key.String()] = e.Version.String()
	}
	return m
}

// MarshalJSON writes an object whose keys keep the snapshot order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key.String())
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Version.String())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML returns an ordered mapping node.
func (s Snapshot) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key.String()},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Version.String()},
		)
	}
	return node, nil
}
