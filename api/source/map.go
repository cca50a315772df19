package source

import (
	"strings"

	"github.com/morikuni/failure/v2"
)

// Map is an insertion-ordered set of sources keyed by URI.
// Keys are compared as exact strings; callers normalize URIs beforehand.
type Map struct {
	keys  []string
	items map[string]Source
}

// NewMap returns a map holding sources in the given order.
func NewMap(sources ...Source) (*Map, error) {
	m := &Map{items: make(map[string]Source)}
	for _, s := range sources {
		if err := m.Set(s.URI, s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Get returns the source stored for uri.
func (m *Map) Get(uri string) (Source, bool) {
	s, ok := m.items[uri]
	return s, ok
}

// GetByLocalURI returns the available source whose local URI equals localURI.
func (m *Map) GetByLocalURI(localURI string) (Source, bool) {
	if localURI == "" {
		return Source{}, false
	}
	for _, k := range m.keys {
		s := m.items[k]
		if s.IsAvailable() && s.LocalURI == localURI {
			return s, true
		}
	}
	return Source{}, false
}

// Set stores s under uri. Replacing an existing uri keeps its position.
func (m *Map) Set(uri string, s Source) error {
	if strings.TrimSpace(uri) == "" {
		return failure.New(ErrInvalidURI, failure.Message("Source URI must not be empty"))
	}
	if s.URI != uri {
		return failure.New(ErrInvalidSource,
			failure.Message("Source URI does not match its key"),
			failure.Context{"key": uri, "uri": s.URI},
		)
	}
	if s.IsAvailable() {
		if other, ok := m.GetByLocalURI(s.LocalURI); ok && other.URI != uri {
			return failure.New(ErrDuplicateLocalURI,
				failure.Message("Local URI is already used by another source"),
				failure.Context{"local_uri": s.LocalURI, "uri": other.URI},
			)
		}
	}
	if m.items == nil {
		m.items = make(map[string]Source)
	}
	if _, ok := m.items[uri]; !ok {
		m.keys = append(m.keys, uri)
	}
	m.items[uri] = s
	return nil
}

// Remove deletes uri from the map.
func (m *Map) Remove(uri string) {
	if _, ok := m.items[uri]; !ok {
		return
	}
	delete(m.items, uri)
	for i, k := range m.keys {
		if k == uri {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of sources.
func (m *Map) Len() int {
	return len(m.keys)
}

// URIs returns the keys in insertion order.
func (m *Map) URIs() []string {
	return append([]string(nil), m.keys...)
}

// Sources returns the sources in insertion order.
func (m *Map) Sources() []Source {
	out := make([]Source, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.items[k])
	}
	return out
}
