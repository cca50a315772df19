// Package source maps remote resource URIs to their local copies.
package source

import "strings"

// LocalScheme prefixes the local URI of a stored resource.
const LocalScheme = "file:"

// Source is the remote/local correspondence of a single resource.
type Source struct {
	// URI is the absolute remote URI.
	URI string `json:"uri"`

	// LocalURI is file:<path> once the resource is stored. Empty when the
	// resource could not be fetched.
	LocalURI string `json:"local_uri,omitempty"`
}

// New returns a Source for uri. localURI may be empty.
func New(uri, localURI string) Source {
	return Source{URI: uri, LocalURI: localURI}
}

// FromPath returns an available Source whose local URI points at path.
func FromPath(uri, path string) Source {
	return Source{URI: uri, LocalURI: LocalScheme + path}
}

// IsAvailable reports whether a local copy exists.
func (s Source) IsAvailable() bool {
	return s.LocalURI != ""
}

// LocalPath returns the filesystem path of the local copy, or "".
func (s Source) LocalPath() string {
	return strings.TrimPrefix(s.LocalURI, LocalScheme)
}
