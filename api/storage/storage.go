// Package storage persists fetched resources as temporary files and
// records them in a source map.
package storage

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ka2n/csswrap/api/source"
	"github.com/ka2n/csswrap/log"
	"github.com/morikuni/failure/v2"
	"go.uber.org/multierr"
)

// Storage writes resources under a directory and remembers every path it
// created so that DeleteAll can remove them after a run.
type Storage struct {
	dir string
	now func() time.Time

	mu    sync.Mutex
	paths []string
}

// New returns a Storage rooted at dir. An empty dir means the system temp dir.
func New(dir string) (*Storage, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, failure.Wrap(err,
			failure.WithCode(ErrCreateDir),
			failure.Context{"dir": dir},
		)
	}
	return &Storage{dir: dir, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (s *Storage) Dir() string {
	return s.dir
}

// Store writes content to a fresh path and registers it for uri in sources.
func (s *Storage) Store(sources *source.Map, uri string, content []byte, ext string) (string, error) {
	path, err := s.write(content, ext)
	if err != nil {
		return "", err
	}
	if err := sources.Set(uri, source.FromPath(uri, path)); err != nil {
		return "", failure.Wrap(err, failure.WithCode(ErrRegister), failure.Context{"uri": uri})
	}
	return path, nil
}

// Duplicate copies the file at existingPath to a fresh path and registers
// the copy for uri in sources.
func (s *Storage) Duplicate(sources *source.Map, uri, existingPath, ext string) (string, error) {
	content, err := os.ReadFile(existingPath)
	if err != nil {
		return "", failure.Wrap(err,
			failure.WithCode(ErrRead),
			failure.Context{"path": existingPath},
		)
	}
	return s.Store(sources, uri, content, ext)
}

// Paths returns every path written so far, in creation order.
func (s *Storage) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// DeleteAll removes every file written by s. Files that are already gone are
// ignored; other failures are combined into the returned error.
func (s *Storage) DeleteAll() error {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	var errs error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		log.Warn("Failed to delete stored resources", "error", errs)
	}
	return errs
}

func (s *Storage) write(content []byte, ext string) (string, error) {
	path := filepath.Join(s.dir, s.name(content)+"."+strings.TrimPrefix(ext, "."))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", failure.Wrap(err,
			failure.WithCode(ErrWrite),
			failure.Context{"path": path},
		)
	}

	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()

	log.Debug("Stored resource", "path", path, "bytes", len(content))
	return path, nil
}

// name is md5(content + timestamp + random) so identical content stored
// twice still gets distinct paths.
func (s *Storage) name(content []byte) string {
	h := md5.New()
	h.Write(content)
	h.Write([]byte(strconv.FormatInt(s.now().UnixNano(), 10)))
	h.Write([]byte(uuid.NewString()))
	return hex.EncodeToString(h.Sum(nil))
}
