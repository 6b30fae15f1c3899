package rts

import (
	"os"
	"path/filepath"
	"sync"
)

// ExistsFunc reports whether a regular file exists at path.
type ExistsFunc func(path string) bool

// FileExists is the default ExistsFunc. Directories do not count.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// SearchPath is the ordered directory list used to turn relative source names
// into file locations. The first directory holding a file wins.
//
// Directories are expected to be registered during start up; after that the
// list is read only and Resolve may be called from several goroutines.
type SearchPath struct {
	mu     sync.RWMutex
	dirs   []string
	exists ExistsFunc
}

// SearchPathOption configures a SearchPath.
type SearchPathOption func(*SearchPath)

// WithExistsFunc replaces the file existence check.
func WithExistsFunc(exists ExistsFunc) SearchPathOption {
	return func(s *SearchPath) {
		if exists != nil {
			s.exists = exists
		}
	}
}

// WithDirectories seeds the search path.
func WithDirectories(dirs ...string) SearchPathOption {
	return func(s *SearchPath) {
		s.dirs = appendNew(s.dirs, dirs)
	}
}

// NewSearchPath constructs a SearchPath.
func NewSearchPath(opts ...SearchPathOption) *SearchPath {
	s := &SearchPath{exists: FileExists}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Append adds dirs after the current entries. Directories already present are
// skipped; the ones actually added are returned.
func (s *SearchPath) Append(dirs ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.dirs)
	s.dirs = appendNew(s.dirs, dirs)
	return append([]string(nil), s.dirs[before:]...)
}

// Prepend inserts dirs ahead of the current entries, keeping their relative
// order, so that they take precedence over earlier registrations.
func (s *SearchPath) Prepend(dirs ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := appendNew(nil, dirs)
	fresh := added[:0]
	for _, dir := range added {
		if indexOf(s.dirs, dir) < 0 {
			fresh = append(fresh, dir)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	s.dirs = append(append([]string(nil), fresh...), s.dirs...)
	return append([]string(nil), fresh...)
}

// Dirs returns the directories in search order.
func (s *SearchPath) Dirs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.dirs...)
}

// Len returns the number of registered directories.
func (s *SearchPath) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirs)
}

// Resolve returns the location of name in the first directory that holds it.
// Absolute names are checked as given.
func (s *SearchPath) Resolve(name string) (string, error) {
	s.mu.RLock()
	dirs := append([]string(nil), s.dirs...)
	exists := s.exists
	s.mu.RUnlock()

	if exists == nil {
		exists = FileExists
	}
	if name == "" {
		return "", &SourceNotFoundError{Name: name, Searched: dirs}
	}
	if filepath.IsAbs(name) {
		if exists(name) {
			return filepath.Clean(name), nil
		}
		return "", &SourceNotFoundError{Name: name}
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if exists(candidate) {
			return candidate, nil
		}
	}
	return "", &SourceNotFoundError{Name: name, Searched: dirs}
}

// ResolveAll resolves names in order and stops at the first missing file.
func (s *SearchPath) ResolveAll(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		path, err := s.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, nil
}

func appendNew(current, dirs []string) []string {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if indexOf(current, dir) >= 0 {
			continue
		}
		current = append(current, dir)
	}
	return current
}

func indexOf(dirs []string, dir string) int {
	for i, candidate := range dirs {
		if candidate == dir {
			return i
		}
	}
	return -1
}
