// Package vfs implements the in-memory virtual filesystem that backs a
// code-generation workspace session. It owns a flat keyed map of file
// paths to file records and a parallel map of directory paths to
// directory records; every other subsystem depends on it.
package vfs

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultMaxDepth is the maximum number of directory levels a path may
// nest beneath the root.
const DefaultMaxDepth = 10

// File represents one text file record.
type File struct {
	Path         string
	Content      string
	Language     string
	Size         int
	LastModified time.Time
}

// Directory represents a path segment that contains files or
// subdirectories. Parent is a lookup relation only; the store's map is
// the sole owner of every record.
type Directory struct {
	Path     string
	Children []string
	Parent   string
}

// Store is the virtual filesystem. All operations are synchronous and
// guarded by a single lock; multi-step operations (ancestor auto-create,
// then file insert) are atomic with respect to other callers.
type Store struct {
	mu       sync.RWMutex
	files    map[string]*File
	dirs     map[string]*Directory
	maxDepth int
}

// New creates an empty store containing only the root directory,
// with the default depth cap.
func New() *Store {
	return NewWithMaxDepth(DefaultMaxDepth)
}

// NewWithMaxDepth creates an empty store with a custom depth cap.
func NewWithMaxDepth(maxDepth int) *Store {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	s := &Store{maxDepth: maxDepth}
	s.reset()
	return s
}

// reset replaces all state with an empty tree. Caller must hold mu, or
// have exclusive access (constructor).
func (s *Store) reset() {
	s.files = make(map[string]*File)
	s.dirs = map[string]*Directory{
		Root: {Path: Root},
	}
}

// checkPath normalizes and validates a path, returning the canonical
// form. Depth is checked separately by each operation because the cap
// applies to directory levels, not raw segment counts.
func (s *Store) checkPath(path string) (string, error) {
	p := Normalize(path)
	if err := Validate(p); err != nil {
		return "", err
	}
	if p == Root {
		return "", fmt.Errorf("%w: root is not addressable here", ErrInvalidPath)
	}
	return p, nil
}

// fileConflict reports whether a file at p would collide with a record
// of the opposite kind: a directory already at p, or a file occupying
// one of p's ancestor paths. Caller must hold mu.
func (s *Store) fileConflict(p string) error {
	if _, ok := s.dirs[p]; ok {
		return fmt.Errorf("%w: %q is a directory", ErrInvalidPath, p)
	}
	return s.ancestorConflict(p)
}

// dirConflict reports whether a directory at p would collide with a
// file at p or at one of p's ancestor paths. Caller must hold mu.
func (s *Store) dirConflict(p string) error {
	if _, ok := s.files[p]; ok {
		return fmt.Errorf("%w: %q is a file", ErrInvalidPath, p)
	}
	return s.ancestorConflict(p)
}

func (s *Store) ancestorConflict(p string) error {
	for _, dir := range Ancestors(p) {
		if _, ok := s.files[dir]; ok {
			return fmt.Errorf("%w: ancestor %q is a file", ErrInvalidPath, dir)
		}
	}
	return nil
}

// ensureAncestors creates every missing ancestor directory of p and
// links each into its parent. Caller must hold mu and must have
// verified depth beforehand, so this step never fails.
func (s *Store) ensureAncestors(p string) {
	for _, dir := range Ancestors(p) {
		if _, ok := s.dirs[dir]; ok {
			continue
		}
		parent := ParentPath(dir)
		s.dirs[dir] = &Directory{Path: dir, Parent: parent}
		s.link(parent, dir)
	}
}

// link registers child under parent's children if not already present.
func (s *Store) link(parent, child string) {
	d := s.dirs[parent]
	for _, c := range d.Children {
		if c == child {
			return
		}
	}
	d.Children = append(d.Children, child)
}

// unlink removes child from parent's children.
func (s *Store) unlink(parent, child string) {
	d, ok := s.dirs[parent]
	if !ok {
		return
	}
	for i, c := range d.Children {
		if c == child {
			d.Children = append(d.Children[:i], d.Children[i+1:]...)
			return
		}
	}
}

// CreateFile inserts or overwrites the file at path, auto-creating every
// missing ancestor directory. A depth violation or a collision with a
// directory record fails before any mutation, leaving no partially
// created ancestors behind. A path may hold a file or a directory,
// never both.
func (s *Store) CreateFile(path, content string) error {
	p, err := s.checkPath(path)
	if err != nil {
		return err
	}
	// The file's containing directory must not nest deeper than the cap.
	if Depth(p)-1 > s.maxDepth {
		return fmt.Errorf("%w: %q nests %d levels (max %d)", ErrDepthExceeded, p, Depth(p)-1, s.maxDepth)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fileConflict(p); err != nil {
		return err
	}
	s.ensureAncestors(p)

	now := time.Now()
	if prev, ok := s.files[p]; ok && prev.LastModified.After(now) {
		now = prev.LastModified
	}
	s.files[p] = &File{
		Path:         p,
		Content:      content,
		Language:     LanguageForPath(p),
		Size:         len(content),
		LastModified: now,
	}
	s.link(ParentPath(p), p)
	return nil
}

// ReadFile returns the content of the file at path.
func (s *Store) ReadFile(path string) (string, error) {
	p := Normalize(path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[p]
	if !ok {
		return "", fmt.Errorf("read %s: %w", p, ErrNotFound)
	}
	return f.Content, nil
}

// UpdateFile replaces the content of an existing file. Unlike
// CreateFile it never creates.
func (s *Store) UpdateFile(path, content string) error {
	p := Normalize(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[p]
	if !ok {
		return fmt.Errorf("update %s: %w", p, ErrNotFound)
	}
	f.Content = content
	f.Size = len(content)
	if now := time.Now(); now.After(f.LastModified) {
		f.LastModified = now
	}
	return nil
}

// DeleteFile removes the file record and drops the path from its
// parent's children.
func (s *Store) DeleteFile(path string) error {
	p := Normalize(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[p]; !ok {
		return fmt.Errorf("delete %s: %w", p, ErrNotFound)
	}
	delete(s.files, p)
	s.unlink(ParentPath(p), p)
	return nil
}

// CreateDirectory creates the directory at path along with any missing
// ancestors. Creating an existing directory is a no-op; a path already
// held by a file is rejected.
func (s *Store) CreateDirectory(path string) error {
	p, err := s.checkPath(path)
	if err != nil {
		return err
	}
	if Depth(p) > s.maxDepth {
		return fmt.Errorf("%w: %q nests %d levels (max %d)", ErrDepthExceeded, p, Depth(p), s.maxDepth)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirs[p]; ok {
		return nil
	}
	if err := s.dirConflict(p); err != nil {
		return err
	}
	s.ensureAncestors(p)
	parent := ParentPath(p)
	s.dirs[p] = &Directory{Path: p, Parent: parent}
	s.link(parent, p)
	return nil
}

// DeleteDirectory removes the directory and every descendant file and
// subdirectory. Uses an explicit worklist rather than recursion.
func (s *Store) DeleteDirectory(path string) error {
	p := Normalize(path)
	if p == Root {
		return fmt.Errorf("%w: cannot delete root", ErrInvalidPath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirs[p]; !ok {
		return fmt.Errorf("delete %s: %w", p, ErrNotFound)
	}

	work := []string{p}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		d := s.dirs[cur]
		for _, child := range d.Children {
			if _, isFile := s.files[child]; isFile {
				delete(s.files, child)
			} else if _, isDir := s.dirs[child]; isDir {
				work = append(work, child)
			}
		}
		delete(s.dirs, cur)
	}
	s.unlink(ParentPath(p), p)
	return nil
}

// FileExists reports whether a file record exists at path.
func (s *Store) FileExists(path string) bool {
	p := Normalize(path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[p]
	return ok
}

// DirectoryExists reports whether a directory record exists at path.
func (s *Store) DirectoryExists(path string) bool {
	p := Normalize(path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dirs[p]
	return ok
}

// GetFile returns a copy of the file record at path. The copy prevents
// external aliasing of store-owned records.
func (s *Store) GetFile(path string) (File, error) {
	p := Normalize(path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[p]
	if !ok {
		return File{}, fmt.Errorf("get %s: %w", p, ErrNotFound)
	}
	return *f, nil
}

// GetDirectory returns a copy of the directory record at path.
func (s *Store) GetDirectory(path string) (Directory, error) {
	p := Normalize(path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dirs[p]
	if !ok {
		return Directory{}, fmt.Errorf("get %s: %w", p, ErrNotFound)
	}
	cp := *d
	cp.Children = append([]string(nil), d.Children...)
	return cp, nil
}

// ListFiles returns the immediate child files of dir, sorted by path.
func (s *Store) ListFiles(dir string) ([]File, error) {
	return s.listChildren(dir, true)
}

// ListDirectories returns the immediate child directories of dir as
// paths, sorted.
func (s *Store) ListDirectories(dir string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dirs[Normalize(dir)]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", dir, ErrNotFound)
	}
	var out []string
	for _, child := range d.Children {
		if _, isDir := s.dirs[child]; isDir {
			out = append(out, child)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) listChildren(dir string, wantFiles bool) ([]File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dirs[Normalize(dir)]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", dir, ErrNotFound)
	}
	var out []File
	for _, child := range d.Children {
		if f, isFile := s.files[child]; isFile && wantFiles {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// AllFiles flattens the entire file map into a path→content mapping.
// This is the snapshot source for checkpoints and the wire format
// consumed by every external collaborator.
func (s *Store) AllFiles() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.files))
	for p, f := range s.files {
		out[p] = f.Content
	}
	return out
}

// FileCount returns the number of file records.
func (s *Store) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Clear resets the store to an empty tree containing only the root.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Sync bulk-loads a path→content mapping, replacing all current state.
// Every path must pass normalization, validation and the depth cap; on
// the first failure the store is left untouched.
func (s *Store) Sync(files map[string]string) error {
	// Validate everything up front so a bad path cannot leave a
	// half-replaced tree.
	norm := make(map[string]struct{}, len(files))
	for path := range files {
		p, err := s.checkPath(path)
		if err != nil {
			return fmt.Errorf("sync %s: %w", path, err)
		}
		if Depth(p)-1 > s.maxDepth {
			return fmt.Errorf("sync %s: %w", path, ErrDepthExceeded)
		}
		norm[p] = struct{}{}
	}
	// No file may double as a directory of another.
	for p := range norm {
		for _, dir := range Ancestors(p) {
			if _, ok := norm[dir]; ok {
				return fmt.Errorf("sync %s: %w: ancestor %q is a file", p, ErrInvalidPath, dir)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	now := time.Now()
	for path, content := range files {
		p := Normalize(path)
		s.ensureAncestors(p)
		s.files[p] = &File{
			Path:         p,
			Content:      content,
			Language:     LanguageForPath(p),
			Size:         len(content),
			LastModified: now,
		}
		s.link(ParentPath(p), p)
	}
	return nil
}
