// Package nfsmount exposes a workspace over NFS. It adapts the
// workspace's virtual filesystem to billy.Filesystem for use with
// willscott/go-nfs, so editors and shells can browse and edit the
// session's files through a regular mount.
package nfsmount

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/atelier/internal/vfs"
	"github.com/agentic-research/atelier/internal/workspace"
)

var errReadOnly = fmt.Errorf("read-only filesystem")

// checkpointsFile is a virtual read-only file at the mount root that
// renders the session's checkpoint history.
const checkpointsFile = "/_checkpoints.json"

// WorkspaceFS adapts a workspace to billy.Filesystem.
type WorkspaceFS struct {
	ws        *workspace.Workspace
	mountTime time.Time
	readOnly  bool
}

// NewWorkspaceFS creates a read-write billy.Filesystem backed by the
// given workspace.
func NewWorkspaceFS(ws *workspace.Workspace) *WorkspaceFS {
	return &WorkspaceFS{ws: ws, mountTime: time.Now()}
}

// SetReadOnly disables every mutating operation.
func (fs *WorkspaceFS) SetReadOnly() {
	fs.readOnly = true
}

// checkpointsJSON renders the checkpoint history, fresh on each read.
func (fs *WorkspaceFS) checkpointsJSON() []byte {
	var entries []any
	for _, cp := range fs.ws.Checkpoints() {
		entries = append(entries, map[string]any{
			"id":          cp.ID,
			"timestamp":   cp.Timestamp.UTC().Format(time.RFC3339Nano),
			"label":       cp.Label,
			"description": cp.Description,
		})
	}
	data, err := oj.Marshal(entries, 2)
	if err != nil {
		return []byte("[]\n")
	}
	return append(data, '\n')
}

// --- billy.Basic ---

func (fs *WorkspaceFS) Create(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

func (fs *WorkspaceFS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *WorkspaceFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	filename = cleanPath(filename)

	writing := flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0
	if writing {
		if fs.readOnly {
			return nil, errReadOnly
		}
		return fs.openWritable(filename, flag)
	}

	if filename == checkpointsFile {
		return &bytesFile{name: checkpointsFile, data: fs.checkpointsJSON()}, nil
	}

	content, err := fs.ws.ReadFile(filename)
	if err != nil {
		if fs.ws.FS().DirectoryExists(filename) {
			return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
		}
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	return &bytesFile{name: filename, data: []byte(content)}, nil
}

// openWritable returns a buffered file that commits into the workspace
// on Close. NFS WRITE RPCs arrive as individual writes; the full
// content lands in one WriteFile call at the commit point.
func (fs *WorkspaceFS) openWritable(filename string, flag int) (billy.File, error) {
	if filename == checkpointsFile {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("read-only virtual file")}
	}
	if fs.ws.FS().DirectoryExists(filename) {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	}

	// Pre-fill with existing content for O_RDWR / partial writes.
	var buf []byte
	if flag&os.O_TRUNC == 0 {
		if content, err := fs.ws.ReadFile(filename); err == nil {
			buf = []byte(content)
		}
	}

	return &writeFile{
		path: filename,
		buf:  buf,
		onClose: func(path string, content []byte) error {
			return fs.ws.WriteFile(path, string(content))
		},
	}, nil
}

func (fs *WorkspaceFS) Stat(filename string) (os.FileInfo, error) {
	return fs.Lstat(filename)
}

func (fs *WorkspaceFS) Rename(oldpath, newpath string) error {
	if fs.readOnly {
		return errReadOnly
	}
	oldpath = cleanPath(oldpath)
	newpath = cleanPath(newpath)

	if content, err := fs.ws.ReadFile(oldpath); err == nil {
		if err := fs.ws.WriteFile(newpath, content); err != nil {
			return &os.PathError{Op: "rename", Path: newpath, Err: err}
		}
		return fs.ws.DeleteFile(oldpath)
	}
	if fs.ws.FS().DirectoryExists(oldpath) {
		return fs.renameDir(oldpath, newpath)
	}
	return &os.PathError{Op: "rename", Path: oldpath, Err: os.ErrNotExist}
}

// renameDir re-keys every file under oldpath to newpath and drops the
// old subtree.
func (fs *WorkspaceFS) renameDir(oldpath, newpath string) error {
	if newpath == oldpath {
		return nil
	}
	if strings.HasPrefix(newpath+"/", oldpath+"/") {
		return &os.PathError{Op: "rename", Path: newpath, Err: fmt.Errorf("destination inside source")}
	}

	store := fs.ws.FS()
	if err := store.CreateDirectory(newpath); err != nil {
		return &os.PathError{Op: "rename", Path: newpath, Err: err}
	}
	prefix := oldpath + "/"
	for p, content := range store.AllFiles() {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		if err := store.CreateFile(newpath+"/"+p[len(prefix):], content); err != nil {
			return &os.PathError{Op: "rename", Path: p, Err: err}
		}
	}
	return store.DeleteDirectory(oldpath)
}

func (fs *WorkspaceFS) Remove(filename string) error {
	if fs.readOnly {
		return errReadOnly
	}
	filename = cleanPath(filename)

	if fs.ws.FS().FileExists(filename) {
		return fs.ws.DeleteFile(filename)
	}
	if fs.ws.FS().DirectoryExists(filename) {
		return fs.ws.FS().DeleteDirectory(filename)
	}
	return &os.PathError{Op: "remove", Path: filename, Err: os.ErrNotExist}
}

func (fs *WorkspaceFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// --- billy.TempFile ---

func (fs *WorkspaceFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (fs *WorkspaceFS) ReadDir(path string) ([]os.FileInfo, error) {
	path = cleanPath(path)

	store := fs.ws.FS()
	files, err := store.ListFiles(path)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}
	dirs, _ := store.ListDirectories(path)

	infos := make([]os.FileInfo, 0, len(files)+len(dirs)+1)
	if path == vfs.Root {
		infos = append(infos, &staticFileInfo{
			name:    "_checkpoints.json",
			size:    int64(len(fs.checkpointsJSON())),
			mode:    0o444,
			modTime: fs.mountTime,
		})
	}
	for _, d := range dirs {
		infos = append(infos, &staticFileInfo{
			name:    vfs.BaseName(d),
			mode:    os.ModeDir | 0o755,
			modTime: fs.mountTime,
		})
	}
	for _, f := range files {
		infos = append(infos, fileInfo(f))
	}
	return infos, nil
}

func (fs *WorkspaceFS) MkdirAll(filename string, perm os.FileMode) error {
	if fs.readOnly {
		return errReadOnly
	}
	if err := fs.ws.FS().CreateDirectory(cleanPath(filename)); err != nil {
		return &os.PathError{Op: "mkdir", Path: filename, Err: err}
	}
	return nil
}

// --- billy.Symlink ---

func (fs *WorkspaceFS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)

	if filename == vfs.Root {
		return &staticFileInfo{
			name:    vfs.Root,
			mode:    os.ModeDir | 0o755,
			modTime: fs.mountTime,
		}, nil
	}
	if filename == checkpointsFile {
		return &staticFileInfo{
			name:    "_checkpoints.json",
			size:    int64(len(fs.checkpointsJSON())),
			mode:    0o444,
			modTime: fs.mountTime,
		}, nil
	}

	if f, err := fs.ws.FS().GetFile(filename); err == nil {
		return fileInfo(f), nil
	}
	if fs.ws.FS().DirectoryExists(filename) {
		return &staticFileInfo{
			name:    vfs.BaseName(filename),
			mode:    os.ModeDir | 0o755,
			modTime: fs.mountTime,
		}, nil
	}
	return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
}

func (fs *WorkspaceFS) Symlink(target, link string) error {
	return billy.ErrNotSupported
}

func (fs *WorkspaceFS) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

// --- billy.Chroot ---

func (fs *WorkspaceFS) Chroot(path string) (billy.Filesystem, error) {
	return chroot.New(fs, path), nil
}

func (fs *WorkspaceFS) Root() string {
	return vfs.Root
}

// --- billy.Capable ---

func (fs *WorkspaceFS) Capabilities() billy.Capability {
	caps := billy.ReadCapability | billy.SeekCapability
	if !fs.readOnly {
		caps |= billy.WriteCapability
	}
	return caps
}

// --- internals ---

// cleanPath normalizes a billy path to the store's canonical form.
func cleanPath(path string) string {
	p := vfs.Normalize(path)
	if p == "" {
		return vfs.Root
	}
	return p
}

// fileInfo converts a vfs file record to os.FileInfo.
func fileInfo(f vfs.File) os.FileInfo {
	return &staticFileInfo{
		name:    vfs.BaseName(f.Path),
		size:    int64(f.Size),
		mode:    0o644,
		modTime: f.LastModified,
	}
}

// staticFileInfo implements os.FileInfo with static values.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() interface{}   { return nil }

// Compile-time interface checks.
var (
	_ billy.Filesystem = (*WorkspaceFS)(nil)
	_ billy.Capable    = (*WorkspaceFS)(nil)
)
